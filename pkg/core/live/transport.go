package live

import (
	"context"
	"fmt"
)

// ConnectOptions describe the stream a Connector must establish.
// Transcription is always enabled for both directions.
type ConnectOptions struct {
	Model             string
	Voice             string
	SystemInstruction string
	InputSampleRate   int
	OutputSampleRate  int
}

// Transport is the stable contract a wire client exposes to the session.
// A transport that cannot provide working send primitives must fail at
// connect time; the session never probes transport internals.
type Transport interface {
	// SendAudio transmits one block of PCM16-LE audio as realtime input.
	SendAudio(data []byte) error

	// SendText transmits text as a single complete user turn.
	SendText(text string) error

	// Events returns the inbound event stream. The channel is closed after
	// a ClosedEvent has been delivered.
	Events() <-chan Event

	// Close tears down the connection. Safe to call more than once.
	Close() error
}

// Connector establishes a Transport for one session attempt.
type Connector func(ctx context.Context, opts ConnectOptions) (Transport, error)

// ConnectError is a fatal connection failure; the attempt transitions to
// StatusError and is not retried.
type ConnectError struct {
	Err error
}

func (e *ConnectError) Error() string { return fmt.Sprintf("live: connect: %v", e.Err) }

func (e *ConnectError) Unwrap() error { return e.Err }

// SendError is a recoverable transmission failure for a text turn. The
// session remains connected; the failure is surfaced to the caller.
type SendError struct {
	Err error
}

func (e *SendError) Error() string { return fmt.Sprintf("live: send: %v", e.Err) }

func (e *SendError) Unwrap() error { return e.Err }
