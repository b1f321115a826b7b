package live

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/guruvani-ai/guruvani/pkg/audio/pcm"
)

// Session owns the lifecycle of one streaming connection attempt and is
// the only entry point UI collaborators use.
//
// The status machine is connecting -> connected -> {error, disconnected}.
// Connected survives any number of interruption events; error and
// disconnected are terminal for the attempt. There is no automatic retry:
// silent reconnection loops would mask configuration problems such as a
// bad credential, so restarting is always an explicit user action.
type Session struct {
	cfg     Config
	connect Connector
	mic     BlockSource

	transcript *Reconciler
	player     *Player
	pump       *Pump

	mu        sync.RWMutex
	status    Status
	transport Transport

	done    chan struct{}
	endOnce sync.Once

	// onUpdate, when set via SetOnUpdate, is invoked after every status or
	// transcript change.
	onUpdate func()
}

// NewSession wires a session from its collaborators. mic supplies
// microphone blocks once connected; sink renders scheduled playback.
// Start must be called to begin connecting.
func NewSession(cfg Config, connect Connector, mic BlockSource, sink Sink) *Session {
	return &Session{
		cfg:        cfg.withDefaults(),
		connect:    connect,
		mic:        mic,
		transcript: NewReconciler(),
		player:     NewPlayer(sink),
		pump:       NewPump(),
		status:     StatusConnecting,
		done:       make(chan struct{}),
	}
}

// SetOnUpdate registers a hook invoked after every observable change.
// Must be called before Start.
func (s *Session) SetOnUpdate(fn func()) {
	s.onUpdate = fn
	s.transcript.SetOnUpdate(fn)
}

// Start begins connecting and returns immediately. Precondition: the
// session has not been started before; one Session drives exactly one
// attempt.
func (s *Session) Start(ctx context.Context) {
	go s.run(ctx)
}

func (s *Session) run(ctx context.Context) {
	opts := ConnectOptions{
		Model:            s.cfg.Model,
		Voice:            s.cfg.Voice,
		InputSampleRate:  s.cfg.InputSampleRate,
		OutputSampleRate: s.cfg.OutputSampleRate,
	}
	if s.cfg.Instruction != nil {
		opts.SystemInstruction = s.cfg.Instruction(s.cfg.Mode, s.cfg.Study, s.cfg.Language)
	}

	t, err := s.connect(ctx, opts)
	if err != nil {
		slog.Error("live: connection failed", "error", err)
		s.setStatus(StatusError)
		return
	}

	s.mu.Lock()
	select {
	case <-s.done:
		// Ended while connecting.
		s.mu.Unlock()
		t.Close()
		return
	default:
	}
	s.transport = t
	s.mu.Unlock()

	s.dispatch(t)
}

// dispatch consumes transport events until the stream closes. It is the
// single writer for transcript and status state.
func (s *Session) dispatch(t Transport) {
	for {
		select {
		case <-s.done:
			return
		case ev, ok := <-t.Events():
			if !ok {
				return
			}
			s.handleEvent(t, ev)
			if _, closed := ev.(*ClosedEvent); closed {
				return
			}
		}
	}
}

func (s *Session) handleEvent(t Transport, ev Event) {
	switch e := ev.(type) {
	case *OpenedEvent:
		s.setStatus(StatusConnected)
		if s.mic != nil {
			if err := s.pump.Start(s.mic, t); err != nil {
				slog.Error("live: start capture", "error", err)
			}
		}

	case *InputTranscriptionEvent:
		s.transcript.OnInputFragment(e.Text)

	case *OutputTranscriptionEvent:
		s.transcript.OnOutputFragment(e.Text)

	case *AudioEvent:
		epoch := s.player.Epoch()
		buf, err := pcm.DecodeBuffer(e.Data, s.cfg.OutputSampleRate, 1)
		if err != nil {
			// Recoverable: drop the unit, playback continues with the next.
			slog.Warn("live: dropping malformed audio unit", "error", err)
			return
		}
		s.player.EnqueueAt(epoch, buf)

	case *TurnCompleteEvent:
		s.transcript.OnTurnComplete()

	case *InterruptedEvent:
		s.player.Flush()
		s.transcript.OnInterrupted()

	case *ClosedEvent:
		s.pump.Stop()
		s.player.Flush()
		if e.Err != nil {
			slog.Error("live: stream failed", "error", e.Err)
			s.setStatus(StatusError)
		} else {
			s.setStatus(StatusDisconnected)
		}

	default:
		// Unroutable events must never crash the session.
		slog.Warn("live: dropping unhandled event", "type", ev.EventType())
	}
}

// SendText transmits text as a single complete user turn. The session must
// be connected. On a transport send failure the error is returned and a
// visible error entry is appended to the transcript; the session remains
// connected.
func (s *Session) SendText(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	s.mu.RLock()
	status, t := s.status, s.transport
	s.mu.RUnlock()

	if status != StatusConnected || t == nil {
		return &SendError{Err: fmt.Errorf("session is %s", status)}
	}

	s.transcript.Append(SenderUser, text)

	if err := t.SendText(text); err != nil {
		s.transcript.Append(SenderModel, "(Error: live session could not send your message. Please restart.)")
		return &SendError{Err: err}
	}
	return nil
}

// ToggleMute flips the capture pump's software gate and returns the new
// muted state. Pure and synchronous; no transport interaction.
func (s *Session) ToggleMute() bool {
	muted := s.pump.ToggleMuted()
	s.notify()
	return muted
}

// Muted reports the capture gate state.
func (s *Session) Muted() bool { return s.pump.Muted() }

// End closes the transport, stops capture and flushes playback. Safe to
// call from any state, any number of times, including before the
// connection ever opened.
func (s *Session) End() {
	s.endOnce.Do(func() {
		close(s.done)

		s.mu.Lock()
		t := s.transport
		if s.status == StatusConnecting || s.status == StatusConnected {
			s.status = StatusDisconnected
		}
		s.mu.Unlock()

		if t != nil {
			if err := t.Close(); err != nil {
				slog.Debug("live: close transport", "error", err)
			}
		}
		s.pump.Stop()
		s.player.Flush()
		s.notify()
	})
}

// Status returns the current connection status.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Messages returns a snapshot of the transcript in arrival order.
func (s *Session) Messages() []Message {
	return s.transcript.Messages()
}

// Playing reports whether model audio is scheduled or in flight.
func (s *Session) Playing() bool { return s.player.Playing() }

// InputLevel returns the RMS energy of the most recent microphone block.
func (s *Session) InputLevel() float64 { return s.pump.Level() }

func (s *Session) setStatus(status Status) {
	s.mu.Lock()
	old := s.status
	if old == StatusError || old == StatusDisconnected {
		// Terminal states stick for the lifetime of the attempt.
		s.mu.Unlock()
		return
	}
	s.status = status
	s.mu.Unlock()

	if old != status {
		slog.Debug("live: status", "from", old.String(), "to", status.String())
		s.notify()
	}
}

func (s *Session) notify() {
	if s.onUpdate != nil {
		s.onUpdate()
	}
}
