package live

// Event is the interface for all inbound transport events.
type Event interface {
	// EventType returns the event type string for logging.
	EventType() string
}

// OpenedEvent is emitted once the remote endpoint confirms the stream is
// open and configured.
type OpenedEvent struct{}

func (e *OpenedEvent) EventType() string { return "opened" }

// InputTranscriptionEvent carries an incremental fragment of the user's
// speech transcript for the current turn.
type InputTranscriptionEvent struct {
	Text string
}

func (e *InputTranscriptionEvent) EventType() string { return "transcription.input" }

// OutputTranscriptionEvent carries an incremental fragment of the model's
// speech transcript for the current turn.
type OutputTranscriptionEvent struct {
	Text string
}

func (e *OutputTranscriptionEvent) EventType() string { return "transcription.output" }

// AudioEvent carries one inbound unit of model audio as raw PCM16-LE bytes.
type AudioEvent struct {
	Data []byte
}

func (e *AudioEvent) EventType() string { return "audio" }

// TurnCompleteEvent signals that the model finished its turn.
type TurnCompleteEvent struct{}

func (e *TurnCompleteEvent) EventType() string { return "turn.complete" }

// InterruptedEvent signals that the model's in-progress utterance was cut
// off before completion.
type InterruptedEvent struct{}

func (e *InterruptedEvent) EventType() string { return "interrupted" }

// ClosedEvent is the final event on the stream. Err is nil for a clean
// remote close and non-nil for a transport fault.
type ClosedEvent struct {
	Err error
}

func (e *ClosedEvent) EventType() string { return "closed" }
