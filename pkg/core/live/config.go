package live

const (
	// DefaultModel is the native-audio live model used by GuruVani.
	DefaultModel = "gemini-2.5-flash-native-audio-preview-09-2025"

	// DefaultVoice is a deep, resonant prebuilt voice suited to the guru
	// persona.
	DefaultVoice = "Charon"

	// DefaultInputSampleRate is the microphone capture rate in Hz.
	DefaultInputSampleRate = 16000

	// DefaultOutputSampleRate is the model audio playback rate in Hz.
	DefaultOutputSampleRate = 24000
)

// Status is the connection state of one session attempt.
// Exactly one value holds at any time.
type Status int

const (
	// StatusConnecting is entered when the session starts.
	StatusConnecting Status = iota
	// StatusConnected is entered once the remote endpoint confirms the
	// stream is open.
	StatusConnected
	// StatusError is entered on an unrecoverable transport fault.
	// Terminal for the attempt; restarting is the caller's decision.
	StatusError
	// StatusDisconnected is entered when the remote endpoint closes the
	// stream cleanly, or when the session is ended locally. Terminal.
	StatusDisconnected
)

// String returns a human-readable status name.
func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusError:
		return "error"
	case StatusDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// InstructionBuilder compiles the session's teaching options into the
// system instruction string. It must be pure; the engine treats the result
// as opaque.
type InstructionBuilder func(mode, study, language string) string

// Config holds all options for one session attempt.
type Config struct {
	// Mode is the teaching context (subject).
	Mode string

	// Study is the delivery style.
	Study string

	// Language is the session locale.
	Language string

	// Instruction builds the system instruction from Mode, Study and
	// Language. Required for a meaningful session; when nil the stream is
	// configured without a system instruction.
	Instruction InstructionBuilder

	// Model is the live model identifier. Default: DefaultModel.
	Model string

	// Voice is the prebuilt voice identifier. Default: DefaultVoice.
	Voice string

	// InputSampleRate is the capture rate in Hz. Default: 16000.
	InputSampleRate int

	// OutputSampleRate is the playback rate in Hz. Default: 24000.
	OutputSampleRate int
}

// withDefaults fills zero-valued fields.
func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Voice == "" {
		c.Voice = DefaultVoice
	}
	if c.InputSampleRate == 0 {
		c.InputSampleRate = DefaultInputSampleRate
	}
	if c.OutputSampleRate == 0 {
		c.OutputSampleRate = DefaultOutputSampleRate
	}
	return c
}
