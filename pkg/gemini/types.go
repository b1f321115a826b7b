package gemini

// Wire types for the BidiGenerateContent WebSocket protocol. Only the
// fields this client uses are modeled; unknown fields in inbound frames
// are ignored by encoding/json.

type clientMessage struct {
	Setup         *setupPayload         `json:"setup,omitempty"`
	RealtimeInput *realtimeInputPayload `json:"realtimeInput,omitempty"`
	ClientContent *clientContentPayload `json:"clientContent,omitempty"`
}

type setupPayload struct {
	Model                    string             `json:"model"`
	GenerationConfig         *generationConfig  `json:"generationConfig,omitempty"`
	SystemInstruction        *content           `json:"systemInstruction,omitempty"`
	InputAudioTranscription  *transcriptionOpts `json:"inputAudioTranscription,omitempty"`
	OutputAudioTranscription *transcriptionOpts `json:"outputAudioTranscription,omitempty"`
}

type generationConfig struct {
	ResponseModalities []string      `json:"responseModalities,omitempty"`
	SpeechConfig       *speechConfig `json:"speechConfig,omitempty"`
}

type speechConfig struct {
	VoiceConfig *voiceConfig `json:"voiceConfig,omitempty"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig *prebuiltVoiceConfig `json:"prebuiltVoiceConfig,omitempty"`
}

type prebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

// transcriptionOpts is intentionally empty: presence of the object enables
// transcription for that direction.
type transcriptionOpts struct{}

type realtimeInputPayload struct {
	Audio *inlineBlob `json:"audio,omitempty"`
}

type clientContentPayload struct {
	Turns        []content `json:"turns,omitempty"`
	TurnComplete bool      `json:"turnComplete"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts,omitempty"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineBlob `json:"inlineData,omitempty"`
}

type inlineBlob struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type serverMessage struct {
	SetupComplete *struct{}             `json:"setupComplete,omitempty"`
	ServerContent *serverContentPayload `json:"serverContent,omitempty"`
}

type serverContentPayload struct {
	ModelTurn           *content       `json:"modelTurn,omitempty"`
	InputTranscription  *transcription `json:"inputTranscription,omitempty"`
	OutputTranscription *transcription `json:"outputTranscription,omitempty"`
	TurnComplete        bool           `json:"turnComplete,omitempty"`
	Interrupted         bool           `json:"interrupted,omitempty"`
}

type transcription struct {
	Text string `json:"text"`
}
