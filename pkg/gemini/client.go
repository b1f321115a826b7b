package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/guruvani-ai/guruvani/pkg/audio/pcm"
	"github.com/guruvani-ai/guruvani/pkg/core/live"
)

// DefaultEndpoint is the Gemini Live bidirectional streaming endpoint.
const DefaultEndpoint = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

const defaultHandshakeTimeout = 20 * time.Second

// ClientOptions configure the connection to the Gemini Live API.
type ClientOptions struct {
	// APIKey authenticates the connection. Required.
	APIKey string

	// Endpoint overrides the WebSocket URL, mainly for tests.
	Endpoint string

	// HandshakeTimeout bounds the WebSocket handshake.
	HandshakeTimeout time.Duration
}

// Connector adapts this client to the session's connector contract.
func Connector(opts ClientOptions) live.Connector {
	return func(ctx context.Context, copts live.ConnectOptions) (live.Transport, error) {
		return Connect(ctx, opts, copts)
	}
}

// Client is a live.Transport over one Gemini Live WebSocket connection.
type Client struct {
	conn   *websocket.Conn
	copts  live.ConnectOptions
	events chan live.Event

	wmu       sync.Mutex
	closeCh   chan struct{}
	closeOnce sync.Once
}

// Connect dials the endpoint, sends the setup message and starts the
// background reader. The returned transport emits an OpenedEvent once the
// server acknowledges setup.
func Connect(ctx context.Context, opts ClientOptions, copts live.ConnectOptions) (*Client, error) {
	if opts.APIKey == "" {
		return nil, &live.ConnectError{Err: fmt.Errorf("gemini: api key is required")}
	}
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	timeout := opts.HandshakeTimeout
	if timeout <= 0 {
		timeout = defaultHandshakeTimeout
	}

	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	conn, _, err := dialer.DialContext(ctx, endpoint+"?key="+opts.APIKey, nil)
	if err != nil {
		return nil, &live.ConnectError{Err: fmt.Errorf("gemini: dial: %w", err)}
	}

	c := &Client{
		conn:    conn,
		copts:   copts,
		events:  make(chan live.Event, 64),
		closeCh: make(chan struct{}),
	}

	if err := c.writeJSON(clientMessage{Setup: c.setupPayload()}); err != nil {
		conn.Close()
		return nil, &live.ConnectError{Err: fmt.Errorf("gemini: send setup: %w", err)}
	}

	go c.readLoop()
	return c, nil
}

func (c *Client) setupPayload() *setupPayload {
	model := c.copts.Model
	if !strings.HasPrefix(model, "models/") {
		model = "models/" + model
	}
	setup := &setupPayload{
		Model: model,
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &speechConfig{
				VoiceConfig: &voiceConfig{
					PrebuiltVoiceConfig: &prebuiltVoiceConfig{VoiceName: c.copts.Voice},
				},
			},
		},
		InputAudioTranscription:  &transcriptionOpts{},
		OutputAudioTranscription: &transcriptionOpts{},
	}
	if c.copts.SystemInstruction != "" {
		setup.SystemInstruction = &content{
			Parts: []part{{Text: c.copts.SystemInstruction}},
		}
	}
	return setup
}

// SendAudio transmits one block of PCM16-LE audio as realtime input.
func (c *Client) SendAudio(data []byte) error {
	return c.writeJSON(clientMessage{
		RealtimeInput: &realtimeInputPayload{
			Audio: &inlineBlob{
				MimeType: fmt.Sprintf("audio/pcm;rate=%d", c.copts.InputSampleRate),
				Data:     base64.StdEncoding.EncodeToString(data),
			},
		},
	})
}

// SendText transmits text as a single complete user turn.
func (c *Client) SendText(text string) error {
	return c.writeJSON(clientMessage{
		ClientContent: &clientContentPayload{
			Turns: []content{{
				Role:  "user",
				Parts: []part{{Text: text}},
			}},
			TurnComplete: true,
		},
	})
}

// Events returns the inbound event stream. The channel is closed after the
// terminal ClosedEvent.
func (c *Client) Events() <-chan live.Event { return c.events }

// Close tears down the connection. Safe to call more than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeCh)
		deadline := time.Now().Add(time.Second)
		c.wmu.Lock()
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		c.wmu.Unlock()
		err = c.conn.Close()
	})
	return err
}

func (c *Client) writeJSON(msg clientMessage) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.conn.WriteJSON(msg)
}

// readLoop translates inbound frames into live events until the stream
// terminates.
func (c *Client) readLoop() {
	defer close(c.events)

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.closeCh:
				// Locally closed; the session already moved on.
			default:
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					c.emit(&live.ClosedEvent{})
				} else {
					c.emit(&live.ClosedEvent{Err: fmt.Errorf("gemini: read: %w", err)})
				}
			}
			return
		}

		var msg serverMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			slog.Warn("gemini: skipping malformed frame", "error", err)
			continue
		}
		c.handleMessage(&msg)
	}
}

func (c *Client) handleMessage(msg *serverMessage) {
	if msg.SetupComplete != nil {
		slog.Debug("gemini: setup complete")
		c.emit(&live.OpenedEvent{})
		return
	}

	sc := msg.ServerContent
	if sc == nil {
		return
	}

	if sc.InputTranscription != nil && sc.InputTranscription.Text != "" {
		c.emit(&live.InputTranscriptionEvent{Text: sc.InputTranscription.Text})
	}
	if sc.OutputTranscription != nil && sc.OutputTranscription.Text != "" {
		c.emit(&live.OutputTranscriptionEvent{Text: sc.OutputTranscription.Text})
	}

	if sc.ModelTurn != nil {
		for _, p := range sc.ModelTurn.Parts {
			if p.InlineData == nil || p.InlineData.Data == "" {
				continue
			}
			data, err := pcm.DecodeBase64(p.InlineData.Data)
			if err != nil {
				slog.Warn("gemini: skipping undecodable audio part", "error", err)
				continue
			}
			c.emit(&live.AudioEvent{Data: data})
		}
	}

	if sc.Interrupted {
		c.emit(&live.InterruptedEvent{})
	}
	if sc.TurnComplete {
		c.emit(&live.TurnCompleteEvent{})
	}
}

// emit delivers an event unless the client was closed locally.
func (c *Client) emit(ev live.Event) {
	select {
	case <-c.closeCh:
	case c.events <- ev:
	}
}

var _ live.Transport = (*Client)(nil)
