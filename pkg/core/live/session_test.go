package live

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/guruvani-ai/guruvani/pkg/audio/pcm"
)

// fakeTransport is an in-memory Transport driven by the test.
type fakeTransport struct {
	mu      sync.Mutex
	events  chan Event
	texts   []string
	sendErr error
	closes  int
	once    sync.Once
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{events: make(chan Event, 16)}
}

func (f *fakeTransport) SendAudio(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sendErr
}

func (f *fakeTransport) SendText(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeTransport) Events() <-chan Event { return f.events }

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	f.closes++
	f.mu.Unlock()
	f.once.Do(func() { close(f.events) })
	return nil
}

func (f *fakeTransport) emit(ev Event) { f.events <- ev }

func (f *fakeTransport) setSendErr(err error) {
	f.mu.Lock()
	f.sendErr = err
	f.mu.Unlock()
}

func (f *fakeTransport) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closes
}

// waitFor polls cond until it holds or the test deadline expires.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

// newTestSession builds a session against a fake transport, fake devices
// and a fake playback clock.
func newTestSession(t *testing.T, cfg Config) (*Session, *fakeTransport, *fakeSource, *recordingSink, *fakeClock) {
	t.Helper()
	ft := newFakeTransport()
	connect := func(ctx context.Context, opts ConnectOptions) (Transport, error) {
		return ft, nil
	}
	src := &fakeSource{}
	clock := newFakeClock()
	sink := &recordingSink{clock: clock}
	s := NewSession(cfg, connect, src, sink)
	s.player = newPlayerWithClock(sink, clock)
	return s, ft, src, sink, clock
}

func TestSessionConnectFailure(t *testing.T) {
	connect := func(ctx context.Context, opts ConnectOptions) (Transport, error) {
		return nil, &ConnectError{Err: errors.New("handshake rejected")}
	}
	s := NewSession(Config{}, connect, nil, &recordingSink{clock: newFakeClock()})

	s.Start(context.Background())
	waitFor(t, func() bool { return s.Status() == StatusError })
}

func TestSessionAppliesDefaultsAndInstruction(t *testing.T) {
	var (
		mu  sync.Mutex
		got ConnectOptions
	)
	connect := func(ctx context.Context, opts ConnectOptions) (Transport, error) {
		mu.Lock()
		got = opts
		mu.Unlock()
		return nil, errors.New("stop here")
	}
	cfg := Config{
		Mode:  "gita",
		Study: "recitation",
		Instruction: func(mode, study, language string) string {
			return "teach " + mode + "/" + study + "/" + language
		},
	}
	s := NewSession(cfg, connect, nil, &recordingSink{clock: newFakeClock()})

	s.Start(context.Background())
	waitFor(t, func() bool { return s.Status() == StatusError })

	mu.Lock()
	defer mu.Unlock()
	if got.Model != DefaultModel {
		t.Errorf("expected default model, got %q", got.Model)
	}
	if got.Voice != DefaultVoice {
		t.Errorf("expected default voice, got %q", got.Voice)
	}
	if got.InputSampleRate != DefaultInputSampleRate || got.OutputSampleRate != DefaultOutputSampleRate {
		t.Errorf("unexpected sample rates: %d/%d", got.InputSampleRate, got.OutputSampleRate)
	}
	if got.SystemInstruction != "teach gita/recitation/" {
		t.Errorf("unexpected instruction: %q", got.SystemInstruction)
	}
}

func TestSessionLifecycle(t *testing.T) {
	s, ft, src, _, _ := newTestSession(t, Config{})
	s.Start(context.Background())

	if s.Status() != StatusConnecting {
		t.Fatalf("expected connecting, got %s", s.Status())
	}

	ft.emit(&OpenedEvent{})
	waitFor(t, func() bool { return s.Status() == StatusConnected })
	waitFor(t, func() bool {
		src.mu.Lock()
		defer src.mu.Unlock()
		return src.started
	})

	ft.emit(&InputTranscriptionEvent{Text: "na"})
	ft.emit(&InputTranscriptionEvent{Text: "maste"})
	ft.emit(&OutputTranscriptionEvent{Text: "Hello"})
	ft.emit(&TurnCompleteEvent{})
	waitFor(t, func() bool {
		msgs := s.Messages()
		return len(msgs) == 2 && msgs[1].Complete
	})

	msgs := s.Messages()
	if msgs[0].Sender != SenderUser || msgs[0].Text != "namaste" {
		t.Errorf("unexpected user message: %+v", msgs[0])
	}
	if msgs[1].Sender != SenderModel || msgs[1].Text != "Hello" {
		t.Errorf("unexpected model message: %+v", msgs[1])
	}

	ft.emit(&ClosedEvent{})
	waitFor(t, func() bool { return s.Status() == StatusDisconnected })
	waitFor(t, func() bool {
		src.mu.Lock()
		defer src.mu.Unlock()
		return src.stops > 0
	})
}

func TestSessionStreamFailure(t *testing.T) {
	s, ft, _, _, _ := newTestSession(t, Config{})
	s.Start(context.Background())

	ft.emit(&OpenedEvent{})
	waitFor(t, func() bool { return s.Status() == StatusConnected })

	ft.emit(&ClosedEvent{Err: errors.New("stream reset")})
	waitFor(t, func() bool { return s.Status() == StatusError })
}

func TestSessionSendTextNotConnected(t *testing.T) {
	s, _, _, _, _ := newTestSession(t, Config{})

	err := s.SendText("hello")
	var sendErr *SendError
	if !errors.As(err, &sendErr) {
		t.Fatalf("expected SendError, got %v", err)
	}
	if len(s.Messages()) != 0 {
		t.Error("no transcript entry should be made before connecting")
	}
}

func TestSessionSendText(t *testing.T) {
	s, ft, _, _, _ := newTestSession(t, Config{})
	s.Start(context.Background())
	ft.emit(&OpenedEvent{})
	waitFor(t, func() bool { return s.Status() == StatusConnected })

	if err := s.SendText("  what is dharma?  "); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ft.mu.Lock()
	texts := append([]string(nil), ft.texts...)
	ft.mu.Unlock()
	if len(texts) != 1 || texts[0] != "what is dharma?" {
		t.Errorf("unexpected sent texts: %v", texts)
	}

	msgs := s.Messages()
	if len(msgs) != 1 || msgs[0].Sender != SenderUser || !msgs[0].Complete {
		t.Errorf("expected one complete user message, got %+v", msgs)
	}
}

func TestSessionSendTextEmpty(t *testing.T) {
	s, ft, _, _, _ := newTestSession(t, Config{})
	s.Start(context.Background())
	ft.emit(&OpenedEvent{})
	waitFor(t, func() bool { return s.Status() == StatusConnected })

	if err := s.SendText("   "); err != nil {
		t.Fatalf("blank input must be a no-op, got %v", err)
	}
	if len(s.Messages()) != 0 {
		t.Error("blank input must not touch the transcript")
	}
}

func TestSessionSendTextFailure(t *testing.T) {
	s, ft, _, _, _ := newTestSession(t, Config{})
	s.Start(context.Background())
	ft.emit(&OpenedEvent{})
	waitFor(t, func() bool { return s.Status() == StatusConnected })

	ft.setSendErr(errors.New("socket gone"))
	err := s.SendText("hello")
	var sendErr *SendError
	if !errors.As(err, &sendErr) {
		t.Fatalf("expected SendError, got %v", err)
	}

	msgs := s.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected user message plus error entry, got %+v", msgs)
	}
	if msgs[1].Sender != SenderModel || !strings.Contains(msgs[1].Text, "could not send") {
		t.Errorf("unexpected error entry: %+v", msgs[1])
	}
	if s.Status() != StatusConnected {
		t.Errorf("send failure must not change status, got %s", s.Status())
	}
}

func TestSessionDropsMalformedAudio(t *testing.T) {
	s, ft, _, sink, clock := newTestSession(t, Config{})
	s.Start(context.Background())
	ft.emit(&OpenedEvent{})
	waitFor(t, func() bool { return s.Status() == StatusConnected })

	// Odd byte count cannot hold 16-bit frames.
	ft.emit(&AudioEvent{Data: []byte{0x01, 0x02, 0x03}})
	ft.emit(&AudioEvent{Data: monoBuffer(10 * time.Millisecond).Bytes()})
	waitFor(t, s.Playing)

	clock.Advance(time.Second)
	if got := len(sink.playTimes()); got != 1 {
		t.Errorf("expected only the valid unit to play, got %d plays", got)
	}
}

func TestSessionInterruption(t *testing.T) {
	s, ft, _, sink, _ := newTestSession(t, Config{})
	s.Start(context.Background())
	ft.emit(&OpenedEvent{})
	waitFor(t, func() bool { return s.Status() == StatusConnected })

	ft.emit(&OutputTranscriptionEvent{Text: "Once upon"})
	ft.emit(&AudioEvent{Data: monoBuffer(100 * time.Millisecond).Bytes()})
	waitFor(t, s.Playing)

	ft.emit(&InterruptedEvent{})
	waitFor(t, func() bool { return !s.Playing() })

	sink.mu.Lock()
	discards := sink.discards
	sink.mu.Unlock()
	if discards == 0 {
		t.Error("interruption must discard buffered playback")
	}

	msgs := s.Messages()
	if len(msgs) != 1 || !msgs[0].Complete || msgs[0].Text != "Once upon" {
		t.Errorf("expected abandoned utterance closed as-is, got %+v", msgs)
	}
	if s.Status() != StatusConnected {
		t.Errorf("interruption must not change status, got %s", s.Status())
	}
}

func TestSessionToggleMute(t *testing.T) {
	s, _, _, _, _ := newTestSession(t, Config{})

	if s.Muted() {
		t.Fatal("sessions start unmuted")
	}
	if !s.ToggleMute() {
		t.Error("first toggle must mute")
	}
	if s.ToggleMute() {
		t.Error("second toggle must unmute")
	}
}

func TestSessionEndIdempotent(t *testing.T) {
	s, ft, src, _, _ := newTestSession(t, Config{})
	s.Start(context.Background())
	ft.emit(&OpenedEvent{})
	waitFor(t, func() bool { return s.Status() == StatusConnected })

	s.End()
	s.End()

	if s.Status() != StatusDisconnected {
		t.Errorf("expected disconnected, got %s", s.Status())
	}
	if ft.closeCount() != 1 {
		t.Errorf("expected one transport close, got %d", ft.closeCount())
	}
	src.mu.Lock()
	stops := src.stops
	src.mu.Unlock()
	if stops == 0 {
		t.Error("capture must stop on end")
	}
}

func TestSessionEndBeforeStart(t *testing.T) {
	s, _, _, _, _ := newTestSession(t, Config{})

	s.End()
	if s.Status() != StatusDisconnected {
		t.Errorf("expected disconnected, got %s", s.Status())
	}
}

func TestSessionEndWhileConnecting(t *testing.T) {
	ft := newFakeTransport()
	release := make(chan struct{})
	connect := func(ctx context.Context, opts ConnectOptions) (Transport, error) {
		<-release
		return ft, nil
	}
	s := NewSession(Config{}, connect, nil, &recordingSink{clock: newFakeClock()})

	s.Start(context.Background())
	s.End()
	close(release)

	waitFor(t, func() bool { return ft.closeCount() == 1 })
	if s.Status() != StatusDisconnected {
		t.Errorf("expected disconnected, got %s", s.Status())
	}
}

func TestSessionTerminalStatusSticks(t *testing.T) {
	s, ft, _, _, _ := newTestSession(t, Config{})
	s.Start(context.Background())

	ft.emit(&OpenedEvent{})
	ft.emit(&ClosedEvent{Err: errors.New("stream reset")})
	waitFor(t, func() bool { return s.Status() == StatusError })

	s.End()
	if s.Status() != StatusError {
		t.Errorf("error status must stick through End, got %s", s.Status())
	}
}

// decodedAudio sanity: the session decodes model audio at the configured
// output rate.
func TestSessionAudioDecodedAtOutputRate(t *testing.T) {
	data := pcm.Encode([]float32{0.1, 0.2, 0.3, 0.4})
	buf, err := pcm.DecodeBuffer(data, DefaultOutputSampleRate, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Duration(4) * time.Second / DefaultOutputSampleRate
	if buf.Duration() != want {
		t.Errorf("expected duration %v, got %v", want, buf.Duration())
	}
}
