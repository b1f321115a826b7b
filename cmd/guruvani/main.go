// Package main is the GuruVani terminal client: a live voice session with
// a Vedic teaching guru over the Gemini Live API.
//
// Usage:
//
//	go run ./cmd/guruvani -mode gita -study recitation -lang telugu
//
// Environment variables:
//
//	GEMINI_API_KEY   - Required
//	GURUVANI_MODEL   - Override the live model
//	GURUVANI_VOICE   - Override the prebuilt voice
//	GURUVANI_WS_URL  - Override the WebSocket endpoint
//
// Controls:
//
//	<text>   - Send a text message to the guru
//	/mute    - Toggle the microphone gate
//	/quit    - End the session (Ctrl-C works too)
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/guruvani-ai/guruvani/pkg/audio/device"
	"github.com/guruvani-ai/guruvani/pkg/core/live"
	"github.com/guruvani-ai/guruvani/pkg/core/prompt"
	"github.com/guruvani-ai/guruvani/pkg/gemini"
)

func main() {
	mode := flag.String("mode", string(prompt.ModeGeneral), "teaching mode: gita, ramayana, vemana, general")
	study := flag.String("study", string(prompt.StudyExplanation), "study mode: recitation, storytelling, explanation")
	lang := flag.String("lang", string(prompt.LangEnglish), "language: telugu, hindi, english")
	model := flag.String("model", envOr("GURUVANI_MODEL", live.DefaultModel), "live model")
	voice := flag.String("voice", envOr("GURUVANI_VOICE", live.DefaultVoice), "prebuilt voice name")
	debug := flag.Bool("debug", false, "enable debug logging")
	noAudio := flag.Bool("no-audio", false, "run without audio devices, text only")
	flag.Parse()

	_ = godotenv.Load()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "GEMINI_API_KEY required")
		os.Exit(1)
	}

	var (
		mic  live.BlockSource
		sink live.Sink = nopSink{}
	)
	if !*noAudio {
		audioCtx, err := device.NewContext()
		if err != nil {
			fmt.Fprintf(os.Stderr, "audio init failed: %v (try -no-audio)\n", err)
			os.Exit(1)
		}
		defer audioCtx.Close()

		speaker, err := device.NewSpeaker(live.DefaultOutputSampleRate)
		if err != nil {
			fmt.Fprintf(os.Stderr, "speaker init failed: %v (try -no-audio)\n", err)
			os.Exit(1)
		}
		defer speaker.Close()

		mic = device.NewMic(audioCtx, live.DefaultInputSampleRate)
		sink = speaker
	}

	cfg := live.Config{
		Mode:     *mode,
		Study:    *study,
		Language: *lang,
		Model:    *model,
		Voice:    *voice,
		Instruction: func(mode, study, language string) string {
			return prompt.Build(prompt.TeachingMode(mode), prompt.StudyMode(study), prompt.Language(language))
		},
	}
	connect := gemini.Connector(gemini.ClientOptions{
		APIKey:   apiKey,
		Endpoint: os.Getenv("GURUVANI_WS_URL"),
	})

	session := live.NewSession(cfg, connect, mic, sink)
	r := &renderer{session: session, lastStatus: live.StatusConnecting}
	session.SetOnUpdate(r.render)

	fmt.Printf("GuruVani (%s / %s / %s)\n", *mode, *study, *lang)
	fmt.Println("Type a message, /mute to toggle the mic, /quit to leave.")
	fmt.Println("[status] connecting")

	session.Start(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\n[status] ending")
		session.End()
		os.Exit(0)
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		switch {
		case input == "":
			continue
		case input == "/quit" || input == "q":
			session.End()
			return
		case input == "/mute":
			if session.ToggleMute() {
				fmt.Println("[mic] muted")
			} else {
				fmt.Println("[mic] live")
			}
		default:
			if err := session.SendText(input); err != nil {
				fmt.Printf("[error] %v\n", err)
			}
		}
	}
	session.End()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// nopSink swallows playback when running text-only.
type nopSink struct{}

func (nopSink) Play([]byte) {}
func (nopSink) Discard()    {}

// renderer prints status transitions and completed transcript messages.
// Open messages are skipped so fragments do not spam the terminal.
type renderer struct {
	session *live.Session

	mu         sync.Mutex
	lastStatus live.Status
	printed    map[string]bool
}

func (r *renderer) render() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if status := r.session.Status(); status != r.lastStatus {
		r.lastStatus = status
		fmt.Printf("[status] %s\n", status)
	}

	if r.printed == nil {
		r.printed = make(map[string]bool)
	}
	for _, msg := range r.session.Messages() {
		if !msg.Complete || r.printed[msg.ID] {
			continue
		}
		r.printed[msg.ID] = true
		switch msg.Sender {
		case live.SenderUser:
			fmt.Printf("You:  %s\n", strings.TrimSpace(msg.Text))
		case live.SenderModel:
			fmt.Printf("Guru: %s\n", strings.TrimSpace(msg.Text))
		}
	}
}
