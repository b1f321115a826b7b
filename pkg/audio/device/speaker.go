package device

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Speaker renders 16-bit mono PCM through the default output device. It
// keeps an internal byte FIFO that the oto player drains; Play appends to
// the FIFO and Discard empties it.
type Speaker struct {
	otoCtx *oto.Context

	mu     sync.Mutex
	cond   *sync.Cond
	buf    []byte
	player *oto.Player
	closed bool
}

// NewSpeaker initializes the output device at the given sample rate and
// blocks until the backend is ready.
func NewSpeaker(sampleRate int) (*Speaker, error) {
	otoCtx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
		// Small buffer keeps interruption latency low at the cost of
		// glitch headroom.
		BufferSize: 100 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("device: init speaker: %w", err)
	}
	<-ready

	s := &Speaker{otoCtx: otoCtx}
	s.cond = sync.NewCond(&s.mu)
	return s, nil
}

// Play appends one PCM16-LE unit to the FIFO, starting the player on
// first use.
func (s *Speaker) Play(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.buf = append(s.buf, data...)
	if s.player == nil {
		s.player = s.otoCtx.NewPlayer(s)
		s.player.Play()
	}
	s.cond.Signal()
}

// Discard drops all buffered audio and tears the player down so stale
// samples inside the backend cannot bleed into the next utterance.
func (s *Speaker) Discard() {
	s.mu.Lock()
	s.buf = s.buf[:0]
	player := s.player
	s.player = nil
	s.cond.Broadcast()
	s.mu.Unlock()

	if player != nil {
		player.Pause()
		player.Close()
	}
}

// Read feeds the oto player from the FIFO. Called from oto's render
// goroutine.
func (s *Speaker) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.buf) == 0 && !s.closed && s.player != nil {
		s.cond.Wait()
	}

	if len(s.buf) == 0 {
		// Drained, closing or discarded: render silence so oto keeps a
		// steady cadence.
		clear(p)
		return len(p), nil
	}

	n := copy(p, s.buf)
	s.buf = s.buf[n:]
	return n, nil
}

// Close stops playback and releases the player. The backend context has
// no teardown in oto.
func (s *Speaker) Close() {
	s.mu.Lock()
	s.closed = true
	player := s.player
	s.player = nil
	s.cond.Broadcast()
	s.mu.Unlock()

	if player != nil {
		player.Close()
	}
}
