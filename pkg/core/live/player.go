package live

import (
	"sync"
	"time"

	"github.com/guruvani-ai/guruvani/pkg/audio/pcm"
)

// Clock abstracts time for the Player so scheduling is testable.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a stoppable pending callback.
type Timer interface {
	Stop() bool
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Sink receives scheduled audio. The production sink is the speaker device;
// it plays appended bytes back-to-back in arrival order.
type Sink interface {
	// Play appends PCM16-LE bytes for immediate playback.
	Play(data []byte)

	// Discard drops any appended bytes that have not played yet.
	Discard()
}

// Player schedules inbound audio buffers so they play strictly
// sequentially with no overlap and no scheduling gap: each unit starts at
// max(cursor, now) and advances the cursor by its own duration.
//
// Flush stops everything, resets the cursor to now and bumps the epoch;
// a unit whose decode was already in flight when the flush happened carries
// the old epoch and is dropped on arrival.
type Player struct {
	clock Clock
	sink  Sink

	mu        sync.Mutex
	nextStart time.Time
	active    map[*playbackUnit]struct{}
	epoch     uint64

	// OnPlayingChanged, when set before use, is invoked outside the lock
	// whenever Playing flips.
	OnPlayingChanged func(bool)
}

type playbackUnit struct {
	start Timer
	end   Timer
}

// NewPlayer creates a Player that renders into sink using the wall clock.
func NewPlayer(sink Sink) *Player {
	return newPlayerWithClock(sink, realClock{})
}

func newPlayerWithClock(sink Sink, clock Clock) *Player {
	return &Player{
		clock:  clock,
		sink:   sink,
		active: make(map[*playbackUnit]struct{}),
	}
}

// Epoch returns the current flush epoch. Capture it before starting decode
// work whose result will be enqueued later.
func (p *Player) Epoch() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.epoch
}

// Enqueue schedules buf to play immediately after everything already
// enqueued.
func (p *Player) Enqueue(buf *pcm.Buffer) {
	p.EnqueueAt(p.Epoch(), buf)
}

// EnqueueAt schedules buf if epoch is still current. A stale epoch means a
// flush happened while the unit was being decoded; the unit is dropped and
// false is returned.
func (p *Player) EnqueueAt(epoch uint64, buf *pcm.Buffer) bool {
	if buf == nil || len(buf.Samples) == 0 {
		return false
	}

	data := buf.Bytes()
	dur := buf.Duration()

	p.mu.Lock()
	if epoch != p.epoch {
		p.mu.Unlock()
		return false
	}

	now := p.clock.Now()
	if p.nextStart.Before(now) {
		p.nextStart = now
	}
	start := p.nextStart
	p.nextStart = start.Add(dur)

	wasPlaying := len(p.active) > 0
	u := &playbackUnit{}
	p.active[u] = struct{}{}

	u.start = p.clock.AfterFunc(start.Sub(now), func() {
		p.mu.Lock()
		_, ok := p.active[u]
		p.mu.Unlock()
		if ok {
			p.sink.Play(data)
		}
	})
	u.end = p.clock.AfterFunc(start.Add(dur).Sub(now), func() {
		p.complete(u)
	})
	p.mu.Unlock()

	if !wasPlaying {
		p.notifyPlaying(true)
	}
	return true
}

// complete removes a unit after its playback window has elapsed.
func (p *Player) complete(u *playbackUnit) {
	p.mu.Lock()
	if _, ok := p.active[u]; !ok {
		p.mu.Unlock()
		return
	}
	delete(p.active, u)
	idle := len(p.active) == 0
	p.mu.Unlock()

	if idle {
		p.notifyPlaying(false)
	}
}

// Flush forcibly stops every active unit, discards unplayed sink audio and
// resets the cursor to now. Used on interruption and session teardown.
func (p *Player) Flush() {
	p.mu.Lock()
	wasPlaying := len(p.active) > 0
	for u := range p.active {
		if u.start != nil {
			u.start.Stop()
		}
		if u.end != nil {
			u.end.Stop()
		}
	}
	p.active = make(map[*playbackUnit]struct{})
	p.epoch++
	p.nextStart = p.clock.Now()
	p.mu.Unlock()

	p.sink.Discard()

	if wasPlaying {
		p.notifyPlaying(false)
	}
}

// Playing reports whether any unit is scheduled or in flight. Accurate
// immediately after every Enqueue and Flush.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.active) > 0
}

func (p *Player) notifyPlaying(playing bool) {
	if p.OnPlayingChanged != nil {
		p.OnPlayingChanged(playing)
	}
}
