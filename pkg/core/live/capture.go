package live

import (
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/guruvani-ai/guruvani/pkg/audio/pcm"
)

// BlockSource delivers fixed-size blocks of float samples in [-1, 1) at the
// cadence of the underlying audio source.
type BlockSource interface {
	// Start begins block delivery. onBlock may be invoked from a device
	// thread and must not be called after Stop returns.
	Start(onBlock func(samples []float32)) error

	// Stop releases the source and detaches the callback. Idempotent.
	Stop() error
}

// AudioSender is the transport primitive the pump feeds.
type AudioSender interface {
	SendAudio(data []byte) error
}

// Pump forwards encoded microphone blocks to the active connection.
//
// Mute is a software gate: blocks are discarded while muted but the
// underlying device keeps running, so unmuting has no renegotiation
// latency. Send failures are swallowed; audio lost during the brief
// connect window has no value once the moment has passed.
type Pump struct {
	muted atomic.Bool
	level atomic.Uint64 // math.Float64bits of the last forwarded block's RMS

	mu      sync.Mutex
	src     BlockSource
	started bool
}

// NewPump creates a stopped, unmuted pump.
func NewPump() *Pump {
	return &Pump{}
}

// Start begins pulling blocks from src and forwarding them to send.
// Calling Start on a started pump is a no-op.
func (p *Pump) Start(src BlockSource, send AudioSender) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return nil
	}

	if err := src.Start(func(samples []float32) {
		p.forward(samples, send)
	}); err != nil {
		return err
	}

	p.src = src
	p.started = true
	return nil
}

func (p *Pump) forward(samples []float32, send AudioSender) {
	if p.muted.Load() {
		p.level.Store(0)
		return
	}

	data := pcm.Encode(samples)
	p.level.Store(math.Float64bits(pcm.RMSEnergy(data)))

	if err := send.SendAudio(data); err != nil {
		// Best-effort: stale audio is worthless, so failed blocks are
		// dropped rather than retried.
		slog.Debug("capture: dropping audio block", "error", err)
	}
}

// Stop releases the source. Idempotent and safe before Start.
func (p *Pump) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return
	}
	if err := p.src.Stop(); err != nil {
		slog.Debug("capture: stop source", "error", err)
	}
	p.src = nil
	p.started = false
	p.level.Store(0)
}

// SetMuted sets the software mute gate.
func (p *Pump) SetMuted(muted bool) {
	p.muted.Store(muted)
	if muted {
		p.level.Store(0)
	}
}

// ToggleMuted flips the gate and returns the new value.
func (p *Pump) ToggleMuted() bool {
	for {
		old := p.muted.Load()
		if p.muted.CompareAndSwap(old, !old) {
			if !old {
				p.level.Store(0)
			}
			return !old
		}
	}
}

// Muted reports the gate state.
func (p *Pump) Muted() bool {
	return p.muted.Load()
}

// Level returns the RMS energy of the most recently forwarded block,
// 0 when muted or stopped. Drives the listening indicator.
func (p *Pump) Level() float64 {
	return math.Float64frombits(p.level.Load())
}
