package device

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/gen2brain/malgo"
)

// micPeriodMs is the capture block length. 20 ms at 16 kHz keeps blocks
// small enough for responsive interruption detection.
const micPeriodMs = 20

// Mic captures mono float32 blocks from the default input device.
type Mic struct {
	ctx        *Context
	sampleRate int

	mu     sync.Mutex
	device *malgo.Device
}

// NewMic prepares a capture device on ctx at the given sample rate. The
// device does not run until Start.
func NewMic(ctx *Context, sampleRate int) *Mic {
	return &Mic{ctx: ctx, sampleRate: sampleRate}
}

// Start opens the capture device and delivers each period to onBlock on
// the audio thread. onBlock must not block.
func (m *Mic) Start(onBlock func([]float32)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.device != nil {
		return fmt.Errorf("device: microphone already started")
	}

	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.Capture.Format = malgo.FormatF32
	cfg.Capture.Channels = 1
	cfg.SampleRate = uint32(m.sampleRate)
	cfg.PeriodSizeInMilliseconds = micPeriodMs

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			onBlock(decodeF32(input))
		},
	}

	device, err := malgo.InitDevice(m.ctx.ctx.Context, cfg, callbacks)
	if err != nil {
		return fmt.Errorf("device: init microphone: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("device: start microphone: %w", err)
	}
	m.device = device
	return nil
}

// Stop halts capture and releases the device. Safe to call when not
// started.
func (m *Mic) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.device == nil {
		return nil
	}
	if err := m.device.Stop(); err != nil {
		return fmt.Errorf("device: stop microphone: %w", err)
	}
	m.device.Uninit()
	m.device = nil
	return nil
}

// decodeF32 converts a little-endian float32 byte stream into samples.
func decodeF32(data []byte) []float32 {
	samples := make([]float32, len(data)/4)
	for i := range samples {
		bits := binary.LittleEndian.Uint32(data[i*4:])
		samples[i] = math.Float32frombits(bits)
	}
	return samples
}
