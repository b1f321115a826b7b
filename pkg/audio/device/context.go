package device

import (
	"fmt"

	"github.com/gen2brain/malgo"
)

// Context owns the malgo backend context. One Context serves all capture
// devices of a process; Close releases the backend.
type Context struct {
	ctx *malgo.AllocatedContext
}

// NewContext initializes the audio backend with realtime thread priority.
func NewContext() (*Context, error) {
	cfg := malgo.ContextConfig{}
	cfg.ThreadPriority = malgo.ThreadPriorityRealtime

	ctx, err := malgo.InitContext(nil, cfg, nil)
	if err != nil {
		return nil, fmt.Errorf("device: init audio context: %w", err)
	}
	return &Context{ctx: ctx}, nil
}

// Close releases the backend context. Devices must be stopped first.
func (c *Context) Close() error {
	if err := c.ctx.Uninit(); err != nil {
		return fmt.Errorf("device: uninit audio context: %w", err)
	}
	c.ctx.Free()
	return nil
}
