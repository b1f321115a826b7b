// Package device binds the session engine to real audio hardware: a
// malgo capture device feeding microphone blocks to the capture pump, and
// an oto playback device rendering scheduled model speech.
//
// The package is deliberately thin. Gain, mute and scheduling decisions
// all live in pkg/core/live; device only moves samples.
package device
