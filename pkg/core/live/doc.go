// Package live implements the real-time audio/text streaming session engine
// behind a GuruVani conversation.
//
// # Architecture
//
// The package provides five cooperating components:
//
//   - Session: owns the connection lifecycle and drives everything else
//   - Player: schedules inbound audio buffers for gapless, ordered playback
//   - Pump: forwards encoded microphone blocks to the transport
//   - Reconciler: merges streamed transcript fragments into discrete messages
//   - Transport: the stable send/receive contract a wire client must expose
//
// # Data Flow
//
//	Mic → Pump → pcm.Encode → Transport.SendAudio
//	Transport events → Session dispatch → Reconciler (text)
//	                                    → Player (audio)
//	                                    → status (open/close/error)
//
// An interruption event flushes the Player and finalizes all open messages;
// a clean remote close or transport fault ends the attempt. The session
// never reconnects on its own.
//
// # Concurrency
//
// One dispatch goroutine owns all message and status mutation. Device
// callbacks only touch the Pump's atomic mute gate and the transport's
// thread-safe send; the Player guards its cursor with a single mutex so
// timer goroutines and the dispatch loop can both reach it.
package live
