// Package gemini implements the live.Transport contract over the Gemini
// Live bidirectional WebSocket API (BidiGenerateContent).
//
// A connection attempt dials the endpoint, sends the setup message and
// waits for the server's setupComplete acknowledgement before the stream
// is considered open. After that a single reader goroutine translates
// inbound serverContent frames into live events; writes are serialized
// with a mutex so capture and text turns can send concurrently.
//
// Malformed inbound frames are logged and skipped; they never terminate
// the stream. A read failure or remote close produces a terminal
// ClosedEvent and closes the event channel.
package gemini
