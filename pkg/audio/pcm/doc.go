// Package pcm converts between floating-point audio samples and the 16-bit
// signed little-endian wire representation used by the live stream, and
// provides simple level meters over raw PCM bytes.
//
// Outbound microphone audio is float32 in [-1, 1) and is quantized with
// Encode before transmission. Inbound model audio arrives as base64-encoded
// PCM16-LE and is turned back into a playable Buffer with DecodeBase64 and
// DecodeBuffer.
package pcm
