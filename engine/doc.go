// SPDX-License-Identifier: EPL-2.0

// Package engine drives decoded audio to an output device.
//
// One Engine is one playback session. Control operations (Load, Play,
// Pause, Stop, Seek, QueueNext) are serialized through a single worker
// goroutine that owns all file I/O and decoding; scalar queries
// (Position, State, Volume) read atomics and are safe from any
// goroutine at any time.
//
// Audio flows through exactly one shared structure: the lock-free ring
// buffer between the decode worker (producer) and the device read path
// (consumer). The device pulls interleaved float32 LE bytes through an
// io.Reader on its own schedule; that path never locks, never
// allocates after warm-up, and absorbs buffer shortfalls as silence so
// the hardware cadence is never disturbed.
//
// Position is derived from frames actually delivered to the device,
// not from decode progress, so a freshly filled two-second buffer does
// not make the position jump ahead of what is audible.
//
// Sources queued with QueueNext play back to back. When the next
// source shares the current stream format it is pre-decoded into the
// same ring and the transition is gapless; a format change drains the
// ring first and reconfigures the device.
//
// Events (state changes, position ticks, track endings, errors) are
// delivered on a dedicated dispatch goroutine, never from the device
// callback. Each carries the ID of the load it belongs to.
package engine
