// Package anim animates packets across a laid-out topology.
//
// A [Session] holds the static topology currently on screen, the set of live
// packets, and a virtual timeline of deferred leg starts. A dispatcher feeds
// it one [Request] per executed command; the host calls [Session.Tick] once
// per display frame and draws the returned [Frame].
//
// # Timing
//
// Each command type expands into legs, one packet per leg, with start offsets
// in milliseconds:
//
//	lookup        default pc→router1→isp→dns at 0, reverse at 1000
//	reachability  route graph at 0, reverse at hops*300 (>5 hops) or hops*400
//	              without a route: pc→…→server at 0, reverse at 1500
//	route-trace   prefix 0..i+1 at i*delay, reverse at i*delay+250
//	local-config  pc→router1 at 0, reverse at 500
//
// Offsets are wall-clock time; packet motion is frame-paced. Every frame a
// packet advances by [BaseStep] times its speed along the current segment of
// its route, so the real duration of a leg depends on the frame rate.
//
// # Threading
//
// A Session is not safe for concurrent use. [Loop] owns a session on a single
// goroutine, ticks it from a ticker, and serialises commands through a
// channel.
//
// # Pending legs
//
// With the default [KeepPending] policy, clearing packets or issuing a new
// request leaves earlier deferred legs scheduled, so their packets still
// appear later. [CancelPending] cancels them instead.
package anim
