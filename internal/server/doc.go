// Package server exposes a simulation session over WebSocket.
//
// Clients connect to /ws, receive a "frame" message with the current world
// and then a frame on every other tick. They send JSON commands such as
//
//	{"type": "spawn", "seq": 1, "x": 120, "y": 80, "element": 1}
//	{"type": "link", "seq": 2, "a": "3fa2...", "b": "9c01..."}
//	{"type": "preset", "seq": 3, "name": "water", "spin": true}
//
// and get a "result" or "error" message carrying the same seq. All commands
// run on the scheduler goroutine between ticks.
//
// GET /frame returns the latest frame as JSON; GET /healthz reports liveness.
package server
