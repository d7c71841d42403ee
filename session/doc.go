// Package session runs the per-connection state machine:
//
//	AWAIT_NAME -> ACTIVE -> TERMINATED
//
// A Handler serves one connection at a time on the calling goroutine, reading
// a line, acting on it through the hub, replying, and reading the next. Many
// connections are served concurrently by calling Serve from many goroutines.
package session
