package config

import "time"

// ServerTimeouts holds the HTTP server timeouts. They can be tuned via CLI flags.
type ServerTimeouts struct {
	// Read bounds reading a request including its body. Default: 15s
	Read time.Duration

	// Idle bounds keep-alive connections between requests. Default: 120s
	Idle time.Duration

	// Request bounds a single handler via the chi timeout middleware. Default: 30s
	Request time.Duration
}

// DefaultServerTimeouts returns the default timeout configuration
func DefaultServerTimeouts() ServerTimeouts {
	return ServerTimeouts{
		Read:    15 * time.Second,
		Idle:    120 * time.Second,
		Request: 30 * time.Second,
	}
}

// WithDefaults fills zero values from DefaultServerTimeouts.
func (t ServerTimeouts) WithDefaults() ServerTimeouts {
	d := DefaultServerTimeouts()
	if t.Read <= 0 {
		t.Read = d.Read
	}
	if t.Idle <= 0 {
		t.Idle = d.Idle
	}
	if t.Request <= 0 {
		t.Request = d.Request
	}
	return t
}
