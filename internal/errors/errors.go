// Package errors defines the failure taxonomy for discovery operations.
// All of these are expected conditions: command handlers convert them into
// success=false envelopes, never into process failures.
package errors

import "fmt"

// ConnectionError is a transport-level failure to reach a host:port.
type ConnectionError struct {
	Target string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection failed: %s: %v", e.Target, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// DiscoveryError is a reflection handshake or stream failure that happened
// after a transport connection succeeded.
type DiscoveryError struct {
	Err error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovery failed: %v", e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// ReflectionError is a malformed or unexpected reflection response.
type ReflectionError struct {
	Detail string
}

func (e *ReflectionError) Error() string {
	return fmt.Sprintf("reflection failed: %s", e.Detail)
}
