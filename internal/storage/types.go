package storage

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotInitialized is returned by OpenReader when the notifications table does not exist yet.
	ErrNotInitialized = errors.New("store not initialized")
	ErrInvalidInput   = errors.New("invalid notification input")
	ErrClosed         = errors.New("store closed")
)

const (
	DefaultBusyTimeout = 5 * time.Second
	DefaultListLimit   = 100
)

// Config configures the store.
type Config struct {
	Path string
	// BusyTimeout bounds how long a connection waits for the write lock.
	// 0 means DefaultBusyTimeout.
	BusyTimeout time.Duration
	// ResetOnStart drops and recreates the table in Open ("fresh session").
	// When false Open only creates the table if it is absent.
	ResetOnStart bool
}

// OpError is a recoverable per-call failure (lock timeout, I/O, decode).
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string { return fmt.Sprintf("storage %s: %v", e.Op, e.Err) }

func (e *OpError) Unwrap() error { return e.Err }

func opErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Err: err}
}
