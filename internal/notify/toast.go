// Package notify buffers user-facing toast notifications so handlers
// can return them alongside the operation result.
package notify

import (
	"sync"
	"time"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Toast is one queued notification.
type Toast struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Buffer collects toasts until the next response drains them. Safe for
// concurrent use; capacity-bounded so an abandoned session cannot grow
// without limit.
type Buffer struct {
	mu     sync.Mutex
	toasts []Toast
	cap    int
}

const defaultCap = 20

func NewBuffer() *Buffer {
	return &Buffer{cap: defaultCap}
}

func (b *Buffer) Success(message string) { b.push(LevelSuccess, message) }

func (b *Buffer) Error(message string) { b.push(LevelError, message) }

func (b *Buffer) push(level Level, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.toasts = append(b.toasts, Toast{Level: level, Message: message, At: time.Now()})
	if len(b.toasts) > b.cap {
		b.toasts = b.toasts[len(b.toasts)-b.cap:]
	}
}

// Drain returns the queued toasts and empties the buffer.
func (b *Buffer) Drain() []Toast {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.toasts
	b.toasts = nil
	return out
}
