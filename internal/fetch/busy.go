package fetch

import (
	"errors"
	"sync"
)

// ErrBusy is returned when the same action is already running.
var ErrBusy = errors.New("already in progress")

// Busy suppresses repeated actions while one with the same key runs.
type Busy struct {
	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewBusy() *Busy {
	return &Busy{inflight: make(map[string]struct{})}
}

// Acquire marks key busy. It returns ErrBusy if the key is already held;
// otherwise the caller must call release when done.
func (b *Busy) Acquire(key string) (release func(), err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, held := b.inflight[key]; held {
		return nil, ErrBusy
	}
	b.inflight[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.inflight, key)
			b.mu.Unlock()
		})
	}, nil
}
