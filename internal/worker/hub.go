package worker

import (
	"sync"
	"time"

	"github.com/pokebattlelogger/dashboard-api/internal/models"
)

const (
	subscriberBuffer = 16
	// finished topics stay readable for late subscribers this long
	finishedRetention = 10 * time.Minute
)

// Hub fans extraction progress out to subscribers, one topic per video.
// Progress messages carry the whole log so far, so a slow subscriber may
// skip intermediate events without losing lines.
type Hub struct {
	mu     sync.Mutex
	topics map[string]*topic
	now    func() time.Time
}

type topic struct {
	last     *models.ExtractProgress
	err      error
	done     bool
	finished time.Time
	subs     map[int]chan models.ExtractProgress
	nextID   int
}

func NewHub() *Hub {
	return &Hub{
		topics: make(map[string]*topic),
		now:    time.Now,
	}
}

// Open starts a fresh topic for videoID, replacing a finished one. It
// reports false when a live topic already exists.
func (h *Hub) Open(videoID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.prune()
	if t, ok := h.topics[videoID]; ok && !t.done {
		return false
	}
	h.topics[videoID] = &topic{subs: make(map[int]chan models.ExtractProgress)}
	return true
}

// Drop forgets videoID, closing any subscriber channels.
func (h *Hub) Drop(videoID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	t, ok := h.topics[videoID]
	if !ok {
		return
	}
	for id, ch := range t.subs {
		close(ch)
		delete(t.subs, id)
	}
	delete(h.topics, videoID)
}

// Publish records ev as the latest event and forwards it to subscribers.
func (h *Hub) Publish(videoID string, ev models.ExtractProgress) {
	h.mu.Lock()
	defer h.mu.Unlock()
	t, ok := h.topics[videoID]
	if !ok {
		t = &topic{subs: make(map[int]chan models.ExtractProgress)}
		h.topics[videoID] = t
	}
	if t.done {
		return
	}
	t.last = &ev
	for _, ch := range t.subs {
		offer(ch, ev)
	}
}

// Finish closes every subscriber channel of videoID. err is kept for Last.
func (h *Hub) Finish(videoID string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	t, ok := h.topics[videoID]
	if !ok || t.done {
		return
	}
	t.done = true
	t.err = err
	t.finished = h.now()
	for id, ch := range t.subs {
		close(ch)
		delete(t.subs, id)
	}
}

// Subscribe returns a channel of progress events for videoID. The latest
// event, if any, is delivered first. The channel is closed when the
// extraction finishes. ok is false when nothing is known about the video.
func (h *Hub) Subscribe(videoID string) (<-chan models.ExtractProgress, func(), bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	t, ok := h.topics[videoID]
	if !ok {
		return nil, func() {}, false
	}

	ch := make(chan models.ExtractProgress, subscriberBuffer)
	if t.last != nil {
		ch <- *t.last
	}
	if t.done {
		close(ch)
		return ch, func() {}, true
	}

	id := t.nextID
	t.nextID++
	t.subs[id] = ch

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if c, ok := t.subs[id]; ok {
				delete(t.subs, id)
				close(c)
			}
		})
	}
	return ch, unsubscribe, true
}

// Snapshot is the state of one video's extraction.
type Snapshot struct {
	Last models.ExtractProgress
	Done bool
	Err  error
}

// Last returns the current snapshot for videoID. ok is false when nothing
// is known about the video.
func (h *Hub) Last(videoID string) (Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	t, found := h.topics[videoID]
	if !found {
		return Snapshot{}, false
	}
	snap := Snapshot{Done: t.done, Err: t.err}
	if t.last != nil {
		snap.Last = *t.last
	}
	return snap, true
}

// offer sends without blocking. A full buffer drops its oldest event.
func offer(ch chan models.ExtractProgress, ev models.ExtractProgress) {
	for {
		select {
		case ch <- ev:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func (h *Hub) prune() {
	cutoff := h.now().Add(-finishedRetention)
	for id, t := range h.topics {
		if t.done && t.finished.Before(cutoff) {
			delete(h.topics, id)
		}
	}
}
