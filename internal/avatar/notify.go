package avatar

import (
	"sync"
	"time"
)

// Toasts holds transient notifications. Each one is removed once, after
// the configured delay.
type Toasts struct {
	after time.Duration

	mu     sync.Mutex
	nextID int
	active map[int]string
	timers map[int]*time.Timer
}

func NewToasts(after time.Duration) *Toasts {
	if after <= 0 {
		after = 3 * time.Second
	}
	return &Toasts{
		after:  after,
		active: map[int]string{},
		timers: map[int]*time.Timer{},
	}
}

func (t *Toasts) Show(msg string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.nextID++
	id := t.nextID
	t.active[id] = msg
	t.timers[id] = time.AfterFunc(t.after, func() { t.remove(id) })
	return id
}

func (t *Toasts) remove(id int) {
	t.mu.Lock()
	delete(t.active, id)
	delete(t.timers, id)
	t.mu.Unlock()
}

// Active lists visible messages, oldest first.
func (t *Toasts) Active() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.active))
	for id := 1; id <= t.nextID; id++ {
		if msg, ok := t.active[id]; ok {
			out = append(out, msg)
		}
	}
	return out
}

// Close stops pending removals.
func (t *Toasts) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, tm := range t.timers {
		tm.Stop()
		delete(t.timers, id)
	}
}
