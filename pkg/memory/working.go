package memory

import (
	"sync"
	"time"
)

// DefaultWorkingCapacity is the size of the working memory buffer.
const DefaultWorkingCapacity = 10

// Item is something recently seen, held in working memory.
type Item struct {
	At      time.Time `json:"at"`
	Kind    string    `json:"kind"`
	Content string    `json:"content"`
	Ref     string    `json:"ref,omitempty"`
}

// Working is a bounded recency buffer. Pushing onto a full buffer evicts the
// oldest item.
type Working struct {
	mu       sync.Mutex
	items    []Item
	capacity int
}

func NewWorking(capacity int) *Working {
	if capacity < 1 {
		capacity = DefaultWorkingCapacity
	}

	return &Working{capacity: capacity}
}

func (working *Working) Push(item Item) {
	working.mu.Lock()
	defer working.mu.Unlock()

	working.items = append(working.items, item)

	if over := len(working.items) - working.capacity; over > 0 {
		working.items = append([]Item(nil), working.items[over:]...)
	}
}

// Items returns the buffer contents, newest first.
func (working *Working) Items() []Item {
	working.mu.Lock()
	defer working.mu.Unlock()

	out := make([]Item, 0, len(working.items))
	for i := len(working.items) - 1; i >= 0; i-- {
		out = append(out, working.items[i])
	}

	return out
}

func (working *Working) Len() int {
	working.mu.Lock()
	defer working.mu.Unlock()

	return len(working.items)
}

func (working *Working) Capacity() int {
	return working.capacity
}

func (working *Working) Clear() {
	working.mu.Lock()
	defer working.mu.Unlock()

	working.items = nil
}
