package router

import (
	"sync"

	"github.com/theapemachine/ukg/pkg/types"
)

/*
Record is a processed query kept in the history ring. State is nil for
queries answered at Layer 1 or rejected before simulation.
*/
type Record struct {
	Query  string            `json:"query"`
	Result types.QueryResult `json:"result"`
	State  *types.QueryState `json:"state,omitempty"`
}

type history struct {
	mu      sync.Mutex
	records []Record
	next    int
	full    bool
}

func newHistory(size int) *history {
	return &history{records: make([]Record, size)}
}

func (h *history) add(record Record) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.records[h.next] = record
	h.next = (h.next + 1) % len(h.records)

	if h.next == 0 {
		h.full = true
	}
}

// recent returns up to n records, newest first.
func (h *history) recent(n int) []Record {
	h.mu.Lock()
	defer h.mu.Unlock()

	size := h.next
	if h.full {
		size = len(h.records)
	}

	if n < 1 || n > size {
		n = size
	}

	out := make([]Record, 0, n)

	for i := 1; i <= n; i++ {
		idx := (h.next - i + len(h.records)) % len(h.records)
		out = append(out, h.records[idx])
	}

	return out
}
