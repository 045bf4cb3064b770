package router

import (
	"slices"
	"sync"
)

// History is the list of committed paths a router can traverse with
// Back and Forward. Entries after the cursor are dropped when a new path
// is pushed.
type History struct {
	mu      sync.Mutex
	entries []string
	index   int
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{index: -1}
}

// Push records path as the newest entry. Pushing the current entry again
// is a no-op.
func (h *History) Push(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.index >= 0 && h.entries[h.index] == path {
		return
	}
	h.entries = append(h.entries[:h.index+1], path)
	h.index = len(h.entries) - 1
}

// Replace overwrites the current entry, or pushes when empty.
func (h *History) Replace(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.index < 0 {
		h.entries = append(h.entries[:0], path)
		h.index = 0
		return
	}
	h.entries[h.index] = path
}

// Peek returns the entry delta steps from the cursor without moving.
func (h *History) Peek(delta int) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	i := h.index + delta
	if h.index < 0 || i < 0 || i >= len(h.entries) {
		return "", false
	}
	return h.entries[i], true
}

// At returns the entry at index i.
func (h *History) At(i int) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if i < 0 || i >= len(h.entries) {
		return "", false
	}
	return h.entries[i], true
}

// Index returns the cursor position, or -1 when empty.
func (h *History) Index() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.index
}

// MoveTo puts the cursor on index i and stores the path that was actually
// committed there, which differs from the entry when a guard redirected.
func (h *History) MoveTo(i int, committed string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if i < 0 || i >= len(h.entries) {
		return false
	}
	h.index = i
	h.entries[i] = committed
	return true
}

// Current returns the entry under the cursor.
func (h *History) Current() (string, bool) {
	return h.Peek(0)
}

// CanGoBack reports whether Back has an entry to go to.
func (h *History) CanGoBack() bool {
	_, ok := h.Peek(-1)
	return ok
}

// CanGoForward reports whether Forward has an entry to go to.
func (h *History) CanGoForward() bool {
	_, ok := h.Peek(1)
	return ok
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Entries returns a copy of all entries and the cursor position.
func (h *History) Entries() ([]string, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.entries), h.index
}
