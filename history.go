package arpmonitor

import (
	"sync"
)

// Snapshot is the serialized form of a History: every IP mapped to the MACs seen for it, oldest first.
type Snapshot map[string][]string

// History holds the ordered sequence of distinct MACs observed per IP. It does not deduplicate on its own, callers
// must only Append a MAC that differs from Last.
type History struct {
	entries     map[string][]string
	entriesLock *sync.RWMutex

	// configurable
	maxLen int
}

func NewHistory(options ...HistoryOption) *History {
	h := &History{
		entries:     make(map[string][]string),
		entriesLock: &sync.RWMutex{},
	}

	for _, option := range options {
		option.apply(h)
	}

	return h
}

// Last returns the most recent MAC for ip.
func (h *History) Last(ip string) (string, bool) {
	h.entriesLock.RLock()
	defer h.entriesLock.RUnlock()

	macs := h.entries[ip]
	if len(macs) == 0 {
		return "", false
	}

	return macs[len(macs)-1], true
}

// Append records mac as the newest entry for ip, creating the sequence on first use.
func (h *History) Append(ip, mac string) {
	h.entriesLock.Lock()
	defer h.entriesLock.Unlock()

	macs, ok := h.entries[ip]
	if !ok {
		macs = make([]string, 0, 1)
	}
	macs = append(macs, mac)

	if h.maxLen > 0 && len(macs) > h.maxLen {
		// drop the oldest entries, the last one always survives
		trimmed := make([]string, h.maxLen)
		copy(trimmed, macs[len(macs)-h.maxLen:])
		macs = trimmed
	}

	h.entries[ip] = macs
}

// Entries returns a copy of the full sequence for ip.
func (h *History) Entries(ip string) []string {
	h.entriesLock.RLock()
	defer h.entriesLock.RUnlock()

	macs, ok := h.entries[ip]
	if !ok {
		return nil
	}

	return append([]string(nil), macs...)
}

// Len returns the number of IPs tracked.
func (h *History) Len() int {
	h.entriesLock.RLock()
	defer h.entriesLock.RUnlock()
	return len(h.entries)
}

// Snapshot returns a deep copy of the history, consistent with respect to concurrent appends.
func (h *History) Snapshot() Snapshot {
	h.entriesLock.RLock()
	defer h.entriesLock.RUnlock()

	snap := make(Snapshot, len(h.entries))
	for ip, macs := range h.entries {
		snap[ip] = append([]string(nil), macs...)
	}

	return snap
}

// restore replaces the content of the history with snap.
func (h *History) restore(snap Snapshot) {
	h.entriesLock.Lock()
	defer h.entriesLock.Unlock()

	h.entries = make(map[string][]string, len(snap))
	for ip, macs := range snap {
		if len(macs) == 0 {
			continue
		}
		if h.maxLen > 0 && len(macs) > h.maxLen {
			macs = macs[len(macs)-h.maxLen:]
		}
		h.entries[ip] = append([]string(nil), macs...)
	}
}
