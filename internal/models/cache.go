package models

import "time"

// CacheEntry is an opportunistically cached network response. Entries
// carry no durability guarantee and may be evicted at any time.
type CacheEntry struct {
	URL      string    `json:"url"`
	Body     []byte    `json:"body"`
	CachedAt time.Time `json:"cachedAt"`
}

// SyncStatus is a snapshot of the synchronization state, served by the
// control surface
type SyncStatus struct {
	Online          bool       `json:"online"`
	Running         bool       `json:"running"`
	PendingProgress int        `json:"pendingProgress"`
	PendingQueue    int        `json:"pendingQueue"`
	LastPassAt      *time.Time `json:"lastPassAt,omitempty"`
}
