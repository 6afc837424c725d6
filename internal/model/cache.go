package model

import "time"

// DirectoryCacheEntry is a cached listing of one folder's children,
// stamped with the wall-clock fetch time and TTL (§3, §4.3).
type DirectoryCacheEntry struct {
	FolderID  ID
	Path      string
	Children  []Node
	FetchedAt time.Time
	TTL       time.Duration
}

// Expired reports whether the entry is past its absolute TTL as of now.
func (e DirectoryCacheEntry) Expired(now time.Time) bool {
	return now.Sub(e.FetchedAt) > e.TTL
}
