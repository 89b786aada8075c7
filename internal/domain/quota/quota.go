// Package quota models per-client search allowances.
package quota

import "time"

// DefaultMaxSearches is the lifetime search allowance per client.
const DefaultMaxSearches = 100

// Entry is the usage record of one client.
type Entry struct {
	clientID    string
	used        int64
	lastUpdated time.Time
}

// NewEntry creates an entry. A zero lastUpdated means the client was never seen.
func NewEntry(clientID string, used int64, lastUpdated time.Time) Entry {
	if used < 0 {
		used = 0
	}
	return Entry{clientID: clientID, used: used, lastUpdated: lastUpdated}
}

// ClientID returns the client identifier.
func (e Entry) ClientID() string { return e.clientID }

// Used returns the number of consumed searches.
func (e Entry) Used() int64 { return e.used }

// LastUpdated returns the time of the last consume.
func (e Entry) LastUpdated() time.Time { return e.lastUpdated }

// Seen reports whether the client has consumed at least once.
func (e Entry) Seen() bool { return !e.lastUpdated.IsZero() || e.used > 0 }

// Remaining returns max(0, maxSearches - used).
func Remaining(maxSearches, used int64) int64 {
	if left := maxSearches - used; left > 0 {
		return left
	}
	return 0
}
