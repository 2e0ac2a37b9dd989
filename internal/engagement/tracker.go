// Package engagement tracks per-author chat activity for leaderboards
// and viewer callouts.
package engagement

import (
	"sort"
	"time"
)

// Record is the per-author aggregate. Created on the author's first
// message and never destroyed within a session.
type Record struct {
	Messages  int
	FirstSeen time.Time
	LastSeen  time.Time
}

// UserStat pairs an author with their record for leaderboard output.
type UserStat struct {
	Author string
	Record Record
}

// Tracker counts messages per author. It is mutated only by the bridge
// loop, in strict chat-arrival order.
type Tracker struct {
	records map[string]*Record
	total   int
	now     func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{
		records: make(map[string]*Record),
		now:     time.Now,
	}
}

// RecordMessage increments the author's counter, setting FirstSeen on
// the first occurrence.
func (t *Tracker) RecordMessage(author string) {
	now := t.now()
	rec, ok := t.records[author]
	if !ok {
		rec = &Record{FirstSeen: now}
		t.records[author] = rec
	}
	rec.Messages++
	rec.LastSeen = now
	t.total++
}

// Stats returns the author's record, if any.
func (t *Tracker) Stats(author string) (Record, bool) {
	rec, ok := t.records[author]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// TotalMessages is the count of all tracked messages this session; the
// community challenge measures its progress against it.
func (t *Tracker) TotalMessages() int {
	return t.total
}

// TopUsers returns up to limit authors ordered by message count
// descending. Ties break by earliest FirstSeen, then author name, so
// leaderboard output is deterministic.
func (t *Tracker) TopUsers(limit int) []UserStat {
	stats := make([]UserStat, 0, len(t.records))
	for author, rec := range t.records {
		stats = append(stats, UserStat{Author: author, Record: *rec})
	}
	sort.Slice(stats, func(i, j int) bool {
		a, b := stats[i], stats[j]
		if a.Record.Messages != b.Record.Messages {
			return a.Record.Messages > b.Record.Messages
		}
		if !a.Record.FirstSeen.Equal(b.Record.FirstSeen) {
			return a.Record.FirstSeen.Before(b.Record.FirstSeen)
		}
		return a.Author < b.Author
	})
	if limit > 0 && len(stats) > limit {
		stats = stats[:limit]
	}
	return stats
}
