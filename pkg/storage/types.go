package storage

import "time"

// Change captures a single mirror change event for auditing or printing.
type Change struct {
	OccurredAt time.Time

	RecordID   string
	Name       string
	ChangeType string // added | updated | removed
}

// Summary counts the changes of one sync.
type Summary struct {
	Added, Updated, Removed, Unchanged int
}

func summarize(changes []Change, total int) Summary {
	var s Summary
	for _, c := range changes {
		switch c.ChangeType {
		case "added":
			s.Added++
		case "updated":
			s.Updated++
		case "removed":
			s.Removed++
		}
	}
	s.Unchanged = total - s.Added - s.Updated
	return s
}
