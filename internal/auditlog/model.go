package auditlog

import "time"

// Entry is one append-only audit record. Insertion is the only mutation the
// log supports; entries are never updated.
type Entry struct {
	ID          int64
	Time        time.Time
	OrderID     *uint
	APIResponse string
	Hook        string
	Version     string
}

// RetentionPeriod is how long entries are kept before the daily sweep purges them.
const RetentionPeriod = 30 * 24 * time.Hour
