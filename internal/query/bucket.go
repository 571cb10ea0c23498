package query

import (
	"fmt"
	"time"

	"github.com/starford/vfxhub/internal/models"
)

// Bucket partitions milestones by completion and due date.
type Bucket string

const (
	BucketAll       Bucket = "all"
	BucketCompleted Bucket = "completed"
	BucketPending   Bucket = "pending"
	BucketOverdue   Bucket = "overdue"
	BucketToday     Bucket = "today"
)

// ParseBucket validates a bucket name. Empty input means BucketAll.
func ParseBucket(s string) (Bucket, error) {
	switch b := Bucket(s); b {
	case "":
		return BucketAll, nil
	case BucketAll, BucketCompleted, BucketPending, BucketOverdue, BucketToday:
		return b, nil
	default:
		return "", fmt.Errorf("unknown status bucket %q", s)
	}
}

// InBucket reports whether m belongs to b on the calendar day of now.
// Milestones with malformed due dates are never overdue or due today.
func InBucket(m models.Milestone, b Bucket, now time.Time) bool {
	switch b {
	case BucketAll, "":
		return true
	case BucketCompleted:
		return m.Completed
	case BucketPending:
		return !m.Completed
	case BucketOverdue:
		if m.Completed {
			return false
		}
		due, ok := dueDay(m.DueDate, now)
		return ok && due.Before(startOfDay(now))
	case BucketToday:
		due, ok := dueDay(m.DueDate, now)
		return ok && due.Equal(startOfDay(now))
	default:
		return false
	}
}

// ByStatusBucket keeps milestones in bucket b.
func ByStatusBucket(items []models.Milestone, b Bucket, now time.Time) []models.Milestone {
	return filter(items, func(m models.Milestone) bool { return InBucket(m, b, now) })
}

// StatusCounts holds the size of every bucket.
type StatusCounts struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
	Overdue   int `json:"overdue"`
	Today     int `json:"today"`
}

// Counts tallies milestones per bucket.
func Counts(items []models.Milestone, now time.Time) StatusCounts {
	c := StatusCounts{Total: len(items)}
	for _, m := range items {
		if InBucket(m, BucketCompleted, now) {
			c.Completed++
		}
		if InBucket(m, BucketPending, now) {
			c.Pending++
		}
		if InBucket(m, BucketOverdue, now) {
			c.Overdue++
		}
		if InBucket(m, BucketToday, now) {
			c.Today++
		}
	}
	return c
}

func dueDay(s string, now time.Time) (time.Time, bool) {
	t, ok := models.ParseDate(s, now.Location())
	if !ok {
		return time.Time{}, false
	}
	return startOfDay(t.In(now.Location())), true
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
