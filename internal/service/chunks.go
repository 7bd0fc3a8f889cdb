package service

import (
	"errors"
	"strings"
	"time"
)

// ErrInvalidDateRange indicates the end date precedes the start date or a
// date failed to parse.
var ErrInvalidDateRange = errors.New("invalid date range")

const dateLayout = "2006-01-02"

// Chunk is one inclusive fetch window within a backfill range.
type Chunk struct {
	Start time.Time
	End   time.Time
}

// ParseIngestDate parses an ISO date, accepting "today" as an alias for the
// current UTC date.
func ParseIngestDate(s string) (time.Time, error) {
	if strings.EqualFold(strings.TrimSpace(s), "today") {
		return today(), nil
	}
	d, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, ErrInvalidDateRange
	}
	return d, nil
}

// today returns the current UTC date at midnight.
func today() time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour)
}

// PlanChunks splits [start, end] into consecutive inclusive windows of at
// most maxSpanDays days each. Both bounds are covered exactly once.
func PlanChunks(start, end time.Time, maxSpanDays int) []Chunk {
	if maxSpanDays < 1 {
		maxSpanDays = 1
	}

	var chunks []Chunk
	cur := start
	for !cur.After(end) {
		chunkEnd := cur.AddDate(0, 0, maxSpanDays-1)
		if chunkEnd.After(end) {
			chunkEnd = end
		}
		chunks = append(chunks, Chunk{Start: cur, End: chunkEnd})
		cur = chunkEnd.AddDate(0, 0, 1)
	}
	return chunks
}
