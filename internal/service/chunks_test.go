package service

import (
	"errors"
	"testing"
	"time"
)

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestPlanChunks(t *testing.T) {
	tests := []struct {
		name        string
		start, end  string
		maxSpanDays int
		want        []Chunk
	}{
		{
			name:  "single day",
			start: "2024-01-01", end: "2024-01-01", maxSpanDays: 365,
			want: []Chunk{{date("2024-01-01"), date("2024-01-01")}},
		},
		{
			name:  "range within one window",
			start: "2024-01-01", end: "2024-03-01", maxSpanDays: 365,
			want: []Chunk{{date("2024-01-01"), date("2024-03-01")}},
		},
		{
			name:  "exact multiple of window",
			start: "2024-01-01", end: "2024-01-10", maxSpanDays: 5,
			want: []Chunk{
				{date("2024-01-01"), date("2024-01-05")},
				{date("2024-01-06"), date("2024-01-10")},
			},
		},
		{
			name:  "remainder window",
			start: "2024-01-01", end: "2024-01-12", maxSpanDays: 5,
			want: []Chunk{
				{date("2024-01-01"), date("2024-01-05")},
				{date("2024-01-06"), date("2024-01-10")},
				{date("2024-01-11"), date("2024-01-12")},
			},
		},
		{
			name:  "one day windows",
			start: "2024-01-01", end: "2024-01-03", maxSpanDays: 1,
			want: []Chunk{
				{date("2024-01-01"), date("2024-01-01")},
				{date("2024-01-02"), date("2024-01-02")},
				{date("2024-01-03"), date("2024-01-03")},
			},
		},
		{
			name:  "multi-year backfill",
			start: "2020-01-01", end: "2021-06-30", maxSpanDays: 365,
			want: []Chunk{
				{date("2020-01-01"), date("2020-12-30")},
				{date("2020-12-31"), date("2021-06-30")},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := PlanChunks(date(tc.start), date(tc.end), tc.maxSpanDays)
			if len(got) != len(tc.want) {
				t.Fatalf("expected %d chunks, got %d: %v", len(tc.want), len(got), got)
			}
			for i := range got {
				if !got[i].Start.Equal(tc.want[i].Start) || !got[i].End.Equal(tc.want[i].End) {
					t.Errorf("chunk %d: expected %v..%v, got %v..%v",
						i, tc.want[i].Start, tc.want[i].End, got[i].Start, got[i].End)
				}
			}
			// Consecutive chunks must not overlap or leave gaps.
			for i := 1; i < len(got); i++ {
				if !got[i].Start.Equal(got[i-1].End.AddDate(0, 0, 1)) {
					t.Errorf("gap or overlap between chunk %d and %d", i-1, i)
				}
			}
		})
	}
}

func TestPlanChunks_EmptyRange(t *testing.T) {
	got := PlanChunks(date("2024-01-02"), date("2024-01-01"), 365)
	if len(got) != 0 {
		t.Errorf("expected no chunks for inverted range, got %v", got)
	}
}

func TestParseIngestDate(t *testing.T) {
	t.Run("ISO date", func(t *testing.T) {
		d, err := ParseIngestDate("2023-07-15")
		if err != nil {
			t.Fatalf("ParseIngestDate: %v", err)
		}
		if !d.Equal(date("2023-07-15")) {
			t.Errorf("expected 2023-07-15, got %v", d)
		}
	})

	t.Run("today alias", func(t *testing.T) {
		for _, alias := range []string{"today", "TODAY", " Today "} {
			d, err := ParseIngestDate(alias)
			if err != nil {
				t.Fatalf("ParseIngestDate(%q): %v", alias, err)
			}
			if d.After(time.Now().UTC()) {
				t.Errorf("today resolved to a future time: %v", d)
			}
			if h, m, s := d.Clock(); h != 0 || m != 0 || s != 0 {
				t.Errorf("expected midnight, got %v", d)
			}
		}
	})

	t.Run("invalid input", func(t *testing.T) {
		for _, bad := range []string{"", "yesterday", "01/02/2024", "2024-13-01"} {
			if _, err := ParseIngestDate(bad); !errors.Is(err, ErrInvalidDateRange) {
				t.Errorf("ParseIngestDate(%q): expected ErrInvalidDateRange, got %v", bad, err)
			}
		}
	})
}
