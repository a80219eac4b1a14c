package activity_test

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/fakeyudi/trackhook/internal/activity"
)

func collect(l *activity.Log, match func(activity.Record) bool) []activity.Record {
	return slices.Collect(l.Scan(match))
}

func TestScanMissingLogYieldsNothing(t *testing.T) {
	l := activity.NewLog(t.TempDir())
	if got := collect(l, nil); len(got) != 0 {
		t.Errorf("expected no records, got %d", len(got))
	}
}

// Feature: trackhook, Property: scanning is restartable
func TestScanIsRestartable(t *testing.T) {
	dir := t.TempDir()
	l := activity.NewLog(dir)

	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 10).Draw(t, "n")
		for i := 0; i < n; i++ {
			err := l.Append(activity.Record{
				Timestamp: time.Now().UTC(),
				Tool:      rapid.SampledFrom([]string{"Edit", "Bash", "Read"}).Draw(t, "tool"),
				SessionID: "s",
			})
			if err != nil {
				t.Fatalf("Append: %v", err)
			}
		}

		seq := l.Scan(nil)
		first := slices.Collect(seq)
		second := slices.Collect(seq)
		third := collect(l, nil)
		if !slices.EqualFunc(first, second, sameRecord) || !slices.EqualFunc(first, third, sameRecord) {
			t.Fatalf("scans differ: %d / %d / %d records", len(first), len(second), len(third))
		}
	})
}

func TestScanSkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	l := activity.NewLog(dir)

	if err := l.Append(activity.Record{Tool: "Edit", Timestamp: time.Now().UTC()}); err != nil {
		t.Fatal(err)
	}
	f, err := os.OpenFile(l.Path(), os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString("{this is not json\n")
	f.WriteString("\n")
	f.WriteString(`{"tool": "Bash", "timestamp": "not-a-time"}` + "\n")
	f.WriteString(strings.Repeat("x", 2<<20) + "\n")
	f.Close()
	if err := l.Append(activity.Record{Tool: "Write", Timestamp: time.Now().UTC()}); err != nil {
		t.Fatal(err)
	}

	got := collect(l, nil)
	if len(got) != 2 || got[0].Tool != "Edit" || got[1].Tool != "Write" {
		t.Errorf("expected Edit and Write records, got %+v", got)
	}
}

func TestScanIgnoresUnterminatedTail(t *testing.T) {
	dir := t.TempDir()
	l := activity.NewLog(dir)
	if err := l.Append(activity.Record{Tool: "Edit", Timestamp: time.Now().UTC()}); err != nil {
		t.Fatal(err)
	}
	f, _ := os.OpenFile(l.Path(), os.O_APPEND|os.O_WRONLY, 0o644)
	f.WriteString(`{"tool": "Bash", "timestamp": "2026-01-01T00:00:00Z"}`)
	f.Close()

	if got := collect(l, nil); len(got) != 1 {
		t.Errorf("expected the partial line to be skipped, got %d records", len(got))
	}
}

func TestScanStopsEarly(t *testing.T) {
	l := activity.NewLog(t.TempDir())
	for i := 0; i < 5; i++ {
		l.Append(activity.Record{Tool: fmt.Sprint("T", i), Timestamp: time.Now().UTC()})
	}
	seen := 0
	for range l.Scan(nil) {
		seen++
		if seen == 2 {
			break
		}
	}
	if seen != 2 {
		t.Errorf("seen = %d, want 2", seen)
	}
}

func TestTodayPredicate(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	now := time.Date(2026, 5, 14, 8, 0, 0, 0, loc)
	today := activity.Today(now)

	cases := []struct {
		name string
		ts   time.Time
		want bool
	}{
		// 2026-05-13T23:30Z is already 2026-05-14 08:30 local.
		{"utc yesterday local today", time.Date(2026, 5, 13, 23, 30, 0, 0, time.UTC), true},
		{"local yesterday", time.Date(2026, 5, 13, 14, 0, 0, 0, time.UTC), false},
		{"tomorrow", now.AddDate(0, 0, 1), false},
		{"zero", time.Time{}, false},
	}
	for _, tc := range cases {
		if got := today(activity.Record{Timestamp: tc.ts}); got != tc.want {
			t.Errorf("%s: Today = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestConcurrentAppendsStayLineAtomic(t *testing.T) {
	dir := t.TempDir()
	const writers, each = 8, 50

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			l := activity.NewLog(dir)
			for i := 0; i < each; i++ {
				cmd := strings.Repeat(fmt.Sprint(w), 90)
				rec := activity.Record{
					Tool:      "Bash",
					Timestamp: time.Now().UTC(),
					Command:   &cmd,
				}
				if err := l.Append(rec); err != nil {
					t.Errorf("Append: %v", err)
				}
			}
		}(w)
	}
	wg.Wait()

	got := collect(activity.NewLog(dir), nil)
	if len(got) != writers*each {
		t.Errorf("records = %d, want %d", len(got), writers*each)
	}
}

func sameRecord(a, b activity.Record) bool {
	return a.ID == b.ID && a.Tool == b.Tool && a.Timestamp.Equal(b.Timestamp)
}
