package records

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// Filter selects history entries. Zero values match everything.
type Filter struct {
	Query        string
	Company      string
	FavoriteOnly bool
	Model        string
	After        time.Time
	Before       time.Time
}

// Match reports whether entry satisfies every set predicate.
func (f Filter) Match(entry Entry) bool {
	r := entry.Record
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		haystack := strings.ToLower(strings.Join([]string{r.Job.Company, r.Job.Position, r.Meta.FileName, entry.ID}, "\n"))
		if !strings.Contains(haystack, q) {
			return false
		}
	}
	if c := strings.TrimSpace(f.Company); c != "" && !strings.EqualFold(strings.TrimSpace(r.Job.Company), c) {
		return false
	}
	if f.FavoriteOnly && !r.Meta.Favorite {
		return false
	}
	if m := strings.TrimSpace(f.Model); m != "" && !strings.EqualFold(strings.TrimSpace(r.Meta.Model), m) {
		return false
	}
	if !f.After.IsZero() || !f.Before.IsZero() {
		created, err := r.Created()
		if err != nil {
			return false
		}
		if !f.After.IsZero() && created.Before(f.After) {
			return false
		}
		if !f.Before.IsZero() && created.After(f.Before) {
			return false
		}
	}
	return true
}

// Apply returns the entries that match, preserving order.
func (f Filter) Apply(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		if f.Match(entry) {
			out = append(out, entry)
		}
	}
	return out
}

// SortByCreated orders entries newest first. Entries with an unparseable
// creation date go last, ordered by identifier.
func SortByCreated(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, errA := entries[i].Record.Created()
		b, errB := entries[j].Record.Created()
		switch {
		case errA != nil && errB != nil:
			return entries[i].ID < entries[j].ID
		case errA != nil:
			return false
		case errB != nil:
			return true
		}
		return a.After(b)
	})
}

// Stats summarises the history for the statistics page.
type Stats struct {
	Active           int            `json:"active"`
	Archived         int            `json:"archived"`
	Favorites        int            `json:"favorites"`
	PendingResponses int            `json:"pendingResponses"`
	ByCompany        map[string]int `json:"byCompany"`
	ByMonth          map[string]int `json:"byMonth"`
	AverageMatch     float64        `json:"averageMatch"`
}

// ComputeStats builds Stats from active and archived entries. A response is
// pending while an active record's expected response date is not yet past.
func ComputeStats(active, archived []Entry, now time.Time) Stats {
	stats := Stats{
		Active:    len(active),
		Archived:  len(archived),
		ByCompany: make(map[string]int),
		ByMonth:   make(map[string]int),
	}
	var ratingSum float64
	var rated int
	all := append(append([]Entry(nil), active...), archived...)
	for _, entry := range all {
		r := entry.Record
		if r.Meta.Favorite {
			stats.Favorites++
		}
		if company := strings.TrimSpace(r.Job.Company); company != "" {
			stats.ByCompany[company]++
		}
		if created, err := r.Created(); err == nil {
			stats.ByMonth[created.Format("2006-01")]++
		}
		if r.Job.MatchRating > 0 {
			ratingSum += float64(r.Job.MatchRating)
			rated++
		}
	}
	for _, entry := range active {
		if expected, err := entry.Record.ExpectedResponse(); err == nil && !now.After(expected) {
			stats.PendingResponses++
		}
	}
	if rated > 0 {
		stats.AverageMatch = math.Round(ratingSum/float64(rated)*100) / 100
	}
	return stats
}

// AgeWindow is the age at which AgeColor reaches full red.
const AgeWindow = 30 * 24 * time.Hour

// AgeColor returns a hex colour fading linearly from green (just created) to
// red (AgeWindow or older).
func AgeColor(created, now time.Time) string {
	age := now.Sub(created)
	if age < 0 {
		age = 0
	}
	ratio := float64(age) / float64(AgeWindow)
	if ratio > 1 {
		ratio = 1
	}
	red := int(math.Round(255 * ratio))
	green := int(math.Round(255 * (1 - ratio)))
	return fmt.Sprintf("#%02x%02x00", red, green)
}
