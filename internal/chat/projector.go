package chat

import (
	"fmt"
	"strings"
	"time"
)

// Groups partitions sessions by recency. Each session lands in exactly one bucket.
type Groups struct {
	Today     []Session `json:"today"`
	Yesterday []Session `json:"yesterday"`
	ThisWeek  []Session `json:"this_week"`
	Older     []Session `json:"older"`
}

func (g Groups) Len() int {
	return len(g.Today) + len(g.Yesterday) + len(g.ThisWeek) + len(g.Older)
}

// Filter keeps sessions whose title or last message contains query,
// ignoring case. A blank query returns the input as is.
func Filter(sessions []Session, query string) []Session {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return sessions
	}
	out := make([]Session, 0, len(sessions))
	for _, s := range sessions {
		if strings.Contains(strings.ToLower(s.Title), q) || strings.Contains(strings.ToLower(s.LastMessage), q) {
			out = append(out, s)
		}
	}
	return out
}

// GroupByRecency buckets sessions relative to now, in now's location.
// Weeks start on Sunday.
func GroupByRecency(sessions []Session, now time.Time) Groups {
	loc := now.Location()
	today := startOfDay(now)
	yesterday := today.AddDate(0, 0, -1)
	weekStart := today.AddDate(0, 0, -int(today.Weekday()))

	var g Groups
	for _, s := range sessions {
		day := startOfDay(s.Timestamp.In(loc))
		switch {
		case day.Equal(today):
			g.Today = append(g.Today, s)
		case day.Equal(yesterday):
			g.Yesterday = append(g.Yesterday, s)
		case !s.Timestamp.Before(weekStart):
			g.ThisWeek = append(g.ThisWeek, s)
		default:
			g.Older = append(g.Older, s)
		}
	}
	return g
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// RelativeTime renders ts relative to now: "just now", "5m ago", "3h ago",
// "2d ago", or M/D/YYYY from a week on. Each unit starts at its lower bound,
// so exactly 60 minutes is "1h ago".
func RelativeTime(ts, now time.Time) string {
	diff := now.Sub(ts)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff/time.Minute))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff/time.Hour))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff/(24*time.Hour)))
	}
	return ts.In(now.Location()).Format("1/2/2006")
}

var categoryLabels = map[Category]string{
	CategoryCareerPlanning:   "Career Planning",
	CategoryJobSearch:        "Job Search",
	CategorySkillDevelopment: "Skills",
	CategoryInterviewPrep:    "Interview",
	CategoryGeneral:          "General",
}

func CategoryLabel(c Category) string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return categoryLabels[CategoryGeneral]
}

// Recent returns at most n sessions from the front of the display order.
func Recent(sessions []Session, n int) []Session {
	if n < 0 {
		n = 0
	}
	if len(sessions) <= n {
		return sessions
	}
	return sessions[:n]
}
