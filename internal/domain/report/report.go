// Package report computes breakdowns, dashboard counts and staff scores over a lead snapshot.
package report

import (
	"math"
	"sort"
	"strings"
	"time"

	"leadcompass/internal/domain/access"
	"leadcompass/internal/domain/filter"
	"leadcompass/internal/domain/lead"
)

const (
	TopAreas    = 5
	RecentCount = 5
)

// Bucket is one bar of a breakdown
type Bucket struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Report is everything the reports screen charts.
type Report struct {
	Total     int      `json:"total"`
	Status    []Bucket `json:"status"`
	Interest  []Bucket `json:"interest"`
	Areas     []Bucket `json:"areas"`
	Assignees []Bucket `json:"assignees"`
}

func Build(leads []lead.Lead) Report {
	return Report{
		Total:     len(leads),
		Status:    StatusBreakdown(leads),
		Interest:  InterestBreakdown(leads),
		Areas:     AreaBreakdown(leads),
		Assignees: AssigneeBreakdown(leads),
	}
}

// StatusBreakdown counts leads per observed status, in pipeline order
func StatusBreakdown(leads []lead.Lead) []Bucket {
	counts := count(leads, func(l lead.Lead) string { return string(l.DealStatus) })
	order := make([]string, 0, len(lead.DealStatuses))
	for _, s := range lead.DealStatuses {
		order = append(order, string(s))
	}
	return ordered(counts, order)
}

// InterestBreakdown counts leads per observed interest level
func InterestBreakdown(leads []lead.Lead) []Bucket {
	counts := count(leads, func(l lead.Lead) string { return string(l.InterestLevel) })
	order := make([]string, 0, len(lead.InterestLevels))
	for _, i := range lead.InterestLevels {
		order = append(order, string(i))
	}
	return ordered(counts, order)
}

// AreaBreakdown returns the five areas with the most leads, busiest first.
// Ties are broken by name.
func AreaBreakdown(leads []lead.Lead) []Bucket {
	buckets := sortedByName(count(leads, func(l lead.Lead) string { return l.PreferredArea }))
	sort.SliceStable(buckets, func(i, j int) bool { return buckets[i].Count > buckets[j].Count })
	if len(buckets) > TopAreas {
		buckets = buckets[:TopAreas]
	}
	return buckets
}

// AssigneeBreakdown counts leads per assigned_to name
func AssigneeBreakdown(leads []lead.Lead) []Bucket {
	return sortedByName(count(leads, func(l lead.Lead) string { return l.AssignedTo }))
}

// CalculateScore ranks a staff member from 0 to 10.
// Up to 7 points come from conversion rate and up to 3 from volume, saturating at 20 leads.
func CalculateScore(total, closed int) int {
	if total <= 0 {
		return 0
	}
	conversion := float64(closed) / float64(total) * 100
	points := math.Min(7, conversion/100*7) + math.Min(3, float64(total)/20*3)
	return int(math.Round(points))
}

// ConversionRate is closed/total as a percentage, 0 for no leads
func ConversionRate(total, closed int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(closed) / float64(total) * 100
}

// DashboardStats are the headline counts on the dashboard.
type DashboardStats struct {
	Total           int         `json:"total"`
	Active          int         `json:"active"`
	Converted       int         `json:"converted"`
	TodayFollowups  int         `json:"today_followups"`
	FollowupsToday  []lead.Lead `json:"followups_today"`
	RecentLeads     []lead.Lead `json:"recent_leads"`
	ConversionRate  float64     `json:"conversion_rate"`
	AssignedToActor int         `json:"assigned_to_actor"`
}

// Dashboard counts over the whole set. Today's follow-ups are limited to the actor's
// own leads unless the actor is a CEO.
func Dashboard(leads []lead.Lead, sess *access.Session, today time.Time) DashboardStats {
	day := today.Format(lead.DateLayout)
	stats := DashboardStats{
		Total:          len(leads),
		FollowupsToday: make([]lead.Lead, 0),
		RecentLeads:    filter.RecentLeads(leads, RecentCount),
	}

	closed := 0
	for _, l := range leads {
		if l.DealStatus != lead.StatusClosed {
			stats.Active++
		} else {
			closed++
		}
		if l.IsConverted() {
			stats.Converted++
		}
		mine := sess != nil && sess.Name != "" && l.AssignedTo == sess.Name
		if mine {
			stats.AssignedToActor++
		}
		if l.NextFollowupDate == day && (sess.IsCEO() || mine) {
			stats.FollowupsToday = append(stats.FollowupsToday, l)
		}
	}
	stats.TodayFollowups = len(stats.FollowupsToday)
	stats.ConversionRate = ConversionRate(len(leads), closed)
	return stats
}

// EmployeeStats is one staff member's pipeline.
type EmployeeStats struct {
	Name           string  `json:"name"`
	Total          int     `json:"total"`
	Active         int     `json:"active"`
	Closed         int     `json:"closed"`
	Dropped        int     `json:"dropped"`
	TodayFollowups int     `json:"today_followups"`
	ConversionRate float64 `json:"conversion_rate"`
	Score          int     `json:"score"`
}

// ForEmployee computes stats over the leads assigned to name.
// Active excludes both Closed and Dropped.
func ForEmployee(leads []lead.Lead, name string, today time.Time) EmployeeStats {
	day := today.Format(lead.DateLayout)
	s := EmployeeStats{Name: name}
	for _, l := range leads {
		if l.AssignedTo != name {
			continue
		}
		s.Total++
		switch l.DealStatus {
		case lead.StatusClosed:
			s.Closed++
		case lead.StatusDropped:
			s.Dropped++
		default:
			s.Active++
		}
		if l.NextFollowupDate == day {
			s.TodayFollowups++
		}
	}
	s.ConversionRate = ConversionRate(s.Total, s.Closed)
	s.Score = CalculateScore(s.Total, s.Closed)
	return s
}

// Team computes stats for every name, highest score first.
func Team(leads []lead.Lead, names []string, today time.Time) []EmployeeStats {
	out := make([]EmployeeStats, 0, len(names))
	for _, n := range names {
		out = append(out, ForEmployee(leads, n, today))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

func count(leads []lead.Lead, key func(lead.Lead) string) map[string]int {
	counts := make(map[string]int)
	for _, l := range leads {
		counts[key(l)]++
	}
	return counts
}

// ordered emits known keys in the given order, then anything unexpected by name.
func ordered(counts map[string]int, order []string) []Bucket {
	out := make([]Bucket, 0, len(counts))
	seen := make(map[string]bool, len(order))
	for _, k := range order {
		seen[k] = true
		if n, ok := counts[k]; ok {
			out = append(out, Bucket{Name: k, Count: n})
		}
	}
	rest := make(map[string]int)
	for k, n := range counts {
		if !seen[k] {
			rest[k] = n
		}
	}
	return append(out, sortedByName(rest)...)
}

func sortedByName(counts map[string]int) []Bucket {
	out := make([]Bucket, 0, len(counts))
	for k, n := range counts {
		out = append(out, Bucket{Name: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
