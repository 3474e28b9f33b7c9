// Package filter derives the visible lead list from the working set.
// Everything here is pure; callers pass in a snapshot.
package filter

import (
	"sort"
	"strconv"
	"strings"

	"leadcompass/internal/domain/lead"
	"leadcompass/internal/pkg/apperr"
)

// All disables a filter
const All = "all"

// State is the set of active filters. Filters combine with AND.
type State struct {
	Search string `form:"search" json:"search"`
	Budget string `form:"budget" json:"budget"`
	Status string `form:"status" json:"status"`
	Area   string `form:"area" json:"area"`
}

// Normalize turns empty selectors into All.
func (s State) Normalize() State {
	if strings.TrimSpace(s.Budget) == "" {
		s.Budget = All
	}
	if strings.TrimSpace(s.Status) == "" {
		s.Status = All
	}
	if strings.TrimSpace(s.Area) == "" {
		s.Area = All
	}
	return s
}

// Validate rejects an unparseable budget or an unknown status
func (s State) Validate() error {
	s = s.Normalize()
	fields := map[string]string{}
	if _, err := ParseBudgetRange(s.Budget); err != nil {
		fields["budget"] = err.Error()
	}
	if s.Status != All && !lead.DealStatus(s.Status).Valid() {
		fields["status"] = "unknown deal status"
	}
	if len(fields) > 0 {
		return &apperr.ValidationError{Fields: fields}
	}
	return nil
}

// BudgetRange is a closed range, or a lower bound when HasMax is false.
type BudgetRange struct {
	Min    float64
	Max    float64
	HasMax bool
}

func (b BudgetRange) Contains(v float64) bool {
	if v < b.Min {
		return false
	}
	return !b.HasMax || v <= b.Max
}

type budgetError string

func (e budgetError) Error() string { return string(e) }

// ParseBudgetRange reads "min-max", "min-", "min+" or "min". It returns nil for All.
// A zero max means no upper bound.
func ParseBudgetRange(s string) (*BudgetRange, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, All) {
		return nil, nil
	}

	s = strings.TrimSuffix(s, "+")
	minPart, maxPart, _ := strings.Cut(s, "-")

	lo, err := strconv.ParseFloat(strings.TrimSpace(minPart), 64)
	if err != nil || lo < 0 {
		return nil, budgetError("budget range must look like min-max")
	}
	r := &BudgetRange{Min: lo}

	if maxPart = strings.TrimSpace(maxPart); maxPart != "" {
		hi, err := strconv.ParseFloat(maxPart, 64)
		if err != nil {
			return nil, budgetError("budget range must look like min-max")
		}
		if hi != 0 {
			if hi < lo {
				return nil, budgetError("budget range max is below min")
			}
			r.Max = hi
			r.HasMax = true
		}
	}
	return r, nil
}

// Apply returns the leads matching every active filter, in working-set order.
// A malformed budget disables the budget filter; use Validate at the boundary.
func Apply(leads []lead.Lead, s State) []lead.Lead {
	s = s.Normalize()
	budget, _ := ParseBudgetRange(s.Budget)
	term := strings.ToLower(strings.TrimSpace(s.Search))

	out := make([]lead.Lead, 0, len(leads))
	for _, l := range leads {
		if matches(l, term, budget, s.Status, s.Area) {
			out = append(out, l)
		}
	}
	return out
}

func matches(l lead.Lead, term string, budget *BudgetRange, status, area string) bool {
	if term != "" &&
		!strings.Contains(strings.ToLower(l.CustomerName), term) &&
		!strings.Contains(strings.ToLower(l.Email), term) &&
		!strings.Contains(strings.ToLower(l.PreferredArea), term) {
		return false
	}
	if budget != nil && !budget.Contains(l.Budget) {
		return false
	}
	if status != All && string(l.DealStatus) != status {
		return false
	}
	if area != All && l.PreferredArea != area {
		return false
	}
	return true
}

// UniqueAreas lists the distinct non-empty preferred areas, sorted
func UniqueAreas(leads []lead.Lead) []string {
	seen := make(map[string]struct{})
	areas := make([]string, 0)
	for _, l := range leads {
		a := strings.TrimSpace(l.PreferredArea)
		if a == "" {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		areas = append(areas, a)
	}
	sort.Strings(areas)
	return areas
}

// ClosedDeals returns closed leads whose name, email, area or assignee contains search.
func ClosedDeals(leads []lead.Lead, search string) []lead.Lead {
	term := strings.ToLower(strings.TrimSpace(search))
	out := make([]lead.Lead, 0)
	for _, l := range leads {
		if !l.IsClosed() {
			continue
		}
		if term == "" ||
			strings.Contains(strings.ToLower(l.CustomerName), term) ||
			strings.Contains(strings.ToLower(l.Email), term) ||
			strings.Contains(strings.ToLower(l.PreferredArea), term) ||
			strings.Contains(strings.ToLower(l.AssignedTo), term) {
			out = append(out, l)
		}
	}
	return out
}

// RecentLeads returns the n newest leads by creation time
func RecentLeads(leads []lead.Lead, n int) []lead.Lead {
	sorted := make([]lead.Lead, len(leads))
	copy(sorted, leads)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
