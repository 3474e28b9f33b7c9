package filter

import "leadcompass/internal/domain/lead"

// PageSize is the number of leads per page
const PageSize = 10

// Pager holds a filtered list and the current page over it.
// Changing the filter always resets to page 1.
type Pager struct {
	state    State
	filtered []lead.Lead
	page     int
}

func NewPager(leads []lead.Lead, s State) *Pager {
	p := &Pager{}
	p.SetFilter(leads, s)
	return p
}

// SetFilter re-derives the filtered list and returns to page 1
func (p *Pager) SetFilter(leads []lead.Lead, s State) {
	p.state = s.Normalize()
	p.filtered = Apply(leads, p.state)
	p.page = 1
}

// Go moves to page n. Out-of-range pages leave the current page unchanged.
func (p *Pager) Go(n int) bool {
	if n < 1 || n > p.TotalPages() {
		return false
	}
	p.page = n
	return true
}

func (p *Pager) Next() bool { return p.Go(p.page + 1) }
func (p *Pager) Prev() bool { return p.Go(p.page - 1) }

func (p *Pager) Page() int { return p.page }

func (p *Pager) State() State { return p.state }

func (p *Pager) Total() int { return len(p.filtered) }

func (p *Pager) TotalPages() int {
	return (len(p.filtered) + PageSize - 1) / PageSize
}

// Filtered returns the whole filtered list
func (p *Pager) Filtered() []lead.Lead {
	out := make([]lead.Lead, len(p.filtered))
	copy(out, p.filtered)
	return out
}

// Window returns the leads on the current page
func (p *Pager) Window() []lead.Lead {
	start := (p.page - 1) * PageSize
	if start >= len(p.filtered) {
		return []lead.Lead{}
	}
	end := min(start+PageSize, len(p.filtered))
	out := make([]lead.Lead, end-start)
	copy(out, p.filtered[start:end])
	return out
}
