// Package access holds the signed-in session and the role capability policy.
package access

import (
	"context"
	"strings"

	"leadcompass/internal/pkg/apperr"
)

// Role of a profile. Every profile has exactly one.
type Role string

const (
	RoleCEO      Role = "CEO"
	RoleEmployee Role = "Employee"
)

func (r Role) Valid() bool {
	return r == RoleCEO || r == RoleEmployee
}

// Capability names an action gated by role.
type Capability string

const (
	CapLeadCreate     Capability = "lead:create"
	CapLeadDelete     Capability = "lead:delete"
	CapLeadDeleteAll  Capability = "lead:delete_all"
	CapLeadEditAny    Capability = "lead:edit_any"
	CapLeadImport     Capability = "lead:import"
	CapProfileManage  Capability = "profile:manage"
	CapActivityView   Capability = "activity:view"
	CapReportGenerate Capability = "report:generate"
)

var ceoCapabilities = map[Capability]bool{
	CapLeadCreate:     true,
	CapLeadDelete:     true,
	CapLeadDeleteAll:  true,
	CapLeadEditAny:    true,
	CapLeadImport:     true,
	CapProfileManage:  true,
	CapActivityView:   true,
	CapReportGenerate: true,
}

// Session is the resolved identity of the caller for one request.
type Session struct {
	ProfileID string `json:"profile_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
}

func (s *Session) IsCEO() bool {
	return s != nil && s.Role == RoleCEO
}

// Can reports whether the session holds c. Employees hold no gated capability.
func Can(s *Session, c Capability) bool {
	if s == nil {
		return false
	}
	return s.Role == RoleCEO && ceoCapabilities[c]
}

// Require returns a PermissionError when the session lacks c.
func Require(s *Session, c Capability) error {
	if !Can(s, c) {
		return &apperr.PermissionError{Capability: string(c)}
	}
	return nil
}

// CanEditLead allows a CEO, or the employee the lead is assigned to by name.
func CanEditLead(s *Session, assignedTo string) error {
	if Can(s, CapLeadEditAny) {
		return nil
	}
	if s != nil && s.Name != "" && strings.TrimSpace(assignedTo) == s.Name {
		return nil
	}
	return &apperr.PermissionError{Capability: string(CapLeadEditAny)}
}

type ctxKey struct{}

// WithSession attaches s to ctx.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session attached by WithSession.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok && s != nil
}
