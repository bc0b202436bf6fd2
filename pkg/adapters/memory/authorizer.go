package memory

import (
	"sort"
	"sync"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
)

// Authorizer implements ports.Authorizer with an in-memory grant table.
// Subjects are read from domain.SubjectKey. Safe for concurrent use.
type Authorizer struct {
	grants map[string]map[string]struct{}
	mu     sync.RWMutex
}

// NewAuthorizer creates an empty authorizer.
func NewAuthorizer() *Authorizer {
	return &Authorizer{
		grants: make(map[string]map[string]struct{}),
	}
}

// Grant gives subject the listed permission patterns (see ports.Grants).
func (a *Authorizer) Grant(subject string, permissions ...string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	set, ok := a.grants[subject]
	if !ok {
		set = make(map[string]struct{})
		a.grants[subject] = set
	}
	for _, p := range permissions {
		set[p] = struct{}{}
	}
}

// Revoke removes the listed patterns from subject.
func (a *Authorizer) Revoke(subject string, permissions ...string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	set := a.grants[subject]
	for _, p := range permissions {
		delete(set, p)
	}
	if len(set) == 0 {
		delete(a.grants, subject)
	}
}

// Permissions lists the patterns granted to subject.
func (a *Authorizer) Permissions(subject string) []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]string, 0, len(a.grants[subject]))
	for p := range a.grants[subject] {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Authorize implements ports.Authorizer. Contexts without a subject are denied.
func (a *Authorizer) Authorize(permission string, cc *domain.CommandContext) bool {
	subject, ok := domain.Get(cc, domain.SubjectKey)
	if !ok || subject == "" {
		return false
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	for p := range a.grants[subject] {
		if ports.Grants(p, permission) {
			return true
		}
	}
	return false
}
