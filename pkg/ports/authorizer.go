package ports

import (
	"strings"

	"github.com/aretw0/tendril/pkg/domain"
)

// Authorizer decides whether the caller described by cc holds permission.
// It is only consulted for commands with a non-empty permission.
type Authorizer interface {
	Authorize(permission string, cc *domain.CommandContext) bool
}

// AuthorizerFunc adapts a function to an Authorizer.
type AuthorizerFunc func(permission string, cc *domain.CommandContext) bool

func (f AuthorizerFunc) Authorize(permission string, cc *domain.CommandContext) bool {
	return f(permission, cc)
}

// AllowAll grants every permission.
var AllowAll Authorizer = AuthorizerFunc(func(string, *domain.CommandContext) bool { return true })

// Grants reports whether a granted pattern covers permission.
// "*" covers everything; "user.*" covers "user.add" and "user.role.set".
func Grants(pattern, permission string) bool {
	if pattern == "*" || pattern == permission {
		return true
	}
	prefix, ok := strings.CutSuffix(pattern, "*")
	return ok && strings.HasSuffix(prefix, ".") && strings.HasPrefix(permission, prefix)
}
