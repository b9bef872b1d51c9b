package authorization

import "slices"

// Principal is the authenticated caller extracted from a session token.
type Principal struct {
	Subject string
	Scopes  []string
}

// HasScope reports whether the principal carries scope.
func (p *Principal) HasScope(scope string) bool {
	return p != nil && slices.Contains(p.Scopes, scope)
}
