package auth

import "strings"

// DefaultPublicPrefixes are the paths reachable without a principal.
var DefaultPublicPrefixes = []string{
	"/api/users/register",
	"/api/users/login",
	"/api/users/logout",
	"/health/",
	"/metrics",
}

// Policy is the single allow-list consulted by both the authentication
// middleware and the authorization guard.
type Policy struct {
	prefixes []string
}

// NewPolicy builds a policy; with no prefixes it uses DefaultPublicPrefixes.
func NewPolicy(prefixes ...string) *Policy {
	if len(prefixes) == 0 {
		prefixes = DefaultPublicPrefixes
	}
	return &Policy{prefixes: append([]string(nil), prefixes...)}
}

// IsPublic reports whether path starts with one of the public prefixes.
func (p *Policy) IsPublic(path string) bool {
	for _, prefix := range p.prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
