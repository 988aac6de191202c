package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicy_IsPublic(t *testing.T) {
	policy := NewPolicy()

	tests := []struct {
		path   string
		public bool
	}{
		{"/api/users/register", true},
		{"/api/users/login", true},
		{"/api/users/logout", true},
		{"/health/live", true},
		{"/health/ready", true},
		{"/metrics", true},
		{"/api/users/me", false},
		{"/api/users", false},
		{"/api/users/42", false},
		{"/health", false},
		{"/", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.public, policy.IsPublic(tt.path), tt.path)
	}
}

func TestPolicy_CustomPrefixes(t *testing.T) {
	policy := NewPolicy("/open/")

	assert.True(t, policy.IsPublic("/open/x"))
	assert.False(t, policy.IsPublic("/api/users/login"))
}
