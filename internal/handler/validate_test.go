package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSignup(t *testing.T) {
	tests := []struct {
		name     string
		inName   string
		email    string
		password string
		badField string // empty means valid
	}{
		{"all valid", "Jamie Rivera", "jamie@example.com", "abc123", ""},
		{"six char password boundary", "Jamie", "jamie@example.com", "abc123", ""},
		{"five char password rejected", "Jamie", "jamie@example.com", "abc12", "password"},
		{"one char name rejected", "J", "jamie@example.com", "abc123", "name"},
		{"whitespace name rejected", "  a  ", "jamie@example.com", "abc123", "name"},
		{"missing at sign", "Jamie", "jamie.example.com", "abc123", "email"},
		{"missing domain dot", "Jamie", "jamie@localhost", "abc123", "email"},
		{"empty email", "Jamie", "", "abc123", "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problems := ValidateSignup(tt.inName, tt.email, tt.password)
			if tt.badField == "" {
				assert.Empty(t, problems)
			} else {
				assert.Contains(t, problems, tt.badField)
			}
		})
	}
}

func TestValidateSignupReportsAllViolationsAtOnce(t *testing.T) {
	problems := ValidateSignup("", "nope", "123")
	assert.Len(t, problems, 3)
}

func TestValidEmail(t *testing.T) {
	assert.True(t, ValidEmail("a@b.co"))
	assert.True(t, ValidEmail("first.last+tag@sub.domain.org"))
	assert.False(t, ValidEmail("Jamie <jamie@example.com>")) // display names rejected
	assert.False(t, ValidEmail("@example.com"))
	assert.False(t, ValidEmail("jamie@"))
}
