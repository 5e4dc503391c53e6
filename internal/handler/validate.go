package handler

import (
	"fmt"
	"net/mail"
	"strings"
)

// Signup field rules. Exported indirectly through ValidateSignup so the
// rules stay testable without spinning up an HTTP server.
const (
	minNameLen     = 2
	minPasswordLen = 6
)

// ValidateSignup checks the signup fields and returns a map of field name
// to message for every violation. An empty map means the input is valid.
// Uniqueness of the email is enforced by the database, not here.
func ValidateSignup(name, email, password string) map[string]string {
	problems := map[string]string{}
	if len(strings.TrimSpace(name)) < minNameLen {
		problems["name"] = fmt.Sprintf("must be at least %d characters", minNameLen)
	}
	if !ValidEmail(email) {
		problems["email"] = "must be a valid email address"
	}
	if len(password) < minPasswordLen {
		problems["password"] = fmt.Sprintf("must be at least %d characters", minPasswordLen)
	}
	return problems
}

// ValidEmail reports whether addr parses as a bare RFC 5322 address with a
// domain part. mail.ParseAddress accepts display names and domainless
// locals, so both are screened out explicitly.
func ValidEmail(addr string) bool {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return false
	}
	parsed, err := mail.ParseAddress(addr)
	if err != nil || parsed.Address != addr {
		return false
	}
	at := strings.LastIndex(addr, "@")
	return at > 0 && strings.Contains(addr[at+1:], ".")
}

// ValidPassword applies the signup password rule to password changes too.
func ValidPassword(password string) bool {
	return len(password) >= minPasswordLen
}
