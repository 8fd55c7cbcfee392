// Package address provides syntactic validation of email addresses and
// domain names. It is a leaf package: nothing here touches the network,
// deliverability is the providers' problem.
package address

import (
	"net/mail"
	"regexp"
	"strings"
)

// domainPattern accepts fully qualified domain names: dot-separated labels
// of letters, digits and inner hyphens, at least two labels deep.
var domainPattern = regexp.MustCompile(`^(?i)[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?(\.[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?)+$`)

// IsEmail reports whether s is a single bare RFC 5322 address with a fully
// qualified domain. Display names and angle brackets are rejected; callers
// store names separately.
func IsEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}

	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}

	at := strings.LastIndex(s, "@")
	if at < 0 {
		return false
	}
	return IsDomain(s[at+1:])
}

// IsDomain reports whether s looks like a fully qualified domain name.
func IsDomain(s string) bool {
	s = strings.TrimSpace(s)
	return len(s) > 0 && len(s) <= 253 && domainPattern.MatchString(s)
}
