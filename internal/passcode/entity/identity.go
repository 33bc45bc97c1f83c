package entity

import "strings"

// IdentityKind is the channel family an identity belongs to.
type IdentityKind int8

const (
	IdentityKindUnknown IdentityKind = iota
	IdentityKindEmail
	IdentityKindPhone
)

func (k IdentityKind) String() string {
	switch k {
	case IdentityKindEmail:
		return "email"
	case IdentityKindPhone:
		return "phone"
	default:
		return "unknown"
	}
}

// NormalizeIdentity trims the identity and lower-cases email addresses.
// Phone numbers are kept as given since E.164 has a single form.
func NormalizeIdentity(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.Contains(s, "@") {
		return strings.ToLower(s)
	}
	return s
}

// KindOf classifies an already validated identity.
func KindOf(identity string) IdentityKind {
	switch {
	case strings.Contains(identity, "@"):
		return IdentityKindEmail
	case strings.HasPrefix(identity, "+"):
		return IdentityKindPhone
	default:
		return IdentityKindUnknown
	}
}
