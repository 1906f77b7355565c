package domain

import "strings"

// Reference is a tagged union over the two forms an asset reference can
// take at the API boundary: an opaque identifier minted by the registry,
// or a legacy raw path left over from before identifiers existed.
// Inputs are parsed once at the edge into this canonical form.
type Reference struct {
	value string
	isID  bool
}

// ParseReference normalizes a raw reference string. Download-URL
// prefixes and leading slashes are stripped and back-slashes folded to
// forward slashes before classification.
func ParseReference(raw string) Reference {
	v := strings.TrimSpace(raw)
	v = strings.TrimPrefix(v, "/download/")
	v = strings.TrimLeft(v, "/")
	v = strings.ReplaceAll(v, "\\", "/")
	return Reference{value: v, isID: isUUID(v)}
}

// IdentifierReference builds a Reference from a known opaque identifier.
func IdentifierReference(id string) Reference {
	return Reference{value: id, isID: true}
}

// IsIdentifier reports whether the reference is an opaque identifier.
func (r Reference) IsIdentifier() bool { return r.isID }

// Value returns the normalized identifier or legacy path.
func (r Reference) Value() string { return r.value }

// IsZero reports whether the reference is empty.
func (r Reference) IsZero() bool { return r.value == "" }

// isUUID reports whether s has the canonical 8-4-4-4-12 hex form.
func isUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	for i, c := range s {
		switch i {
		case 8, 13, 18, 23:
			if c != '-' {
				return false
			}
		default:
			if !isHex(byte(c)) {
				return false
			}
		}
	}
	return true
}

func isHex(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}
