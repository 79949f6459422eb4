// Package identity normalizes the heterogeneous handle strings the
// message store uses (phone numbers, emails, service-prefixed ids,
// group identifiers) into comparable forms and stable per-contact
// keys.
package identity

import (
	"strings"
	"unicode"
)

// Kind tags a normalized handle form.
type Kind int

const (
	// KindRaw is a handle that is neither an email nor phone-like.
	KindRaw Kind = iota
	// KindEmail is a lowercased email address.
	KindEmail
	// KindPhone is a digits-only phone form.
	KindPhone
)

// Normalized is one canonical form of a handle. Comparison between
// handles is a single match over Kind plus Value equality.
type Normalized struct {
	Kind  Kind
	Value string
}

// servicePrefixes are the known protocol markers seen at the front
// of raw identifiers.
var servicePrefixes = []string{"imessage;", "sms;", "rcs;"}

// stripService removes a known service prefix (everything up to
// and including the last ';'), mailto:/tel: markers, and bare
// two-letter scheme prefixes.
func stripService(handle string) string {
	h := strings.TrimSpace(handle)
	lower := strings.ToLower(h)
	for _, p := range servicePrefixes {
		if strings.HasPrefix(lower, p) {
			if i := strings.LastIndex(h, ";"); i >= 0 {
				return h[i+1:]
			}
		}
	}
	if strings.HasPrefix(lower, "mailto:") {
		return h[len("mailto:"):]
	}
	if strings.HasPrefix(lower, "tel:") {
		return h[len("tel:"):]
	}
	// Two-character scheme like "e:" or "p:+1555..."
	if len(h) > 2 && h[1] == ':' && isASCIIAlpha(h[0]) {
		return h[2:]
	}
	return h
}

func isASCIIAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// digitsOf returns only the decimal digits of s.
func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// phoneLike reports whether a cleaned handle looks like a phone
// number: at least 7 digits and no letters.
func phoneLike(s string) bool {
	digits := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			return false
		}
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= 7
}

// Normalize returns the canonical form of a single handle.
func Normalize(handle string) Normalized {
	h := stripService(handle)
	if strings.Contains(h, "@") {
		return Normalized{Kind: KindEmail, Value: strings.ToLower(h)}
	}
	if phoneLike(h) {
		return Normalized{Kind: KindPhone, Value: digitsOf(h)}
	}
	return Normalized{Kind: KindRaw, Value: strings.ToLower(h)}
}

// Variants returns all comparison forms of a handle. Phone numbers
// yield both the full digit string and, when longer than ten
// digits, the last-ten suffix so numbers written with or without a
// country code compare equal.
func Variants(handle string) []Normalized {
	n := Normalize(handle)
	out := []Normalized{n}
	if n.Kind == KindPhone && len(n.Value) > 10 {
		out = append(out, Normalized{
			Kind:  KindPhone,
			Value: n.Value[len(n.Value)-10:],
		})
	}
	return out
}

// Key returns a string comparison key for a normalized form.
func (n Normalized) Key() string {
	switch n.Kind {
	case KindEmail:
		return "email:" + n.Value
	case KindPhone:
		return "phone:" + n.Value
	default:
		return "raw:" + n.Value
	}
}

// SameContact reports whether two handles plausibly belong to the
// same contact under any pair of their variants.
func SameContact(a, b string) bool {
	for _, va := range Variants(a) {
		for _, vb := range Variants(b) {
			if va == vb {
				return true
			}
		}
	}
	return false
}

// longestDigitRun returns the longest run of consecutive digits
// in s.
func longestDigitRun(s string) string {
	best, cur := "", ""
	for _, r := range s {
		if r >= '0' && r <= '9' {
			cur += string(r)
			if len(cur) > len(best) {
				best = cur
			}
		} else {
			cur = ""
		}
	}
	return best
}

// allDigits reports whether s is non-empty and consists only of
// digits after stripping spaces and a leading '+'.
func allDigits(s string) bool {
	s = strings.TrimPrefix(strings.TrimSpace(s), "+")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// MergeKey derives a handle-based merge key from candidate
// identifier strings: the lowercase email if any candidate carries
// one, else the longest digit run of the first all-digit candidate,
// else the first candidate's normalized form.
func MergeKey(candidates []string) string {
	for _, c := range candidates {
		if strings.Contains(c, "@") {
			return strings.ToLower(stripService(c))
		}
	}
	for _, c := range candidates {
		cleaned := stripService(c)
		if allDigits(cleaned) {
			return longestDigitRun(cleaned)
		}
	}
	for _, c := range candidates {
		if v := Normalize(c).Value; v != "" {
			return v
		}
	}
	return ""
}

// LooksLikeHandle reports whether s is a raw handle rather than a
// human display name: emails, phone-like strings, service-prefixed
// identifiers, and group chat ids all qualify.
func LooksLikeHandle(s string) bool {
	if s == "" {
		return false
	}
	if strings.Contains(s, "@") || strings.Contains(s, ";") {
		return true
	}
	if phoneLike(s) {
		return true
	}
	return IsGroupIdentifier(s)
}

// IsGroupIdentifier reports whether a raw chat identifier names a
// group chat ("chat" followed by digits).
func IsGroupIdentifier(s string) bool {
	rest, ok := strings.CutPrefix(s, "chat")
	if !ok || rest == "" {
		return false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// CleanHandle returns a display-friendly form of a raw handle with
// service prefixes removed.
func CleanHandle(s string) string {
	return stripService(s)
}
