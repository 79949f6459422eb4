package report

import (
	"strings"
	"unicode"

	"github.com/rivo/uniseg"
)

// stopWords are excluded from word and phrase frequencies.
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "you": true,
	"that": true, "this": true, "with": true, "have": true,
	"was": true, "are": true, "but": true, "not": true,
	"what": true, "all": true, "can": true, "your": true,
	"get": true, "just": true, "like": true, "out": true,
	"when": true, "how": true, "its": true, "has": true,
	"had": true, "will": true, "one": true, "about": true,
	"they": true, "them": true, "were": true, "been": true,
	"from": true, "she": true, "his": true, "her": true,
	"him": true, "who": true, "did": true, "why": true,
	"our": true, "there": true, "then": true, "than": true,
	"some": true, "would": true, "could": true, "should": true,
	"now": true, "got": true, "know": true, "dont": true,
	"youre": true, "thats": true, "gonna": true, "wanna": true,
}

// tokenize lowercases text, splits on non-alphanumeric boundaries,
// and keeps tokens of length >= 3 that are not stop words and
// contain at least one non-digit character.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := fields[:0]
	for _, f := range fields {
		if len(f) < 3 || stopWords[f] {
			continue
		}
		hasNonDigit := false
		for _, r := range f {
			if !unicode.IsDigit(r) {
				hasNonDigit = true
				break
			}
		}
		if hasNonDigit {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// bigrams returns adjacent-token pairs joined by a single space.
func bigrams(tokens []string) []string {
	if len(tokens) < 2 {
		return nil
	}
	out := make([]string, 0, len(tokens)-1)
	for i := 0; i+1 < len(tokens); i++ {
		out = append(out, tokens[i]+" "+tokens[i+1])
	}
	return out
}

// emojiRune reports whether a code point has emoji presentation or
// is a non-ASCII emoji scalar.
func emojiRune(r rune) bool {
	switch {
	case r >= 0x1F000 && r <= 0x1FAFF: // emoji, symbols, flags
		return true
	case r >= 0x2600 && r <= 0x27BF: // misc symbols, dingbats
		return true
	case r >= 0x2B00 && r <= 0x2BFF: // arrows and stars
		return true
	case r == 0x2764 || r == 0x2763: // hearts
		return true
	case r == 0xFE0F: // emoji presentation selector
		return true
	}
	return false
}

// extractEmojis iterates grapheme clusters and returns those that
// count as emojis: at least one emoji code point, and not an
// alphanumeric composite (keycap-style clusters whose base is a
// letter or digit).
func extractEmojis(text string) []string {
	var out []string
	g := uniseg.NewGraphemes(text)
	for g.Next() {
		runes := g.Runes()
		hasEmoji := false
		baseAlnum := true
		for _, r := range runes {
			if emojiRune(r) {
				hasEmoji = true
			}
			// Presentation selectors and keycap combiners do not
			// count toward the alphanumeric test.
			if r == 0xFE0F || r == 0x20E3 {
				continue
			}
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				baseAlnum = false
			}
		}
		if hasEmoji && !baseAlnum {
			out = append(out, g.Str())
		}
	}
	return out
}

// Mood keyword families, tested in order; the first containment
// match wins.
var (
	romanticWords = []string{
		"love you", "miss you", "babe", "sweetheart", "my love",
		"date night", "kisses", "xoxo", "darling", "honey",
	}
	professionalWords = []string{
		"meeting", "deadline", "project", "invoice", "schedule",
		"report", "client", "office", "follow up", "agenda",
	}
	friendlyWords = []string{
		"lol", "haha", "lmao", "dude", "bro", "hang out",
		"party", "movie", "dinner", "game night",
	}
)

// Mood labels.
const (
	moodRomantic     = "romantic"
	moodProfessional = "professional"
	moodFriendly     = "friendly"
	moodNeutral      = "neutral"
)

// classifyMood tags a message text with a coarse mood. The input
// must already be lowercased.
func classifyMood(lower string) string {
	for _, w := range romanticWords {
		if strings.Contains(lower, w) {
			return moodRomantic
		}
	}
	for _, w := range professionalWords {
		if strings.Contains(lower, w) {
			return moodProfessional
		}
	}
	for _, w := range friendlyWords {
		if strings.Contains(lower, w) {
			return moodFriendly
		}
	}
	return moodNeutral
}

// isMorningGreeting matches the "good morning" family.
func isMorningGreeting(lower string) bool {
	return strings.Contains(lower, "good morning") ||
		lower == "gm" ||
		strings.HasPrefix(lower, "gm ") ||
		strings.Contains(lower, " goodmorning")
}

// isNightGreeting matches the "good night" family.
func isNightGreeting(lower string) bool {
	return strings.Contains(lower, "good night") ||
		lower == "gn" ||
		strings.HasPrefix(lower, "gn ") ||
		strings.Contains(lower, " goodnight")
}

// reactionPrefixes are the verb prefixes tapback texts start with.
var reactionPrefixes = []struct {
	prefix string
	label  string
}{
	{"Loved ", "loved"},
	{"Liked ", "liked"},
	{"Disliked ", "disliked"},
	{"Laughed at ", "laughed"},
	{"Emphasized ", "emphasized"},
	{"Questioned ", "questioned"},
}

// reactionLabel returns the tapback label when text begins with a
// known reaction verb.
func reactionLabel(text string) (string, bool) {
	for _, rp := range reactionPrefixes {
		if strings.HasPrefix(text, rp.prefix) {
			return rp.label, true
		}
	}
	return "", false
}

// isReactionCode reports whether an associated-message type code
// marks a tapback rather than a regular message.
func isReactionCode(code int64) bool {
	return code >= 2000 && code < 3000
}
