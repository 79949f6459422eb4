package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tokens := tokenize("good morning!! \U0001F60A see you at the meeting")
	assert.Equal(t,
		[]string{"good", "morning", "see", "meeting"}, tokens)
}

func TestTokenizeRules(t *testing.T) {
	// Too short, stop words, and all-digit runs are dropped;
	// mixed alphanumerics survive.
	tokens := tokenize("ok the 12345 room101 YELLING")
	assert.Equal(t, []string{"room101", "yelling"}, tokens)
}

func TestBigrams(t *testing.T) {
	assert.Nil(t, bigrams([]string{"solo"}))
	assert.Equal(t,
		[]string{"good morning", "morning meeting"},
		bigrams([]string{"good", "morning", "meeting"}))
}

func TestExtractEmojis(t *testing.T) {
	assert.Equal(t, []string{"\U0001F60A"},
		extractEmojis("hello \U0001F60A"))

	// Skin-tone modified emoji stays one cluster.
	got := extractEmojis("\U0001F44B\U0001F3FD ok")
	assert.Equal(t, []string{"\U0001F44B\U0001F3FD"}, got)

	// Keycap digits are alphanumeric composites, not emojis.
	assert.Empty(t, extractEmojis("press 1️⃣ now"))

	assert.Empty(t, extractEmojis("plain ascii text"))
}

func TestClassifyMoodPrecedence(t *testing.T) {
	assert.Equal(t, moodRomantic,
		classifyMood("miss you, see you after the meeting"))
	assert.Equal(t, moodProfessional,
		classifyMood("haha the meeting ran long"))
	assert.Equal(t, moodFriendly, classifyMood("haha nice"))
	assert.Equal(t, moodNeutral, classifyMood("on my way"))
}

func TestGreetings(t *testing.T) {
	assert.True(t, isMorningGreeting("good morning!"))
	assert.True(t, isMorningGreeting("gm"))
	assert.True(t, isMorningGreeting("gm everyone"))
	assert.True(t, isMorningGreeting("hey goodmorning"))
	assert.False(t, isMorningGreeting("gmail is down"))

	assert.True(t, isNightGreeting("good night"))
	assert.True(t, isNightGreeting("gn"))
	assert.False(t, isNightGreeting("gnocchi for dinner"))
}

func TestReactionLabel(t *testing.T) {
	label, ok := reactionLabel(`Loved "see you soon"`)
	assert.True(t, ok)
	assert.Equal(t, "loved", label)

	label, ok = reactionLabel(`Laughed at "that pun"`)
	assert.True(t, ok)
	assert.Equal(t, "laughed", label)

	_, ok = reactionLabel("I loved that movie")
	assert.False(t, ok)
}

func TestIsReactionCode(t *testing.T) {
	assert.True(t, isReactionCode(2000))
	assert.True(t, isReactionCode(2005))
	assert.False(t, isReactionCode(0))
	assert.False(t, isReactionCode(3000))
}
