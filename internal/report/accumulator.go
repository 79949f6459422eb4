package report

import (
	"sort"
	"strings"

	"chatmetrics/internal/identity"
	"chatmetrics/internal/store"
)

// firstExchangeLen is how many opening messages each chat keeps as
// a transcript.
const firstExchangeLen = 10

// topN is how many entries frequency lists keep.
const topN = 10

// tokenCounts tracks token frequencies overall and per direction.
type tokenCounts struct {
	overall  map[string]int
	sent     map[string]int
	received map[string]int
}

func newTokenCounts() tokenCounts {
	return tokenCounts{
		overall:  make(map[string]int),
		sent:     make(map[string]int),
		received: make(map[string]int),
	}
}

func (tc *tokenCounts) add(token string, fromMe bool) {
	tc.overall[token]++
	if fromMe {
		tc.sent[token]++
	} else {
		tc.received[token]++
	}
}

// top returns the n most frequent tokens, count descending, ties
// broken by token ascending.
func top(counts map[string]int, n int) []TokenCount {
	out := make([]TokenCount, 0, len(counts))
	for tok, c := range counts {
		out = append(out, TokenCount{Token: tok, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Token < out[j].Token
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func (tc *tokenCounts) tops() TopTokens {
	return TopTokens{
		Overall:  top(tc.overall, topN),
		Sent:     top(tc.sent, topN),
		Received: top(tc.received, topN),
	}
}

// chatAccumulator carries all per-chat running state for one pass.
// It is created when the chat's first record arrives and destroyed
// once the ChatReport is emitted.
type chatAccumulator struct {
	chatID      int64
	identifier  string
	displayName string
	handles     []string // pipe-split participant handle list

	totals         Totals
	leftOnRead     LeftOnRead
	youReply       []float64 // minutes, you replying to them
	themReply      []float64 // minutes, them replying to you
	perParticipant map[string][]float64

	hourly  [24]int
	weekday [7]int

	words   tokenCounts
	phrases tokenCounts
	emojis  tokenCounts

	moods     MoodCounts
	moodDaily map[string]*MoodCounts

	days        map[string]bool
	dayTotals   map[string]int
	daySent     map[string]int
	dayReceived map[string]int

	attachments Totals

	firstExchange []TranscriptLine

	initiations   map[string]int
	reEngBySender map[string]int
	reEngCount    int
	reEngGapHours float64

	greetMorning map[string]int
	greetNight   map[string]int
	reactions    map[string]int

	externalSenders map[string]bool // distinct non-self sender keys
	senderLabels    map[string]string
	seenHandles     map[string]bool
	handleOrder     []string // sender handles in first-seen order

	switches      int
	prevSender    string
	hasPrev       bool
	prevRaw       int64
	hasPrevRaw    bool
	lastFromMeRaw int64
	hasLastFromMe bool

	dir identity.Directory
}

func newChatAccumulator(
	first store.Message, dir identity.Directory,
) *chatAccumulator {
	acc := &chatAccumulator{
		chatID:          first.ChatID,
		identifier:      first.ChatIdentifier,
		displayName:     first.DisplayName,
		words:           newTokenCounts(),
		phrases:         newTokenCounts(),
		emojis:          newTokenCounts(),
		moodDaily:       make(map[string]*MoodCounts),
		days:            make(map[string]bool),
		dayTotals:       make(map[string]int),
		daySent:         make(map[string]int),
		dayReceived:     make(map[string]int),
		initiations:     make(map[string]int),
		reEngBySender:   make(map[string]int),
		greetMorning:    make(map[string]int),
		greetNight:      make(map[string]int),
		reactions:       make(map[string]int),
		externalSenders: make(map[string]bool),
		senderLabels:    make(map[string]string),
		seenHandles:     make(map[string]bool),
		perParticipant:  make(map[string][]float64),
		dir:             dir,
	}
	if first.Participants != "" {
		acc.handles = strings.Split(first.Participants, "|")
	}
	return acc
}

// senderLabel resolves a stable per-sender label: "you" for own
// messages, else the directory name or cleaned handle.
func (acc *chatAccumulator) senderLabel(m store.Message) string {
	if m.IsFromMe {
		return "you"
	}
	handle := m.Handle
	if handle == "" {
		return "them"
	}
	if label, ok := acc.senderLabels[handle]; ok {
		return label
	}
	label := identity.CleanHandle(handle)
	if name, ok := acc.dir.DisplayName(handle); ok {
		label = name
	}
	acc.senderLabels[handle] = label
	return label
}

// senderKey returns the turn-taking key for a message: "you" or
// the sender's normalized handle key.
func (acc *chatAccumulator) senderKey(m store.Message) string {
	if m.IsFromMe {
		return "you"
	}
	if m.Handle == "" {
		return "them"
	}
	return identity.Normalize(m.Handle).Key()
}
