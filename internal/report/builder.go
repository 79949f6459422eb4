package report

import (
	"sort"
	"strings"
	"time"

	"chatmetrics/internal/appletime"
	"chatmetrics/internal/identity"
	"chatmetrics/internal/store"
)

// Input bundles the extraction products the builder consumes.
type Input struct {
	Messages          []store.Message
	Scale             appletime.Scale
	GroupPhotos       map[int64]string
	ParticipantCounts map[int64]int
	Now               time.Time
}

const (
	initiationGap   = 6 * time.Hour
	reEngagementGap = 12 * time.Hour
	timelineDays    = 30
)

// Build replays the ordered message stream through one accumulator
// per chat and assembles the report. Two calls with identical
// inputs produce identical reports except for generated_at.
func Build(
	in Input, set Settings, dir identity.Directory,
) Report {
	if dir == nil {
		dir = identity.NullDirectory{}
	}

	b := &builder{
		in:             in,
		set:            set,
		dir:            dir,
		nowRaw:         in.Scale.FromTime(in.Now),
		globalSent:     make(map[string]int),
		globalReceived: make(map[string]int),
	}
	b.run()
	return b.finish()
}

type builder struct {
	in     Input
	set    Settings
	dir    identity.Directory
	nowRaw int64

	chats []ChatReport

	sumTotals    Totals
	sumLeft      LeftOnRead
	allYouReply  []float64
	allThemReply []float64

	globalSent     map[string]int // day -> sent
	globalReceived map[string]int // day -> received
	anchorDay      string
}

// run groups the contiguous stream by chat and replays each group.
// A cheap pre-scan fixes the anchor day (latest message date) first
// so every chat sees the same recent-activity windows.
func (b *builder) run() {
	msgs := b.in.Messages
	for _, m := range msgs {
		if !m.HasDate {
			continue
		}
		day := b.in.Scale.ToTime(m.DateRaw).Format(dayFormat)
		if day > b.anchorDay {
			b.anchorDay = day
		}
	}

	start := 0
	for i := 1; i <= len(msgs); i++ {
		if i == len(msgs) || msgs[i].ChatID != msgs[start].ChatID {
			b.processChat(msgs[start:i])
			start = i
		}
	}
}

// nextOppositeTimes computes, for every message, the raw timestamp
// of the next message from the opposite party. One backward scan;
// the forward pass never looks ahead.
func nextOppositeTimes(msgs []store.Message) ([]int64, []bool) {
	n := len(msgs)
	next := make([]int64, n)
	has := make([]bool, n)

	var fromMeRaw, fromThemRaw int64
	var hasFromMe, hasFromThem bool
	for i := n - 1; i >= 0; i-- {
		m := msgs[i]
		if m.IsFromMe {
			next[i], has[i] = fromThemRaw, hasFromThem
			if m.HasDate {
				fromMeRaw, hasFromMe = m.DateRaw, true
			}
		} else {
			next[i], has[i] = fromMeRaw, hasFromMe
			if m.HasDate {
				fromThemRaw, hasFromThem = m.DateRaw, true
			}
		}
	}
	return next, has
}

func (b *builder) processChat(msgs []store.Message) {
	if len(msgs) == 0 {
		return
	}
	acc := newChatAccumulator(msgs[0], b.dir)
	next, hasNext := nextOppositeTimes(msgs)

	thresholdSecs := b.set.ThresholdHours * 3600
	const capSecs = float64(7 * 24 * 3600)

	for i, m := range msgs {
		b.applyMessage(acc, m, next[i], hasNext[i],
			thresholdSecs, capSecs)
	}

	b.emitChat(acc)
}

func (b *builder) applyMessage(
	acc *chatAccumulator, m store.Message,
	nextRaw int64, hasNext bool,
	thresholdSecs, capSecs float64,
) {
	scale := b.in.Scale

	if m.IsFromMe {
		acc.totals.Sent++
		acc.attachments.Sent += m.Attachments
	} else {
		acc.totals.Received++
		acc.attachments.Received += m.Attachments
		acc.externalSenders[acc.senderKey(m)] = true
		if m.Handle != "" && !acc.seenHandles[m.Handle] {
			acc.seenHandles[m.Handle] = true
			acc.handleOrder = append(acc.handleOrder, m.Handle)
		}
	}
	acc.totals.Total++
	acc.attachments.Total += m.Attachments

	// Reply latency accrues to the replying party.
	if hasNext && m.HasDate {
		secs := scale.Seconds(nextRaw - m.DateRaw)
		if secs >= 0 {
			minutes := secs / 60
			if m.IsFromMe {
				acc.themReply = append(acc.themReply, minutes)
			} else {
				acc.youReply = append(acc.youReply, minutes)
			}
		}
	}

	// Left on read: read receipt present, no timely reply, and the
	// gap still inside the 7-day dormancy cap.
	if m.DateReadRaw != 0 && m.HasDate {
		var gapSecs float64
		if hasNext {
			gapSecs = scale.Seconds(nextRaw - m.DateReadRaw)
		} else {
			gapSecs = scale.Seconds(b.nowRaw - m.DateReadRaw)
		}
		if gapSecs > thresholdSecs && gapSecs <= capSecs {
			if m.IsFromMe {
				acc.leftOnRead.TheyLeftYou++
			} else {
				acc.leftOnRead.YouLeftThem++
			}
		}
	}

	// Per-participant latency: time from your last message to this
	// participant's reply.
	if !m.IsFromMe && m.HasDate && acc.hasLastFromMe {
		secs := scale.Seconds(m.DateRaw - acc.lastFromMeRaw)
		if secs >= 0 {
			label := acc.senderLabel(m)
			acc.perParticipant[label] = append(
				acc.perParticipant[label], secs/60)
		}
	}
	if m.IsFromMe && m.HasDate {
		acc.lastFromMeRaw, acc.hasLastFromMe = m.DateRaw, true
	}

	if m.HasDate {
		t := scale.ToTime(m.DateRaw)
		day := t.Format(dayFormat)
		acc.hourly[t.Hour()]++
		acc.weekday[int(t.Weekday())]++
		acc.days[day] = true
		acc.dayTotals[day]++
		if m.IsFromMe {
			acc.daySent[day]++
			b.globalSent[day]++
		} else {
			acc.dayReceived[day]++
			b.globalReceived[day]++
		}
		if b.anchorDay == "" || day > b.anchorDay {
			b.anchorDay = day
		}

		sender := acc.senderLabel(m)

		// Initiations and re-engagement hinge on the silence gap
		// since the previous message, regardless of direction.
		if !acc.hasPrevRaw {
			acc.initiations[sender]++
		} else {
			gap := scale.Seconds(m.DateRaw - acc.prevRaw)
			if gap > initiationGap.Seconds() {
				acc.initiations[sender]++
			}
			if gap > reEngagementGap.Seconds() {
				acc.reEngCount++
				acc.reEngBySender[sender]++
				acc.reEngGapHours += gap / 3600
			}
		}
		acc.prevRaw, acc.hasPrevRaw = m.DateRaw, true
	}

	// Turn taking.
	key := acc.senderKey(m)
	if acc.hasPrev && key != acc.prevSender {
		acc.switches++
	}
	acc.prevSender, acc.hasPrev = key, true

	if len(acc.firstExchange) < firstExchangeLen {
		at := ""
		if m.HasDate {
			at = scale.ToTime(m.DateRaw).Format(time.RFC3339)
		}
		acc.firstExchange = append(acc.firstExchange, TranscriptLine{
			From: acc.senderLabel(m),
			Text: m.Text,
			At:   at,
		})
	}

	b.applyText(acc, m)
}

// applyText runs tokenization, emoji, mood, greeting, and reaction
// tallies for one message.
func (b *builder) applyText(acc *chatAccumulator, m store.Message) {
	if m.Text == "" {
		return
	}
	if label, ok := reactionLabel(m.Text); ok {
		acc.reactions[label]++
		return
	}
	if isReactionCode(m.AssociatedType) {
		return
	}

	lower := strings.ToLower(m.Text)

	tokens := tokenize(m.Text)
	for _, tok := range tokens {
		acc.words.add(tok, m.IsFromMe)
	}
	for _, bg := range bigrams(tokens) {
		acc.phrases.add(bg, m.IsFromMe)
	}
	for _, e := range extractEmojis(m.Text) {
		acc.emojis.add(e, m.IsFromMe)
	}

	mood := classifyMood(lower)
	day := ""
	if m.HasDate {
		day = b.in.Scale.ToTime(m.DateRaw).Format(dayFormat)
	}
	acc.addMood(mood, day)

	sender := acc.senderLabel(m)
	if isMorningGreeting(lower) {
		acc.greetMorning[sender]++
	}
	if isNightGreeting(lower) {
		acc.greetNight[sender]++
	}
}

func (acc *chatAccumulator) addMood(mood, day string) {
	bump := func(mc *MoodCounts) {
		switch mood {
		case moodRomantic:
			mc.Romantic++
		case moodProfessional:
			mc.Professional++
		case moodFriendly:
			mc.Friendly++
		default:
			mc.Neutral++
		}
	}
	bump(&acc.moods)
	if day != "" {
		mc, ok := acc.moodDaily[day]
		if !ok {
			mc = &MoodCounts{}
			acc.moodDaily[day] = mc
		}
		bump(mc)
	}
}

// emitChat finalizes one accumulator into a ChatReport and folds
// its totals into the aggregate summary.
func (b *builder) emitChat(acc *chatAccumulator) {
	sort.Float64s(acc.youReply)
	sort.Float64s(acc.themReply)

	cr := ChatReport{
		ChatID:         acc.chatID,
		ChatIdentifier: acc.identifier,
		Totals:         acc.totals,
		LeftOnRead:     acc.leftOnRead,
		ResponseTimes: ResponseTimes{
			YouReply:  summarize(acc.youReply),
			TheyReply: summarize(acc.themReply),
		},
		Hourly:        acc.hourly,
		Weekday:       acc.weekday,
		Attachments:   acc.attachments,
		TopEmojis:     acc.emojis.tops(),
		TopWords:      acc.words.tops(),
		TopPhrases:    acc.phrases.tops(),
		Moods:         acc.moods,
		Greetings: Greetings{
			GoodMorning: acc.greetMorning,
			GoodNight:   acc.greetNight,
		},
		Reactions:     acc.reactions,
		Initiations:   acc.initiations,
		FirstExchange: acc.firstExchange,
	}
	if acc.displayName != "" {
		cr.DisplayName = ptr(acc.displayName)
	}

	cr.Streaks = computeStreaks(acc.days)
	if cr.Streaks.ActiveDays > 0 {
		span := spanDays(cr.Streaks.FirstDay, cr.Streaks.LastDay)
		cr.EnergyScore = energyScore(
			acc.totals.Total, cr.Streaks.ActiveDays, span,
			acc.switches,
		)
	}

	cr.MoodTimeline = make([]MoodDay, 0, len(acc.moodDaily))
	for day, mc := range acc.moodDaily {
		cr.MoodTimeline = append(cr.MoodTimeline, MoodDay{
			Date:  day,
			Moods: *mc,
		})
	}
	sort.Slice(cr.MoodTimeline, func(i, j int) bool {
		return cr.MoodTimeline[i].Date < cr.MoodTimeline[j].Date
	})

	cr.ReEngagement = ReEngagement{
		Count:    acc.reEngCount,
		BySender: acc.reEngBySender,
	}
	if acc.reEngCount > 0 {
		cr.ReEngagement.AvgGapHours = round2(
			acc.reEngGapHours / float64(acc.reEngCount))
	}

	// Peak day: most messages, earliest date on ties.
	for day, n := range acc.dayTotals {
		if n > cr.PeakDayMessages ||
			(n == cr.PeakDayMessages && day < cr.PeakDay) {
			cr.PeakDay = day
			cr.PeakDayMessages = n
		}
	}

	// Recent-activity balance over trailing windows anchored to
	// the latest message date in the store.
	if b.anchorDay != "" {
		if anchor, err := time.Parse(dayFormat, b.anchorDay); err == nil {
			cut30 := anchor.AddDate(0, 0, -29).Format(dayFormat)
			cut90 := anchor.AddDate(0, 0, -89).Format(dayFormat)
			for day, n := range acc.daySent {
				if day >= cut30 {
					cr.Last30Days.Sent += n
				}
				if day >= cut90 {
					cr.Last90Days.Sent += n
				}
			}
			for day, n := range acc.dayReceived {
				if day >= cut30 {
					cr.Last30Days.Received += n
				}
				if day >= cut90 {
					cr.Last90Days.Received += n
				}
			}
		}
	}

	b.resolveIdentity(acc, &cr)

	if photo, ok := b.in.GroupPhotos[acc.chatID]; ok {
		cr.GroupPhoto = photo
	}
	if n, ok := b.in.ParticipantCounts[acc.chatID]; ok {
		cr.ParticipantCount = n
	} else if cr.IsGroup {
		cr.ParticipantCount = len(acc.handles)
	} else {
		cr.ParticipantCount = 1
	}

	if cr.IsGroup && len(acc.perParticipant) > 0 {
		cr.PerParticipant = make(
			map[string]ResponseTimeSummary, len(acc.perParticipant))
		for label, samples := range acc.perParticipant {
			sort.Float64s(samples)
			cr.PerParticipant[label] = summarize(samples)
		}
	}

	// Fold into the aggregate before any truncation.
	b.sumTotals.Sent += acc.totals.Sent
	b.sumTotals.Received += acc.totals.Received
	b.sumTotals.Total += acc.totals.Total
	b.sumLeft.YouLeftThem += acc.leftOnRead.YouLeftThem
	b.sumLeft.TheyLeftYou += acc.leftOnRead.TheyLeftYou
	b.allYouReply = append(b.allYouReply, acc.youReply...)
	b.allThemReply = append(b.allThemReply, acc.themReply...)

	b.chats = append(b.chats, cr)
}

// resolveIdentity fills label, group flag, participants, and the
// stable contact key.
func (b *builder) resolveIdentity(
	acc *chatAccumulator, cr *ChatReport,
) {
	cr.IsGroup = len(acc.externalSenders) > 1 ||
		identity.IsGroupIdentifier(acc.identifier)
	cr.Participants = acc.handles

	// Candidate identifiers for directory lookups and merge keys:
	// observed sender handles in first-seen order, then the
	// chat-level participant list, then the raw identifier.
	var candidates []string
	seen := make(map[string]bool)
	addCand := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			candidates = append(candidates, s)
		}
	}
	for _, h := range acc.handleOrder {
		addCand(h)
	}
	for _, h := range acc.handles {
		addCand(h)
	}
	addCand(acc.identifier)

	cr.Label = b.chooseLabel(acc, cr, candidates)
	if !cr.IsGroup {
		cr.ContactKey = b.chooseContactKey(cr.Label, candidates)
	}
}

func (b *builder) chooseLabel(
	acc *chatAccumulator, cr *ChatReport, candidates []string,
) string {
	if acc.displayName != "" &&
		!identity.LooksLikeHandle(acc.displayName) {
		return acc.displayName
	}
	if cr.IsGroup {
		// Only the chat identifier itself can name a group; a lone
		// member's directory name would mislabel the whole chat.
		if name, ok := b.dir.DisplayName(acc.identifier); ok {
			return name
		}
		var names []string
		for _, h := range acc.handles {
			if name, ok := b.dir.DisplayName(h); ok {
				names = append(names, name)
			}
		}
		if len(names) > 0 {
			return strings.Join(names, ", ")
		}
		if len(acc.handles) > 0 {
			cleaned := make([]string, len(acc.handles))
			for i, h := range acc.handles {
				cleaned[i] = identity.CleanHandle(h)
			}
			return strings.Join(cleaned, ", ")
		}
	} else {
		for _, c := range candidates {
			if name, ok := b.dir.DisplayName(c); ok {
				return name
			}
		}
		for _, c := range candidates {
			if c != acc.identifier {
				return identity.CleanHandle(c)
			}
		}
	}
	if acc.identifier != "" {
		return identity.CleanHandle(acc.identifier)
	}
	if cr.IsGroup {
		return "Group chat"
	}
	return "Unknown"
}

func (b *builder) chooseContactKey(
	label string, candidates []string,
) string {
	for _, c := range candidates {
		if id, ok := b.dir.ContactID(c); ok {
			return "contact:" + id
		}
	}
	if id, ok := b.dir.ContactIDByName(label); ok {
		return "contact:" + id
	}
	if key := identity.MergeKey(candidates); key != "" {
		return "handle:" + key
	}
	return ""
}

// finish sorts, truncates, and assembles the top-level report.
func (b *builder) finish() Report {
	sort.Slice(b.chats, func(i, j int) bool {
		if b.chats[i].Totals.Total != b.chats[j].Totals.Total {
			return b.chats[i].Totals.Total > b.chats[j].Totals.Total
		}
		return b.chats[i].ChatID < b.chats[j].ChatID
	})

	chats := b.chats
	if b.set.Top > 0 && len(chats) > b.set.Top {
		chats = chats[:b.set.Top]
	}
	if chats == nil {
		chats = []ChatReport{}
	}

	sort.Float64s(b.allYouReply)
	sort.Float64s(b.allThemReply)

	r := Report{
		Summary: Summary{
			Totals:     b.sumTotals,
			LeftOnRead: b.sumLeft,
			ResponseTimes: ResponseTimes{
				YouReply:  summarize(b.allYouReply),
				TheyReply: summarize(b.allThemReply),
			},
		},
		Chats:         chats,
		DailyTimeline: b.timeline(),
		GeneratedAt:   b.in.Now.UTC().Format(time.RFC3339),
		Filters: Filters{
			ThresholdHours: b.set.ThresholdHours,
			Top:            b.set.Top,
			DateScale:      b.in.Scale.Label,
		},
	}
	if b.set.Since != nil {
		r.Filters.Since = ptr(b.set.Since.Format(dayFormat))
	}
	if b.set.Until != nil {
		r.Filters.Until = ptr(b.set.Until.Format(dayFormat))
	}
	return r
}

// timeline builds the trailing 30-day sent/received series
// anchored to the latest message date. An empty stream yields an
// empty series.
func (b *builder) timeline() []DailyEntry {
	if b.anchorDay == "" {
		return []DailyEntry{}
	}
	anchor, err := time.Parse(dayFormat, b.anchorDay)
	if err != nil {
		return []DailyEntry{}
	}
	entries := make([]DailyEntry, 0, timelineDays)
	for i := timelineDays - 1; i >= 0; i-- {
		day := anchor.AddDate(0, 0, -i).Format(dayFormat)
		entries = append(entries, DailyEntry{
			Date:     day,
			Sent:     b.globalSent[day],
			Received: b.globalReceived[day],
		})
	}
	return entries
}
