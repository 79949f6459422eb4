// Package report builds behavioral analytics from an ordered
// message stream: one deterministic pass per chat producing
// per-chat and aggregate statistics.
package report

import "time"

// Settings control the extraction window and report shape. They
// are echoed back in the generated report.
type Settings struct {
	Since          *time.Time
	Until          *time.Time
	ThresholdHours float64 // left-on-read threshold
	Top            int     // max chats returned
}

// Totals counts messages by direction.
type Totals struct {
	Sent     int `json:"sent"`
	Received int `json:"received"`
	Total    int `json:"total"`
}

// LeftOnRead counts messages read but not replied to within the
// configured threshold (bounded by the 7-day dormancy cap).
type LeftOnRead struct {
	YouLeftThem int `json:"you_left_them"`
	TheyLeftYou int `json:"they_left_you"`
}

// BucketCounts classifies reply latencies into ordered speed
// buckets; the first matching boundary wins.
type BucketCounts struct {
	Under5Min    int `json:"under_5m"`
	Under1Hour   int `json:"under_1h"`
	Under6Hours  int `json:"under_6h"`
	Under24Hours int `json:"under_24h"`
	Under7Days   int `json:"under_7d"`
	Over7Days    int `json:"over_7d"`
}

// ResponseTimeSummary summarizes reply-latency samples in minutes.
// Statistics are nil when there are no samples.
type ResponseTimeSummary struct {
	Count         int          `json:"count"`
	AvgMinutes    *float64     `json:"avg_minutes"`
	MedianMinutes *float64     `json:"median_minutes"`
	P90Minutes    *float64     `json:"p90_minutes"`
	Buckets       BucketCounts `json:"buckets"`
}

// ResponseTimes holds summaries for both reply directions.
type ResponseTimes struct {
	YouReply  ResponseTimeSummary `json:"you_reply"`
	TheyReply ResponseTimeSummary `json:"they_reply"`
}

// StreakStats describes the distinct-active-day structure of a
// chat.
type StreakStats struct {
	ActiveDays        int    `json:"active_days"`
	LongestStreakDays int    `json:"longest_streak_days"`
	CurrentStreakDays int    `json:"current_streak_days"`
	LongestGapDays    int    `json:"longest_gap_days"`
	FirstDay          string `json:"first_day,omitempty"`
	LastDay           string `json:"last_day,omitempty"`
}

// TokenCount is one entry of a frequency list.
type TokenCount struct {
	Token string `json:"token"`
	Count int    `json:"count"`
}

// TopTokens holds frequency lists overall and per direction.
type TopTokens struct {
	Overall  []TokenCount `json:"overall"`
	Sent     []TokenCount `json:"sent"`
	Received []TokenCount `json:"received"`
}

// MoodCounts tallies coarse keyword-based mood classes.
type MoodCounts struct {
	Romantic     int `json:"romantic"`
	Professional int `json:"professional"`
	Friendly     int `json:"friendly"`
	Neutral      int `json:"neutral"`
}

// MoodDay is one day of the mood timeline.
type MoodDay struct {
	Date  string     `json:"date"`
	Moods MoodCounts `json:"moods"`
}

// Greetings tallies morning/night greetings per sender.
type Greetings struct {
	GoodMorning map[string]int `json:"good_morning"`
	GoodNight   map[string]int `json:"good_night"`
}

// ReEngagement tallies messages sent after a silence gap exceeding
// twelve hours.
type ReEngagement struct {
	Count       int            `json:"count"`
	BySender    map[string]int `json:"by_sender"`
	AvgGapHours float64        `json:"avg_gap_hours"`
}

// RecentActivity counts messages inside a trailing window anchored
// to the latest message date in the store.
type RecentActivity struct {
	Sent     int `json:"sent"`
	Received int `json:"received"`
}

// TranscriptLine is one message of the first-exchange transcript.
type TranscriptLine struct {
	From string `json:"from"`
	Text string `json:"text"`
	At   string `json:"at"`
}

// ChatReport is the immutable per-chat output.
type ChatReport struct {
	ChatID           int64          `json:"chat_id"`
	ChatIdentifier   string         `json:"chat_identifier"`
	DisplayName      *string        `json:"display_name"`
	Label            string         `json:"label"`
	ContactKey       string         `json:"contact_key,omitempty"`
	IsGroup          bool           `json:"is_group"`
	Participants     []string       `json:"participants,omitempty"`
	ParticipantCount int            `json:"participant_count"`
	GroupPhoto       string         `json:"group_photo,omitempty"`
	Totals           Totals         `json:"totals"`
	LeftOnRead       LeftOnRead     `json:"left_on_read"`
	ResponseTimes    ResponseTimes  `json:"response_times"`
	PerParticipant   map[string]ResponseTimeSummary `json:"participant_reply_times,omitempty"`
	Streaks          StreakStats    `json:"streaks"`
	EnergyScore      int            `json:"energy_score"`
	Initiations      map[string]int `json:"initiations"`
	ReEngagement     ReEngagement   `json:"re_engagement"`
	PeakDay          string         `json:"peak_day,omitempty"`
	PeakDayMessages  int            `json:"peak_day_messages"`
	Hourly           [24]int        `json:"hourly"`
	Weekday          [7]int         `json:"weekday"`
	Last30Days       RecentActivity `json:"last_30_days"`
	Last90Days       RecentActivity `json:"last_90_days"`
	Attachments      Totals         `json:"attachments"`
	TopEmojis        TopTokens      `json:"top_emojis"`
	TopWords         TopTokens      `json:"top_words"`
	TopPhrases       TopTokens      `json:"top_phrases"`
	Moods            MoodCounts     `json:"moods"`
	MoodTimeline     []MoodDay      `json:"mood_timeline"`
	Greetings        Greetings      `json:"greetings"`
	Reactions        map[string]int `json:"reactions"`
	FirstExchange    []TranscriptLine `json:"first_exchange"`
}

// Summary is the aggregate over all chats before top-N truncation.
type Summary struct {
	Totals        Totals        `json:"totals"`
	LeftOnRead    LeftOnRead    `json:"left_on_read"`
	ResponseTimes ResponseTimes `json:"response_times"`
}

// DailyEntry is one day of the trailing sent/received timeline.
type DailyEntry struct {
	Date     string `json:"date"`
	Sent     int    `json:"sent"`
	Received int    `json:"received"`
}

// Filters echoes the settings a report was generated with.
type Filters struct {
	Since          *string `json:"since"`
	Until          *string `json:"until"`
	ThresholdHours float64 `json:"threshold_hours"`
	Top            int     `json:"top"`
	DateScale      string  `json:"date_scale"`
}

// Report is the top-level result of one generate call.
type Report struct {
	Summary       Summary      `json:"summary"`
	Chats         []ChatReport `json:"chats"`
	DailyTimeline []DailyEntry `json:"daily_timeline"`
	GeneratedAt   string       `json:"generated_at"`
	Filters       Filters      `json:"filters"`
}
