package store

import (
	"context"
	"database/sql"
	"strings"
)

// Message is one row of the joined message stream. Rows for a
// single chat are contiguous and ascending by raw timestamp; all
// downstream latency and streak logic depends on that ordering.
type Message struct {
	ID             int64
	ChatID         int64
	ChatIdentifier string
	DisplayName    string // empty when the chat has none
	Handle         string // sender handle, empty for own messages
	DateRaw        int64
	HasDate        bool
	DateReadRaw    int64
	IsFromMe       bool
	Text           string
	AssociatedType int64 // reaction/associated-message code, 0 for plain messages
	Attachments    int
	Participants   string // pipe-delimited handle list for the chat
}

// TimeFilter bounds the extraction in raw store units. Zero-valued
// bounds with Has* false are unbounded.
type TimeFilter struct {
	SinceRaw int64
	HasSince bool
	UntilRaw int64
	HasUntil bool
}

const messageQuery = `
	SELECT
		m.ROWID,
		m.date,
		m.date_read,
		m.is_from_me,
		m.text,
		COALESCE(m.associated_message_type, 0),
		c.ROWID,
		c.chat_identifier,
		COALESCE(c.display_name, ''),
		COALESCE(h.id, ''),
		(SELECT COUNT(*) FROM message_attachment_join maj
			WHERE maj.message_id = m.ROWID)
	FROM message m
	JOIN chat_message_join cmj ON m.ROWID = cmj.message_id
	JOIN chat c ON c.ROWID = cmj.chat_id
	LEFT JOIN handle h ON m.handle_id = h.ROWID
	%s
	ORDER BY c.ROWID ASC, m.date ASC, m.ROWID ASC`

// LoadMessages returns the full joined message stream within the
// filter bounds, ordered by chat then timestamp. Each record also
// carries the chat's pipe-delimited participant handle list.
func (s *Store) LoadMessages(
	ctx context.Context, f TimeFilter,
) ([]Message, error) {
	var preds []string
	var args []any
	if f.HasSince {
		preds = append(preds, "m.date >= ?")
		args = append(args, f.SinceRaw)
	}
	if f.HasUntil {
		preds = append(preds, "m.date <= ?")
		args = append(args, f.UntilRaw)
	}
	where := ""
	if len(preds) > 0 {
		where = "WHERE " + strings.Join(preds, " AND ")
	}

	handles, err := s.ChatHandles(ctx)
	if err != nil {
		return nil, err
	}

	query := strings.Replace(messageQuery, "%s", where, 1)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &QueryError{Op: "querying messages", Err: err}
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		var date, dateRead sql.NullInt64
		var isFromMe sql.NullInt64
		var text sql.NullString
		if err := rows.Scan(
			&m.ID, &date, &dateRead, &isFromMe, &text,
			&m.AssociatedType, &m.ChatID, &m.ChatIdentifier,
			&m.DisplayName, &m.Handle, &m.Attachments,
		); err != nil {
			return nil, &DecodeError{Op: "scanning message", Err: err}
		}
		m.DateRaw = date.Int64
		m.HasDate = date.Valid
		m.DateReadRaw = dateRead.Int64
		m.IsFromMe = isFromMe.Int64 == 1
		m.Text = text.String
		m.Participants = strings.Join(handles[m.ChatID], "|")
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Op: "iterating messages", Err: err}
	}
	return msgs, nil
}

// ChatHandles returns the handle strings joined to each chat via
// chat_handle_join, in rowid order.
func (s *Store) ChatHandles(
	ctx context.Context,
) (map[int64][]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT chj.chat_id, h.id
		FROM chat_handle_join chj
		JOIN handle h ON h.ROWID = chj.handle_id
		ORDER BY chj.chat_id, h.ROWID`)
	if err != nil {
		return nil, &QueryError{Op: "querying chat handles", Err: err}
	}
	defer rows.Close()

	handles := make(map[int64][]string)
	for rows.Next() {
		var chatID int64
		var handle string
		if err := rows.Scan(&chatID, &handle); err != nil {
			return nil, &DecodeError{
				Op: "scanning chat handle", Err: err,
			}
		}
		handles[chatID] = append(handles[chatID], handle)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{
			Op: "iterating chat handles", Err: err,
		}
	}
	return handles, nil
}

// ParticipantCount returns the number of participants in a chat:
// distinct chat-level handle rows, falling back to distinct handles
// observed in the chat's messages, falling back to 1.
func (s *Store) ParticipantCount(
	ctx context.Context, chatID int64,
) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT handle_id)
		FROM chat_handle_join WHERE chat_id = ?`, chatID,
	).Scan(&n)
	if err != nil {
		return 0, &QueryError{
			Op: "counting chat participants", Err: err,
		}
	}
	if n > 0 {
		return n, nil
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT m.handle_id)
		FROM message m
		JOIN chat_message_join cmj ON cmj.message_id = m.ROWID
		WHERE cmj.chat_id = ? AND m.handle_id IS NOT NULL
			AND m.handle_id != 0`, chatID,
	).Scan(&n)
	if err != nil {
		return 0, &QueryError{
			Op: "counting message participants", Err: err,
		}
	}
	if n > 0 {
		return n, nil
	}
	return 1, nil
}
