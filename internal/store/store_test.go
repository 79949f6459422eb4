package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixtureSchema is the minimal chat.db shape the store reads. The
// chat table's last column is variable so tests can exercise both
// the dedicated photo column and the properties-blob fallback.
const fixtureSchema = `
	CREATE TABLE handle (
		ROWID INTEGER PRIMARY KEY,
		id TEXT
	);
	CREATE TABLE chat (
		ROWID INTEGER PRIMARY KEY,
		chat_identifier TEXT,
		display_name TEXT,
		%s
	);
	CREATE TABLE message (
		ROWID INTEGER PRIMARY KEY,
		date INTEGER,
		date_read INTEGER,
		is_from_me INTEGER,
		text TEXT,
		associated_message_type INTEGER,
		handle_id INTEGER
	);
	CREATE TABLE chat_message_join (chat_id INTEGER, message_id INTEGER);
	CREATE TABLE chat_handle_join (chat_id INTEGER, handle_id INTEGER);
	CREATE TABLE message_attachment_join (
		message_id INTEGER, attachment_id INTEGER
	);`

type fixture struct {
	t    *testing.T
	db   *sql.DB
	path string
}

// newFixture creates a seedable message database in a temp dir.
// photoColumn is the final chat column definition.
func newFixture(t *testing.T, photoColumn string) *fixture {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chat.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = db.Exec(fmt.Sprintf(fixtureSchema, photoColumn))
	require.NoError(t, err)
	return &fixture{t: t, db: db, path: path}
}

func (f *fixture) exec(query string, args ...any) {
	f.t.Helper()
	_, err := f.db.Exec(query, args...)
	require.NoError(f.t, err)
}

func (f *fixture) addHandle(id int64, handle string) {
	f.exec("INSERT INTO handle (ROWID, id) VALUES (?, ?)", id, handle)
}

func (f *fixture) addChat(id int64, identifier, displayName string) {
	f.exec(`INSERT INTO chat (ROWID, chat_identifier, display_name)
		VALUES (?, ?, ?)`, id, identifier, displayName)
}

func (f *fixture) addMessage(
	id, chatID, date int64, fromMe bool, handleID any, text any,
) {
	f.t.Helper()
	f.exec(`INSERT INTO message
		(ROWID, date, date_read, is_from_me, text,
		 associated_message_type, handle_id)
		VALUES (?, ?, 0, ?, ?, 0, ?)`,
		id, date, fromMe, text, handleID)
	f.exec(`INSERT INTO chat_message_join (chat_id, message_id)
		VALUES (?, ?)`, chatID, id)
}

func (f *fixture) joinHandle(chatID, handleID int64) {
	f.exec(`INSERT INTO chat_handle_join (chat_id, handle_id)
		VALUES (?, ?)`, chatID, handleID)
}

// open opens the fixture read-only through the store.
func (f *fixture) open() *Store {
	f.t.Helper()
	s, err := Open(f.path)
	require.NoError(f.t, err)
	f.t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "absent.db"))
	var oe *OpenError
	require.ErrorAs(t, err, &oe)
	assert.Contains(t, oe.Path, "absent.db")
}

func TestOpenDetectsScale(t *testing.T) {
	f := newFixture(t, "properties BLOB")
	f.addChat(1, "+15551234567", "")
	f.addMessage(1, 1, 700000000000000000, false, nil, "hi")
	s := f.open()
	assert.Equal(t, "nanoseconds", s.Scale().Label)
}

func TestOpenEmptyStoreDefaultsToSeconds(t *testing.T) {
	f := newFixture(t, "properties BLOB")
	s := f.open()
	assert.Equal(t, "seconds", s.Scale().Label)

	id, err := s.MaxMessageID(context.Background())
	require.NoError(t, err)
	assert.Zero(t, id)
}

func TestLoadMessages(t *testing.T) {
	f := newFixture(t, "properties BLOB")
	f.addHandle(1, "+15551234567")
	f.addHandle(2, "bob@example.com")
	f.addChat(1, "chat100200300", "Team")
	f.addChat(2, "+15551234567", "")
	f.joinHandle(1, 1)
	f.joinHandle(1, 2)
	f.joinHandle(2, 1)

	// Chat 2 messages carry later dates than chat 1's, so correct
	// output order is by chat rowid first, not global timestamp.
	f.addMessage(10, 2, 600, false, int64(1), "hi")
	f.addMessage(11, 2, 900, true, nil, nil)
	f.addMessage(20, 1, 300, false, int64(2), "team ping")
	f.exec(`INSERT INTO message_attachment_join
		(message_id, attachment_id) VALUES (10, 1), (10, 2)`)

	s := f.open()
	msgs, err := s.LoadMessages(context.Background(), TimeFilter{})
	require.NoError(t, err)
	require.Len(t, msgs, 3)

	assert.Equal(t, int64(20), msgs[0].ID)
	assert.Equal(t, int64(1), msgs[0].ChatID)
	assert.Equal(t, "chat100200300", msgs[0].ChatIdentifier)
	assert.Equal(t, "Team", msgs[0].DisplayName)
	assert.Equal(t, "bob@example.com", msgs[0].Handle)
	assert.Equal(t,
		"+15551234567|bob@example.com", msgs[0].Participants)

	assert.Equal(t, int64(10), msgs[1].ID)
	assert.Equal(t, "hi", msgs[1].Text)
	assert.False(t, msgs[1].IsFromMe)
	assert.Equal(t, 2, msgs[1].Attachments)
	assert.True(t, msgs[1].HasDate)

	// Own messages have no handle; NULL text scans as empty.
	assert.True(t, msgs[2].IsFromMe)
	assert.Equal(t, "", msgs[2].Handle)
	assert.Equal(t, "", msgs[2].Text)
}

func TestLoadMessagesTimeFilter(t *testing.T) {
	f := newFixture(t, "properties BLOB")
	f.addChat(1, "+15551234567", "")
	f.addMessage(1, 1, 100, false, nil, "early")
	f.addMessage(2, 1, 500, false, nil, "kept")
	f.addMessage(3, 1, 900, false, nil, "late")

	s := f.open()
	msgs, err := s.LoadMessages(context.Background(), TimeFilter{
		SinceRaw: 200, HasSince: true,
		UntilRaw: 800, HasUntil: true,
	})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "kept", msgs[0].Text)
}

func TestParticipantCount(t *testing.T) {
	f := newFixture(t, "properties BLOB")
	f.addHandle(1, "+15551234567")
	f.addHandle(2, "bob@example.com")

	// Chat 1 has explicit handle joins.
	f.addChat(1, "chat100200300", "")
	f.joinHandle(1, 1)
	f.joinHandle(1, 2)

	// Chat 2 has none; its count comes from message senders.
	f.addChat(2, "chat400500600", "")
	f.addMessage(10, 2, 100, false, int64(1), "a")
	f.addMessage(11, 2, 200, false, int64(2), "b")
	f.addMessage(12, 2, 300, true, nil, "c")

	// Chat 3 has neither.
	f.addChat(3, "+15559990000", "")

	s := f.open()
	ctx := context.Background()
	for chatID, want := range map[int64]int{1: 2, 2: 2, 3: 1} {
		n, err := s.ParticipantCount(ctx, chatID)
		require.NoError(t, err)
		assert.Equal(t, want, n, "chat %d", chatID)
	}
}

func TestGroupPhotosFromColumn(t *testing.T) {
	f := newFixture(t, "group_photo_guid TEXT")
	f.addChat(1, "chat100200300", "")
	f.addChat(2, "chat400500600", "")
	f.addChat(3, "chat700800900", "")
	f.exec("UPDATE chat SET group_photo_guid = ? WHERE ROWID = 1",
		"PHOTO-GUID-1")
	f.exec("UPDATE chat SET group_photo_guid = '' WHERE ROWID = 2")

	s := f.open()
	photos, err := s.GroupPhotos(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[int64]string{1: "PHOTO-GUID-1"}, photos)
}

const plistWithPhoto = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN"
 "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0"><dict>
	<key>groupPhotoGuid</key><string>PHOTO-GUID-2</string>
</dict></plist>`

func TestGroupPhotosFromProperties(t *testing.T) {
	f := newFixture(t, "properties BLOB")
	f.addChat(1, "chat100200300", "")
	f.addChat(2, "chat400500600", "")
	f.exec("UPDATE chat SET properties = ? WHERE ROWID = 1",
		[]byte(plistWithPhoto))
	f.exec("UPDATE chat SET properties = ? WHERE ROWID = 2",
		[]byte("not a plist"))

	s := f.open()
	photos, err := s.GroupPhotos(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[int64]string{1: "PHOTO-GUID-2"}, photos)
}

const plistArchive = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN"
 "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0"><dict>
	<key>$objects</key>
	<array>
		<string>$null</string>
		<string>groupPhotoGuid</string>
		<string>GUID-FROM-ARCHIVE</string>
	</array>
</dict></plist>`

func TestPhotoFromProperties(t *testing.T) {
	ref, ok := photoFromProperties([]byte(plistWithPhoto))
	assert.True(t, ok)
	assert.Equal(t, "PHOTO-GUID-2", ref)

	ref, ok = photoFromProperties([]byte(plistArchive))
	assert.True(t, ok)
	assert.Equal(t, "GUID-FROM-ARCHIVE", ref)

	// Undeciphered blobs fall back to a printable-run scan after
	// the key.
	raw := append([]byte{0x00, 0x01}, []byte("groupPhotoGuid")...)
	raw = append(raw, 0x02)
	raw = append(raw, []byte("RAW-SCAN-GUID-1")...)
	raw = append(raw, 0x00)
	ref, ok = photoFromProperties(raw)
	assert.True(t, ok)
	assert.Equal(t, "RAW-SCAN-GUID-1", ref)

	_, ok = photoFromProperties(nil)
	assert.False(t, ok)
	_, ok = photoFromProperties([]byte("no photo here"))
	assert.False(t, ok)
}

func TestQueryErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := &QueryError{Op: "querying messages", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "querying messages")
}
