package identity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const contactsJSON = `[
  {"id": "AB-1", "name": "Alice Smith",
   "handles": ["+15551234567", "alice@example.com"]},
  {"id": "AB-2", "name": "Bob Jones", "handles": ["5559876543"]},
  {"name": "No ID", "handles": ["+15550000001"]},
  {"handles": ["+15550000002"]}
]`

func writeContacts(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "contacts.json")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestLoadJSONDirectory(t *testing.T) {
	dir, err := LoadJSONDirectory(writeContacts(t, contactsJSON))
	require.NoError(t, err)

	name, ok := dir.DisplayName("+15551234567")
	assert.True(t, ok)
	assert.Equal(t, "Alice Smith", name)

	// Email handles match case-insensitively.
	name, ok = dir.DisplayName("Alice@Example.COM")
	assert.True(t, ok)
	assert.Equal(t, "Alice Smith", name)

	// A number stored without a country code still matches the
	// prefixed form through the last-10-digit variant.
	name, ok = dir.DisplayName("+15559876543")
	assert.True(t, ok)
	assert.Equal(t, "Bob Jones", name)

	id, ok := dir.ContactID("alice@example.com")
	assert.True(t, ok)
	assert.Equal(t, "AB-1", id)

	// Entries without an id resolve names but not contact ids.
	name, ok = dir.DisplayName("+15550000001")
	assert.True(t, ok)
	assert.Equal(t, "No ID", name)
	_, ok = dir.ContactID("+15550000001")
	assert.False(t, ok)

	id, ok = dir.ContactIDByName("alice smith")
	assert.True(t, ok)
	assert.Equal(t, "AB-1", id)

	_, ok = dir.DisplayName("+15557777777")
	assert.False(t, ok)
}

func TestLoadJSONDirectoryMissingFile(t *testing.T) {
	dir, err := LoadJSONDirectory(
		filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	_, ok := dir.DisplayName("+15551234567")
	assert.False(t, ok)
}

func TestLoadJSONDirectoryEmptyPath(t *testing.T) {
	dir, err := LoadJSONDirectory("")
	require.NoError(t, err)
	_, ok := dir.ContactIDByName("anyone")
	assert.False(t, ok)
}
