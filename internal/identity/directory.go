package identity

import (
	"os"
	"strings"

	"github.com/tidwall/gjson"
)

// Directory is the injected contact-lookup capability. All lookups
// are optional; a miss is never an error.
type Directory interface {
	// DisplayName resolves a handle or chat identifier to a
	// human-readable name.
	DisplayName(handle string) (string, bool)
	// ContactID resolves a handle or chat identifier to a stable
	// contact identifier.
	ContactID(handle string) (string, bool)
	// ContactIDByName resolves a display name back to a stable
	// contact identifier.
	ContactIDByName(name string) (string, bool)
}

// NullDirectory is a Directory with no entries.
type NullDirectory struct{}

func (NullDirectory) DisplayName(string) (string, bool) { return "", false }

func (NullDirectory) ContactID(string) (string, bool) { return "", false }

func (NullDirectory) ContactIDByName(string) (string, bool) { return "", false }

// JSONDirectory is a Directory backed by a contacts JSON file: an
// array of objects with "id", "name", and "handles" fields. Lookups
// match on any normalized variant of the stored handles.
type JSONDirectory struct {
	byHandle map[string]entry // normalized variant key -> entry
	byName   map[string]string
}

type entry struct {
	id   string
	name string
}

// LoadJSONDirectory reads and indexes a contacts file. A missing
// path yields an empty directory rather than an error; malformed
// entries are skipped.
func LoadJSONDirectory(path string) (*JSONDirectory, error) {
	d := &JSONDirectory{
		byHandle: make(map[string]entry),
		byName:   make(map[string]string),
	}
	if path == "" {
		return d, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return d, nil
		}
		return nil, err
	}
	d.index(data)
	return d, nil
}

func (d *JSONDirectory) index(data []byte) {
	gjson.ParseBytes(data).ForEach(func(_, contact gjson.Result) bool {
		id := contact.Get("id").String()
		name := contact.Get("name").String()
		if id == "" && name == "" {
			return true
		}
		if name != "" && id != "" {
			d.byName[strings.ToLower(name)] = id
		}
		contact.Get("handles").ForEach(func(_, h gjson.Result) bool {
			for _, v := range Variants(h.String()) {
				d.byHandle[v.Key()] = entry{id: id, name: name}
			}
			return true
		})
		return true
	})
}

func (d *JSONDirectory) lookup(handle string) (entry, bool) {
	for _, v := range Variants(handle) {
		if e, ok := d.byHandle[v.Key()]; ok {
			return e, true
		}
	}
	return entry{}, false
}

// DisplayName implements Directory.
func (d *JSONDirectory) DisplayName(handle string) (string, bool) {
	e, ok := d.lookup(handle)
	if !ok || e.name == "" {
		return "", false
	}
	return e.name, true
}

// ContactID implements Directory.
func (d *JSONDirectory) ContactID(handle string) (string, bool) {
	e, ok := d.lookup(handle)
	if !ok || e.id == "" {
		return "", false
	}
	return e.id, true
}

// ContactIDByName implements Directory.
func (d *JSONDirectory) ContactIDByName(name string) (string, bool) {
	id, ok := d.byName[strings.ToLower(name)]
	return id, ok
}
