package store

import (
	"bytes"
	"context"
	"fmt"

	"howett.net/plist"
)

// groupPhotoColumns are the known column names that may carry a
// group photo reference, in probe order. The column set varies
// across macOS releases.
var groupPhotoColumns = []string{
	"group_photo_guid",
	"group_photo",
	"photo_guid",
}

// tableColumns returns the set of column names on a table.
func (s *Store) tableColumns(
	ctx context.Context, table string,
) (map[string]bool, error) {
	rows, err := s.db.QueryContext(
		ctx,
		fmt.Sprintf("SELECT name FROM pragma_table_info('%s')", table),
	)
	if err != nil {
		return nil, &QueryError{
			Op: "probing columns of " + table, Err: err,
		}
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, &QueryError{
				Op: "scanning column of " + table, Err: err,
			}
		}
		cols[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{
			Op: "iterating columns of " + table, Err: err,
		}
	}
	return cols, nil
}

// GroupPhotos returns a chat id -> photo reference map. Newer
// stores carry a dedicated column on chat; older ones embed the
// reference in the chat properties blob. A chat whose photo cannot
// be resolved is simply absent from the map.
func (s *Store) GroupPhotos(
	ctx context.Context,
) (map[int64]string, error) {
	cols, err := s.tableColumns(ctx, "chat")
	if err != nil {
		return nil, err
	}

	for _, col := range groupPhotoColumns {
		if cols[col] {
			return s.groupPhotosFromColumn(ctx, col)
		}
	}
	if cols["properties"] {
		return s.groupPhotosFromProperties(ctx)
	}
	return map[int64]string{}, nil
}

func (s *Store) groupPhotosFromColumn(
	ctx context.Context, col string,
) (map[int64]string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		"SELECT ROWID, %s FROM chat WHERE %s IS NOT NULL AND %s != ''",
		col, col, col,
	))
	if err != nil {
		return nil, &QueryError{Op: "querying group photos", Err: err}
	}
	defer rows.Close()

	photos := make(map[int64]string)
	for rows.Next() {
		var id int64
		var ref string
		if err := rows.Scan(&id, &ref); err != nil {
			return nil, &QueryError{
				Op: "scanning group photo", Err: err,
			}
		}
		photos[id] = ref
	}
	return photos, rows.Err()
}

func (s *Store) groupPhotosFromProperties(
	ctx context.Context,
) (map[int64]string, error) {
	rows, err := s.db.QueryContext(
		ctx,
		"SELECT ROWID, properties FROM chat WHERE properties IS NOT NULL",
	)
	if err != nil {
		return nil, &QueryError{
			Op: "querying chat properties", Err: err,
		}
	}
	defer rows.Close()

	photos := make(map[int64]string)
	for rows.Next() {
		var id int64
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, &QueryError{
				Op: "scanning chat properties", Err: err,
			}
		}
		if ref, ok := photoFromProperties(blob); ok {
			photos[id] = ref
		}
	}
	return photos, rows.Err()
}

// photoKeys are the property-list keys a group photo reference may
// live under.
var photoKeys = []string{"groupPhotoGuid", "groupPhotoGUID", "CKGroupPhotoGUID"}

// photoFromProperties extracts a photo reference from a chat
// properties blob. It first tries a plain property-list decode,
// then the legacy NSKeyedArchiver layout. Failure is never an
// error; the chat just has no photo.
func photoFromProperties(blob []byte) (string, bool) {
	if len(blob) == 0 {
		return "", false
	}

	var props map[string]any
	if _, err := plist.Unmarshal(blob, &props); err == nil {
		if ref, ok := photoFromMap(props); ok {
			return ref, true
		}
		if ref, ok := photoFromArchive(props); ok {
			return ref, true
		}
	}

	// Last resort for blobs the decoder rejects: scan for a key
	// followed by a printable run.
	return photoFromRawScan(blob)
}

func photoFromMap(props map[string]any) (string, bool) {
	for _, key := range photoKeys {
		if v, ok := props[key]; ok {
			if ref, ok := v.(string); ok && ref != "" {
				return ref, true
			}
		}
	}
	return "", false
}

// photoFromArchive handles NSKeyedArchiver plists, where values
// live in a flat $objects array referenced by UID. The reference
// indirection is not resolved; the photo GUID is the first string
// in $objects that follows a photo key entry.
func photoFromArchive(props map[string]any) (string, bool) {
	objs, ok := props["$objects"].([]any)
	if !ok {
		return "", false
	}
	keyAt := -1
	for i, o := range objs {
		str, ok := o.(string)
		if !ok {
			continue
		}
		if keyAt >= 0 && i > keyAt {
			return str, true
		}
		for _, key := range photoKeys {
			if str == key {
				keyAt = i
				break
			}
		}
	}
	return "", false
}

func photoFromRawScan(blob []byte) (string, bool) {
	for _, key := range photoKeys {
		idx := bytes.Index(blob, []byte(key))
		if idx < 0 {
			continue
		}
		rest := blob[idx+len(key):]
		start := -1
		for i, b := range rest {
			printable := b >= 0x20 && b < 0x7f
			if printable && start < 0 {
				start = i
			}
			if !printable && start >= 0 {
				if i-start >= 8 {
					return string(rest[start:i]), true
				}
				start = -1
			}
		}
		if start >= 0 && len(rest)-start >= 8 {
			return string(rest[start:]), true
		}
	}
	return "", false
}
