package members

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// ErrMalformedRecord marks a member entry that cannot be used as is.
var ErrMalformedRecord = errors.New("malformed member record")

// RecordError reports a directory entry that was skipped.
type RecordError struct {
	Index int
	Err   error
}

func (e RecordError) Error() string {
	return fmt.Sprintf("member #%d: %v", e.Index, e.Err)
}

func (e RecordError) Unwrap() error { return e.Err }

// LoadFile loads members from a local .json or .csv export (best-effort for
// offline runs). JSON may be a bare array or the directory envelope; entries
// that do not decode are skipped and reported.
func LoadFile(path string) ([]Member, []RecordError, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer fp.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		ms, err := loadCSV(fp)
		if err != nil {
			return nil, nil, fmt.Errorf("loading %s: %w", path, err)
		}
		return ms, nil, nil
	case ".json", "":
		raw, err := io.ReadAll(fp)
		if err != nil {
			return nil, nil, err
		}
		ms, skipped, err := DecodeList(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("loading %s: %w", path, err)
		}
		return ms, skipped, nil
	}
	return nil, nil, fmt.Errorf("unsupported member file %s", path)
}

// DecodeList accepts either `[...]` or `{"data": [...]}`. Only a broken
// envelope fails the call; bad entries are skipped.
func DecodeList(raw []byte) ([]Member, []RecordError, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil, nil
	}
	var entries []json.RawMessage
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, nil, err
		}
	} else {
		var env struct {
			Data []json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, nil, err
		}
		entries = env.Data
	}
	ms, skipped := DecodeRecords(entries)
	return ms, skipped, nil
}

// DecodeRecords decodes each entry on its own, keeping input order. Entries
// with the wrong shape or invalid UTF-8 are skipped.
func DecodeRecords(entries []json.RawMessage) ([]Member, []RecordError) {
	ms := make([]Member, 0, len(entries))
	var skipped []RecordError
	for i, e := range entries {
		// encoding/json would silently turn invalid UTF-8 into U+FFFD
		if !utf8.Valid(e) {
			skipped = append(skipped, RecordError{Index: i, Err: fmt.Errorf("%w: invalid utf-8", ErrMalformedRecord)})
			continue
		}
		if bytes.Equal(bytes.TrimSpace(e), []byte("null")) {
			skipped = append(skipped, RecordError{Index: i, Err: fmt.Errorf("%w: null entry", ErrMalformedRecord)})
			continue
		}
		var m Member
		if err := json.Unmarshal(e, &m); err != nil {
			skipped = append(skipped, RecordError{Index: i, Err: fmt.Errorf("%w: %v", ErrMalformedRecord, err)})
			continue
		}
		ms = append(ms, m)
	}
	return ms, skipped
}

func loadCSV(r io.Reader) ([]Member, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("csv has no header")
	}
	header := rows[0]
	cols := map[string]int{}
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}

	get := func(row []string, name string) string {
		if idx, ok := cols[strings.ToLower(name)]; ok && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	out := []Member{}
	for _, row := range rows[1:] {
		m := Member{
			FullName:         get(row, "fullName"),
			PhoneNumber:      get(row, "phoneNumber"),
			Address:          get(row, "address"),
			EmergencyContact: get(row, "emergencyContact"),
			Gender:           get(row, "gender"),
			Service:          Service{Name: get(row, "service")},
			ProfileImageURL:  get(row, "profileImageUrl"),
			Barcode:          get(row, "barcode"),
		}
		// skip blank lines
		if m == (Member{}) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}
