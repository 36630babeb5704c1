package records

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"resume-tailor/internal/shared/telemetry"
	"resume-tailor/internal/shared/util"
	"resume-tailor/resume/model"
)

const (
	archivedDirName = "Archived"
	jsonExt         = ".json"
	fallbackSuffix  = " Data"
)

// Entry is a stored record and the identifier (file stem) it lives under.
type Entry struct {
	ID     string       `json:"id"`
	Record model.Record `json:"record"`
}

// MoveResult describes a successful archive or restore.
type MoveResult struct {
	ID          string `json:"id"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Attempts    int    `json:"attempts"`
}

// Store persists records as one JSON file each. Archived records live in
// the "Archived" subdirectory.
type Store struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir, locks: make(map[string]*sync.Mutex)}
}

// Dir returns the directory holding current records.
func (s *Store) Dir() string { return s.dir }

// ArchiveDir returns the directory holding archived records.
func (s *Store) ArchiveDir() string { return filepath.Join(s.dir, archivedDirName) }

func (s *Store) lock(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

func cleanID(id string) (string, error) {
	clean, err := util.SanitizeFileName(strings.TrimSuffix(strings.TrimSpace(id), jsonExt))
	if err != nil {
		return "", fmt.Errorf("%w: identifier %q", ErrInvalidInput, id)
	}
	return clean, nil
}

// Save writes record to <dir>/<id>.json, replacing any existing file.
func (s *Store) Save(record model.Record, id string) error {
	clean, err := cleanID(id)
	if err != nil {
		return err
	}
	defer s.lock(clean)()
	return s.write(filepath.Join(s.dir, clean+jsonExt), record)
}

func (s *Store) write(path string, record model.Record) error {
	data, err := encode(record)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".record-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename record: %w", err)
	}
	return nil
}

// encode writes four-space indented JSON with non-ASCII text left as is.
func encode(record model.Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(record); err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func decodeFile(path string) (model.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.Record{}, ErrNotFound
		}
		return model.Record{}, err
	}
	var record model.Record
	if err := json.Unmarshal(data, &record); err != nil {
		return model.Record{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return record, nil
}

// Load reads a current record by identifier.
func (s *Store) Load(id string) (model.Record, error) {
	clean, err := cleanID(id)
	if err != nil {
		return model.Record{}, err
	}
	return decodeFile(filepath.Join(s.dir, clean+jsonExt))
}

// LoadArchived reads an archived record by identifier.
func (s *Store) LoadArchived(id string) (model.Record, error) {
	clean, err := cleanID(id)
	if err != nil {
		return model.Record{}, err
	}
	return decodeFile(filepath.Join(s.ArchiveDir(), clean+jsonExt))
}

// ListAll returns every record directly inside the store directory in
// directory order. Archived records are not included.
func (s *Store) ListAll() ([]Entry, error) {
	return listDir(s.dir)
}

// ListArchived returns every archived record.
func (s *Store) ListArchived() ([]Entry, error) {
	return listDir(s.ArchiveDir())
}

func listDir(dir string) ([]Entry, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}
	items, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(items))
	for _, item := range items {
		if !item.Type().IsRegular() || !strings.EqualFold(filepath.Ext(item.Name()), jsonExt) {
			continue
		}
		record, err := decodeFile(filepath.Join(dir, item.Name()))
		if err != nil {
			telemetry.Warn("records.decode_failed", map[string]any{"file": item.Name(), "err": err})
			continue
		}
		out = append(out, Entry{ID: strings.TrimSuffix(item.Name(), filepath.Ext(item.Name())), Record: record})
	}
	return out, nil
}

// SetFavorite flips the favorite flag of a current record and rewrites the
// whole file.
func (s *Store) SetFavorite(id string, favorite bool) (model.Record, error) {
	clean, err := cleanID(id)
	if err != nil {
		return model.Record{}, err
	}
	defer s.lock(clean)()

	path := filepath.Join(s.dir, clean+jsonExt)
	record, err := decodeFile(path)
	if err != nil {
		return model.Record{}, err
	}
	record.Meta.Favorite = favorite
	if err := s.write(path, record); err != nil {
		return model.Record{}, err
	}
	return record, nil
}

// Archive moves <id>.json into the archive directory, falling back to
// "<id> Data.json" when the primary file cannot be moved.
func (s *Store) Archive(id string) (MoveResult, error) {
	return s.move("archive", id, s.dir, s.ArchiveDir())
}

// Restore moves an archived record back into the store directory, with the
// same fallback file name as Archive.
func (s *Store) Restore(id string) (MoveResult, error) {
	return s.move("restore", id, s.ArchiveDir(), s.dir)
}

func (s *Store) move(op, id, fromDir, toDir string) (MoveResult, error) {
	clean, err := cleanID(id)
	if err != nil {
		return MoveResult{}, err
	}
	defer s.lock(clean)()

	if err := os.MkdirAll(toDir, 0o755); err != nil {
		return MoveResult{}, fmt.Errorf("mkdir: %w", err)
	}

	moveErr := &MoveError{ID: clean, Op: op}
	for i, name := range []string{clean + jsonExt, clean + fallbackSuffix + jsonExt} {
		src := filepath.Join(fromDir, name)
		dst := filepath.Join(toDir, name)
		if err := moveFile(src, dst); err != nil {
			moveErr.Attempts = append(moveErr.Attempts, MoveAttempt{Source: src, Destination: dst, Err: err})
			continue
		}
		result := MoveResult{ID: clean, Source: src, Destination: dst, Attempts: i + 1}
		telemetry.Info("records."+op, map[string]any{"id": clean, "source": src, "destination": dst, "attempts": result.Attempts})
		return result, nil
	}

	telemetry.Error("records."+op+"_failed", map[string]any{"id": clean, "err": moveErr.Error()})
	return MoveResult{}, moveErr
}

func moveFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: not a regular file", ErrInvalidInput)
	}
	if _, err := os.Stat(dst); err == nil {
		return ErrDestinationExists
	}
	return os.Rename(src, dst)
}

// FindExpired returns identifiers of current records whose expected
// response date is strictly before now. Records without a parseable date
// are skipped.
func (s *Store) FindExpired(now time.Time) ([]string, error) {
	entries, err := s.ListAll()
	if err != nil {
		return nil, err
	}
	var out []string
	for _, entry := range entries {
		expected, err := entry.Record.ExpectedResponse()
		if err != nil {
			telemetry.Info("records.no_expected_response_date", map[string]any{"id": entry.ID, "err": err})
			continue
		}
		if now.After(expected) {
			out = append(out, entry.ID)
		}
	}
	sort.Strings(out)
	return out, nil
}

// ArchiveExpired archives every expired record. A failure on one record does
// not stop the rest; failures are joined into the returned error.
func (s *Store) ArchiveExpired(now time.Time) ([]MoveResult, error) {
	ids, err := s.FindExpired(now)
	if err != nil {
		return nil, err
	}
	var (
		moved []MoveResult
		errs  []error
	)
	for _, id := range ids {
		result, err := s.Archive(id)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		moved = append(moved, result)
	}
	return moved, errors.Join(errs...)
}
