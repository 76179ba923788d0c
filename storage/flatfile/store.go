// Package flatfile persists records as pipe-delimited text files, one record
// per line, and implements the domain repositories on top of a generic
// whole-file CRUD-by-key store.
package flatfile

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const delimiter = "|"

// Store is the record store primitive. Every operation reads the whole file
// into memory; updates and deletes rewrite the whole file through a temp file
// renamed into place. A per-file mutex serializes read-modify-write cycles.
type Store struct {
	dir string

	mu    sync.Mutex // guards locks
	locks map[string]*sync.Mutex
}

func NewStore(dir string) *Store {
	return &Store{
		dir:   dir,
		locks: make(map[string]*sync.Mutex),
	}
}

func (s *Store) Dir() string { return s.dir }

func (s *Store) lock(file string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[file]
	if !ok {
		l = new(sync.Mutex)
		s.locks[file] = l
	}
	return l
}

func (s *Store) path(file string) string {
	return filepath.Join(s.dir, file)
}

// ReadAll returns the trimmed fields of every record line, in file order.
// A missing file is an empty result, not an error.
func (s *Store) ReadAll(file string) ([][]string, error) {
	l := s.lock(file)
	l.Lock()
	defer l.Unlock()
	return s.readAll(file)
}

// Append adds one record to the end of the file, creating the file and the
// data directory as needed.
func (s *Store) Append(file string, record []string) error {
	l := s.lock(file)
	l.Lock()
	defer l.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating data dir %s", s.dir)
	}
	f, err := os.OpenFile(s.path(file), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, "opening %s", file)
	}
	defer f.Close()
	if _, err := f.WriteString(strings.Join(record, delimiter) + "\n"); err != nil {
		return errors.Wrapf(err, "appending to %s", file)
	}
	return nil
}

// UpdateByID replaces the first record whose first field equals `key`
// (case-insensitive). It reports false without writing when no record matches.
func (s *Store) UpdateByID(file, key string, record []string) (bool, error) {
	l := s.lock(file)
	l.Lock()
	defer l.Unlock()

	rows, err := s.readAll(file)
	if err != nil {
		return false, err
	}
	for i, row := range rows {
		if len(row) > 0 && strings.EqualFold(row[0], key) {
			rows[i] = record
			return true, s.writeAll(file, rows)
		}
	}
	return false, nil
}

// DeleteByID removes every record whose first field equals `key`
// (case-insensitive). It reports false without writing when none matches.
func (s *Store) DeleteByID(file, key string) (bool, error) {
	l := s.lock(file)
	l.Lock()
	defer l.Unlock()

	rows, err := s.readAll(file)
	if err != nil {
		return false, err
	}
	kept := rows[:0]
	var deleted bool
	for _, row := range rows {
		if len(row) > 0 && strings.EqualFold(row[0], key) {
			deleted = true
			continue
		}
		kept = append(kept, row)
	}
	if !deleted {
		return false, nil
	}
	return true, s.writeAll(file, kept)
}

// ReplaceAll rewrites the file with exactly the given records.
func (s *Store) ReplaceAll(file string, records [][]string) error {
	l := s.lock(file)
	l.Lock()
	defer l.Unlock()
	return s.writeAll(file, records)
}

// ScanColumn reports whether any record holds one of `keys` in the given
// column (case-insensitive). The scan is read-only.
func (s *Store) ScanColumn(file string, column int, keys ...string) (bool, error) {
	rows, err := s.ReadAll(file)
	if err != nil {
		return false, err
	}
	for _, row := range rows {
		if column >= len(row) {
			continue
		}
		for _, key := range keys {
			if key != "" && strings.EqualFold(row[column], key) {
				return true, nil
			}
		}
	}
	return false, nil
}

func (s *Store) readAll(file string) ([][]string, error) {
	data, err := os.ReadFile(s.path(file))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "reading %s", file)
	}

	var rows [][]string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, delimiter)
		for i, f := range fields {
			fields[i] = strings.TrimSpace(f)
		}
		rows = append(rows, fields)
	}
	return rows, nil
}

func (s *Store) writeAll(file string, records [][]string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating data dir %s", s.dir)
	}

	var b strings.Builder
	for _, record := range records {
		b.WriteString(strings.Join(record, delimiter))
		b.WriteByte('\n')
	}

	// write-to-temp-then-rename keeps readers from ever seeing a partial file
	tmp := s.path(file) + ".tmp." + uuid.New().String()
	if err := os.WriteFile(tmp, []byte(b.String()), 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", tmp)
	}
	if err := os.Rename(tmp, s.path(file)); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrapf(err, "replacing %s", file)
	}
	return nil
}

// nextSequentialID scans the first column for ids of the form
// <prefix><number> and returns the next id, zero-padded to three digits.
func (s *Store) nextSequentialID(file, prefix string) (string, error) {
	rows, err := s.ReadAll(file)
	if err != nil {
		return "", err
	}
	var max int
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		id := strings.ToUpper(row[0])
		if !strings.HasPrefix(id, prefix) {
			continue
		}
		n, err := strconv.Atoi(id[len(prefix):])
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return prefix + pad(max+1), nil
}

func pad(n int) string {
	s := strconv.Itoa(n)
	for len(s) < 3 {
		s = "0" + s
	}
	return s
}
