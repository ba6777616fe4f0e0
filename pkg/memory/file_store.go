package memory

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// FileStore keeps entries as one JSON document per line. It is the default
// backend: no external dependencies, good enough for a personal assistant.
type FileStore struct {
	path string
	mu   sync.Mutex
}

var _ Store = &FileStore{}

func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("file store: empty path")
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, errors.Wrap(err, "file store: create dir")
		}
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) Add(_ context.Context, content string, tags []string) (Entry, error) {
	entry := newEntry(content, tags)
	raw, err := json.Marshal(entry)
	if err != nil {
		return Entry{}, errors.Wrap(err, "file store: encode entry")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return Entry{}, errors.Wrap(err, "file store: open")
	}
	defer func() { _ = f.Close() }()
	if _, err := f.Write(append(raw, '\n')); err != nil {
		return Entry{}, errors.Wrap(err, "file store: append")
	}
	return entry, nil
}

func (s *FileStore) Recent(_ context.Context, limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.readAllLocked()
	if err != nil {
		return nil, err
	}
	// Newest first.
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *FileStore) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.readAllLocked()
	if err != nil {
		return false, err
	}
	kept := make([]Entry, 0, len(all))
	found := false
	for _, e := range all {
		if e.ID == id {
			found = true
			continue
		}
		kept = append(kept, e)
	}
	if !found {
		return false, nil
	}
	return true, s.rewriteLocked(kept)
}

func (s *FileStore) Stats(_ context.Context) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.readAllLocked()
	if err != nil {
		return Stats{}, err
	}
	return Stats{Backend: "file", Count: len(all)}, nil
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) readAllLocked() ([]Entry, error) {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "file store: open")
	}
	defer func() { _ = f.Close() }()

	var out []Entry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			// Skip corrupt lines rather than losing the whole store.
			continue
		}
		out = append(out, e)
	}
	return out, sc.Err()
}

func (s *FileStore) rewriteLocked(entries []Entry) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".memory-*.jsonl")
	if err != nil {
		return errors.Wrap(err, "file store: temp")
	}
	tmpName := tmp.Name()
	w := bufio.NewWriter(tmp)
	for _, e := range entries {
		raw, err := json.Marshal(e)
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
			return errors.Wrap(err, "file store: encode")
		}
		if _, err := w.Write(append(raw, '\n')); err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
			return errors.Wrap(err, "file store: write")
		}
	}
	if err := w.Flush(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.Wrap(err, "file store: flush")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrap(err, "file store: close")
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrap(err, "file store: replace")
	}
	return nil
}
