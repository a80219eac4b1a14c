package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// ErrNoState is returned by Read when no state file exists on disk.
var ErrNoState = errors.New("no session state")

const (
	stateFileName = ".session-state.json"
	lockFileName  = ".session-state.lock"
)

// Store persists a State inside a working directory's state directory.
type Store struct {
	dir  string
	path string // full path to .session-state.json
	now  func() time.Time
}

// NewStore returns a Store rooted at dir. The directory is created on Save.
func NewStore(dir string) *Store {
	return &Store{
		dir:  dir,
		path: filepath.Join(dir, stateFileName),
		now:  time.Now,
	}
}

// Path returns the state file location.
func (s *Store) Path() string { return s.path }

// Read reads and unmarshals the state file.
// Returns ErrNoState if the file does not exist.
func (s *Store) Read() (*State, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoState
		}
		return nil, fmt.Errorf("failed to read session state: %w", err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to parse session state: %w", err)
	}
	if st.CompletedTasks == nil {
		st.CompletedTasks = []CompletedTask{}
	}
	if st.Milestones == nil {
		st.Milestones = []Milestone{}
	}
	if st.SessionStart == "" {
		st.SessionStart = New(s.now()).SessionStart
	}
	return &st, nil
}

// Load returns the persisted state, or a fresh one when the file is missing
// or unreadable. It never fails.
func (s *Store) Load() *State {
	st, err := s.Read()
	if err != nil {
		return New(s.now())
	}
	return st
}

// Save marshals st to JSON and writes it atomically via a temp file + os.Rename.
func (s *Store) Save(st *State) (err error) {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to persist session state: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to persist session state: %w", err)
	}

	// Write to a temp file in the same directory so os.Rename is atomic.
	tmp, err := os.CreateTemp(s.dir, "session-state-*.json.tmp")
	if err != nil {
		return fmt.Errorf("failed to persist session state: %w", err)
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to persist session state: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to persist session state: %w", err)
	}
	if err = os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to persist session state: %w", err)
	}
	return nil
}

// Delete removes the state file from disk.
func (s *Store) Delete() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete session state: %w", err)
	}
	return nil
}

// Lock takes an exclusive lock scoped to the state directory, serialising
// load/modify/save across concurrent hook processes. The returned func
// releases it.
func (s *Store) Lock() (unlock func(), err error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return func() {}, fmt.Errorf("lock session state: %w", err)
	}
	fl := flock.New(filepath.Join(s.dir, lockFileName))
	if err := fl.Lock(); err != nil {
		return func() {}, fmt.Errorf("lock session state: %w", err)
	}
	return func() { _ = fl.Unlock() }, nil
}
