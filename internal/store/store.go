// Package store persists debate sessions to the local filesystem. Each
// session owns a directory holding the full session document plus a small
// metadata document so listing does not deserialize whole histories.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/Iron-Ham/triad/internal/debate"
	"github.com/Iron-Ham/triad/internal/errors"
)

// File names within a session directory.
const (
	SessionFileName = "session.json"
	MetaFileName    = "meta.json"
)

// Info is the cheap listing view of a stored session.
type Info struct {
	ID               string               `json:"id"`
	Status           debate.SessionStatus `json:"status"`
	Problem          string               `json:"problem"`
	Rounds           int                  `json:"rounds"`
	VotingScore      float64              `json:"voting_score"`
	UncertaintyLevel float64              `json:"uncertainty_level"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// problemPreviewLimit bounds how much of the problem statement the
// metadata document carries.
const problemPreviewLimit = 200

// Store is a file-backed session store. Writes are atomic via a temp file
// and rename, so a crash never leaves a half-written session behind.
type Store struct {
	baseDir string
	mu      sync.RWMutex
}

// New creates a store rooted at baseDir, creating the directory if needed.
func New(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &Store{baseDir: baseDir}, nil
}

// BaseDir returns the store's root directory.
func (s *Store) BaseDir() string {
	return s.baseDir
}

// SessionDir returns the directory holding the given session's documents.
func (s *Store) SessionDir(sessionID string) string {
	return filepath.Join(s.baseDir, sessionID)
}

// SaveSession persists the full session document and refreshes the
// metadata document. Implements the orchestrator's Persister interface.
func (s *Store) SaveSession(_ context.Context, session *debate.Session) error {
	if session == nil || session.ID == "" {
		return errors.NewValidationError("session and its ID are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.SessionDir(session.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := atomicWriteFile(filepath.Join(dir, SessionFileName), data, 0644); err != nil {
		return err
	}

	meta, err := json.MarshalIndent(infoOf(session), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session metadata: %w", err)
	}
	return atomicWriteFile(filepath.Join(dir, MetaFileName), meta, 0644)
}

// LoadSession reads a session by ID. A missing session returns
// errors.ErrSessionNotFound; an unreadable document returns
// errors.ErrSessionCorrupted.
func (s *Store) LoadSession(_ context.Context, sessionID string) (*debate.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(filepath.Join(s.SessionDir(sessionID), SessionFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("session", sessionID).WithCause(errors.ErrSessionNotFound)
		}
		return nil, errors.Wrap(err, "failed to read session file")
	}

	var session debate.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, errors.Wrapf(errors.ErrSessionCorrupted, "decode session %s", sessionID)
	}
	if session.ID == "" {
		return nil, errors.Wrapf(errors.ErrSessionCorrupted, "session %s missing its id", sessionID)
	}
	return &session, nil
}

// ListSessions returns metadata for every stored session, newest first.
// Sessions whose metadata cannot be read are skipped rather than failing
// the whole listing.
func (s *Store) ListSessions(_ context.Context) ([]Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read store directory: %w", err)
	}

	infos := make([]Info, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), MetaFileName))
		if err != nil {
			continue
		}
		var info Info
		if err := json.Unmarshal(data, &info); err != nil || info.ID == "" {
			continue
		}
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].UpdatedAt.After(infos[j].UpdatedAt)
	})
	return infos, nil
}

// DeleteSession removes a session and everything under its directory.
func (s *Store) DeleteSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.SessionDir(sessionID)
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return errors.NewNotFoundError("session", sessionID).WithCause(errors.ErrSessionNotFound)
		}
		return fmt.Errorf("failed to check session directory: %w", err)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to delete session directory: %w", err)
	}
	return nil
}

// SessionExists reports whether a session with the given ID is stored.
func (s *Store) SessionExists(sessionID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := os.Stat(filepath.Join(s.SessionDir(sessionID), SessionFileName))
	return err == nil
}

// infoOf projects a session into its metadata document.
func infoOf(session *debate.Session) Info {
	problem := session.Problem
	if len([]rune(problem)) > problemPreviewLimit {
		problem = string([]rune(problem)[:problemPreviewLimit])
	}
	return Info{
		ID:               session.ID,
		Status:           session.Status,
		Problem:          problem,
		Rounds:           len(session.Rounds),
		VotingScore:      session.VotingScore,
		UncertaintyLevel: session.UncertaintyLevel,
		CreatedAt:        session.CreatedAt,
		UpdatedAt:        session.UpdatedAt,
	}
}

// atomicWriteFile writes data to path by writing a temp file in the same
// directory, syncing it, then renaming over the target.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set file permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}
