package alert

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/roach88/tradepost/internal/fsutil"
)

// PendingStore is the durable pending-alert queue: owner id to ordered
// message list, persisted on every mutation with the same
// backup-and-restore write protocol as the shop registry.
type PendingStore struct {
	path string
	log  *slog.Logger

	mu      sync.Mutex
	pending map[uuid.UUID][]string
}

// OpenPendingStore loads (or initializes) the pending queue at path.
// Entries with unparsable owner ids are skipped with a warning.
func OpenPendingStore(path string, log *slog.Logger) (*PendingStore, error) {
	if log == nil {
		log = slog.Default()
	}
	s := &PendingStore{
		path:    path,
		log:     log,
		pending: make(map[uuid.UUID][]string),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read alerts file: %w", err)
	}

	var doc struct {
		Alerts map[string][]string `yaml:"alerts"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse alerts file: %w", err)
	}
	for k, msgs := range doc.Alerts {
		id, err := uuid.Parse(k)
		if err != nil {
			log.Warn("invalid owner id in alerts file", "id", k)
			continue
		}
		if len(msgs) > 0 {
			s.pending[id] = msgs
		}
	}
	if len(s.pending) > 0 {
		log.Info("loaded pending alert queues", "count", len(s.pending))
	}
	return s, nil
}

// Append queues a message for the owner and persists immediately.
func (s *PendingStore) Append(owner uuid.UUID, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[owner] = append(s.pending[owner], msg)
	return s.saveLocked()
}

// Take removes and returns the owner's entire queue. The removal is
// all-or-nothing: if persisting the cleared state fails, the queue is
// reinstated and an error returned.
func (s *PendingStore) Take(owner uuid.UUID) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch, ok := s.pending[owner]
	if !ok || len(batch) == 0 {
		return nil, nil
	}
	delete(s.pending, owner)
	if err := s.saveLocked(); err != nil {
		s.pending[owner] = batch
		return nil, err
	}
	return batch, nil
}

// All returns a snapshot of every queued message by owner.
func (s *PendingStore) All() map[uuid.UUID][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[uuid.UUID][]string, len(s.pending))
	for id, msgs := range s.pending {
		out[id] = append([]string(nil), msgs...)
	}
	return out
}

// Count returns the number of queued messages for the owner.
func (s *PendingStore) Count(owner uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending[owner])
}

func (s *PendingStore) saveLocked() error {
	doc := struct {
		Alerts map[string][]string `yaml:"alerts"`
	}{Alerts: make(map[string][]string, len(s.pending))}
	for id, msgs := range s.pending {
		doc.Alerts[id.String()] = msgs
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("marshal alerts: %w", err)
	}

	backup := s.path + ".backup"
	if err := fsutil.CopyFile(s.path, backup); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.log.Warn("alert backup failed", "path", backup, "error", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if err := fsutil.AtomicWrite(s.path, data); err != nil {
		s.log.Error("failed to save alerts", "path", s.path, "error", err)
		if restoreErr := fsutil.CopyFile(backup, s.path); restoreErr != nil && !errors.Is(restoreErr, os.ErrNotExist) {
			s.log.Error("failed to restore alerts backup", "path", backup, "error", restoreErr)
		}
		return fmt.Errorf("save alerts: %w", err)
	}
	return nil
}
