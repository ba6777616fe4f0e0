package memory

import (
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/wombatlabs/wombat/pkg/config"
)

// Manager owns the active store and rebuilds it when the memory settings
// change backend.
type Manager struct {
	dataDir string
	store   Store
	backend string
}

// NewManager builds the store selected by the settings. dataDir anchors
// the relative default locations.
func NewManager(dataDir string, ms config.MemorySettings) (*Manager, error) {
	m := &Manager{dataDir: dataDir}
	if err := m.Reconfigure(ms); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) Store() Store    { return m.store }
func (m *Manager) Backend() string { return m.backend }

// Reconfigure swaps the store when the backend changed. The old store is
// closed after the new one opens so a failed open keeps memory working.
func (m *Manager) Reconfigure(ms config.MemorySettings) error {
	backend := ms.Backend
	if backend == "" {
		backend = "file"
	}
	if m.store != nil && backend == m.backend {
		return nil
	}

	var (
		next Store
		err  error
	)
	switch backend {
	case "file":
		next, err = NewFileStore(filepath.Join(m.dataDir, "memory.jsonl"))
	case "sqlite":
		path := ms.SQLitePath
		if path == "" {
			path = filepath.Join(m.dataDir, "memory.db")
		}
		var dsn string
		dsn, err = DSNForFile(path)
		if err == nil {
			next, err = NewSQLiteStore(dsn)
		}
	default:
		return errors.Errorf("unknown memory backend %q", backend)
	}
	if err != nil {
		return errors.Wrapf(err, "open %s memory store", backend)
	}

	if m.store != nil {
		if err := m.store.Close(); err != nil {
			log.Warn().Err(err).Str("component", "memory").Msg("closing previous store failed")
		}
	}
	m.store = next
	m.backend = backend
	log.Info().Str("component", "memory").Str("backend", backend).Msg("memory store ready")
	return nil
}

func (m *Manager) Close() error {
	if m == nil || m.store == nil {
		return nil
	}
	return m.store.Close()
}
