package channels

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ConnectorFactory builds a connector for a channel from its settings.
type ConnectorFactory func(name string, cfg map[string]string) (Connector, error)

// Supervisor tracks running connectors. Start/Stop are serialized per
// supervisor; connectors themselves run on their own goroutines.
type Supervisor struct {
	baseCtx context.Context
	factory ConnectorFactory

	mu      sync.Mutex
	running map[string]Connector
}

func NewSupervisor(baseCtx context.Context, factory ConnectorFactory) *Supervisor {
	return &Supervisor{
		baseCtx: baseCtx,
		factory: factory,
		running: map[string]Connector{},
	}
}

func (s *Supervisor) IsRunning(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.running[name]
	return ok
}

// Start builds and starts a connector. Returns an error when the channel
// is already running or no factory is wired.
func (s *Supervisor) Start(name string, cfg map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.running[name]; ok {
		return errors.Errorf("channel %s already running", name)
	}
	if s.factory == nil {
		return errors.New("no connector factory configured")
	}
	conn, err := s.factory(name, cfg)
	if err != nil {
		return errors.Wrapf(err, "build %s connector", name)
	}
	if err := conn.Start(s.baseCtx); err != nil {
		return errors.Wrapf(err, "start %s connector", name)
	}
	s.running[name] = conn
	log.Info().Str("component", "channels").Str("channel", name).Msg("channel started")
	return nil
}

// Stop stops a running connector. Returns an error when it is not running.
func (s *Supervisor) Stop(name string) error {
	s.mu.Lock()
	conn, ok := s.running[name]
	delete(s.running, name)
	s.mu.Unlock()
	if !ok {
		return errors.Errorf("channel %s not running", name)
	}
	if err := conn.Stop(); err != nil {
		return errors.Wrapf(err, "stop %s connector", name)
	}
	log.Info().Str("component", "channels").Str("channel", name).Msg("channel stopped")
	return nil
}

// StopAll stops every running connector, used at shutdown.
func (s *Supervisor) StopAll() {
	s.mu.Lock()
	conns := s.running
	s.running = map[string]Connector{}
	s.mu.Unlock()
	for name, conn := range conns {
		if err := conn.Stop(); err != nil {
			log.Warn().Err(err).Str("component", "channels").Str("channel", name).Msg("stop failed")
		}
	}
}
