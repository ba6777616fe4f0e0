// Command wombat runs the assistant daemon: the chat streaming API, the
// websocket event mirror and the dashboard admin endpoints.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/wombatlabs/wombat/pkg/channels"
	"github.com/wombatlabs/wombat/pkg/chat"
	"github.com/wombatlabs/wombat/pkg/config"
	"github.com/wombatlabs/wombat/pkg/engine"
	anthropicengine "github.com/wombatlabs/wombat/pkg/engine/anthropic"
	"github.com/wombatlabs/wombat/pkg/engine/loopback"
	openaiengine "github.com/wombatlabs/wombat/pkg/engine/openai"
	"github.com/wombatlabs/wombat/pkg/mcp"
	"github.com/wombatlabs/wombat/pkg/memory"
	"github.com/wombatlabs/wombat/pkg/skills"
	"github.com/wombatlabs/wombat/pkg/streambus"
	"github.com/wombatlabs/wombat/pkg/webapi"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("wombat failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
	)
	root := &cobra.Command{
		Use:           "wombat",
		Short:         "Conversational assistant daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initLogging(logLevel)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "settings file (default $WOMBAT_CONFIG or ~/.wombat/config.yaml)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")

	var addr string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath, addr)
		},
	}
	serve.Flags().StringVar(&addr, "addr", "", "listen address (overrides the settings file)")
	root.AddCommand(serve)
	return root
}

func initLogging(level string) error {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		return errors.Wrapf(err, "parse log level %q", level)
	}
	zerolog.SetGlobalLevel(parsed)
	if isatty.IsTerminal(os.Stderr.Fd()) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	return nil
}

func runServe(parent context.Context, configPath, addrOverride string) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := config.NewStore(configPath)
	cfg, err := store.Load()
	if err != nil {
		return err
	}
	dataDir := filepath.Dir(store.Path())
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return errors.Wrap(err, "create data dir")
	}

	bus, err := streambus.New(cfg.StreamBus)
	if err != nil {
		return errors.Wrap(err, "build stream bus")
	}
	defer func() { _ = bus.Close() }()

	mem, err := memory.NewManager(dataDir, cfg.Memory)
	if err != nil {
		return errors.Wrap(err, "open memory store")
	}
	defer func() { _ = mem.Close() }()

	skillsDir := cfg.SkillsDir
	if skillsDir == "" {
		skillsDir = filepath.Join(dataDir, "skills")
	}
	loader := skills.NewLoader(skillsDir)
	loader.Reload()

	supervisor := channels.NewSupervisor(ctx, channels.ExecFactory())
	defer supervisor.StopAll()
	for _, d := range channels.Descriptors {
		if !cfg.ChannelAutostart[d.Name] || !channels.IsConfigured(d, cfg) {
			continue
		}
		if err := supervisor.Start(d.Name, cfg.Channels[d.Name]); err != nil {
			log.Warn().Err(err).Str("channel", d.Name).Msg("channel autostart failed")
		}
	}

	mcpMgr := mcp.NewManager(mcp.DefaultFactory(), cfg.MCPServers)
	for _, server := range cfg.MCPServers {
		if !server.Enabled {
			continue
		}
		if err := mcpMgr.StartServer(ctx, server.Name); err != nil {
			log.Warn().Err(err).Str("server", server.Name).Msg("mcp autostart failed")
		}
	}

	api := webapi.NewServer(ctx, webapi.Services{
		Config:    store,
		Catalog:   buildCatalog(store),
		Streams:   chat.NewStreamRegistry(),
		Bus:       bus,
		Memory:    mem,
		Skills:    loader,
		Channels:  supervisor,
		MCP:       mcpMgr,
		Installer: skills.GitInstaller(skillsDir),
	})

	addr := cfg.Addr
	if addrOverride != "" {
		addr = addrOverride
	}
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		log.Info().Str("addr", addr).Msg("wombat listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-egCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	return eg.Wait()
}

// buildCatalog registers the built-in backends. Probes read the settings
// on every call so a key added through the dashboard flips availability
// without a restart.
func buildCatalog(store *config.Store) *engine.Catalog {
	catalog := engine.NewCatalog()
	catalog.Register(engine.Descriptor{
		Name:         "loopback",
		DisplayName:  "Loopback (echo)",
		Capabilities: []string{"chat", "streaming"},
		Probe:        func() bool { return true },
		Build: func() (engine.Engine, error) {
			return &loopback.Engine{ChunkDelay: 20 * time.Millisecond}, nil
		},
	})
	catalog.Register(engine.Descriptor{
		Name:         "anthropic",
		DisplayName:  "Anthropic Claude",
		Capabilities: []string{"chat", "streaming", "vision"},
		Probe: func() bool {
			cfg, err := store.Load()
			return err == nil && cfg.AnthropicKey() != ""
		},
		Build: func() (engine.Engine, error) {
			cfg, err := store.Load()
			if err != nil {
				return nil, err
			}
			return anthropicengine.New(anthropicengine.Options{
				APIKey: cfg.AnthropicKey(),
				Model:  cfg.DefaultModel,
			}), nil
		},
	})
	catalog.Register(engine.Descriptor{
		Name:         "openai",
		DisplayName:  "OpenAI",
		Capabilities: []string{"chat", "streaming", "vision"},
		Probe: func() bool {
			cfg, err := store.Load()
			return err == nil && cfg.OpenAIKey() != ""
		},
		Build: func() (engine.Engine, error) {
			cfg, err := store.Load()
			if err != nil {
				return nil, err
			}
			return openaiengine.New(openaiengine.Options{
				APIKey: cfg.OpenAIKey(),
				Model:  cfg.DefaultModel,
			}), nil
		},
	})
	return catalog
}
