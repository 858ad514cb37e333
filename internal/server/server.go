package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/zurustar/confsync/internal/address"
	"github.com/zurustar/confsync/internal/config"
	"github.com/zurustar/confsync/internal/database"
	"github.com/zurustar/confsync/internal/logging"
	"github.com/zurustar/confsync/internal/metrics"
	"github.com/zurustar/confsync/internal/transport"
	"github.com/zurustar/confsync/internal/webadmin"
)

// SIPServerImpl implements the Server interface
type SIPServerImpl struct {
	configFile    string
	config        *config.Config
	configManager *config.Manager

	logger          *logging.StructuredLogger
	databaseManager *database.SQLiteManager
	transport       SIPTransport
	metrics         *metrics.Metrics
	core            *Core
	webAdminServer  webadmin.WebAdminServer
	watcher         *config.Watcher

	// newTransport builds the SIP transport, replaced in tests
	newTransport func(opts transport.Options, logger logging.Logger) SIPTransport

	cancel  context.CancelFunc
	started bool
	mu      sync.RWMutex
}

// NewSIPServer creates a new daemon instance
func NewSIPServer() *SIPServerImpl {
	return &SIPServerImpl{
		configManager: config.NewManager(),
		newTransport: func(opts transport.Options, logger logging.Logger) SIPTransport {
			return transport.NewManager(opts, logger)
		},
	}
}

// LoadConfig loads and validates the configuration
func (s *SIPServerImpl) LoadConfig(filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("cannot load configuration while server is running")
	}

	cfg, err := s.configManager.Load(filename)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	s.configFile = filename
	s.config = cfg
	return nil
}

// Start initializes all components and starts the daemon
func (s *SIPServerImpl) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("server is already running")
	}
	if s.config == nil {
		return fmt.Errorf("configuration not loaded")
	}

	if err := s.initializeComponents(); err != nil {
		s.cleanup()
		return fmt.Errorf("failed to initialize components: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	if err := s.transport.Start(ctx); err != nil {
		s.cleanup()
		return fmt.Errorf("failed to start SIP transport: %w", err)
	}

	if err := s.core.Apply(ctx, s.config); err != nil {
		s.logger.Error("Configuration partially applied", logging.ErrorField(err))
	}

	if err := s.core.StartTicker(s.config.Tick.Spec); err != nil {
		s.cleanup()
		return err
	}

	if s.config.WebAdmin.Enabled {
		s.webAdminServer = webadmin.NewServer(s.core, s.metrics.Handler(), s.logger)
		if err := s.webAdminServer.Start(s.config.WebAdmin.Port); err != nil {
			s.cleanup()
			return fmt.Errorf("failed to start web admin server: %w", err)
		}
	}

	if s.configFile != "" {
		s.watcher = config.NewWatcher(s.configManager, s.configFile, s.logger, s.Reload)
		if err := s.watcher.Start(); err != nil {
			s.logger.Warn("Configuration hot reload disabled", logging.ErrorField(err))
			s.watcher = nil
		}
	}

	s.started = true
	s.logger.Info("Daemon started",
		logging.StringField("transport", s.config.Server.Transport),
		logging.IntField("port", s.config.Server.Port),
		logging.IntField("accounts", len(s.config.Accounts)),
		logging.IntField("local_conferences", len(s.config.Conferences.Local)),
		logging.IntField("remote_conferences", len(s.config.Conferences.Remote)))

	return nil
}

// initializeComponents initializes all components in dependency order
func (s *SIPServerImpl) initializeComponents() error {
	var err error

	s.logger, err = logging.NewLoggerFromConfig(logging.LoggerConfig{
		Level:  s.config.Logging.Level,
		File:   s.config.Logging.File,
		Format: s.config.Logging.Format,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	s.databaseManager = database.NewSQLiteManager(s.config.Database.Path)
	if err := s.databaseManager.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	s.logger.Info("Notify log opened", logging.StringField("path", s.config.Database.Path))

	opts := transport.Options{
		Network:          s.config.Server.Transport,
		Host:             s.config.Server.Host,
		Port:             s.config.Server.Port,
		PublicHost:       s.config.Server.PublicHost,
		UserAgent:        s.config.Server.UserAgent,
		SubscribeExpires: s.config.Server.SubscribeExpires,
	}
	if s.config.Server.LocalURI != "" {
		if opts.LocalURI, err = address.Parse(s.config.Server.LocalURI); err != nil {
			return fmt.Errorf("local uri: %w", err)
		}
	}
	s.transport = s.newTransport(opts, s.logger)

	s.metrics = metrics.New()
	s.core = NewCore(s.transport, s.databaseManager, s.metrics, s.logger)
	return nil
}

// Reload applies a configuration read after startup. Listener settings
// only take effect on restart.
func (s *SIPServerImpl) Reload(cfg *config.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if level, err := logging.ParseLogLevel(cfg.Logging.Level); err == nil {
		s.logger.SetLevel(level)
	}
	if err := s.core.Apply(context.Background(), cfg); err != nil {
		s.logger.Error("Configuration partially applied", logging.ErrorField(err))
	}
	s.config = cfg
}

// Core returns the running core, or nil before Start
func (s *SIPServerImpl) Core() *Core {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.core
}

// Stop unregisters, unsubscribes and shuts everything down
func (s *SIPServerImpl) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.logger.Info("Initiating shutdown...")
	s.cleanup()
	s.started = false
	return nil
}

// cleanup releases whatever initializeComponents and Start created
func (s *SIPServerImpl) cleanup() {
	if s.watcher != nil {
		if err := s.watcher.Close(); err != nil {
			s.logger.Warn("Error closing config watcher", logging.ErrorField(err))
		}
		s.watcher = nil
	}
	if s.core != nil {
		s.core.StopTicker()
		s.core.Shutdown()
	}
	if s.webAdminServer != nil {
		if err := s.webAdminServer.Stop(); err != nil {
			s.logger.Error("Error stopping web admin server", logging.ErrorField(err))
		}
		s.webAdminServer = nil
	}
	if s.transport != nil {
		if err := s.transport.Stop(); err != nil {
			s.logger.Error("Error stopping SIP transport", logging.ErrorField(err))
		}
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.databaseManager != nil {
		if err := s.databaseManager.Close(); err != nil && s.logger != nil {
			s.logger.Error("Error closing database", logging.ErrorField(err))
		}
		s.databaseManager = nil
	}
	if s.logger != nil {
		s.logger.Info("Shutdown completed")
		_ = s.logger.Close()
	}
}

// RunWithSignalHandling runs until SIGINT or SIGTERM. SIGHUP reloads the
// configuration file.
func (s *SIPServerImpl) RunWithSignalHandling() error {
	if err := s.Start(); err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	for sig := range sigChan {
		if sig == syscall.SIGHUP {
			s.reloadFromFile()
			continue
		}
		s.logger.Info("Received shutdown signal", logging.StringField("signal", sig.String()))
		break
	}

	return s.Stop()
}

func (s *SIPServerImpl) reloadFromFile() {
	s.mu.RLock()
	filename := s.configFile
	s.mu.RUnlock()

	cfg, err := s.configManager.Load(filename)
	if err != nil {
		s.logger.Error("Ignoring invalid configuration", logging.ErrorField(err))
		return
	}
	s.Reload(cfg)
}
