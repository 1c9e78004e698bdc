package logging

import (
	"fmt"
	"sync"

	"rankscout/internal/config"
	"rankscout/internal/logging/adapters"
)

// Manager manages the logging system initialization and configuration
type Manager struct {
	factory *AdapterFactory
	logger  *MultiLogger
}

// NewManager creates a new logging manager
func NewManager() *Manager {
	return &Manager{
		factory: NewAdapterFactory(),
		logger:  NewMultiLogger(),
	}
}

// Initialize initializes the logging system from configuration
func (m *Manager) Initialize(cfg *config.Config) error {
	m.logger.SetLevel(ParseLogLevel(cfg.Logging.Level))

	if len(cfg.Logging.Adapters) == 0 {
		// No adapters configured, log to the terminal
		return m.logger.AddAdapter(adapters.NewStdoutAdapter("stdout", adapters.StdoutConfig{
			Format:    "text",
			Colorized: true,
		}))
	}

	for _, ac := range cfg.Logging.Adapters {
		if !ac.Enabled {
			continue
		}

		adapter, err := m.factory.CreateAdapter(AdapterConfig{
			Name:    ac.Name,
			Type:    ac.Type,
			Enabled: ac.Enabled,
			Options: ac.Options,
		})
		if err != nil {
			return fmt.Errorf("failed to create adapter %s: %w", ac.Name, err)
		}

		if err := m.logger.AddAdapter(adapter); err != nil {
			return fmt.Errorf("failed to add adapter %s: %w", ac.Name, err)
		}
	}

	return nil
}

// Logger returns the managed logger
func (m *Manager) Logger() Logger {
	return m.logger
}

// Close shuts the logging system down
func (m *Manager) Close() error {
	return m.logger.Close()
}

var (
	globalLogger *MultiLogger
	globalMu     sync.RWMutex
)

// InitializeLogging sets up the global logger from configuration
func InitializeLogging(cfg *config.Config) error {
	manager := NewManager()
	if err := manager.Initialize(cfg); err != nil {
		return err
	}

	globalMu.Lock()
	globalLogger = manager.logger
	globalMu.Unlock()
	return nil
}

// GetGlobalLogger returns the global logger instance. Before
// InitializeLogging runs it falls back to a plain stdout logger.
func GetGlobalLogger() Logger {
	globalMu.RLock()
	l := globalLogger
	globalMu.RUnlock()
	if l != nil {
		return l
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		globalLogger = NewMultiLogger()
		_ = globalLogger.AddAdapter(adapters.NewStdoutAdapter("stdout", adapters.StdoutConfig{Format: "text"}))
	}
	return globalLogger
}
