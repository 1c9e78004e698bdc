package logging

import (
	"fmt"

	"rankscout/internal/logging/adapters"
	"rankscout/internal/logging/types"
)

// AdapterFactory creates logging adapters based on configuration
type AdapterFactory struct{}

// NewAdapterFactory creates a new adapter factory
func NewAdapterFactory() *AdapterFactory {
	return &AdapterFactory{}
}

// CreateAdapter creates a logging adapter based on the provided configuration
func (f *AdapterFactory) CreateAdapter(cfg types.AdapterConfig) (types.LogAdapter, error) {
	switch cfg.Type {
	case "stdout":
		return f.createStdoutAdapter(cfg)
	case "file":
		return f.createFileAdapter(cfg)
	default:
		return nil, fmt.Errorf("unsupported adapter type: %s", cfg.Type)
	}
}

func (f *AdapterFactory) createStdoutAdapter(cfg types.AdapterConfig) (types.LogAdapter, error) {
	config := adapters.StdoutConfig{
		Format:    getStringOption(cfg.Options, "format", "text"),
		Colorized: getBoolOption(cfg.Options, "colorized", true),
	}

	return adapters.NewStdoutAdapter(cfg.Name, config), nil
}

func (f *AdapterFactory) createFileAdapter(cfg types.AdapterConfig) (types.LogAdapter, error) {
	config := adapters.FileConfig{
		FilePath:    getStringOption(cfg.Options, "file_path", ""),
		Format:      getStringOption(cfg.Options, "format", "text"),
		Truncate:    getBoolOption(cfg.Options, "truncate", false),
		CreateDirs:  getBoolOption(cfg.Options, "create_dirs", true),
		SyncOnWrite: getBoolOption(cfg.Options, "sync_on_write", false),
	}

	if config.FilePath == "" {
		return nil, fmt.Errorf("file_path is required for file adapter")
	}

	return adapters.NewFileAdapter(cfg.Name, config)
}

// Helper functions to extract options with defaults

func getStringOption(options map[string]interface{}, key string, defaultValue string) string {
	if value, exists := options[key]; exists {
		if str, ok := value.(string); ok {
			return str
		}
	}
	return defaultValue
}

func getBoolOption(options map[string]interface{}, key string, defaultValue bool) bool {
	if value, exists := options[key]; exists {
		if boolVal, ok := value.(bool); ok {
			return boolVal
		}
	}
	return defaultValue
}
