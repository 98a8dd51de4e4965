// Package cli implements the policymap command-line interface.
package cli

import (
	"context"
	"encoding/json"
	"io"

	"github.com/charmbracelet/log"

	"github.com/opcmap/policymap/pkg/config"
	"github.com/opcmap/policymap/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = "policymap"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Config is resolved in the root command's PersistentPreRunE, after
	// flags are parsed.
	Config config.Config

	configPath string
	dataDir    string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// loadConfig resolves the config file and environment, then applies the
// --data flag on top.
func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.dataDir != "" {
		cfg.DataDir = c.dataDir
	}
	c.Config = cfg
	c.Logger.Debug("Resolved config", "data_dir", cfg.DataDir)
	return nil
}

// =============================================================================
// Loading
// =============================================================================

// loader returns a loader for the configured data root.
func (c *CLI) loader() *store.Loader {
	return store.NewLoader(c.Config.DataDir, c.Logger)
}

// loadSnapshot loads the data root and logs how long it took.
func (c *CLI) loadSnapshot(ctx context.Context) (*store.Snapshot, error) {
	prog := newProgress(c.Logger)
	snap, err := c.loader().Load(ctx)
	if err != nil {
		return nil, err
	}
	prog.debug("Loaded %d policies and %d parks", len(snap.Policies), len(snap.Parks))
	return snap, nil
}

// =============================================================================
// Output Helpers
// =============================================================================

// writeJSON writes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
