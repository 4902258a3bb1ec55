package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/internallink/internal/config"
	"github.com/mesh-intelligence/internallink/internal/linkstore"
	"github.com/mesh-intelligence/internallink/internal/logger"
	"github.com/mesh-intelligence/internallink/internal/metrics"
	"github.com/mesh-intelligence/internallink/internal/paths"
	"github.com/mesh-intelligence/internallink/internal/sqlite"
	"github.com/mesh-intelligence/internallink/internal/wire"
	"github.com/mesh-intelligence/internallink/pkg/model"
	"github.com/mesh-intelligence/internallink/pkg/types"
)

// loadConfig reads config.yaml from the resolved config directory and
// applies the --log-level and --catalog-dir flags.
func loadConfig() (types.Config, error) {
	dir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return types.Config{}, sysError("resolve config dir: %w", err)
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return types.Config{}, err
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	if flags.catalogDir != "" {
		abs, err := filepath.Abs(flags.catalogDir)
		if err != nil {
			return types.Config{}, err
		}
		cfg.CatalogDir = abs
	}
	return cfg, cfg.Validate()
}

// newLogger logs to the command's stderr, as JSON in --json mode.
func newLogger(cmd *cobra.Command, cfg types.Config) *logger.Logger {
	return logger.NewLogger(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: !flags.jsonMode,
		Output: cmd.ErrOrStderr(),
	})
}

// openCatalog attaches the catalog in the resolved catalog directory. The
// caller must Detach it.
func openCatalog(cfg types.Config, log *logger.Logger, m *metrics.Metrics) (*sqlite.Backend, error) {
	dir, err := paths.ResolveCatalogDir(flags.catalogDir, cfg.CatalogDir)
	if err != nil {
		return nil, sysError("resolve catalog dir: %w", err)
	}
	backend := sqlite.NewBackend(
		sqlite.WithLogger(log.Component("catalog")),
		sqlite.WithMetrics(m),
	)
	if err := backend.Attach(dir); err != nil {
		return nil, sysError("attach catalog: %w", err)
	}
	return backend, nil
}

// readDocument parses the HTML document at path.
func readDocument(path string) (*model.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return wire.Parse(string(data), linkstore.Extend(model.DefaultSchema()))
}

// writeDocument serializes doc to path when inPlace is set, else to out.
func writeDocument(out io.Writer, path string, doc *model.Document, inPlace bool) error {
	src, err := wire.Serialize(doc)
	if err != nil {
		return err
	}
	if !inPlace {
		_, err := fmt.Fprintln(out, src)
		return err
	}
	if err := os.WriteFile(path, []byte(src+"\n"), 0o644); err != nil {
		return sysError("write document: %w", err)
	}
	return nil
}

// at returns the position offset inside the block-th block.
func at(doc *model.Document, block, offset int) (model.Position, error) {
	blocks := doc.Blocks()
	if block < 0 || block >= len(blocks) {
		return model.Position{}, fmt.Errorf("block %d: %w", block, model.ErrInvalidPosition)
	}
	p := model.At(blocks[block], offset)
	if !p.IsValid() {
		return model.Position{}, fmt.Errorf("offset %d in block %d: %w", offset, block, model.ErrInvalidPosition)
	}
	return p, nil
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
