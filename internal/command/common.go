package command

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/goliatone/go-memocache/cache"
	"github.com/goliatone/go-memocache/internal/diskstore"
)

// loadConfig resolves the effective configuration: defaults, then the
// config file, then --root.
func loadConfig(cmd *cli.Command) (cache.Config, error) {
	cfg := cache.DefaultConfig()
	if path := cmd.String("config"); path != "" {
		loaded, err := cache.LoadConfig(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if root := cmd.String("root"); root != "" {
		cfg.Root = root
	}
	return cfg, cfg.Validate()
}

// resolveDir maps a directory argument to a path. Arguments that are not an
// existing path are taken as a function directory name under the root.
func resolveDir(cfg cache.Config, arg string) string {
	if filepath.IsAbs(arg) {
		return arg
	}
	if info, err := os.Stat(arg); err == nil && info.IsDir() {
		return arg
	}
	return filepath.Join(cfg.Root, arg)
}

// openStore returns the store for the directory named by the first
// positional argument.
func openStore(cmd *cli.Command) (*diskstore.Store, cache.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, cfg, err
	}
	if cmd.Args().Len() < 1 {
		return nil, cfg, fmt.Errorf("%s: missing cache directory argument", cmd.Name)
	}
	dir := resolveDir(cfg, cmd.Args().First())
	return diskstore.New(dir, diskstore.WithAtomicWrites(cfg.AtomicWrites)), cfg, nil
}

// newLogger writes human readable logs to the root command's ErrWriter.
func newLogger(cmd *cli.Command) zerolog.Logger {
	level := zerolog.InfoLevel
	if cmd.Bool("verbose") {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: cmd.Root().ErrWriter, NoColor: true}).
		Level(level).
		With().Timestamp().Str("command", cmd.Name).Logger()
}
