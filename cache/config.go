package cache

import (
	"fmt"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-errors"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-memocache/codec"
	"github.com/goliatone/go-memocache/internal/cacheinfra"
)

// EnvCacheDir names the environment variable that overrides the cache root.
const EnvCacheDir = "CACHE_DIR"

// Config exposes the settings shared by memoized functions.
type Config struct {
	// Root is the directory under which per-function directories are
	// created. Defaults to $CACHE_DIR, then the system temp directory.
	Root string `yaml:"root"`

	// Format is the entry format, "json" or "msgpack".
	Format string `yaml:"format"`

	// AtomicWrites writes entries to a temporary file first and renames it
	// into place, so readers never see a partial entry.
	AtomicWrites bool `yaml:"atomic_writes"`

	// KeyStrategy names the default strategy, see KeyStrategyByName.
	KeyStrategy string `yaml:"key_strategy"`

	// Memory enables the in-memory tier when set.
	Memory *MemoryConfig `yaml:"memory"`
}

// MemoryConfig mirrors the in-memory tier options.
type MemoryConfig struct {
	Capacity           int           `yaml:"capacity"`
	NumShards          int           `yaml:"num_shards"`
	TTL                time.Duration `yaml:"ttl"`
	EvictionPercentage int           `yaml:"eviction_percentage"`
	EvictionInterval   time.Duration `yaml:"eviction_interval"`
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() Config {
	root := os.Getenv(EnvCacheDir)
	if root == "" {
		root = os.TempDir()
	}
	return Config{
		Root:         root,
		Format:       string(codec.FormatJSON),
		AtomicWrites: true,
		KeyStrategy:  StrategyJoin,
	}
}

// DefaultMemoryConfig returns the default in-memory tier settings.
func DefaultMemoryConfig() *MemoryConfig {
	return convertFromInternal(cacheinfra.DefaultConfig())
}

// LoadConfig reads a YAML file over the defaults. Keys missing from the file
// keep their default value.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, errors.CategoryBadInput, fmt.Sprintf("cannot read config %s", path))
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(err, errors.CategoryBadInput, fmt.Sprintf("cannot parse config %s", path))
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Root, validation.Required),
		validation.Field(&c.Format, validation.In(string(codec.FormatJSON), string(codec.FormatMsgpack))),
		validation.Field(&c.KeyStrategy, validation.By(knownStrategy)),
		validation.Field(&c.Memory),
	)
	if err != nil {
		return errors.FromOzzoValidation(err, "invalid cache configuration")
	}
	return nil
}

// UnmarshalYAML starts from DefaultMemoryConfig so a partial memory section
// only overrides the keys it names.
func (m *MemoryConfig) UnmarshalYAML(value *yaml.Node) error {
	*m = *DefaultMemoryConfig()
	type plain MemoryConfig
	return value.Decode((*plain)(m))
}

// Validate checks the in-memory tier settings.
func (m MemoryConfig) Validate() error {
	return m.toInternal().Validate()
}

// Codec builds the codec selected by Format.
func (c Config) Codec() (*codec.Codec, error) {
	return codec.New(codec.Format(c.Format))
}

// Strategy resolves KeyStrategy.
func (c Config) Strategy() (KeyStrategy, error) {
	return KeyStrategyByName(c.KeyStrategy)
}

// NewMemoryTier constructs the in-memory tier, or returns nil when the
// configuration does not enable one.
func NewMemoryTier(cfg Config) (Tier, error) {
	if cfg.Memory == nil {
		return nil, nil
	}
	tier, err := cacheinfra.NewMemoryTier(cfg.Memory.toInternal())
	if err != nil {
		return nil, err
	}
	return tier, nil
}

func knownStrategy(value any) error {
	name, _ := value.(string)
	if _, err := KeyStrategyByName(name); err != nil {
		return validation.NewError("validation_unknown_strategy", fmt.Sprintf("unknown key strategy %q", name))
	}
	return nil
}

func (m MemoryConfig) toInternal() cacheinfra.Config {
	return cacheinfra.Config{
		Capacity:           m.Capacity,
		NumShards:          m.NumShards,
		TTL:                m.TTL,
		EvictionPercentage: m.EvictionPercentage,
		EvictionInterval:   m.EvictionInterval,
	}
}

func convertFromInternal(cfg cacheinfra.Config) *MemoryConfig {
	return &MemoryConfig{
		Capacity:           cfg.Capacity,
		NumShards:          cfg.NumShards,
		TTL:                cfg.TTL,
		EvictionPercentage: cfg.EvictionPercentage,
		EvictionInterval:   cfg.EvictionInterval,
	}
}
