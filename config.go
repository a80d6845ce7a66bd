package filecache

import (
	"bytes"
	"os"

	platformerrors "github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/fs/core"
	"gopkg.in/yaml.v3"

	"github.com/jmgilman/go/filecache/keymap"
	"github.com/jmgilman/go/filecache/logging"
)

// MapperKind selects the key mapping of a configured cache.
type MapperKind string

// Supported key mappings.
const (
	MapperLocal   MapperKind = "local"
	MapperDigest  MapperKind = "digest"
	MapperPerUser MapperKind = "per-user"
)

// Config describes a cache in YAML form.
//
//	directory: /var/cache/thumbs
//	capacity: 536870912
//	mapper: digest
//	log_level: info
type Config struct {
	// Directory is the cache directory. Required unless Mapper is per-user.
	Directory string `yaml:"directory"`
	// Capacity is the maximum size in bytes. Zero means unbounded.
	Capacity int64 `yaml:"capacity"`
	// Mapper selects the key mapping. Defaults to local.
	Mapper MapperKind `yaml:"mapper"`
	// App names the per-user cache subdirectory.
	App string `yaml:"app"`
	// Extension is appended to cache file names.
	Extension string `yaml:"extension"`
	// TouchOnAccess updates access times on hits. Defaults to true.
	TouchOnAccess *bool `yaml:"touch_on_access"`
	// LogLevel enables logging to stderr at the given level. Empty disables
	// logging.
	LogLevel string `yaml:"log_level"`
}

// SetDefaults applies default values to unset fields.
func (c *Config) SetDefaults() {
	if c.Mapper == "" {
		c.Mapper = MapperLocal
	}
	if c.Extension == "" {
		c.Extension = keymap.DefaultExtension
	}
	if c.TouchOnAccess == nil {
		touch := true
		c.TouchOnAccess = &touch
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Capacity < 0 {
		return platformerrors.Newf(platformerrors.CodeInvalidConfig,
			"capacity cannot be negative: %d", c.Capacity)
	}

	switch c.Mapper {
	case MapperLocal, MapperDigest, "":
		if c.Directory == "" {
			return platformerrors.Newf(platformerrors.CodeInvalidConfig,
				"directory is required for the %q mapper", c.mapperOrDefault())
		}
	case MapperPerUser:
		if c.App == "" {
			return platformerrors.New(platformerrors.CodeInvalidConfig, "app is required for the per-user mapper")
		}
	default:
		return platformerrors.Newf(platformerrors.CodeInvalidConfig, "unknown mapper %q", c.Mapper)
	}

	if c.LogLevel != "" {
		if _, err := logging.ParseLogLevel(c.LogLevel); err != nil {
			return platformerrors.Wrap(err, platformerrors.CodeInvalidConfig, "invalid log level")
		}
	}
	return nil
}

func (c *Config) mapperOrDefault() MapperKind {
	if c.Mapper == "" {
		return MapperLocal
	}
	return c.Mapper
}

// LoadConfig reads a YAML configuration from path. Unknown fields are
// rejected. Defaults are applied before validation.
func LoadConfig(fsys core.ReadFS, path string) (Config, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return Config{}, platformerrors.WrapWithContext(err, platformerrors.CodeInvalidConfig,
			"failed to read cache config", map[string]interface{}{"path": path})
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, platformerrors.WrapWithContext(err, platformerrors.CodeInvalidConfig,
			"failed to parse cache config", map[string]interface{}{"path": path})
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// NewFromConfig creates a cache from cfg. Options override the values the
// configuration implies; the filesystem given by WithFS is also used to
// create the mapper's directories.
func NewFromConfig(cfg Config, opts ...Option) (*Cache, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := applyOptions(opts)

	mapperOpts := []keymap.Option{
		keymap.WithFS(o.fs),
		keymap.WithExtension(cfg.Extension),
	}
	var mapper keymap.Mapper
	var err error
	switch cfg.Mapper {
	case MapperDigest:
		mapper, err = keymap.NewDigest(cfg.Directory, mapperOpts...)
	case MapperPerUser:
		mapper, err = keymap.NewPerUser(cfg.App, mapperOpts...)
	default:
		mapper, err = keymap.NewLocal(cfg.Directory, mapperOpts...)
	}
	if err != nil {
		return nil, err
	}

	base := []Option{WithTouchOnAccess(*cfg.TouchOnAccess)}
	if cfg.LogLevel != "" {
		level, _ := logging.ParseLogLevel(cfg.LogLevel)
		logCfg := logging.DefaultLogConfig()
		logCfg.Level = level
		logCfg.Output = os.Stderr
		base = append(base, WithLogger(logging.NewLogger(logCfg)))
	}

	cache, err := New(cfg.Capacity, mapper, append(base, opts...)...)
	if err != nil {
		return nil, platformerrors.Wrap(err, platformerrors.GetCode(err), "failed to open cache")
	}
	return cache, nil
}
