package filecache

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	platformerrors "github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/fs/billy"
	"github.com/jmgilman/go/fs/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmgilman/go/filecache/keymap"
)

func TestConfig_SetDefaults(t *testing.T) {
	cfg := Config{Directory: "/cache"}
	cfg.SetDefaults()

	assert.Equal(t, MapperLocal, cfg.Mapper)
	assert.Equal(t, keymap.DefaultExtension, cfg.Extension)
	require.NotNil(t, cfg.TouchOnAccess)
	assert.True(t, *cfg.TouchOnAccess)
	assert.Empty(t, cfg.LogLevel)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"local", Config{Directory: "/cache", Capacity: 100}, false},
		{"digest", Config{Directory: "/cache", Mapper: MapperDigest}, false},
		{"per-user", Config{Mapper: MapperPerUser, App: "lightzone"}, false},
		{"unbounded", Config{Directory: "/cache"}, false},
		{"negative capacity", Config{Directory: "/cache", Capacity: -1}, true},
		{"missing directory", Config{Mapper: MapperLocal}, true},
		{"per-user without app", Config{Mapper: MapperPerUser}, true},
		{"unknown mapper", Config{Directory: "/cache", Mapper: "s3"}, true},
		{"bad log level", Config{Directory: "/cache", LogLevel: "chatty"}, true},
		{"log level", Config{Directory: "/cache", LogLevel: "debug"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, platformerrors.CodeInvalidConfig, platformerrors.GetCode(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	mem := billy.NewMemory()
	require.NoError(t, mem.WriteFile("/etc/cache.yaml", []byte(`
directory: /var/cache/thumbs
capacity: 1048576
mapper: digest
extension: thumb
touch_on_access: false
log_level: warn
`), 0o644))

	cfg, err := LoadConfig(mem, "/etc/cache.yaml")
	require.NoError(t, err)

	assert.Equal(t, "/var/cache/thumbs", cfg.Directory)
	assert.Equal(t, int64(1048576), cfg.Capacity)
	assert.Equal(t, MapperDigest, cfg.Mapper)
	assert.Equal(t, "thumb", cfg.Extension)
	require.NotNil(t, cfg.TouchOnAccess)
	assert.False(t, *cfg.TouchOnAccess)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown field", "directory: /cache\nttl: 5m\n"},
		{"malformed", "directory: [unterminated\n"},
		{"invalid", "capacity: -5\ndirectory: /cache\n"},
		{"wrong type", "directory: /cache\ncapacity: lots\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := billy.NewMemory()
			require.NoError(t, mem.WriteFile("/cache.yaml", []byte(tt.content), 0o644))

			_, err := LoadConfig(mem, "/cache.yaml")
			require.Error(t, err)
			assert.Equal(t, platformerrors.CodeInvalidConfig, platformerrors.GetCode(err))
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(billy.NewMemory(), "/nope.yaml")
	require.Error(t, err)
	assert.Equal(t, platformerrors.CodeInvalidConfig, platformerrors.GetCode(err))
}

func TestNewFromConfig(t *testing.T) {
	tests := []struct {
		name   string
		mapper MapperKind
	}{
		{"local", MapperLocal},
		{"digest", MapperDigest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			touch := false
			c, err := NewFromConfig(Config{
				Directory:     dir,
				Capacity:      1 << 20,
				Mapper:        tt.mapper,
				Extension:     "thumb",
				TouchOnAccess: &touch,
			})
			require.NoError(t, err)
			defer c.Close()

			assert.Equal(t, dir, c.CacheDirectory())
			assert.Equal(t, int64(1<<20), c.Capacity())
			assert.False(t, c.touch)

			require.NoError(t, c.Put("a/b/c", []byte("value")))
			path, ok := c.Get("a/b/c")
			require.True(t, ok)
			assert.Contains(t, path, ".thumb")
		})
	}
}

func TestNewFromConfig_Invalid(t *testing.T) {
	_, err := NewFromConfig(Config{Mapper: MapperPerUser})
	require.Error(t, err)
	assert.Equal(t, platformerrors.CodeInvalidConfig, platformerrors.GetCode(err))
}

func TestNewFromConfig_UncreatableDirectory(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("file"), 0o644))

	_, err := NewFromConfig(Config{Directory: filepath.Join(blocker, "cache")})
	require.Error(t, err)
	assert.Equal(t, platformerrors.CodeUnavailable, platformerrors.GetCode(err))
}

// readOnlyFS refuses to write whole files.
type readOnlyFS struct {
	core.FS
}

func (readOnlyFS) WriteFile(string, []byte, fs.FileMode) error {
	return errors.New("read-only file system")
}

func TestNewFromConfig_KeepsErrorCode(t *testing.T) {
	_, err := NewFromConfig(Config{Directory: "/cache", Capacity: 100},
		WithFS(readOnlyFS{FS: billy.NewMemory()}))
	require.Error(t, err)

	var perr platformerrors.PlatformError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, platformerrors.CodeInternal, perr.Code())
	assert.Contains(t, err.Error(), "failed to open cache")
}
