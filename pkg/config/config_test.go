package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/chazu/armorsight/pkg/viewer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, 89.5, c.Occlusion.MaxAngle)
	assert.Equal(t, 1e-6, c.Occlusion.MinLength)
	assert.Equal(t, 3, c.Occlusion.MaxRetries)
	assert.Equal(t, 1e7, c.Occlusion.Scale)
	assert.Equal(t, "warn", c.Log.Level)

	v, err := c.View()
	require.NoError(t, err)
	assert.Equal(t, viewer.Front, v)
}

func TestDecode(t *testing.T) {
	c, err := Decode([]byte(`
[occlusion]
max_angle = 85.0
max_retries = 5

[viewer]
view = "top"
concurrency = 2

[log]
level = "debug"
`))
	require.NoError(t, err)
	assert.Equal(t, 85.0, c.Occlusion.MaxAngle)
	assert.Equal(t, 5, c.Occlusion.MaxRetries)
	// Keys not in the file keep their defaults.
	assert.Equal(t, 1e-6, c.Occlusion.MinLength)
	assert.Equal(t, 1e7, c.Occlusion.Scale)
	assert.Equal(t, 2, c.Viewer.Concurrency)
	assert.Equal(t, "top", c.Viewer.View)

	l, err := ParseLevel(c.Log.Level)
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, l)
}

func TestDecodeEmpty(t *testing.T) {
	c, err := Decode(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		invalid bool
	}{
		{"unknown key", "[occlusion]\nmax_angel = 80.0\n", false},
		{"unknown table", "[render]\ncells = 3\n", false},
		{"syntax", "[occlusion\n", false},
		{"wrong type", "[occlusion]\nmax_retries = \"three\"\n", false},
		{"angle too large", "[occlusion]\nmax_angle = 90.0\n", true},
		{"angle negative", "[occlusion]\nmax_angle = -1.0\n", true},
		{"zero min length", "[occlusion]\nmin_length = 0.0\n", true},
		{"no retries", "[occlusion]\nmax_retries = 0\n", true},
		{"zero scale", "[occlusion]\nscale = 0.0\n", true},
		{"negative concurrency", "[viewer]\nconcurrency = -1\n", true},
		{"unknown view", "[viewer]\nview = \"bottom\"\n", true},
		{"unknown level", "[log]\nlevel = \"loud\"\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.input))
			require.Error(t, err)
			assert.Equal(t, tt.invalid, errors.Is(err, ErrInvalid), "error: %v", err)
		})
	}
}

func TestValidateReportsAll(t *testing.T) {
	c := Default()
	c.Occlusion.MinLength = -1
	c.Occlusion.Scale = -1
	err := c.Validate()
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "occlusion.min_length")
	assert.Contains(t, err.Error(), "occlusion.scale")
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "armorsight.toml")
	require.NoError(t, os.WriteFile(path, []byte("[viewer]\nview = \"side\"\n"), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "side", c.Viewer.View)

	_, err = Load(filepath.Join(dir, "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOcclusionOptions(t *testing.T) {
	c := Default()
	c.Occlusion.MaxRetries = 7
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	opts := c.OcclusionOptions(logger)
	assert.Equal(t, 7, opts.MaxRetries)
	assert.Equal(t, 89.5, opts.MaxAngle)
	assert.Same(t, logger, opts.Logger)
	require.NotNil(t, opts.Primitive)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	_, err := ParseLevel("")
	assert.Error(t, err)
}

func TestLevelFromFlags(t *testing.T) {
	l := LevelFromFlags(true, false, false)
	if l != slog.LevelDebug {
		t.Errorf("expected LevelFromFlags(true, false, false) = %v, but got %v", slog.LevelDebug, l)
	}
	l = LevelFromFlags(false, true, true)
	if l != slog.LevelInfo {
		t.Errorf("expected LevelFromFlags(false, true, true) = %v, but got %v", slog.LevelInfo, l)
	}
	l = LevelFromFlags(false, false, true)
	if l != slog.LevelError {
		t.Errorf("expected LevelFromFlags(false, false, true) = %v, but got %v", slog.LevelError, l)
	}
	l = LevelFromFlags(false, false, false)
	if l != slog.LevelWarn {
		t.Errorf("expected LevelFromFlags(false, false, false) = %v, but got %v", slog.LevelWarn, l)
	}
}
