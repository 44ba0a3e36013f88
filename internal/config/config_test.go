package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	g, err := cfg.BuildTopology()
	require.NoError(t, err)
	assert.Equal(t, 53, g.QubitCount())
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
topology: grid
rows: 2
cols: 4
shots: 500
seed: 99
log_level: debug
store: runs.db
`), "test.yaml")
	require.NoError(t, err)
	assert.Equal(t, "grid", cfg.Topology)
	assert.Equal(t, 500, cfg.Shots)
	assert.Equal(t, uint64(99), cfg.Seed)
	assert.Equal(t, "runs.db", cfg.Store)
	assert.Equal(t, 8, cfg.Qubits, "untouched fields keep defaults")

	g, err := cfg.BuildTopology()
	require.NoError(t, err)
	assert.Equal(t, 8, g.QubitCount())
	assert.True(t, g.Adjacent(0, 4))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"zero qubits", "topology: chain\nqubits: -1"},
		{"too many qubits", "topology: ring\nqubits: 65"},
		{"grid too large", "topology: grid\nrows: 9\ncols: 9"},
		{"negative shots", "shots: -4"},
		{"negative workers", "workers: -1"},
		{"bad level", "log_level: loud"},
		{"bad yaml", "shots: [1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), "x.yaml")
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "q.yaml")
	require.NoError(t, os.WriteFile(path, []byte("topology: alltoall\nqubits: 5\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	g, err := cfg.BuildTopology()
	require.NoError(t, err)
	assert.Equal(t, 10, g.LinkCount())

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err, "an explicit path must exist")
}

func TestLoadMissingDefaultFile(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
