package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "127.0.0.1:50051", c.ServerEndpointAddr)
	assert.Equal(t, 5*time.Second, c.CallTimeout)
	assert.Equal(t, "desk.db", c.DatabasePath)
	assert.Equal(t, "info", c.LogLevel)
}

func TestLoad_NoArgsGivesDefaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	var want Config
	want.LoadDefaults()
	assert.Empty(t, cmp.Diff(&want, cfg))
}

func TestLoad_Precedence(t *testing.T) {
	path := writeTempJSON(t, map[string]any{
		"server_endpoint_addr": "auth.example:9000",
		"call_timeout":         "1500ms",
		"database_path":        "/tmp/from-json.db",
	})

	tests := []struct {
		name string
		args []string
		want *Config
	}{
		{
			name: "json overrides defaults",
			args: []string{"-c", path},
			want: &Config{ServerEndpointAddr: "auth.example:9000", CallTimeout: 1500 * time.Millisecond, DatabasePath: "/tmp/from-json.db", LogLevel: "info"},
		},
		{
			name: "flags override json",
			args: []string{"-config", path, "-a", "127.0.0.1:9090", "-t", "10", "-l", "debug"},
			want: &Config{ServerEndpointAddr: "127.0.0.1:9090", CallTimeout: 10 * time.Second, DatabasePath: "/tmp/from-json.db", LogLevel: "debug"},
		},
		{
			name: "unrelated flags ignored",
			args: []string{"-x", "1", "-d", "other.db"},
			want: &Config{ServerEndpointAddr: "127.0.0.1:50051", CallTimeout: 5 * time.Second, DatabasePath: "other.db", LogLevel: "info"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(tt.args)
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tt.want, cfg))
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

	_, err := Load([]string{"-c", bad})
	require.Error(t, err)

	_, err = Load([]string{"-c", filepath.Join(t.TempDir(), "missing.json")})
	require.Error(t, err)

	_, err = Load([]string{"-t", "abc"})
	require.Error(t, err)

	_, err = Load([]string{"-t", "0"})
	require.Error(t, err)
}
