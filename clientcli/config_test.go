package clientcli_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sanketpal/filevault/clientcli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_WithDefaults(t *testing.T) {
	t.Run("empty endpoint gets default", func(t *testing.T) {
		cfg := (&clientcli.Config{}).WithDefaults()
		assert.Equal(t, clientcli.DefaultEndpoint, cfg.Endpoint)
	})

	t.Run("set endpoint is kept", func(t *testing.T) {
		cfg := (&clientcli.Config{Endpoint: "http://example.com"}).WithDefaults()
		assert.Equal(t, "http://example.com", cfg.Endpoint)
	})
}

func TestConfig_ValidateWithAuth(t *testing.T) {
	t.Run("token present", func(t *testing.T) {
		cfg := &clientcli.Config{Endpoint: "http://localhost:5000", Token: "a.jwt.token"}
		assert.NoError(t, cfg.ValidateWithAuth())
	})

	t.Run("missing token", func(t *testing.T) {
		cfg := &clientcli.Config{Endpoint: "http://localhost:5000"}
		assert.ErrorIs(t, cfg.ValidateWithAuth(), clientcli.ErrTokenRequired)
	})
}

func TestConfigFile_Profiles(t *testing.T) {
	t.Run("get by name", func(t *testing.T) {
		cfg := &clientcli.ConfigFile{Profiles: []clientcli.Profile{
			{Name: "prod", Endpoint: "https://prod.example.com"},
			{Name: "local", Endpoint: "http://localhost:5000"},
		}}

		p, err := cfg.GetProfile("local")
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:5000", p.Endpoint)
	})

	t.Run("empty name resolves default", func(t *testing.T) {
		cfg := &clientcli.ConfigFile{Profiles: []clientcli.Profile{
			{Name: "prod", Endpoint: "https://prod.example.com"},
			{Name: "local", Endpoint: "http://localhost:5000", Default: true},
		}}

		p, err := cfg.GetProfile("")
		require.NoError(t, err)
		assert.Equal(t, "local", p.Name)
	})

	t.Run("no default falls back to first", func(t *testing.T) {
		cfg := &clientcli.ConfigFile{Profiles: []clientcli.Profile{
			{Name: "prod"},
			{Name: "local"},
		}}

		p, err := cfg.GetDefaultProfile()
		require.NoError(t, err)
		assert.Equal(t, "prod", p.Name)
	})

	t.Run("unknown name", func(t *testing.T) {
		cfg := &clientcli.ConfigFile{Profiles: []clientcli.Profile{{Name: "prod"}}}

		_, err := cfg.GetProfile("missing")
		assert.ErrorIs(t, err, clientcli.ErrProfileNotFound)
	})

	t.Run("no profiles", func(t *testing.T) {
		cfg := &clientcli.ConfigFile{}

		_, err := cfg.GetProfile("")
		assert.ErrorIs(t, err, clientcli.ErrNoProfiles)
	})

	t.Run("add duplicate name", func(t *testing.T) {
		cfg := &clientcli.ConfigFile{}
		require.NoError(t, cfg.AddProfile(clientcli.Profile{Name: "prod"}))

		err := cfg.AddProfile(clientcli.Profile{Name: "prod"})
		assert.ErrorIs(t, err, clientcli.ErrProfileExists)
	})

	t.Run("set default clears other flags", func(t *testing.T) {
		cfg := &clientcli.ConfigFile{Profiles: []clientcli.Profile{
			{Name: "prod", Default: true},
			{Name: "local"},
		}}

		require.NoError(t, cfg.SetDefault("local"))
		assert.False(t, cfg.Profiles[0].Default)
		assert.True(t, cfg.Profiles[1].Default)
	})

	t.Run("remove profile", func(t *testing.T) {
		cfg := &clientcli.ConfigFile{Profiles: []clientcli.Profile{
			{Name: "prod"},
			{Name: "local"},
		}}

		require.NoError(t, cfg.RemoveProfile("prod"))
		assert.Equal(t, []string{"local"}, cfg.ProfileNames())

		err := cfg.RemoveProfile("prod")
		assert.ErrorIs(t, err, clientcli.ErrProfileNotFound)
	})

	t.Run("set token after login", func(t *testing.T) {
		cfg := &clientcli.ConfigFile{Profiles: []clientcli.Profile{
			{Name: "local", Endpoint: "http://localhost:5000", Default: true},
		}}

		require.NoError(t, cfg.SetToken("", "alice", "a.jwt.token"))
		assert.Equal(t, "alice", cfg.Profiles[0].Username)
		assert.Equal(t, "a.jwt.token", cfg.Profiles[0].Token)
	})
}

func TestConfigFile_SaveLoad(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "config.yaml")

		cfg := &clientcli.ConfigFile{Profiles: []clientcli.Profile{
			{Name: "local", Endpoint: "http://localhost:5000", Username: "alice", Token: "tok", Default: true},
		}}
		require.NoError(t, cfg.Save(path))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

		loaded, err := clientcli.LoadConfigFile(path)
		require.NoError(t, err)
		assert.Equal(t, cfg.Profiles, loaded.Profiles)
	})

	t.Run("file not found", func(t *testing.T) {
		_, err := clientcli.LoadConfigFile("/nonexistent/path/config.yaml")
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("profiles: [bad: yaml"), 0o600))

		_, err := clientcli.LoadConfigFile(path)
		assert.Error(t, err)
	})
}

func TestConfigFromProfile(t *testing.T) {
	t.Run("copies endpoint and token", func(t *testing.T) {
		cfg := clientcli.ConfigFromProfile(&clientcli.Profile{
			Name:     "local",
			Endpoint: "http://localhost:5000",
			Token:    "tok",
		})
		assert.Equal(t, "http://localhost:5000", cfg.Endpoint)
		assert.Equal(t, "tok", cfg.Token)
	})

	t.Run("nil profile", func(t *testing.T) {
		cfg := clientcli.ConfigFromProfile(nil)
		assert.Equal(t, &clientcli.Config{}, cfg)
	})
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("FILEVAULT_ENDPOINT", "http://env.example.com")
	t.Setenv("FILEVAULT_TOKEN", "env-token")

	cfg := clientcli.ConfigFromEnv()
	assert.Equal(t, "http://env.example.com", cfg.Endpoint)
	assert.Equal(t, "env-token", cfg.Token)
}

func TestMergeConfig(t *testing.T) {
	tests := []struct {
		name     string
		configs  []*clientcli.Config
		expected *clientcli.Config
	}{
		{
			name:     "empty configs",
			configs:  []*clientcli.Config{},
			expected: &clientcli.Config{},
		},
		{
			name: "single config",
			configs: []*clientcli.Config{
				{Endpoint: "http://a.com", Token: "tok1"},
			},
			expected: &clientcli.Config{Endpoint: "http://a.com", Token: "tok1"},
		},
		{
			name: "later config overrides",
			configs: []*clientcli.Config{
				{Endpoint: "http://a.com", Token: "tok1"},
				{Endpoint: "http://b.com"},
			},
			expected: &clientcli.Config{Endpoint: "http://b.com", Token: "tok1"},
		},
		{
			name: "empty strings do not override",
			configs: []*clientcli.Config{
				{Endpoint: "http://a.com", Token: "tok1"},
				{Endpoint: "", Token: ""},
			},
			expected: &clientcli.Config{Endpoint: "http://a.com", Token: "tok1"},
		},
		{
			name: "nil config is skipped",
			configs: []*clientcli.Config{
				{Endpoint: "http://a.com"},
				nil,
				{Token: "tok2"},
			},
			expected: &clientcli.Config{Endpoint: "http://a.com", Token: "tok2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := clientcli.MergeConfig(tt.configs...)
			assert.Equal(t, tt.expected, result)
		})
	}
}
