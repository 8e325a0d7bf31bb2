package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvOpenAIAPIKey, "")
	t.Setenv(EnvOpenAIBaseURL, "")

	m, err := NewManager(filepath.Join(t.TempDir(), "tex2img.yaml"))
	require.NoError(t, err)
	require.NoError(t, m.Load())

	cfg := m.Get()
	assert.Equal(t, DefaultCompiler, cfg.Compiler)
	assert.Equal(t, DefaultDPI, cfg.RenderDPI)
	assert.Equal(t, DefaultBaseURL, cfg.OpenAIBaseURL)
	assert.Equal(t, DefaultModel, cfg.OpenAIModel)
}

func TestLoadFile(t *testing.T) {
	t.Setenv(EnvOpenAIAPIKey, "")
	t.Setenv(EnvOpenAIBaseURL, "")

	path := filepath.Join(t.TempDir(), "tex2img.yaml")
	content := `compiler: xelatex
compile_timeout: 30s
render_dpi: 300
openai_model: gpt-4o-mini
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	m, err := NewManager(path)
	require.NoError(t, err)
	require.NoError(t, m.Load())

	cfg := m.Get()
	assert.Equal(t, "xelatex", cfg.Compiler)
	assert.Equal(t, 300, cfg.RenderDPI)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	assert.Equal(t, 30*time.Second, cfg.CompileTimeoutDuration())
	// Unset fields are backfilled.
	assert.Equal(t, DefaultBaseURL, cfg.OpenAIBaseURL)
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tex2img.yaml")
	require.NoError(t, os.WriteFile(path, []byte("compiler: [unterminated"), 0600))

	m, err := NewManager(path)
	require.NoError(t, err)
	assert.Error(t, m.Load())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvOpenAIAPIKey, "sk-test-key")
	t.Setenv(EnvOpenAIBaseURL, "https://proxy.example.com/v1")

	m, err := NewManager(filepath.Join(t.TempDir(), "tex2img.yaml"))
	require.NoError(t, err)
	require.NoError(t, m.Load())

	cfg := m.Get()
	assert.Equal(t, "sk-test-key", cfg.OpenAIAPIKey)
	assert.Equal(t, "https://proxy.example.com/v1", cfg.OpenAIBaseURL)
}

func TestFileKeyBeatsEnv(t *testing.T) {
	t.Setenv(EnvOpenAIAPIKey, "sk-env")

	path := filepath.Join(t.TempDir(), "tex2img.yaml")
	require.NoError(t, os.WriteFile(path, []byte("openai_api_key: sk-file\n"), 0600))

	m, err := NewManager(path)
	require.NoError(t, err)
	require.NoError(t, m.Load())

	assert.Equal(t, "sk-file", m.Get().OpenAIAPIKey)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tex2img.yaml")

	m, err := NewManager(path)
	require.NoError(t, err)
	m.Get().Compiler = "lualatex"
	m.Get().RenderDPI = 200
	require.NoError(t, m.Save())

	m2, err := NewManager(path)
	require.NoError(t, err)
	require.NoError(t, m2.Load())
	assert.Equal(t, "lualatex", m2.Get().Compiler)
	assert.Equal(t, 200, m2.Get().RenderDPI)
}

func TestCompileTimeoutDuration(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"", DefaultCompileTimeout},
		{"90s", 90 * time.Second},
		{"garbage", DefaultCompileTimeout},
		{"-5s", DefaultCompileTimeout},
	}
	for _, tt := range tests {
		cfg := &Config{CompileTimeout: tt.value}
		assert.Equal(t, tt.want, cfg.CompileTimeoutDuration(), "value %q", tt.value)
	}
}
