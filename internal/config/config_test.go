package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/iterweak/internal/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

// hermeticEnv points the global config at an empty temp directory.
func hermeticEnv(t *testing.T) (map[string]string, string) {
	t.Helper()

	xdg := t.TempDir()

	return map[string]string{"XDG_CONFIG_HOME": xdg}, filepath.Join(xdg, "iterweak", "config.json")
}

func Test_Load_Returns_Defaults_When_No_Files_Exist(t *testing.T) {
	t.Parallel()

	env, _ := hermeticEnv(t)

	cfg, sources, err := config.Load(t.TempDir(), "", config.Overrides{}, env)
	require.NoError(t, err)

	if diff := cmp.Diff(config.Default(), cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, config.Sources{}, sources)
}

func Test_Load_Applies_Precedence_When_All_Layers_Present(t *testing.T) {
	t.Parallel()

	env, globalPath := hermeticEnv(t)
	workDir := t.TempDir()

	writeFile(t, globalPath, `{
		// global turns on eager eviction and sets rounds
		"eager_eviction": true,
		"gc_rounds": 5,
		"history_file": "/tmp/global_history",
	}`)
	writeFile(t, filepath.Join(workDir, config.FileName), `{
		"gc_rounds": 3,
		"shared_registry": false,
	}`)

	rounds := 7

	cfg, sources, err := config.Load(workDir, "", config.Overrides{GCRounds: &rounds}, env)
	require.NoError(t, err)

	want := config.Config{
		Mode:           config.ModeStrict,
		EagerEviction:  true,
		SharedRegistry: false,
		GCRounds:       7,
		HistoryFile:    "/tmp/global_history",
	}

	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, globalPath, sources.Global)
	assert.Equal(t, filepath.Join(workDir, config.FileName), sources.Project)
}

func Test_Load_Uses_Explicit_File_When_Config_Path_Given(t *testing.T) {
	t.Parallel()

	env, _ := hermeticEnv(t)
	workDir := t.TempDir()

	writeFile(t, filepath.Join(workDir, config.FileName), `{"gc_rounds": 3}`)
	writeFile(t, filepath.Join(workDir, "custom.json"), `{"mode": "best-effort"}`)

	cfg, sources, err := config.Load(workDir, "custom.json", config.Overrides{}, env)
	require.NoError(t, err)

	assert.Equal(t, config.ModeBestEffort, cfg.Mode)
	assert.Equal(t, 2, cfg.GCRounds, "project file is replaced by the explicit one")
	assert.Equal(t, filepath.Join(workDir, "custom.json"), sources.Project)
}

func Test_Load_Returns_Error_When_Explicit_File_Missing(t *testing.T) {
	t.Parallel()

	env, _ := hermeticEnv(t)

	_, _, err := config.Load(t.TempDir(), "missing.json", config.Overrides{}, env)
	require.ErrorIs(t, err, config.ErrConfigFileNotFound)
}

func Test_Load_Returns_Error_When_Config_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{name: "syntax", content: `{"gc_rounds": }`, wantErr: config.ErrConfigInvalid},
		{name: "type", content: `{"gc_rounds": "many"}`, wantErr: config.ErrConfigInvalid},
		{name: "mode", content: `{"mode": "lenient"}`, wantErr: config.ErrInvalidMode},
		{name: "rounds", content: `{"gc_rounds": 0}`, wantErr: config.ErrInvalidGCRounds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, _ := hermeticEnv(t)
			workDir := t.TempDir()
			writeFile(t, filepath.Join(workDir, config.FileName), tt.content)

			_, _, err := config.Load(workDir, "", config.Overrides{}, env)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func Test_Load_Applies_Overrides_When_Flags_Set(t *testing.T) {
	t.Parallel()

	env, _ := hermeticEnv(t)
	mode := config.ModeBestEffort
	eager := true

	cfg, _, err := config.Load(t.TempDir(), "", config.Overrides{Mode: &mode, EagerEviction: &eager}, env)
	require.NoError(t, err)

	assert.Equal(t, config.ModeBestEffort, cfg.Mode)
	assert.True(t, cfg.EagerEviction)
}

func Test_Format_Renders_Snake_Case_Keys(t *testing.T) {
	t.Parallel()

	out, err := config.Format(config.Default())
	require.NoError(t, err)

	assert.Contains(t, out, `"gc_rounds": 2`)
	assert.Contains(t, out, `"shared_registry": true`)
	assert.NotContains(t, out, "history_file")
}
