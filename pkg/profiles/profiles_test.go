package profiles

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pthm/sqlprovision/pkg/metadata"
)

var client = metadata.Client{ShortName: "abc"}

func writeProfiles(t *testing.T) string {
	t.Helper()
	src := filepath.Join(t.TempDir(), DirName)
	require.NoError(t, os.MkdirAll(filepath.Join(src, "nested"), 0o755))
	files := map[string]string{
		"XYZ_DW1.json":  `{"name": "XYZ_XXX_XXX_PRD", "host": "xyz-dw1"}`,
		"XYZ_DW2.json":  `{"name": "XYZ_XXX_XXX_PRD", "host": "xyz-dw2"}`,
		"XYZ_CORE.json": `{"name": "XYZ_CORE"}`,
		"README.txt":    "XYZ profiles",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(src, name), []byte(body), 0o644))
	}
	return src
}

func TestUpdate_SingleWarehouse(t *testing.T) {
	src := writeProfiles(t)
	dst := filepath.Join(t.TempDir(), DirName)

	written, err := Update(src, dst, client, 1, nil)
	require.NoError(t, err)
	assert.Len(t, written, 3)

	entries, err := os.ReadDir(dst)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"ABC_CORE.json", "ABC_DW1.json", "README.txt"}, names)

	data, err := os.ReadFile(filepath.Join(dst, "ABC_DW1.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"name": "ABC_XXX_XXX_PRD", "host": "abc-dw1"}`, string(data))

	readme, err := os.ReadFile(filepath.Join(dst, "README.txt"))
	require.NoError(t, err)
	assert.Equal(t, "XYZ profiles", string(readme))
}

func TestUpdate_BothWarehouses(t *testing.T) {
	written, err := Update(writeProfiles(t), filepath.Join(t.TempDir(), DirName), client, 0, nil)
	require.NoError(t, err)
	assert.Len(t, written, 4)
}

func TestUpdate_MissingSource(t *testing.T) {
	written, err := Update(filepath.Join(t.TempDir(), "none"), t.TempDir(), client, 1, nil)
	require.NoError(t, err)
	assert.Empty(t, written)
}

func TestUpdate_InvalidJSONIsLogged(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "XYZ.json"), []byte(`{"a": `), 0o644))

	core, logs := observer.New(zapcore.WarnLevel)
	written, err := Update(src, t.TempDir(), client, 0, zap.New(core))
	require.NoError(t, err)
	assert.Len(t, written, 1)
	assert.Equal(t, 1, logs.Len())
}

func TestWarehouse(t *testing.T) {
	d, ok := Warehouse("XYZ_DW2_v3.json")
	assert.True(t, ok)
	assert.Equal(t, 2, d)

	_, ok = Warehouse("XYZ.json")
	assert.False(t, ok)
}
