package master

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseIncludes(t *testing.T) {
	content := "-- master_script_DB.sql\nset define off\n" +
		"@@\"create_user_U.sql\"\n" +
		"@@bare_file.sql\n" +
		"  @@\"with space.sql\"\n"
	assert.Equal(t, []string{"create_user_U.sql", "bare_file.sql", "with space.sql"}, ParseIncludes(content))
	assert.Empty(t, ParseIncludes("set define off\n"))
}

func TestAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName("DB1"))
	require.NoError(t, Append(path, "a.sql"))
	require.NoError(t, Append(path, "b.sql", "c.sql"))
	require.NoError(t, Append(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "@@\"a.sql\"\n@@\"b.sql\"\n@@\"c.sql\"\n", string(data))
}

func TestExtract(t *testing.T) {
	creation, rest := Extract([]string{"create_user_B.sql", "x.sql", "create_user_A.sql", "grant_tables_A.sql"})
	assert.Equal(t, []string{"create_user_B.sql", "create_user_A.sql"}, creation)
	assert.Equal(t, []string{"x.sql", "grant_tables_A.sql"}, rest)
}

func TestRender(t *testing.T) {
	got := Render("master_script_DB.sql", "", []string{"a.sql", "b.sql"})
	assert.Equal(t,
		"-- master_script_DB.sql\n-- This script calls all other SQL scripts\nset define off\n@@\"a.sql\"\n@@\"b.sql\"\n",
		got)
	assert.Contains(t, Render("m.sql", "run-1", nil), "-- run run-1\nset define off\n")
}

func TestRender_RoundTrip(t *testing.T) {
	names := slices.Clone(sample)
	again := ParseIncludes(Render("m.sql", "id", ParseIncludes(Render("m.sql", "id", names))))
	slices.Sort(names)
	slices.Sort(again)
	assert.Equal(t, names, again)
}

func TestAssembler_Reorder(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		"create_user_ABC_XXX_XXX_PRD.sql",
		"grant_tables_ABC_XXX_XXX_PRD.sql",
		"ABC_XXX_XXX_PRD_Indexes.sql",
		"ABC_XXX_XXX_PRD_Tables.sql",
		"abc_setup.sql",
	}
	for _, f := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("-- "+f+"\n"), 0o644))
	}
	script := FileName("DB1")
	require.NoError(t, Append(filepath.Join(dir, script), files[:2]...))
	require.NoError(t, Append(filepath.Join(dir, script), "abc_setup.sql", "ABC_XXX_XXX_PRD_Indexes.sql", "missing.sql", "ABC_XXX_XXX_PRD_Tables.sql"))

	core, logs := observer.New(zapcore.WarnLevel)
	a := &Assembler{Dir: dir, Client: client, RunID: "r1", Logger: zap.New(core)}
	order, err := a.Reorder(script)
	require.NoError(t, err)

	want := []string{
		"create_user_ABC_XXX_XXX_PRD.sql",
		"grant_tables_ABC_XXX_XXX_PRD.sql",
		"ABC_XXX_XXX_PRD_Tables.sql",
		"ABC_XXX_XXX_PRD_Indexes.sql",
		"abc_setup.sql",
	}
	assert.Equal(t, want, order)
	assert.Equal(t, 1, logs.FilterMessage("referenced script missing, leaving it out of the driver").Len())

	driver, err := os.ReadFile(filepath.Join(dir, script))
	require.NoError(t, err)
	assert.Equal(t, Render(script, "r1", want), string(driver))

	for _, f := range files {
		data, err := os.ReadFile(filepath.Join(dir, f))
		require.NoError(t, err)
		assert.Equal(t, DefineOff+"-- "+f+"\n", string(data), f)
	}

	// The include set survives a second pass.
	again, err := a.Reorder(script)
	require.NoError(t, err)
	assert.Equal(t, want, again)
}

func TestAssembler_ReorderMissingDriver(t *testing.T) {
	a := &Assembler{Dir: t.TempDir(), Client: client}
	_, err := a.Reorder("master_script_NONE.sql")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "reading driver script"))
}
