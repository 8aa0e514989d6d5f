package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/sqlprovision/internal/cli"
	"github.com/pthm/sqlprovision/pkg/credentials"
	"github.com/pthm/sqlprovision/pkg/metadata"
)

const clientDescription = `client:
  short_name: abc
  full_name: ABC Holdings
  client_id: 4201
  project_id: 77
  file_project_id: 912
  transfer_info_id: 15001
`

func runConfig(t *testing.T) *cli.Config {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"templates/DSS/xyz_synonyms_PRD.sql": "CREATE SYNONYM xyz_s FOR XYZ_XXX_XXX_PRD.t;\n",
		"templates/DSS/create_users_PRD.sql": "CREATE USER \"XYZ_XXX_XXX_PRD\" IDENTIFIED BY *******\nGRANT CONNECT TO \"XYZ_XXX_XXX_PRD\"\n;\n",
		"abc.yaml":                           clientDescription,
	}
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	key, err := credentials.GenerateKey()
	require.NoError(t, err)
	return &cli.Config{
		Client:      "abc",
		Server:      "PRD",
		Warehouse:   "both",
		InputDir:    filepath.Join(root, "templates"),
		OutputDir:   filepath.Join(root, "out"),
		Metadata:    cli.MetadataConfig{Source: cli.SourceFile, File: filepath.Join(root, "abc.yaml")},
		Credentials: cli.CredentialsConfig{Key: key},
	}
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	require.Error(t, err)
	return cli.CodeOf(err)
}

func TestRunGenerate_FileSource(t *testing.T) {
	c := runConfig(t)

	var out bytes.Buffer
	require.NoError(t, runGenerate(context.Background(), c, &out))

	base := filepath.Join(c.OutputDir, "ABC", "PRD")
	assert.Contains(t, out.String(), "ABC (ABC Holdings) -> "+base)
	assert.Contains(t, out.String(), "master_script_DSS.sql")

	for _, name := range []string{
		"abc_password_list_PRD.json",
		"insert_subsystem_ABC.sql",
		"DSS/abc_synonyms_PRD.sql",
		"DSS/create_user_ABC_XXX_XXX_PRD.sql",
		"DSS/grant_tables_ABC_XXX_XXX_PRD.sql",
		"DSS/master_script_DSS.sql",
	} {
		assert.FileExists(t, filepath.Join(base, name))
	}
}

func TestRunGenerate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *cli.Config)
		want   int
	}{
		{
			name:   "no key",
			modify: func(c *cli.Config) { c.Credentials.Key = "" },
			want:   cli.ExitConfig,
		},
		{
			name:   "bad warehouse",
			modify: func(c *cli.Config) { c.Warehouse = "7" },
			want:   cli.ExitConfig,
		},
		{
			name:   "missing description",
			modify: func(c *cli.Config) { c.Metadata.File += ".missing" },
			want:   cli.ExitMetadata,
		},
		{
			name:   "description for another client",
			modify: func(c *cli.Config) { c.Client = "def" },
			want:   cli.ExitMetadata,
		},
		{
			name:   "unknown source",
			modify: func(c *cli.Config) { c.Metadata.Source = "ldap" },
			want:   cli.ExitConfig,
		},
		{
			name:   "unknown driver",
			modify: func(c *cli.Config) { c.Metadata = cli.MetadataConfig{Source: cli.SourceDatabase, Driver: "oracle"} },
			want:   cli.ExitConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := runConfig(t)
			tt.modify(c)
			err := runGenerate(context.Background(), c, &bytes.Buffer{})
			require.Error(t, err)
			assert.Equal(t, tt.want, exitCode(t, err))
		})
	}
}

func TestPrintOrder(t *testing.T) {
	driver := "-- master_script_DSS.sql\n" +
		"@@grant_tables_ABC_XXX_XXX_PRD.sql\n" +
		"@@ABC_XXX_XXX_PRD_Tables.sql\n" +
		"@@create_user_ABC_XXX_XXX_PRD.sql\n" +
		"@@abc_synonyms_PRD.sql\n"

	var out bytes.Buffer
	printOrder(&out, driver, metadata.Client{ShortName: "abc"})

	s := out.String()
	create := bytes.Index(out.Bytes(), []byte("create_user_ABC_XXX_XXX_PRD.sql"))
	tables := bytes.Index(out.Bytes(), []byte("ABC_XXX_XXX_PRD_Tables.sql"))
	grant := bytes.Index(out.Bytes(), []byte("grant_tables_ABC_XXX_XXX_PRD.sql"))
	synonyms := bytes.Index(out.Bytes(), []byte("abc_synonyms_PRD.sql"))
	assert.True(t, create < grant && grant < tables && tables < synonyms, s)
	assert.Contains(t, s, "bootstrap")
	assert.Contains(t, s, "2 production objects")
	assert.Contains(t, s, "5 client")
}

func TestResolve(t *testing.T) {
	assert.Equal(t, "flag", resolveString("flag", "config"))
	assert.Equal(t, "config", resolveString("", "config"))
	assert.Empty(t, resolveString("", ""))
	assert.True(t, resolveBool(false, true))
	assert.False(t, resolveBool(false, false))
}
