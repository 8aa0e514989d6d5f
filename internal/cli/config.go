package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/pthm/sqlprovision/pkg/credentials"
	"github.com/pthm/sqlprovision/pkg/inserts"
	"github.com/pthm/sqlprovision/pkg/metadata"
	"github.com/pthm/sqlprovision/pkg/pipeline"
	"github.com/pthm/sqlprovision/pkg/users"
)

const (
	maxWalkDepth = 25
)

// Metadata sources.
const (
	SourceDatabase = "database"
	SourceFile     = "file"
)

// Config represents the sqlprovision configuration from sqlprovision.yaml.
type Config struct {
	Client          string   `mapstructure:"client" json:"client"`
	Server          string   `mapstructure:"server" json:"server"`
	Warehouse       string   `mapstructure:"warehouse" json:"warehouse"`
	WarehousePrefix string   `mapstructure:"warehouse_prefix" json:"warehouse_prefix"`
	InputDir        string   `mapstructure:"input_dir" json:"input_dir"`
	OutputDir       string   `mapstructure:"output_dir" json:"output_dir"`
	Parallel        bool     `mapstructure:"parallel" json:"parallel"`
	Distributors    []string `mapstructure:"distributors" json:"distributors"`

	Metadata    MetadataConfig    `mapstructure:"metadata" json:"metadata"`
	Credentials CredentialsConfig `mapstructure:"credentials" json:"credentials"`
	Audit       AuditConfig       `mapstructure:"audit" json:"audit"`
	Log         LogConfig         `mapstructure:"log" json:"log"`
	Inserts     InsertsConfig     `mapstructure:"inserts" json:"inserts"`
}

// MetadataConfig selects where client reference data comes from.
type MetadataConfig struct {
	// Source is "database" or "file".
	Source string `mapstructure:"source" json:"source"`
	File   string `mapstructure:"file" json:"file"`
	// Driver is the database/sql driver name: "postgres" (lib/pq) or "pgx".
	Driver          string `mapstructure:"driver" json:"driver"`
	WarehouseURL    string `mapstructure:"warehouse_url" json:"warehouse_url"`
	ProjectURL      string `mapstructure:"project_url" json:"project_url"`
	WarehouseSchema string `mapstructure:"warehouse_schema" json:"warehouse_schema"`
	ProjectSchema   string `mapstructure:"project_schema" json:"project_schema"`
}

// CredentialsConfig holds secret generation settings.
type CredentialsConfig struct {
	Key    string `mapstructure:"key" json:"key"`
	Length int    `mapstructure:"length" json:"length"`
}

// AuditConfig holds account audit settings.
type AuditConfig struct {
	Creator string `mapstructure:"creator" json:"creator"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level" json:"level"`
	Format string `mapstructure:"format" json:"format"`
}

// InsertsConfig holds settings for the subsystem insert script.
type InsertsConfig struct {
	DBLinkDomain string `mapstructure:"db_link_domain" json:"db_link_domain"`
}

// LoadConfig discovers and loads configuration with proper precedence:
// flags > env > config file > defaults.
//
// Returns the loaded config, the path to the config file (empty if none found),
// and any error encountered.
func LoadConfig(explicitConfigPath string) (*Config, string, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("SQLPROVISION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath, err := findConfigFile(explicitConfigPath)
	if err != nil {
		return nil, "", err
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, configPath, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, configPath, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, configPath, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("client", "")
	v.SetDefault("server", "")
	v.SetDefault("warehouse", "both")
	v.SetDefault("warehouse_prefix", pipeline.DefaultWarehousePrefix)
	v.SetDefault("input_dir", "templates")
	v.SetDefault("output_dir", "out")
	v.SetDefault("parallel", false)
	v.SetDefault("distributors", []string{})

	v.SetDefault("metadata.source", SourceDatabase)
	v.SetDefault("metadata.file", "")
	v.SetDefault("metadata.driver", "postgres")
	v.SetDefault("metadata.warehouse_url", "")
	v.SetDefault("metadata.project_url", "")
	v.SetDefault("metadata.warehouse_schema", metadata.DefaultSchemas.Warehouse)
	v.SetDefault("metadata.project_schema", metadata.DefaultSchemas.Project)

	v.SetDefault("credentials.key", "")
	v.SetDefault("credentials.length", credentials.DefaultLength)

	v.SetDefault("audit.creator", users.DefaultCreator)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("inserts.db_link_domain", inserts.DefaultDBLinkDomain)
}

// findConfigFile finds the config file to use.
// If explicitPath is provided, it validates the file exists.
// Otherwise, it walks up from cwd looking for sqlprovision.yaml or
// sqlprovision.yml, stopping at a .git directory or after maxWalkDepth levels.
func findConfigFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting cwd: %w", err)
	}

	dir := cwd
	for range maxWalkDepth {
		for _, name := range []string{"sqlprovision.yaml", "sqlprovision.yml"} {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}

		// Stop at the repository root.
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", nil
}

// Pipeline converts the configuration into a run description.
func (c *Config) Pipeline() (pipeline.Config, error) {
	wh, err := pipeline.ParseWarehouse(c.Warehouse)
	if err != nil {
		return pipeline.Config{}, err
	}
	out := pipeline.Config{
		Client:          c.Client,
		Server:          c.Server,
		Warehouse:       wh,
		WarehousePrefix: c.WarehousePrefix,
		InputDir:        c.InputDir,
		OutputDir:       c.OutputDir,
		Distributors:    c.Distributors,
		Parallel:        c.Parallel,
		Creator:         c.Audit.Creator,
		Inserts: inserts.Options{
			WarehouseSchema: c.Metadata.WarehouseSchema,
			DBLinkDomain:    c.Inserts.DBLinkDomain,
		},
	}
	if err := out.Validate(); err != nil {
		return pipeline.Config{}, err
	}
	return out, nil
}

// Generator returns the secret generator described by the configuration.
func (c *Config) Generator() credentials.Generator {
	return credentials.Generator{Length: c.Credentials.Length}
}

// Schemas returns the reference schema names.
func (c *Config) Schemas() metadata.Schemas {
	return metadata.Schemas{
		Warehouse: c.Metadata.WarehouseSchema,
		Project:   c.Metadata.ProjectSchema,
	}
}

// ResolvedProjectURL returns the project database URL, falling back to the
// warehouse URL when the two live on one server.
func (c *Config) ResolvedProjectURL() string {
	if c.Metadata.ProjectURL != "" {
		return c.Metadata.ProjectURL
	}
	return c.Metadata.WarehouseURL
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	if c.Credentials.Key != "" {
		c.Credentials.Key = "<redacted>"
	}
	return c
}
