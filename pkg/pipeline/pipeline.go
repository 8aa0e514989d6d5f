// Package pipeline runs a provisioning job: it loads the client, walks the
// environment directories of the template tree and writes every generated
// artifact under the client's output directory.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pthm/sqlprovision/pkg/credentials"
	"github.com/pthm/sqlprovision/pkg/inserts"
	"github.com/pthm/sqlprovision/pkg/metadata"
	"github.com/pthm/sqlprovision/pkg/profiles"
	"github.com/pthm/sqlprovision/pkg/users"
)

// EnvironmentTags are the server tags a template name may carry.
var EnvironmentTags = []string{"TST", "PRD", "STG"}

// Config describes one run.
type Config struct {
	// Client is the short name to provision.
	Client string
	// Server is the environment tag of the target (PRD, TST, STG).
	Server          string
	Warehouse       Warehouse
	WarehousePrefix string
	// InputDir holds one directory per environment plus CONNECTION_PROFILES.
	InputDir  string
	OutputDir string
	// Distributors are name fragments of the distributors the client is
	// enrolled with.
	Distributors []string
	Parallel     bool
	// Creator is recorded in the account audit rows.
	Creator string
	Inserts inserts.Options
	// RunID identifies the run in logs and driver headers. Generated when
	// empty.
	RunID string
}

// Validate checks the fields a run cannot start without.
func (c Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Client) == "":
		return errors.New("client is required")
	case strings.TrimSpace(c.Server) == "":
		return errors.New("server is required")
	case c.InputDir == "":
		return errors.New("input directory is required")
	case c.OutputDir == "":
		return errors.New("output directory is required")
	}
	return nil
}

// DirectoryReport summarises one processed environment directory.
type DirectoryReport struct {
	Name   string
	Driver string
	// Order is the final include order of the driver.
	Order []string
	Files []GeneratedFile
	// Skipped lists account groups that named no account.
	Skipped []users.Skipped
}

// Report summarises a run.
type Report struct {
	RunID       string
	Client      metadata.Client
	OutputBase  string
	Directories []DirectoryReport
	// Excluded lists environment directories left out by the warehouse
	// selector.
	Excluded []string
	Profiles []string
	Inserts  string
	Manifest string
}

// Pipeline runs provisioning jobs.
type Pipeline struct {
	cfg      Config
	provider metadata.Provider
	manifest *credentials.Manifest
	issuer   *credentials.Issuer
	logger   *zap.Logger
}

// New creates a pipeline. The generator controls the secrets issued to
// discovered accounts.
func New(cfg Config, provider metadata.Provider, cipher credentials.Cipher, gen credentials.Generator, logger *zap.Logger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.WarehousePrefix == "" {
		cfg.WarehousePrefix = DefaultWarehousePrefix
	}
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}
	cfg.Server = strings.ToUpper(cfg.Server)
	logger = logger.With(zap.String("run_id", cfg.RunID))

	manifest := credentials.NewManifest(logger)
	return &Pipeline{
		cfg:      cfg,
		provider: provider,
		manifest: manifest,
		issuer: &credentials.Issuer{
			Cipher:    cipher,
			Generator: gen,
			Manifest:  manifest,
			Logger:    logger,
		},
		logger: logger,
	}, nil
}

// RunID returns the identifier of the run.
func (p *Pipeline) RunID() string { return p.cfg.RunID }

// PasswordList returns the credentials issued so far, keyed by account.
func (p *Pipeline) PasswordList() map[string]credentials.Entry {
	return p.manifest.Entries()
}

// ManifestName is the credential manifest filename for c on server.
func ManifestName(c metadata.Client, server string) string {
	return c.Lower() + "_password_list_" + server + ".json"
}

// Run executes the job. Any directory failure aborts the run.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	client, err := p.provider.Client(ctx, p.cfg.Client)
	if err != nil {
		return nil, fmt.Errorf("%w: loading client %s: %w", ErrMetadata, p.cfg.Client, err)
	}
	client.EnvironmentTag = p.cfg.Server
	if err := client.Validate(); err != nil {
		return nil, fmt.Errorf("invalid client: %w", err)
	}
	p.logger.Info("loaded client",
		zap.String("client", client.Upper()),
		zap.String("full_name", client.FullName),
		zap.Int64("client_id", client.ClientID),
		zap.Int64("project_id", client.ProjectID),
		zap.Int64("transfer_info_id", client.TransferInfoID))

	var weeks metadata.DistributorWeekMap
	if len(p.cfg.Distributors) > 0 {
		weeks, err = p.provider.DistributorWeeks(ctx, client, p.cfg.Distributors)
		if err != nil {
			return nil, fmt.Errorf("%w: loading distributor weeks: %w", ErrMetadata, err)
		}
	}

	base := filepath.Join(p.cfg.OutputDir, client.Upper(), p.cfg.Server)
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	report := &Report{RunID: p.cfg.RunID, Client: client, OutputBase: base}

	envs, err := p.environments(report)
	if err != nil {
		return nil, err
	}
	report.Directories = make([]DirectoryReport, len(envs))

	if p.cfg.Parallel {
		g, gctx := errgroup.WithContext(ctx)
		for i, env := range envs {
			g.Go(func() error {
				dr, err := p.processDirectory(gctx, client, base, env)
				if err != nil {
					return &DirectoryError{Dir: env, Err: err}
				}
				report.Directories[i] = dr
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i, env := range envs {
			dr, err := p.processDirectory(ctx, client, base, env)
			if err != nil {
				return nil, &DirectoryError{Dir: env, Err: err}
			}
			report.Directories[i] = dr
		}
	}

	report.Profiles, err = profiles.Update(
		filepath.Join(p.cfg.InputDir, profiles.DirName),
		filepath.Join(base, profiles.DirName),
		client, int(p.cfg.Warehouse), p.logger)
	if err != nil {
		return nil, err
	}

	report.Inserts, err = inserts.Write(base, client, weeks, p.cfg.Inserts)
	if err != nil {
		return nil, err
	}
	p.logger.Info("wrote insert statements", zap.String("path", report.Inserts))

	report.Manifest = filepath.Join(base, ManifestName(client, p.cfg.Server))
	if err := p.manifest.WriteJSON(report.Manifest); err != nil {
		return nil, err
	}
	p.logger.Info("wrote credential manifest",
		zap.String("path", report.Manifest),
		zap.Int("accounts", p.manifest.Len()))

	return report, nil
}

// environments lists the environment directories to process, sorted.
func (p *Pipeline) environments(report *Report) ([]string, error) {
	all, err := EnvironmentDirs(p.cfg.InputDir)
	if err != nil {
		return nil, err
	}
	var envs []string
	for _, env := range all {
		if !p.cfg.Warehouse.Includes(env, p.cfg.WarehousePrefix) {
			p.logger.Info("skipping environment outside warehouse selection",
				zap.String("env", env),
				zap.Stringer("warehouse", p.cfg.Warehouse))
			report.Excluded = append(report.Excluded, env)
			continue
		}
		envs = append(envs, env)
	}
	return envs, nil
}
