package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/pthm/sqlprovision/pkg/credentials"
	"github.com/pthm/sqlprovision/pkg/master"
	"github.com/pthm/sqlprovision/pkg/metadata"
	"github.com/pthm/sqlprovision/pkg/objects"
	"github.com/pthm/sqlprovision/pkg/placeholder"
	"github.com/pthm/sqlprovision/pkg/users"
)

// directory processes one environment directory into one session.
type directory struct {
	p       *Pipeline
	client  metadata.Client
	env     string
	in      string
	session *Session
	driver  string
	logger  *zap.Logger
	skipped []users.Skipped
}

func (p *Pipeline) processDirectory(ctx context.Context, client metadata.Client, base, env string) (DirectoryReport, error) {
	logger := p.logger.With(zap.String("env", env))

	session, err := OpenSession(filepath.Join(base, env))
	if err != nil {
		return DirectoryReport{}, err
	}
	defer func() { _ = session.Close() }()

	d := &directory{
		p:       p,
		client:  client,
		env:     env,
		in:      filepath.Join(p.cfg.InputDir, env),
		session: session,
		driver:  master.FileName(env),
		logger:  logger,
	}

	entries, err := os.ReadDir(d.in)
	if err != nil {
		return DirectoryReport{}, fmt.Errorf("reading templates: %w", err)
	}

	var objectFiles []string
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return DirectoryReport{}, err
		}
		name := e.Name()
		if e.IsDir() {
			logger.Info("skipping non-sql entry", zap.String("file", name))
			continue
		}

		var (
			out string
			err error
		)
		switch ClassifyTemplate(name) {
		case TemplateGeneric:
			out, err = d.template(name)
		case TemplateAccounts:
			err = d.accounts(name)
		case TemplateObjectDump:
			out, err = d.objectDump(name)
		case TemplateNotSQL:
			logger.Info("skipping non-sql entry", zap.String("file", name))
		default:
			logger.Info("skipping file with no known naming convention", zap.String("file", name))
		}
		if err != nil {
			return DirectoryReport{}, err
		}
		if out != "" {
			objectFiles = append(objectFiles, out)
		}
	}

	if err := master.Append(session.Path(d.driver), objectFiles...); err != nil {
		return DirectoryReport{}, err
	}
	assembler := &master.Assembler{
		Dir:    session.Dir(),
		Client: client,
		RunID:  p.cfg.RunID,
		Logger: logger,
	}
	order, err := assembler.Reorder(d.driver)
	if err != nil {
		return DirectoryReport{}, err
	}
	session.Record(d.driver, RoleDriver)

	logger.Info("environment processed", zap.Int("files", len(order)))
	return DirectoryReport{
		Name:    env,
		Driver:  d.driver,
		Order:   order,
		Files:   session.Files(),
		Skipped: d.skipped,
	}, nil
}

func (d *directory) read(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(d.in, name))
	if err != nil {
		return "", fmt.Errorf("reading template %s: %w", name, err)
	}
	return string(data), nil
}

// otherServer reports whether name is tagged for an environment other than
// the run's server.
func (d *directory) otherServer(name string) bool {
	for _, tag := range EnvironmentTags {
		if strings.Contains(name, tag) {
			return !strings.Contains(name, d.p.cfg.Server)
		}
	}
	return false
}

// template substitutes a generic client template.
func (d *directory) template(name string) (string, error) {
	if d.otherServer(name) {
		d.logger.Debug("skipping template for another server", zap.String("file", name))
		return "", nil
	}
	content, err := d.read(name)
	if err != nil {
		return "", err
	}
	content, out := placeholder.Substitute(content, name, d.client)
	if missing := placeholder.Unfilled(content); len(missing) > 0 {
		d.logger.Warn("template tokens left unfilled",
			zap.String("file", name),
			zap.Strings("tokens", missing))
	}
	if err := d.session.Write(out, []byte(content), RoleTemplate); err != nil {
		return "", err
	}
	d.logger.Info("wrote template", zap.String("file", out))
	return out, nil
}

// accounts splits an account script and lists the per-account scripts in
// the driver, bootstrap account first.
func (d *directory) accounts(name string) error {
	content, err := d.read(name)
	if err != nil {
		return err
	}
	content = strings.TrimSpace(placeholder.ReplaceClientToken(content, d.client))

	res := users.Separate(content, d.logger)
	d.skipped = append(d.skipped, res.Skipped...)

	label := credentials.EnvironmentLabel(d.env, d.p.cfg.Server)
	for _, g := range res.Groups {
		if _, err := d.p.issuer.Issue(g.Username, label); err != nil {
			return err
		}
	}

	if _, err := users.Write(d.session.Dir(), res.Groups, d.p.cfg.Creator, d.logger); err != nil {
		return err
	}

	names := users.OrderUsers(res.Usernames(), d.client.ProductionLogin(), d.logger)
	var listed []string
	for _, f := range users.UserFiles(names) {
		if _, err := os.Stat(d.session.Path(f)); err != nil {
			d.logger.Warn("account script missing", zap.String("file", f))
			continue
		}
		role := RoleGrant
		if master.IsCreation(f) {
			role = RoleUserCreation
		}
		d.session.Record(f, role)
		listed = append(listed, f)
	}
	if err := master.Append(d.session.Path(d.driver), listed...); err != nil {
		return err
	}
	d.logger.Info("account scripts listed",
		zap.String("file", name),
		zap.Int("accounts", len(res.Groups)),
		zap.Int("skipped", len(res.Skipped)))
	return nil
}

// objectDump filters a schema-object dump.
func (d *directory) objectDump(name string) (string, error) {
	content, err := d.read(name)
	if err != nil {
		return "", err
	}
	out := placeholder.ReplaceClientToken(name, d.client)
	class := objects.ClassOf(name)
	if err := d.session.Write(out, []byte(objects.Filter(content, class, d.client)), RoleObjectDDL); err != nil {
		return "", err
	}
	d.logger.Info("wrote object script", zap.String("file", out), zap.Stringer("class", class))
	return out, nil
}
