// Package doctor provides health checks for a sqlprovision template tree.
//
// The doctor command validates that a run can start and will produce what
// the templates promise: the tree layout, the naming of every template, the
// account scripts, the connection profiles, the credential key and the
// reference data source.
//
// Example usage:
//
//	d := doctor.New(doctor.Options{InputDir: "templates", CredentialKey: key})
//	report, err := d.Run(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	report.Print(os.Stdout, true) // verbose=true
package doctor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"go.uber.org/zap"

	"github.com/pthm/sqlprovision/pkg/credentials"
	"github.com/pthm/sqlprovision/pkg/metadata"
	"github.com/pthm/sqlprovision/pkg/pipeline"
	"github.com/pthm/sqlprovision/pkg/placeholder"
	"github.com/pthm/sqlprovision/pkg/profiles"
	"github.com/pthm/sqlprovision/pkg/users"
)

// Status represents the result of a health check.
type Status int

const (
	// StatusPass indicates the check passed.
	StatusPass Status = iota
	// StatusWarn indicates a non-critical issue.
	StatusWarn
	// StatusFail indicates a critical issue that will cause failures.
	StatusFail
)

func (s Status) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusWarn:
		return "warn"
	case StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Symbol returns a status indicator symbol for terminal output.
func (s Status) Symbol() string {
	switch s {
	case StatusPass:
		return "✓"
	case StatusWarn:
		return "⚠"
	case StatusFail:
		return "✗"
	default:
		return "?"
	}
}

// CheckResult represents the outcome of a single health check.
type CheckResult struct {
	// Category groups related checks (e.g., "Template Tree", "Credentials").
	Category string

	// Name is a short identifier for the check.
	Name string

	// Status is the check outcome.
	Status Status

	// Message is a human-readable description of the result.
	Message string

	// Details provides additional information for verbose output.
	Details string

	// FixHint suggests how to resolve issues.
	FixHint string
}

// Report contains all health check results.
type Report struct {
	Checks []CheckResult

	// Summary counts.
	Passed   int
	Warnings int
	Errors   int
}

// AddCheck adds a check result and updates summary counts.
func (r *Report) AddCheck(check CheckResult) {
	r.Checks = append(r.Checks, check)
	switch check.Status {
	case StatusPass:
		r.Passed++
	case StatusWarn:
		r.Warnings++
	case StatusFail:
		r.Errors++
	}
}

// Print writes the report to the given writer.
func (r *Report) Print(w io.Writer, verbose bool) {
	categories := make(map[string][]CheckResult)
	var categoryOrder []string
	for _, check := range r.Checks {
		if _, exists := categories[check.Category]; !exists {
			categoryOrder = append(categoryOrder, check.Category)
		}
		categories[check.Category] = append(categories[check.Category], check)
	}

	for _, cat := range categoryOrder {
		_, _ = fmt.Fprintf(w, "\n%s\n", cat)
		for _, check := range categories[cat] {
			_, _ = fmt.Fprintf(w, "  %s %s\n", check.Status.Symbol(), check.Message)
			if verbose && check.Details != "" {
				for _, line := range strings.Split(check.Details, "\n") {
					_, _ = fmt.Fprintf(w, "      %s\n", line)
				}
			}
			if check.Status != StatusPass && check.FixHint != "" {
				_, _ = fmt.Fprintf(w, "      Fix: %s\n", check.FixHint)
			}
		}
	}

	_, _ = fmt.Fprintln(w)
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Category", "Passed", "Warnings", "Errors"})
	for _, cat := range categoryOrder {
		var counts [3]int
		for _, check := range categories[cat] {
			if check.Status >= StatusPass && check.Status <= StatusFail {
				counts[check.Status]++
			}
		}
		t.AppendRow(table.Row{cat, counts[StatusPass], counts[StatusWarn], counts[StatusFail]})
	}
	t.AppendFooter(table.Row{"Total", r.Passed, r.Warnings, r.Errors})
	t.Render()

	_, _ = fmt.Fprintf(w, "\nSummary: %d passed, %d warnings, %d errors\n",
		r.Passed, r.Warnings, r.Errors)
}

// HasErrors returns true if any check failed.
func (r *Report) HasErrors() bool {
	return r.Errors > 0
}

// ReferenceProber checks reference tables without reading client rows.
// Implemented by *metadata.SQLProvider.
type ReferenceProber interface {
	Tables() []metadata.ReferenceTable
	Probe(ctx context.Context, t metadata.ReferenceTable) error
}

// Options configures a Doctor.
type Options struct {
	// InputDir is the template tree root.
	InputDir string

	// CredentialKey is the encoded Fernet key a run would use.
	CredentialKey string

	// MetadataFile is the client description, when reference data comes
	// from a file.
	MetadataFile string

	// Reference probes the reference database. Nil skips the database
	// checks.
	Reference ReferenceProber
}

// Doctor performs health checks on a template tree.
type Doctor struct {
	opts Options

	// Populated during Run.
	envs []string
}

// tokenLike matches words shaped like template tokens.
var tokenLike = regexp.MustCompile(`\b(?:[A-Z_]*XXX[A-Z_]*VALUE|[A-Z_]+_OID_VALUE)\b`)

// New creates a new Doctor instance.
func New(opts Options) *Doctor {
	return &Doctor{opts: opts}
}

// Run executes all health checks and returns a report.
func (d *Doctor) Run(ctx context.Context) (*Report, error) {
	report := &Report{}

	if d.checkTemplateTree(report) {
		for _, env := range d.envs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := d.checkEnvironment(report, env); err != nil {
				return nil, fmt.Errorf("checking environment %s: %w", env, err)
			}
		}
		d.checkProfiles(report)
	}
	d.checkCredentials(report)
	if err := d.checkMetadata(ctx, report); err != nil {
		return nil, fmt.Errorf("checking reference data: %w", err)
	}

	return report, nil
}

// checkTemplateTree validates the input directory and lists its
// environments.
func (d *Doctor) checkTemplateTree(report *Report) bool {
	const category = "Template Tree"

	info, err := os.Stat(d.opts.InputDir)
	if err != nil || !info.IsDir() {
		report.AddCheck(CheckResult{
			Category: category,
			Name:     "exists",
			Status:   StatusFail,
			Message:  fmt.Sprintf("Input directory not found at %s", d.opts.InputDir),
			FixHint:  "Set input_dir or pass --input to the template tree root",
		})
		return false
	}

	envs, err := pipeline.EnvironmentDirs(d.opts.InputDir)
	if err != nil {
		report.AddCheck(CheckResult{
			Category: category,
			Name:     "readable",
			Status:   StatusFail,
			Message:  "Input directory could not be read",
			Details:  err.Error(),
		})
		return false
	}
	if len(envs) == 0 {
		report.AddCheck(CheckResult{
			Category: category,
			Name:     "environments",
			Status:   StatusFail,
			Message:  "No environment directories found",
			FixHint:  "Create one directory per environment under the input directory",
		})
		return false
	}

	d.envs = envs
	report.AddCheck(CheckResult{
		Category: category,
		Name:     "environments",
		Status:   StatusPass,
		Message:  fmt.Sprintf("%d environment directories found", len(envs)),
		Details:  strings.Join(envs, "\n"),
	})
	return true
}

// checkEnvironment validates the templates of one environment directory.
func (d *Doctor) checkEnvironment(report *Report, env string) error {
	category := "Environment " + env
	dir := filepath.Join(d.opts.InputDir, env)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	counts := map[pipeline.TemplateKind]int{}
	var unknown, skipped, tokens []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		kind := pipeline.ClassifyTemplate(name)
		counts[kind]++
		switch kind {
		case pipeline.TemplateUnknown:
			unknown = append(unknown, name)
			continue
		case pipeline.TemplateNotSQL:
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return err
		}
		content := string(data)
		if kind == pipeline.TemplateAccounts {
			for _, s := range users.Separate(content, zap.NewNop()).Skipped {
				skipped = append(skipped, fmt.Sprintf("%s:%d %s", name, s.Line, s.Reason))
			}
		}
		for _, tok := range tokenLike.FindAllString(content, -1) {
			if !slices.Contains(placeholder.Tokens(), tok) {
				tokens = append(tokens, name+": "+tok)
			}
		}
	}

	sqlFiles := counts[pipeline.TemplateGeneric] + counts[pipeline.TemplateAccounts] + counts[pipeline.TemplateObjectDump]
	if sqlFiles == 0 {
		report.AddCheck(CheckResult{
			Category: category,
			Name:     "templates",
			Status:   StatusWarn,
			Message:  "No templates follow a known naming convention",
			FixHint:  "Prefix templates with xyz, XYZ or create_users",
		})
	} else {
		report.AddCheck(CheckResult{
			Category: category,
			Name:     "templates",
			Status:   StatusPass,
			Message: fmt.Sprintf("%d templates, %d account scripts, %d object dumps",
				counts[pipeline.TemplateGeneric], counts[pipeline.TemplateAccounts], counts[pipeline.TemplateObjectDump]),
		})
	}

	if len(unknown) > 0 {
		report.AddCheck(CheckResult{
			Category: category,
			Name:     "naming",
			Status:   StatusWarn,
			Message:  fmt.Sprintf("%d .sql files will be skipped", len(unknown)),
			Details:  strings.Join(unknown, "\n"),
			FixHint:  "Rename them with an xyz, XYZ or create_users prefix, or remove them",
		})
	}

	if len(skipped) > 0 {
		report.AddCheck(CheckResult{
			Category: category,
			Name:     "accounts",
			Status:   StatusWarn,
			Message:  fmt.Sprintf("%d account groups name no account", len(skipped)),
			Details:  strings.Join(skipped, "\n"),
			FixHint:  `Start each group with CREATE USER "<name>"`,
		})
	}

	if len(tokens) > 0 {
		report.AddCheck(CheckResult{
			Category: category,
			Name:     "tokens",
			Status:   StatusWarn,
			Message:  fmt.Sprintf("%d unknown template tokens", len(tokens)),
			Details:  strings.Join(tokens, "\n"),
			FixHint:  "Use one of " + strings.Join(placeholder.Tokens(), ", "),
		})
	}
	return nil
}

// checkProfiles validates the connection profile directory.
func (d *Doctor) checkProfiles(report *Report) {
	const category = "Connection Profiles"

	dir := filepath.Join(d.opts.InputDir, profiles.DirName)
	entries, err := os.ReadDir(dir)
	if err != nil {
		report.AddCheck(CheckResult{
			Category: category,
			Name:     "exists",
			Status:   StatusWarn,
			Message:  fmt.Sprintf("No %s directory, profiles will not be updated", profiles.DirName),
		})
		return
	}

	var n int
	var invalid []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		n++
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil || !json.Valid(data) {
			invalid = append(invalid, e.Name())
		}
	}

	if len(invalid) > 0 {
		report.AddCheck(CheckResult{
			Category: category,
			Name:     "valid",
			Status:   StatusWarn,
			Message:  fmt.Sprintf("%d of %d profiles are not valid JSON", len(invalid), n),
			Details:  strings.Join(invalid, "\n"),
		})
		return
	}
	report.AddCheck(CheckResult{
		Category: category,
		Name:     "valid",
		Status:   StatusPass,
		Message:  fmt.Sprintf("%d profiles are valid JSON", n),
	})
}

// checkCredentials validates the credential key.
func (d *Doctor) checkCredentials(report *Report) {
	const category = "Credentials"

	if _, err := credentials.NewFernetCipher(d.opts.CredentialKey); err != nil {
		check := CheckResult{
			Category: category,
			Name:     "key",
			Status:   StatusFail,
			Message:  "Credential key is invalid",
			Details:  err.Error(),
			FixHint:  "Generate a key with 'sqlprovision keygen' and set credentials.key",
		}
		if d.opts.CredentialKey == "" {
			check.Message = "No credential key configured"
		}
		report.AddCheck(check)
		return
	}
	report.AddCheck(CheckResult{
		Category: category,
		Name:     "key",
		Status:   StatusPass,
		Message:  "Credential key is a valid Fernet key",
	})
}

// checkMetadata validates the reference data source.
func (d *Doctor) checkMetadata(ctx context.Context, report *Report) error {
	const category = "Reference Data"

	if d.opts.MetadataFile != "" {
		if _, err := metadata.LoadFileProvider(d.opts.MetadataFile); err != nil {
			report.AddCheck(CheckResult{
				Category: category,
				Name:     "file",
				Status:   StatusFail,
				Message:  fmt.Sprintf("Client description %s is not usable", d.opts.MetadataFile),
				Details:  err.Error(),
			})
		} else {
			report.AddCheck(CheckResult{
				Category: category,
				Name:     "file",
				Status:   StatusPass,
				Message:  fmt.Sprintf("Client description %s is valid", d.opts.MetadataFile),
			})
		}
	}

	if d.opts.Reference == nil {
		return nil
	}
	for _, t := range d.opts.Reference.Tables() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.opts.Reference.Probe(ctx, t); err != nil {
			report.AddCheck(CheckResult{
				Category: category,
				Name:     t.Name,
				Status:   StatusFail,
				Message:  fmt.Sprintf("%s is not usable", t.Name),
				Details:  err.Error(),
				FixHint:  "Check metadata.warehouse_schema and metadata.project_schema",
			})
			continue
		}
		report.AddCheck(CheckResult{
			Category: category,
			Name:     t.Name,
			Status:   StatusPass,
			Message:  fmt.Sprintf("%s has the expected columns", t.Name),
		})
	}
	return nil
}
