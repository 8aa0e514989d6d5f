// Package master assembles the driver script of an environment directory:
// the file of @@ include lines that fixes the execution order of every
// generated script.
package master

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/pthm/sqlprovision/pkg/metadata"
)

// DefineOff is prepended to every script the driver references.
const DefineOff = "set define off;\n"

var includePattern = regexp.MustCompile(`@@(".*?"|\S+)`)

// FileName is the driver script name for an environment directory.
func FileName(envDir string) string {
	return "master_script_" + envDir + ".sql"
}

// Include renders one include line.
func Include(name string) string {
	return `@@"` + name + `"` + "\n"
}

// Append adds one include line per name to the driver at path, creating it
// if needed.
func Append(path string, names ...string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening driver script: %w", err)
	}
	var b strings.Builder
	for _, n := range names {
		b.WriteString(Include(n))
	}
	if _, err := f.WriteString(b.String()); err != nil {
		_ = f.Close()
		return fmt.Errorf("appending to driver script: %w", err)
	}
	return f.Close()
}

// ParseIncludes returns the referenced names in order. Both the quoted and
// the bare directive forms are recognised.
func ParseIncludes(content string) []string {
	matches := includePattern.FindAllStringSubmatch(content, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.Trim(m[1], `"`))
	}
	return out
}

// Extract separates account-creation scripts, which keep their order, from
// the scripts that are reordered.
func Extract(names []string) (creation, rest []string) {
	for _, n := range names {
		if IsCreation(n) {
			creation = append(creation, n)
		} else {
			rest = append(rest, n)
		}
	}
	return creation, rest
}

// Render produces the driver script body. A non-empty runID is recorded in
// the header.
func Render(script, runID string, names []string) string {
	var b strings.Builder
	b.WriteString("-- " + script + "\n")
	b.WriteString("-- This script calls all other SQL scripts\n")
	if runID != "" {
		b.WriteString("-- run " + runID + "\n")
	}
	b.WriteString("set define off\n")
	for _, n := range names {
		b.WriteString(Include(n))
	}
	return b.String()
}

// Assembler reorders the driver scripts of one output directory.
type Assembler struct {
	Dir    string
	Client metadata.Client
	RunID  string
	Logger *zap.Logger
}

// Order computes the final order of the names referenced by a driver.
// The bootstrap account's creation and grant scripts come first, then the
// other creation scripts in their original order, then the rest in OrderKey
// order. Repeated names are kept once.
func (a *Assembler) Order(includes []string) []string {
	creation, rest := Extract(dedupe(includes))
	return pinBootstrap(append(creation, Sort(rest, a.Client)...), a.Client)
}

// BootstrapFiles names the scripts of the account every other script runs
// after: the production login of c.
func BootstrapFiles(c metadata.Client) []string {
	if c.ShortName == "" {
		return nil
	}
	login := c.ProductionLogin()
	return []string{
		creationMarker + "_" + login + ".sql",
		grantMarker + "_" + login + ".sql",
	}
}

func pinBootstrap(names []string, c metadata.Client) []string {
	lead := BootstrapFiles(c)
	out := make([]string, 0, len(names))
	for _, b := range lead {
		if slices.Contains(names, b) {
			out = append(out, b)
		}
	}
	for _, n := range names {
		if !slices.Contains(lead, n) {
			out = append(out, n)
		}
	}
	return out
}

// Reorder rewrites the driver script named script in a.Dir. Every
// referenced file gets DefineOff prepended; files that do not exist are
// logged and left out of the driver. It returns the final order.
func (a *Assembler) Reorder(script string) ([]string, error) {
	logger := a.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	path := filepath.Join(a.Dir, script)
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading driver script: %w", err)
	}

	var kept []string
	for _, name := range a.Order(ParseIncludes(string(content))) {
		err := prependDefineOff(filepath.Join(a.Dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("referenced script missing, leaving it out of the driver",
				zap.String("driver", script),
				zap.String("file", name))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("preparing %s: %w", name, err)
		}
		kept = append(kept, name)
	}

	if err := os.WriteFile(path, []byte(Render(script, a.RunID, kept)), 0o644); err != nil {
		return nil, fmt.Errorf("writing driver script: %w", err)
	}
	logger.Info("driver script ordered", zap.String("driver", script), zap.Int("files", len(kept)))
	return kept, nil
}

func prependDefineOff(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return os.WriteFile(path, append([]byte(DefineOff), data...), 0o644)
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
