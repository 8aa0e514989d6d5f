package pipeline

import (
	"fmt"
	"os"
	"strings"

	"github.com/pthm/sqlprovision/pkg/placeholder"
	"github.com/pthm/sqlprovision/pkg/profiles"
)

const accountScriptPrefix = "create_users"

// TemplateKind is the naming convention a file in an environment directory
// follows.
type TemplateKind int

const (
	// TemplateUnknown is a .sql file matching no convention. It is skipped.
	TemplateUnknown TemplateKind = iota
	// TemplateGeneric is an xyz* template, substituted and written as is.
	TemplateGeneric
	// TemplateAccounts is a create_users* script split into per-account files.
	TemplateAccounts
	// TemplateObjectDump is an XYZ* DDL dump, filtered by object class.
	TemplateObjectDump
	// TemplateNotSQL is anything without a .sql suffix.
	TemplateNotSQL
)

func (k TemplateKind) String() string {
	switch k {
	case TemplateGeneric:
		return "template"
	case TemplateAccounts:
		return "accounts"
	case TemplateObjectDump:
		return "object dump"
	case TemplateNotSQL:
		return "not sql"
	default:
		return "unknown"
	}
}

// ClassifyTemplate maps a file name to its convention. Prefixes are case
// sensitive: xyz and XYZ select different treatments.
func ClassifyTemplate(name string) TemplateKind {
	switch {
	case !strings.HasSuffix(name, ".sql"):
		return TemplateNotSQL
	case strings.HasPrefix(name, placeholder.ClientLower):
		return TemplateGeneric
	case strings.HasPrefix(name, accountScriptPrefix):
		return TemplateAccounts
	case strings.HasPrefix(name, placeholder.ClientUpper):
		return TemplateObjectDump
	default:
		return TemplateUnknown
	}
}

// EnvironmentDirs lists the environment directories of a template tree in
// name order. The connection profile directory is not an environment.
func EnvironmentDirs(inputDir string) ([]string, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, fmt.Errorf("reading input directory: %w", err)
	}
	var envs []string
	for _, e := range entries {
		if e.IsDir() && e.Name() != profiles.DirName {
			envs = append(envs, e.Name())
		}
	}
	return envs, nil
}
