// Package profiles copies the connection profile templates of a client,
// keeping those that belong to the selected warehouse.
package profiles

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/pthm/sqlprovision/pkg/metadata"
	"github.com/pthm/sqlprovision/pkg/placeholder"
)

// DirName is the template and output directory holding the profiles.
const DirName = "CONNECTION_PROFILES"

// Update copies the profiles in src to dst. JSON profiles whose name carries
// a warehouse number other than warehouse are left out; warehouse 0 keeps
// every profile. The client token is replaced in the names and contents of
// JSON profiles, other files are copied verbatim. A missing src is not an
// error. It returns the paths written.
func Update(src, dst string, c metadata.Client, warehouse int, logger *zap.Logger) ([]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	entries, err := os.ReadDir(src)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Info("no connection profiles to update", zap.String("dir", src))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading connection profiles: %w", err)
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return nil, fmt.Errorf("creating connection profile directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var written []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			logger.Debug("skipping directory in connection profiles", zap.String("name", name))
			continue
		}
		data, err := os.ReadFile(filepath.Join(src, name))
		if err != nil {
			return written, fmt.Errorf("reading connection profile %s: %w", name, err)
		}

		if strings.HasSuffix(name, ".json") {
			if d, ok := Warehouse(name); ok && warehouse != 0 && d != warehouse {
				logger.Debug("skipping connection profile for other warehouse",
					zap.String("name", name), zap.Int("warehouse", d))
				continue
			}
			name = placeholder.ReplaceClientToken(name, c)
			data = []byte(substitute(string(data), c))
			if !json.Valid(data) {
				logger.Warn("connection profile is not valid JSON after substitution", zap.String("name", name))
			}
		}

		path := filepath.Join(dst, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return written, fmt.Errorf("writing connection profile %s: %w", name, err)
		}
		logger.Info("updated connection profile", zap.String("path", path))
		written = append(written, path)
	}
	return written, nil
}

// Warehouse returns the first digit in a profile name.
func Warehouse(name string) (int, bool) {
	for _, r := range name {
		if r >= '0' && r <= '9' {
			return int(r - '0'), true
		}
	}
	return 0, false
}

func substitute(content string, c metadata.Client) string {
	content = strings.ReplaceAll(content, placeholder.ClientLower, c.Lower())
	return placeholder.ReplaceClientToken(content, c)
}
