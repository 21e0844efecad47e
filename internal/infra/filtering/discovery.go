package filtering

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/smileys/smileys/internal/config"
)

// DiscoveryOptions holds options for file discovery.
type DiscoveryOptions struct {
	Recursive      bool
	IncludePattern string // Command-line include override
	ExcludePattern string // Command-line exclude override
}

// DiscoverFiles expands args into the files to process. Missing paths are
// kept so they surface as errors in the results; explicitly named files are
// still subject to the filters. Each file appears once.
func DiscoverFiles(args []string, opts DiscoveryOptions, profile config.Profile) ([]string, error) {
	engine := NewFileFilterEngine(profile).
		WithCommandLineFilters(opts.IncludePattern, opts.ExcludePattern)

	seen := make(map[string]bool)
	var filePaths []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			filePaths = append(filePaths, path)
		}
	}

	for _, arg := range args {
		stat, err := os.Stat(arg)
		if err != nil {
			add(arg)
			continue
		}

		if !stat.IsDir() {
			if engine.ShouldInclude(arg).Include {
				add(arg)
			}
			continue
		}

		if !opts.Recursive {
			return nil, fmt.Errorf("directory %s requires --recursive flag", arg)
		}

		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != arg && engine.ShouldSkipDir(path) {
					return filepath.SkipDir
				}
				return nil
			}
			if d.Type().IsRegular() && engine.ShouldInclude(path).Include {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return filePaths, nil
}
