package probe

import (
	"context"
	"strings"

	"github.com/ngld/ccprobe/pkg/cclog"
	"github.com/ngld/ccprobe/pkg/hostenv"
)

const (
	includeMarker   = "#include <...>"
	frameworkSuffix = " (framework directory)"
)

// BuiltinIncludeDirectories asks the compiler for its builtin include search
// directories by preprocessing an empty translation unit in verbose mode.
// Compilers that don't print the expected marker yield an empty list, that's
// not an error.
func BuiltinIncludeDirectories(ctx context.Context, host hostenv.Host, cc string) []string {
	result, err := host.Execute(ctx, cc, "-E", "-xc++", "-", "-v")
	if err != nil {
		cclog.Log(ctx).Warn().Err(err).Msg("failed to query the builtin include directories")
		return nil
	}

	dirs := parseIncludeDirectories(result.Stderr)
	if len(dirs) == 0 {
		cclog.Log(ctx).Warn().Msgf("%s didn't report any builtin include directories", cc)
	}

	return dirs
}

// parseIncludeDirectories extracts the indented directory block that follows
// the `#include <...>` marker in the compiler's verbose output. The block
// ends at the first unindented line. Darwin decorates framework directories
// with a suffix which is stripped.
func parseIncludeDirectories(diag string) []string {
	var dirs []string
	inBlock := false

	for _, line := range strings.Split(diag, "\n") {
		if !inBlock {
			if strings.HasPrefix(line, includeMarker) {
				inBlock = true
			}
			continue
		}

		if !strings.HasPrefix(line, " ") {
			break
		}

		dir := strings.TrimSuffix(strings.TrimSpace(line), frameworkSuffix)
		if dir != "" {
			dirs = append(dirs, strings.TrimSpace(dir))
		}
	}

	return dirs
}
