package probe

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"mvdan.cc/sh/v3/shell"

	"github.com/ngld/ccprobe/pkg/cclog"
	"github.com/ngld/ccprobe/pkg/hostenv"
)

func searchPath(host hostenv.Host) string {
	path, _ := host.Getenv("PATH")
	return path
}

// FindTool searches the host's search path for the given executable and
// returns a ToolNotFoundError if it can't be found.
func FindTool(ctx context.Context, host hostenv.Host, name string) (string, error) {
	path, ok := host.Which(name)
	if !ok {
		return "", ToolNotFoundError{Name: name, Path: searchPath(host)}
	}

	return path, nil
}

// FindToolDefault searches the host's search path for the given executable,
// falling back to the given path (with a warning) if it can't be found.
func FindToolDefault(ctx context.Context, host hostenv.Host, name, fallback string) string {
	path, ok := host.Which(name)
	if !ok {
		cclog.Log(ctx).Warn().
			Msgf("cannot find %s on the search path, using '%s' as default", name, fallback)
		return fallback
	}

	return path
}

// FindCompiler locates the C/C++ compiler driver. CC takes precedence over
// CXX which takes precedence over plain "gcc". Absolute overrides are taken
// as-is without a path lookup. Overrides that carry extra words (launchers
// like "ccache gcc") are split with shell word rules and reduced to their
// first word because the probes need a single executable.
func FindCompiler(ctx context.Context, host hostenv.Host) (string, error) {
	name := "gcc"
	for _, envName := range []string{"CC", "CXX"} {
		value, ok := host.Getenv(envName)
		if ok && strings.TrimSpace(value) != "" {
			name = strings.TrimSpace(value)
			break
		}
	}

	fields, err := shell.Fields(name, nil)
	if err != nil {
		return "", eris.Wrapf(err, "failed to parse compiler override %q", name)
	}
	if len(fields) == 0 {
		return "", eris.Errorf("the compiler override %q doesn't name an executable", name)
	}

	if len(fields) > 1 {
		cclog.Log(ctx).Warn().
			Msgf("the compiler override %q contains arguments, only %s will be probed", name, fields[0])
	}
	name = fields[0]

	if filepath.IsAbs(name) {
		return name, nil
	}

	path, ok := host.Which(name)
	if !ok {
		return "", eris.Wrap(
			ToolNotFoundError{Name: name, Path: searchPath(host)},
			"cannot locate a C++ compiler, either correct your PATH or set the CC environment variable",
		)
	}

	return path, nil
}

// FindArchiver locates the static archiver. Darwin always uses the system
// libtool, everywhere else ar is looked up with the usual /usr/bin fallback.
func FindArchiver(ctx context.Context, host hostenv.Host, family OSFamily) string {
	if family == FamilyDarwin {
		return "/usr/bin/libtool"
	}

	return FindToolDefault(ctx, host, "ar", "/usr/bin/ar")
}
