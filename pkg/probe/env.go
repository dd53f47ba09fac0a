package probe

import (
	"context"
	"strings"

	"github.com/ngld/ccprobe/pkg/cclog"
	"github.com/ngld/ccprobe/pkg/hostenv"
)

// EnvValue returns the trimmed value of the given environment variable or a
// MissingEnvVarError if it's unset.
func EnvValue(ctx context.Context, host hostenv.Host, name string) (string, error) {
	value, ok := host.Getenv(name)
	if !ok {
		return "", MissingEnvVarError{Name: name}
	}

	return strings.TrimSpace(value), nil
}

// EnvValueDefault returns the trimmed value of the given environment variable,
// falling back to the given default if it's unset. Every substituted default
// is logged so users can tell which parts of the result they control.
func EnvValueDefault(ctx context.Context, host hostenv.Host, name, fallback string) string {
	value, ok := host.Getenv(name)
	if !ok {
		cclog.Log(ctx).Warn().
			Msgf("%s is not set, using '%s' as default", name, fallback)
		return fallback
	}

	return strings.TrimSpace(value)
}
