package probe

import (
	"context"
	"os"
	"strings"

	"github.com/ngld/ccprobe/pkg/cclog"
	"github.com/ngld/ccprobe/pkg/hostenv"
)

// OptionIfSupported checks whether the compiler accepts the given option by
// compiling the trivial probe source with it. The option counts as supported
// only if the compiler's diagnostics don't echo it back; the exit code
// doesn't matter, a compile that fails for unrelated reasons must not veto
// the option. The result is a zero- or one-element slice so call sites can
// concatenate it unconditionally.
func OptionIfSupported(ctx context.Context, host hostenv.Host, cc, src, option string) []string {
	result, err := host.Execute(ctx, cc, option, "-o", os.DevNull, "-c", src)
	if err != nil {
		cclog.Log(ctx).Debug().Err(err).Msgf("the probe for %s failed to run", option)
		return nil
	}

	if strings.Contains(result.Stderr, option) {
		return nil
	}

	return []string{option}
}

// GoldLinkerSupported checks whether the compiler can link with gold. The
// --start-lib/--end-lib pair forces the driver to actually exercise gold,
// some drivers accept -fuse-ld=gold alone without having it installed.
func GoldLinkerSupported(ctx context.Context, host hostenv.Host, cc, src string) bool {
	result, err := host.Execute(ctx, cc,
		"-fuse-ld=gold", "-o", os.DevNull, "-Wl,--start-lib", "-Wl,--end-lib", src)
	if err != nil {
		cclog.Log(ctx).Debug().Err(err).Msg("the gold linker probe failed to run")
		return false
	}

	return result.ExitCode == 0
}
