package probe

import (
	"context"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/ngld/ccprobe/pkg/cclog"
	"github.com/ngld/ccprobe/pkg/hostenv"
)

// CompilerInfo describes the detected compiler driver.
type CompilerInfo struct {
	Path       string
	RawVersion string
	// Version is nil if the compiler's answer doesn't parse as a version
	Version *semver.Version
}

// DetectCompilerVersion asks the compiler for its version. Failures are
// non-fatal, the descriptor doesn't depend on the version but the logs and
// the inspect output include it.
func DetectCompilerVersion(ctx context.Context, host hostenv.Host, cc string) CompilerInfo {
	info := CompilerInfo{Path: cc}

	result, err := host.Execute(ctx, cc, "-dumpversion")
	if err != nil || result.ExitCode != 0 {
		cclog.Log(ctx).Debug().Msgf("%s doesn't answer -dumpversion", cc)
		return info
	}

	info.RawVersion = strings.TrimSpace(result.Stdout)
	version, err := semver.NewVersion(info.RawVersion)
	if err != nil {
		cclog.Log(ctx).Debug().Msgf("can't parse the compiler version %q", info.RawVersion)
		return info
	}

	info.Version = version
	return info
}
