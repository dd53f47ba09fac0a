package probe

import (
	"context"
	"strings"

	"github.com/ngld/ccprobe/pkg/cclog"
	"github.com/ngld/ccprobe/pkg/hostenv"
)

// Platform identifiers understood by descriptor consumers.
const (
	CPUDarwin  = "darwin"
	CPUFreeBSD = "freebsd"
	CPUWindows = "x64_windows"
	CPUPpc     = "ppc"
	CPUArm     = "arm"
	CPUK8      = "k8"
	CPUGeneric = "piii"
)

// OSFamily groups the supported platforms by the flag sets they receive.
type OSFamily int

const (
	// FamilyUnix covers Linux, FreeBSD and everything else the classifier
	// doesn't know better about
	FamilyUnix OSFamily = iota
	FamilyDarwin
	FamilyWindows
)

func (f OSFamily) String() string {
	switch f {
	case FamilyDarwin:
		return "darwin"
	case FamilyWindows:
		return "windows"
	default:
		return "unix"
	}
}

// FamilyFor maps a platform identifier to its OS family.
func FamilyFor(cpuValue string) OSFamily {
	switch cpuValue {
	case CPUDarwin:
		return FamilyDarwin
	case CPUWindows:
		return FamilyWindows
	default:
		return FamilyUnix
	}
}

// Machine names are matched against the table in order; the first hit wins.
var machineTable = []struct {
	names []string
	cpu   string
}{
	{[]string{"power", "ppc64le", "ppc"}, CPUPpc},
	{[]string{"arm", "armv7l", "aarch64"}, CPUArm},
	{[]string{"amd64", "x86_64", "x64"}, CPUK8},
}

// CPUValue classifies the host into a platform identifier. Darwin, FreeBSD
// and Windows are recognized from the OS name alone, everything else asks
// `uname -m` for the machine name. Unknown machines (and a failed query)
// fall back to the generic identifier.
func CPUValue(ctx context.Context, host hostenv.Host) string {
	osName := strings.ToLower(host.OSName())
	switch {
	case strings.HasPrefix(osName, "mac os"):
		return CPUDarwin
	case strings.Contains(osName, "freebsd"):
		return CPUFreeBSD
	case strings.Contains(osName, "windows"):
		return CPUWindows
	}

	result, err := host.Execute(ctx, "uname", "-m")
	if err != nil {
		cclog.Log(ctx).Debug().Err(err).Msg("failed to query the machine name")
		return CPUGeneric
	}

	machine := strings.TrimSpace(result.Stdout)
	for _, entry := range machineTable {
		for _, name := range entry.names {
			if machine == name {
				return entry.cpu
			}
		}
	}

	return CPUGeneric
}
