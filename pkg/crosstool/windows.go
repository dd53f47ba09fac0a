package crosstool

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/ngld/ccprobe/pkg/hostenv"
	"github.com/ngld/ccprobe/pkg/probe"
)

// msysRoot derives the MSYS installation root from the configured shell
// path, so "C:\msys64\usr\bin\bash.exe" becomes "c:/msys64/".
func msysRoot(bazelSh string) (string, error) {
	path := strings.ToLower(strings.ReplaceAll(bazelSh, "\\", "/"))

	dir := path
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		dir = path[:idx]
	}

	switch {
	case strings.HasSuffix(dir, "/usr/bin"):
		return strings.TrimSuffix(dir, "usr/bin"), nil
	case strings.HasSuffix(dir, "/bin"):
		return strings.TrimSuffix(dir, "bin"), nil
	}

	return "", eris.Errorf("could not determine the MSYS root from BAZEL_SH (%s)", bazelSh)
}

// windowsContent emits the MSYS toolchain block. This block predates the
// generic serializer and stays hand-written, including its three space
// indentation.
func windowsContent(ctx context.Context, host hostenv.Host) (string, error) {
	bazelSh, err := probe.EnvValue(ctx, host, "BAZEL_SH")
	if err != nil {
		return "", err
	}

	root, err := msysRoot(bazelSh)
	if err != nil {
		return "", err
	}

	lines := []string{
		`   abi_version: "local"`,
		`   abi_libc_version: "local"`,
		`   builtin_sysroot: ""`,
		`   compiler: "windows_msys64"`,
		`   host_system_name: "local"`,
		`   needsPic: false`,
		`   target_libc: "local"`,
		`   target_cpu: "x64_windows"`,
		`   target_system_name: "local"`,
		fmt.Sprintf(`   tool_path { name: "ar" path: "%susr/bin/ar" }`, root),
		fmt.Sprintf(`   tool_path { name: "compat-ld" path: "%susr/bin/ld" }`, root),
		fmt.Sprintf(`   tool_path { name: "cpp" path: "%susr/bin/cpp" }`, root),
		fmt.Sprintf(`   tool_path { name: "dwp" path: "%susr/bin/dwp" }`, root),
		fmt.Sprintf(`   tool_path { name: "gcc" path: "%susr/bin/gcc" }`, root),
		`   cxx_flag: "-std=gnu++0x"`,
		`   linker_flag: "-lstdc++"`,
		fmt.Sprintf(`   cxx_builtin_include_directory: "%s"`, root),
		`   cxx_builtin_include_directory: "/usr/"`,
		fmt.Sprintf(`   tool_path { name: "gcov" path: "%susr/bin/gcov" }`, root),
		fmt.Sprintf(`   tool_path { name: "ld" path: "%susr/bin/ld" }`, root),
		fmt.Sprintf(`   tool_path { name: "nm" path: "%susr/bin/nm" }`, root),
		fmt.Sprintf(`   tool_path { name: "objcopy" path: "%susr/bin/objcopy" }`, root),
		`   objcopy_embed_flag: "-I"`,
		`   objcopy_embed_flag: "binary"`,
		fmt.Sprintf(`   tool_path { name: "objdump" path: "%susr/bin/objdump" }`, root),
		fmt.Sprintf(`   tool_path { name: "strip" path: "%susr/bin/strip" }`, root),
	}

	return strings.Join(lines, "\n"), nil
}
