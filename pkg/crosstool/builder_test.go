package crosstool

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngld/ccprobe/pkg/cclog"
	"github.com/ngld/ccprobe/pkg/hostenv"
	"github.com/ngld/ccprobe/pkg/probe"
)

// testLogger returns a context whose logger writes JSON lines into the
// returned buffer.
func testLogger() (context.Context, *bytes.Buffer) {
	buf := new(bytes.Buffer)
	logger := zerolog.New(buf)
	return cclog.WithLogger(context.Background(), &logger), buf
}

const verboseOutput = `#include "..." search starts here:
#include <...> search starts here:
 /usr/lib/gcc/x86_64-linux-gnu/7/include
 /usr/include
End of search list.
`

// linuxHost assembles a fake resembling a plain x86-64 Linux box with gcc in
// /usr/bin. gcc accepts everything except -fcolor-diagnostics.
func linuxHost() *hostenv.Fake {
	host := hostenv.NewFake("Linux")
	host.Tools["gcc"] = "/usr/bin/gcc"
	host.On(hostenv.Result{Stdout: "x86_64\n"}, "uname", "-m")
	host.On(hostenv.Result{Stdout: "7.5.0\n"}, "/usr/bin/gcc", "-dumpversion")
	host.On(hostenv.Result{Stderr: verboseOutput}, "/usr/bin/gcc", "-E", "-xc++", "-", "-v")
	host.On(hostenv.Result{},
		"/usr/bin/gcc", "-fuse-ld=gold", "-o", os.DevNull, "-Wl,--start-lib", "-Wl,--end-lib", "/scratch/empty.cc")

	for _, option := range []string{
		"-Wl,-no-as-needed",
		"-Wl,-z,relro,-z,now",
		"-fno-canonical-system-headers",
		"-Wunused-but-set-parameter",
		"-Wno-free-nonheap-object",
	} {
		host.On(hostenv.Result{}, "/usr/bin/gcc", option, "-o", os.DevNull, "-c", "/scratch/empty.cc")
	}

	host.On(hostenv.Result{
		Stderr:   "gcc: error: unrecognized command line option '-fcolor-diagnostics'",
		ExitCode: 1,
	}, "/usr/bin/gcc", "-fcolor-diagnostics", "-o", os.DevNull, "-c", "/scratch/empty.cc")

	return host
}

func TestBuildLinux(t *testing.T) {
	ctx, _ := testLogger()
	host := linuxHost()

	desc, err := Build(ctx, host)
	require.NoError(t, err)

	assert.Equal(t, "k8", desc.CPU)
	assert.Equal(t, probe.FamilyUnix, desc.Family)
	assert.Equal(t, "/usr/bin/gcc", desc.Compiler.Path)
	assert.Equal(t, "7.5.0", desc.Compiler.RawVersion)
	assert.True(t, desc.GoldLinker)
	assert.Equal(t, []byte("int main() {}"), host.Scratch["empty.cc"])

	gold, _ := desc.Content.Get("supports_gold_linker")
	assert.Equal(t, true, gold)
	startEnd, _ := desc.Content.Get("supports_start_end_lib")
	assert.Equal(t, true, startEnd)

	targetCPU, _ := desc.Content.Get("target_cpu")
	assert.Equal(t, "k8", targetCPU)
	libc, _ := desc.Content.Get("target_libc")
	assert.Equal(t, "local", libc)

	flags, _ := desc.Content.Get("linker_flag")
	assert.Equal(t, []string{
		"-lstdc++", "-lm", "-fuse-ld=gold",
		"-Wl,-no-as-needed", "-Wl,-z,relro,-z,now",
		"-B/usr/bin", "-B/usr/bin", "-Wl,--build-id=md5", "-Wl,--hash-style=gnu",
	}, flags)

	cflags, _ := desc.Content.Get("compiler_flag")
	assert.Contains(t, cflags, "-Wunused-but-set-parameter")
	assert.NotContains(t, cflags, "-fcolor-diagnostics")
	list := cflags.([]string)
	assert.Equal(t, "-fno-omit-frame-pointer", list[len(list)-1])

	dirs, _ := desc.Content.Get("cxx_builtin_include_directory")
	assert.Equal(t, []string{"/usr/lib/gcc/x86_64-linux-gnu/7/include", "/usr/include"}, dirs)

	require.Len(t, desc.ToolPaths, 10)
	assert.Equal(t, ToolPath{Name: "ld", Path: "/usr/bin/ld"}, desc.ToolPaths[0])
	assert.Equal(t, ToolPath{Name: "gcc", Path: "/usr/bin/gcc"}, desc.ToolPaths[8])
	assert.Equal(t, ToolPath{Name: "ar", Path: "/usr/bin/ar"}, desc.ToolPaths[9])

	optFlags, _ := desc.Opt.Get("compiler_flag")
	assert.Equal(t, []string{"-g0", "-O2", "-DNDEBUG", "-ffunction-sections", "-fdata-sections"}, optFlags)
	optLink, _ := desc.Opt.Get("linker_flag")
	assert.Equal(t, []string{"-Wl,--gc-sections"}, optLink)
	dbgFlags, _ := desc.Dbg.Get("compiler_flag")
	assert.Equal(t, []string{"-g"}, dbgFlags)
}

func TestBuildWithoutGold(t *testing.T) {
	ctx, _ := testLogger()
	host := linuxHost()
	host.On(hostenv.Result{Stderr: "collect2: fatal error: cannot find 'ld'", ExitCode: 1},
		"/usr/bin/gcc", "-fuse-ld=gold", "-o", os.DevNull, "-Wl,--start-lib", "-Wl,--end-lib", "/scratch/empty.cc")

	desc, err := Build(ctx, host)
	require.NoError(t, err)

	assert.False(t, desc.GoldLinker)
	gold, _ := desc.Content.Get("supports_gold_linker")
	assert.Equal(t, false, gold)
	startEnd, _ := desc.Content.Get("supports_start_end_lib")
	assert.Equal(t, false, startEnd)

	flags, _ := desc.Content.Get("linker_flag")
	assert.NotContains(t, flags, "-fuse-ld=gold")
}

func TestBuildDarwin(t *testing.T) {
	ctx, _ := testLogger()
	host := hostenv.NewFake("Mac OS X")
	host.Env["CC"] = "/usr/bin/clang"
	host.On(hostenv.Result{Stdout: "12.0.5\n"}, "/usr/bin/clang", "-dumpversion")
	host.On(hostenv.Result{
		Stderr: "#include <...> search starts here:\n" +
			" /usr/include\n" +
			" /System/Library/Frameworks (framework directory)\n" +
			"End of search list.\n",
	}, "/usr/bin/clang", "-E", "-xc++", "-", "-v")
	host.On(hostenv.Result{ExitCode: 1},
		"/usr/bin/clang", "-fuse-ld=gold", "-o", os.DevNull, "-Wl,--start-lib", "-Wl,--end-lib", "/scratch/empty.cc")

	for _, option := range []string{
		"-Wl,-no-as-needed",
		"-Wl,-z,relro,-z,now",
		"-fno-canonical-system-headers",
		"-Wunused-but-set-parameter",
		"-Wno-free-nonheap-object",
		"-fcolor-diagnostics",
	} {
		host.On(hostenv.Result{}, "/usr/bin/clang", option, "-o", os.DevNull, "-c", "/scratch/empty.cc")
	}

	desc, err := Build(ctx, host)
	require.NoError(t, err)

	assert.Equal(t, "darwin", desc.CPU)
	assert.Equal(t, probe.FamilyDarwin, desc.Family)
	assert.False(t, desc.GoldLinker)

	libc, _ := desc.Content.Get("target_libc")
	assert.Equal(t, "macosx", libc)

	arFlags, _ := desc.Content.Get("ar_flag")
	assert.Equal(t, []string{"-static", "-s", "-o"}, arFlags)

	flags, _ := desc.Content.Get("linker_flag")
	assert.Equal(t, []string{
		"-lstdc++", "-lm",
		"-Wl,-no-as-needed", "-Wl,-z,relro,-z,now",
		"-undefined", "dynamic_lookup", "-headerpad_max_install_names",
	}, flags)

	cflags, _ := desc.Content.Get("compiler_flag")
	assert.Contains(t, cflags, "-Wthread-safety")
	assert.Contains(t, cflags, "-fcolor-diagnostics")
	assert.NotContains(t, cflags, "-B/usr/bin")

	dirs, _ := desc.Content.Get("cxx_builtin_include_directory")
	assert.Equal(t, []string{"/usr/include", "/System/Library/Frameworks"}, dirs)

	assert.Equal(t, ToolPath{Name: "ar", Path: "/usr/bin/libtool"}, desc.ToolPaths[9])

	optLink, _ := desc.Opt.Get("linker_flag")
	assert.Empty(t, optLink)
}

func TestBuildSplicesCPlusIncludePath(t *testing.T) {
	ctx, _ := testLogger()
	host := linuxHost()
	host.Env["CPLUS_INCLUDE_PATH"] = "/opt/boost/include:/opt/abseil//include"

	desc, err := Build(ctx, host)
	require.NoError(t, err)

	flags, _ := desc.Content.Get("cxx_flag")
	assert.Equal(t, []string{"-std=c++0x", "-I/opt/boost/include", "-I/opt/abseil/include"}, flags)
}

func TestBuildHonorsIdentityOverrides(t *testing.T) {
	ctx, buf := testLogger()
	host := linuxHost()
	host.Env["ABI_VERSION"] = "gcc-4.9"
	host.Env["BAZEL_TARGET_CPU"] = "ppc"

	desc, err := Build(ctx, host)
	require.NoError(t, err)

	abi, _ := desc.Content.Get("abi_version")
	assert.Equal(t, "gcc-4.9", abi)
	targetCPU, _ := desc.Content.Get("target_cpu")
	assert.Equal(t, "ppc", targetCPU)

	// the untouched identity fields still warn about their defaults
	assert.Contains(t, buf.String(), "BAZEL_TARGET_LIBC")
	assert.NotContains(t, buf.String(), "ABI_VERSION is not set")
}

func TestBuildWithoutCompiler(t *testing.T) {
	ctx, _ := testLogger()
	host := hostenv.NewFake("Linux")
	host.Env["PATH"] = "/usr/bin:/bin"
	host.On(hostenv.Result{Stdout: "x86_64\n"}, "uname", "-m")

	_, err := Build(ctx, host)
	require.Error(t, err)

	var notFound probe.ToolNotFoundError
	assert.ErrorAs(t, err, &notFound)
}
