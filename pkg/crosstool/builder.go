package crosstool

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/ngld/ccprobe/pkg/cclog"
	"github.com/ngld/ccprobe/pkg/hostenv"
	"github.com/ngld/ccprobe/pkg/probe"
)

// emptySource is the trivial translation unit every flag probe compiles.
const emptySource = "int main() {}"

// Descriptor is the fully probed toolchain description, ready to render.
type Descriptor struct {
	CPU      string
	Family   probe.OSFamily
	Compiler probe.CompilerInfo

	// Content holds the fields of the default build mode, Opt and Dbg the
	// per-mode overrides. All three are nil on Windows where the descriptor
	// is a fixed text block instead.
	Content   *Config
	Opt       *Config
	Dbg       *Config
	ToolPaths []ToolPath

	GoldLinker  bool
	IncludeDirs []string

	literal string
}

// Build runs the full probe sequence against the given host and assembles
// the toolchain descriptor. Probes run strictly in order because later flag
// lists depend on earlier probe results.
func Build(ctx context.Context, host hostenv.Host) (*Descriptor, error) {
	cpuValue := probe.CPUValue(ctx, host)
	family := probe.FamilyFor(cpuValue)
	cclog.Log(ctx).Info().Msgf("Detected platform %s", cpuValue)

	desc := &Descriptor{CPU: cpuValue, Family: family}

	if family == probe.FamilyWindows {
		literal, err := windowsContent(ctx, host)
		if err != nil {
			return nil, err
		}

		desc.literal = literal
		return desc, nil
	}

	cc, err := probe.FindCompiler(ctx, host)
	if err != nil {
		return nil, err
	}

	desc.Compiler = probe.DetectCompilerVersion(ctx, host, cc)
	logCompiler(ctx, desc.Compiler)

	src, err := host.ScratchFile("empty.cc", []byte(emptySource))
	if err != nil {
		return nil, err
	}

	desc.GoldLinker = probe.GoldLinkerSupported(ctx, host, cc, src)
	desc.IncludeDirs = probe.BuiltinIncludeDirectories(ctx, host, cc)

	desc.Content = contentConfig(ctx, host, cc, src, desc)
	desc.Opt = optConfig(family)
	desc.Dbg = dbgConfig()
	desc.ToolPaths = toolPaths(ctx, host, cc, family)

	return desc, nil
}

func logCompiler(ctx context.Context, info probe.CompilerInfo) {
	event := cclog.Log(ctx).Info()
	switch {
	case info.Version != nil:
		event = event.Str("version", info.Version.String())
	case info.RawVersion != "":
		event = event.Str("version", info.RawVersion)
	}
	event.Msgf("Using C++ compiler %s", info.Path)
}

func contentConfig(ctx context.Context, host hostenv.Host, cc, src string, desc *Descriptor) *Config {
	darwin := desc.Family == probe.FamilyDarwin

	conf := NewConfig()
	conf.SetString("abi_version", probe.EnvValueDefault(ctx, host, "ABI_VERSION", "local"))
	conf.SetString("abi_libc_version", probe.EnvValueDefault(ctx, host, "ABI_LIBC_VERSION", "local"))
	conf.SetString("builtin_sysroot", "")
	conf.SetString("compiler", probe.EnvValueDefault(ctx, host, "BAZEL_COMPILER", "compiler"))
	conf.SetString("host_system_name", probe.EnvValueDefault(ctx, host, "BAZEL_HOST_SYSTEM", "local"))
	conf.SetBool("needsPic", true)
	conf.SetBool("supports_gold_linker", desc.GoldLinker)
	conf.SetBool("supports_incremental_linker", false)
	conf.SetBool("supports_fission", false)
	conf.SetBool("supports_interface_shared_objects", false)
	conf.SetBool("supports_normalizing_ar", false)
	// start/end-lib archive handling needs gold as well
	conf.SetBool("supports_start_end_lib", desc.GoldLinker)
	conf.SetBool("supports_thin_archives", false)

	targetLibc := "macosx"
	if !darwin {
		targetLibc = probe.EnvValueDefault(ctx, host, "BAZEL_TARGET_LIBC", "local")
	}
	conf.SetString("target_libc", targetLibc)
	conf.SetString("target_cpu", probe.EnvValueDefault(ctx, host, "BAZEL_TARGET_CPU", desc.CPU))
	conf.SetString("target_system_name", probe.EnvValueDefault(ctx, host, "BAZEL_TARGET_SYSTEM", "local"))

	conf.SetList("cxx_flag", append([]string{"-std=c++0x"}, cplusIncludeFlags(host)...))
	conf.SetList("linker_flag", linkerFlags(ctx, host, cc, src, darwin, desc.GoldLinker))

	arFlags := []string{}
	if darwin {
		arFlags = []string{"-static", "-s", "-o"}
	}
	conf.SetList("ar_flag", arFlags)

	conf.SetList("cxx_builtin_include_directory", desc.IncludeDirs)
	conf.SetList("objcopy_embed_flag", []string{"-I", "binary"})
	conf.SetList("unfiltered_cxx_flag", unfilteredFlags(ctx, host, cc, src))
	conf.SetList("compiler_flag", compilerFlags(ctx, host, cc, src, darwin))

	return conf
}

// cplusIncludeFlags splices the CPLUS_INCLUDE_PATH entries into cxx_flag as
// -I flags.
func cplusIncludeFlags(host hostenv.Host) []string {
	value, ok := host.Getenv("CPLUS_INCLUDE_PATH")
	if !ok || value == "" {
		return nil
	}

	var flags []string
	for _, path := range strings.Split(value, ":") {
		if path == "" {
			continue
		}

		flags = append(flags, "-I"+filepath.Clean(path))
	}

	return flags
}

func linkerFlags(ctx context.Context, host hostenv.Host, cc, src string, darwin, gold bool) []string {
	// some systems expect -lm in addition to -lstdc++
	flags := []string{"-lstdc++", "-lm"}
	if gold {
		flags = append(flags, "-fuse-ld=gold")
	}

	flags = append(flags, probe.OptionIfSupported(ctx, host, cc, src, "-Wl,-no-as-needed")...)
	flags = append(flags, probe.OptionIfSupported(ctx, host, cc, src, "-Wl,-z,relro,-z,now")...)

	if darwin {
		return append(flags, "-undefined", "dynamic_lookup", "-headerpad_max_install_names")
	}

	return append(flags,
		"-B"+filepath.Dir(cc),
		// the driver's own directory isn't always enough, see bazel#760
		"-B/usr/bin",
		"-Wl,--build-id=md5",
		"-Wl,--hash-style=gnu",
	)
}

func unfilteredFlags(ctx context.Context, host hostenv.Host, cc, src string) []string {
	flags := probe.OptionIfSupported(ctx, host, cc, src, "-fno-canonical-system-headers")
	return append(flags,
		"-Wno-builtin-macro-redefined",
		"-D__DATE__=\\\"redacted\\\"",
		"-D__TIMESTAMP__=\\\"redacted\\\"",
		"-D__TIME__=\\\"redacted\\\"",
	)
}

func compilerFlags(ctx context.Context, host hostenv.Host, cc, src string, darwin bool) []string {
	// security hardening and all warnings on by default
	flags := []string{"-U_FORTIFY_SOURCE", "-D_FORTIFY_SOURCE=1", "-fstack-protector", "-Wall"}

	if darwin {
		flags = append(flags, "-Wthread-safety", "-Wself-assign")
	} else {
		flags = append(flags, "-B"+filepath.Dir(cc), "-B/usr/bin")
	}

	flags = append(flags, probe.OptionIfSupported(ctx, host, cc, src, "-Wunused-but-set-parameter")...)
	// -Wfree-nonheap-object has false positives
	flags = append(flags, probe.OptionIfSupported(ctx, host, cc, src, "-Wno-free-nonheap-object")...)
	// colored diagnostics even without a terminal, the build tool strips the
	// escape sequences when asked to
	flags = append(flags, probe.OptionIfSupported(ctx, host, cc, src, "-fcolor-diagnostics")...)

	// keep stack frames for debugging, even in opt mode
	return append(flags, "-fno-omit-frame-pointer")
}

func optConfig(family probe.OSFamily) *Config {
	conf := NewConfig()
	// -g0 drops debug symbols entirely, the section flags let the linker
	// garbage collect unused code
	conf.SetList("compiler_flag", []string{"-g0", "-O2", "-DNDEBUG", "-ffunction-sections", "-fdata-sections"})

	linkFlags := []string{}
	if family != probe.FamilyDarwin {
		linkFlags = []string{"-Wl,--gc-sections"}
	}
	conf.SetList("linker_flag", linkFlags)

	return conf
}

func dbgConfig() *Config {
	conf := NewConfig()
	conf.SetList("compiler_flag", []string{"-g"})
	return conf
}

func toolPaths(ctx context.Context, host hostenv.Host, cc string, family probe.OSFamily) []ToolPath {
	paths := make([]ToolPath, 0, 10)
	for _, name := range []string{"ld", "cpp", "dwp", "gcov", "nm", "objcopy", "objdump", "strip"} {
		paths = append(paths, ToolPath{
			Name: name,
			Path: probe.FindToolDefault(ctx, host, name, "/usr/bin/"+name),
		})
	}

	return append(paths,
		ToolPath{Name: "gcc", Path: cc},
		ToolPath{Name: "ar", Path: probe.FindArchiver(ctx, host, family)},
	)
}
