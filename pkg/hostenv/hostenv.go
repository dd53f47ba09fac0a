// Package hostenv abstracts the pieces of host machine state the prober is
// allowed to inspect: the OS name, a fixed set of environment variables, the
// process search path and subprocess execution. Probing code only talks to
// the Host interface which keeps it deterministic under test.
package hostenv

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/aidarkhanov/nanoid"
	"github.com/rotisserie/eris"
)

// ObservedVariables is the allow-list of environment variables the prober may
// read. Anything else is invisible; new knobs have to be declared here so the
// build system can invalidate the generated descriptor when they change.
var ObservedVariables = []string{
	"ABI_LIBC_VERSION",
	"ABI_VERSION",
	"BAZEL_COMPILER",
	"BAZEL_HOST_SYSTEM",
	"BAZEL_PYTHON",
	"BAZEL_SH",
	"BAZEL_TARGET_CPU",
	"BAZEL_TARGET_LIBC",
	"BAZEL_TARGET_SYSTEM",
	"CC",
	"CC_CONFIGURE_DEBUG",
	"CPLUS_INCLUDE_PATH",
	"CUDA_COMPUTE_CAPABILITIES",
	"CUDA_PATH",
	"CXX",
	"HOMEBREW_RUBY_PATH",
	"NO_WHOLE_ARCHIVE_OPTION",
	"PATH",
	"SYSTEMROOT",
	"USE_DYNAMIC_CRT",
	"USE_MSVC_WRAPPER",
}

var observedSet = func() map[string]bool {
	set := make(map[string]bool, len(ObservedVariables))
	for _, name := range ObservedVariables {
		set[name] = true
	}
	return set
}()

// Result holds the outcome of a finished probe command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Host provides access to the host machine state the prober may see.
type Host interface {
	// OSName returns a human readable name for the host OS ("linux", "mac os x", ...)
	OSName() string
	// Getenv looks up an allow-listed environment variable
	Getenv(name string) (string, bool)
	// Which searches the process search path for an executable
	Which(cmd string) (string, bool)
	// Execute runs the given command to completion and captures its output.
	// A non-zero exit status is reported through the Result, not the error;
	// the error is only set when the process couldn't be started at all.
	Execute(ctx context.Context, args ...string) (Result, error)
	// ScratchFile creates name with the given content in a scratch directory
	// and returns its absolute path
	ScratchFile(name string, content []byte) (string, error)
}

// System implements Host on top of the real process environment.
type System struct {
	scratch string
}

var _ Host = (*System)(nil)

func NewSystem() *System {
	return &System{}
}

func (s *System) OSName() string {
	// mirrors the names the build tool reports for each platform
	switch runtime.GOOS {
	case "darwin":
		return "mac os x"
	case "windows":
		return "windows"
	default:
		return runtime.GOOS
	}
}

func (s *System) Getenv(name string) (string, bool) {
	if !observedSet[name] {
		return "", false
	}

	return os.LookupEnv(name)
}

func (s *System) Which(cmd string) (string, bool) {
	path, err := exec.LookPath(cmd)
	if err != nil {
		return "", false
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return path, true
	}
	return absPath, true
}

func (s *System) Execute(ctx context.Context, args ...string) (Result, error) {
	if len(args) < 1 {
		return Result{}, eris.New("empty probe command")
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Env = s.subprocessEnv()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			return result, eris.Wrapf(err, "failed to run %s", args[0])
		}

		result.ExitCode = exitErr.ExitCode()
	}

	return result, nil
}

// subprocessEnv assembles the child environment from the set allow-listed
// variables so probes can't pick up undeclared state.
func (s *System) subprocessEnv() []string {
	env := make([]string, 0, len(ObservedVariables))
	for _, name := range ObservedVariables {
		if value, ok := os.LookupEnv(name); ok {
			env = append(env, name+"="+value)
		}
	}

	return env
}

func (s *System) ScratchFile(name string, content []byte) (string, error) {
	if s.scratch == "" {
		dir := filepath.Join(os.TempDir(), "ccprobe-"+nanoid.New())
		if err := os.Mkdir(dir, 0700); err != nil {
			return "", eris.Wrap(err, "failed to create scratch directory")
		}

		s.scratch = dir
	}

	path := filepath.Join(s.scratch, name)
	if err := os.WriteFile(path, content, 0600); err != nil {
		return "", eris.Wrapf(err, "failed to write %s", path)
	}

	return path, nil
}

// Close removes the scratch directory if one was created.
func (s *System) Close() error {
	if s.scratch == "" {
		return nil
	}

	dir := s.scratch
	s.scratch = ""
	return os.RemoveAll(dir)
}
