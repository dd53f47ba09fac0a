package hostenv

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemGetenvOnlySeesDeclaredVariables(t *testing.T) {
	t.Setenv("CC", "clang")
	t.Setenv("CCPROBE_SECRET", "hidden")

	sys := NewSystem()

	value, ok := sys.Getenv("CC")
	require.True(t, ok)
	assert.Equal(t, "clang", value)

	_, ok = sys.Getenv("CCPROBE_SECRET")
	assert.False(t, ok, "undeclared variables must stay invisible")
}

func TestSubprocessEnvFiltersUndeclaredVariables(t *testing.T) {
	t.Setenv("CC", "gcc")
	t.Setenv("CCPROBE_SECRET", "hidden")

	sys := NewSystem()
	env := sys.subprocessEnv()

	assert.Contains(t, env, "CC=gcc")
	for _, entry := range env {
		assert.NotContains(t, entry, "CCPROBE_SECRET")
	}
}

func TestSystemScratchFile(t *testing.T) {
	sys := NewSystem()
	defer sys.Close()

	path, err := sys.ScratchFile("empty.cc", []byte("int main() {}"))
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "int main() {}", string(content))

	// a second file lands in the same directory
	second, err := sys.ScratchFile("other.cc", nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Dir(path), filepath.Dir(second))

	require.NoError(t, sys.Close())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Close without a scratch directory is a no-op
	assert.NoError(t, sys.Close())
}

func TestSystemExecuteReportsSpawnFailures(t *testing.T) {
	sys := NewSystem()

	_, err := sys.Execute(context.Background(), "/nonexistent/ccprobe-test-binary")
	require.Error(t, err)

	_, err = sys.Execute(context.Background())
	require.Error(t, err)
}
