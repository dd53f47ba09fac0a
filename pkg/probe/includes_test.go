package probe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ngld/ccprobe/pkg/hostenv"
)

const gccVerboseOutput = `Using built-in specs.
COLLECT_GCC=gcc
Target: x86_64-linux-gnu
ignoring nonexistent directory "/usr/local/include/x86_64-linux-gnu"
#include "..." search starts here:
#include <...> search starts here:
 /usr/lib/gcc/x86_64-linux-gnu/7/include
 /usr/local/include
 /usr/include
End of search list.
# 1 "<stdin>"
`

func TestBuiltinIncludeDirectories(t *testing.T) {
	ctx := context.Background()

	t.Run("gcc style output", func(t *testing.T) {
		host := hostenv.NewFake("Linux")
		host.On(hostenv.Result{Stderr: gccVerboseOutput}, "/usr/bin/gcc", "-E", "-xc++", "-", "-v")

		assert.Equal(t, []string{
			"/usr/lib/gcc/x86_64-linux-gnu/7/include",
			"/usr/local/include",
			"/usr/include",
		}, BuiltinIncludeDirectories(ctx, host, "/usr/bin/gcc"))
	})

	t.Run("framework directories lose their suffix", func(t *testing.T) {
		out := "#include <...> search starts here:\n" +
			" /usr/include\n" +
			" /Library/Frameworks (framework directory)\n" +
			"End of search list.\n"

		assert.Equal(t, []string{"/usr/include", "/Library/Frameworks"}, parseIncludeDirectories(out))
	})

	t.Run("missing marker yields an empty list", func(t *testing.T) {
		ctx, buf := testLogger()
		host := hostenv.NewFake("Linux")
		host.On(hostenv.Result{Stderr: "cl : Command line warning D9002"}, "cl", "-E", "-xc++", "-", "-v")

		assert.Empty(t, BuiltinIncludeDirectories(ctx, host, "cl"))
		assert.Contains(t, buf.String(), `"level":"warn"`)
	})

	t.Run("spawn failure is non-fatal", func(t *testing.T) {
		ctx, _ := testLogger()
		host := hostenv.NewFake("Linux")
		assert.Empty(t, BuiltinIncludeDirectories(ctx, host, "/usr/bin/gcc"))
	})
}
