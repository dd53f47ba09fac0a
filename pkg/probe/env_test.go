package probe

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngld/ccprobe/pkg/cclog"
	"github.com/ngld/ccprobe/pkg/hostenv"
)

// testLogger returns a context whose logger writes JSON lines into the
// returned buffer.
func testLogger() (context.Context, *bytes.Buffer) {
	buf := new(bytes.Buffer)
	logger := zerolog.New(buf)
	return cclog.WithLogger(context.Background(), &logger), buf
}

func TestEnvValue(t *testing.T) {
	ctx := context.Background()
	host := hostenv.NewFake("Linux")
	host.Env["BAZEL_TARGET_CPU"] = "  ppc \n"

	t.Run("set", func(t *testing.T) {
		value, err := EnvValue(ctx, host, "BAZEL_TARGET_CPU")
		require.NoError(t, err)
		assert.Equal(t, "ppc", value)
	})

	t.Run("unset", func(t *testing.T) {
		_, err := EnvValue(ctx, host, "ABI_VERSION")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ABI_VERSION")

		var missing MissingEnvVarError
		assert.ErrorAs(t, err, &missing)
	})
}

func TestEnvValueDefault(t *testing.T) {
	host := hostenv.NewFake("Linux")
	host.Env["ABI_VERSION"] = "gcc-4.9"

	t.Run("set", func(t *testing.T) {
		ctx, buf := testLogger()
		assert.Equal(t, "gcc-4.9", EnvValueDefault(ctx, host, "ABI_VERSION", "local"))
		assert.Empty(t, buf.String())
	})

	t.Run("unset substitutes the default with a warning", func(t *testing.T) {
		ctx, buf := testLogger()
		assert.Equal(t, "local", EnvValueDefault(ctx, host, "ABI_LIBC_VERSION", "local"))
		assert.Contains(t, buf.String(), "ABI_LIBC_VERSION")
		assert.Contains(t, buf.String(), `"level":"warn"`)
	})
}
