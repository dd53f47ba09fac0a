package overlay

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.starlark.net/starlark"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/ngld/ccprobe/pkg/cclog"
	"github.com/ngld/ccprobe/pkg/hostenv"
)

func starInfo(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var message string

	err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &message)
	if err != nil {
		return nil, err
	}

	octx := getCtx(thread)
	cclog.Log(octx.ctx).Info().Str("script", filepath.Base(octx.path)).Msg(message)
	return starlark.None, nil
}

func starWarn(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var message string

	err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &message)
	if err != nil {
		return nil, err
	}

	octx := getCtx(thread)
	cclog.Log(octx.ctx).Warn().Str("script", filepath.Base(octx.path)).Msg(message)
	return starlark.None, nil
}

func starError(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var message string

	err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &message)
	if err != nil {
		return nil, err
	}

	return nil, eris.New(message)
}

// starGetenv exposes the host's allow-listed environment; undeclared or
// unset variables yield None.
func starGetenv(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string

	err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &name)
	if err != nil {
		return nil, err
	}

	value, ok := getCtx(thread).host.Getenv(name)
	if !ok {
		return starlark.None, nil
	}

	return starlark.String(value), nil
}

func starWhich(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string

	err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &name)
	if err != nil {
		return nil, err
	}

	path, ok := getCtx(thread).host.Which(name)
	if !ok {
		return starlark.None, nil
	}

	return starlark.String(path), nil
}

var defaultOpenHandler = interp.DefaultOpenHandler()

// openHandler maps the portable /dev/null spelling to the platform's null
// device.
func openHandler(ctx context.Context, path string, flag int, perm os.FileMode) (io.ReadWriteCloser, error) {
	if path == "/dev/null" {
		path = os.DevNull
	}

	return defaultOpenHandler(ctx, path, flag, perm)
}

// observedEnv assembles the shell environment from the allow-listed
// variables the host exposes.
func observedEnv(host hostenv.Host) []string {
	env := make([]string, 0, len(hostenv.ObservedVariables))
	for _, name := range hostenv.ObservedVariables {
		if value, ok := host.Getenv(name); ok {
			env = append(env, name+"="+value)
		}
	}

	return env
}

// starExec runs a shell command and returns its output, either as plain text
// or decoded from JSON. A failing command yields False instead of an error
// so scripts can probe speculatively.
func starExec(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var command string
	var outputFormat string
	var showError bool

	err := starlark.UnpackArgs(fn.Name(), args, kwargs, "command", &command, "format?", &outputFormat, "show_error?", &showError)
	if err != nil {
		return nil, err
	}

	if outputFormat == "" {
		outputFormat = "text"
	}
	if outputFormat != "text" && outputFormat != "json" {
		return nil, eris.Errorf("unsupported format %s", outputFormat)
	}

	octx := getCtx(thread)

	file, err := syntax.NewParser().Parse(strings.NewReader(command), fn.Name())
	if err != nil {
		return nil, eris.Wrap(err, "failed to parse command")
	}

	outputBuffer := strings.Builder{}
	var errOut io.Writer
	if showError {
		errOut = os.Stderr
	}

	runner, err := interp.New(
		interp.Env(expand.ListEnviron(observedEnv(octx.host)...)),
		interp.OpenHandler(openHandler),
		interp.StdIO(nil, &outputBuffer, errOut),
		interp.Params("-e"),
	)
	if err != nil {
		return nil, eris.Wrap(err, "failed to initialize the shell runner")
	}

	err = runner.Run(octx.ctx, file)
	if err != nil {
		if showError {
			cclog.Log(octx.ctx).Error().Err(err).Msg("shell error")
		}
		return starlark.False, nil
	}

	if outputFormat == "json" {
		var decoded interface{}
		err = json.Unmarshal([]byte(outputBuffer.String()), &decoded)
		if err != nil {
			return nil, eris.Wrap(err, "failed to parse the command output")
		}

		return jsonToStarlark(decoded)
	}

	return starlark.String(outputBuffer.String()), nil
}

func jsonToStarlark(value interface{}) (starlark.Value, error) {
	switch value := value.(type) {
	case nil:
		return starlark.None, nil
	case string:
		return starlark.String(value), nil
	case bool:
		return starlark.Bool(value), nil
	case float64:
		return starlark.Float(value), nil
	case []interface{}:
		tuple := make(starlark.Tuple, len(value))
		for idx, item := range value {
			converted, err := jsonToStarlark(item)
			if err != nil {
				return nil, err
			}
			tuple[idx] = converted
		}

		return tuple, nil
	case map[string]interface{}:
		dict := starlark.NewDict(len(value))
		for key, item := range value {
			converted, err := jsonToStarlark(item)
			if err != nil {
				return nil, err
			}

			if err := dict.SetKey(starlark.String(key), converted); err != nil {
				return nil, err
			}
		}

		return dict, nil
	}

	return nil, eris.Errorf("can't convert %T to a script value", value)
}
