// Package overlay applies site-specific Starlark scripts to a computed
// toolchain descriptor. A script declares an amend(toolchain) function which
// receives the descriptor's default mode fields as a dict; the entries are
// validated against the field schema and written back after the call.
package overlay

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.starlark.net/starlark"

	"github.com/ngld/ccprobe/pkg/cclog"
	"github.com/ngld/ccprobe/pkg/crosstool"
	"github.com/ngld/ccprobe/pkg/hostenv"
)

type overlayCtx struct {
	ctx  context.Context
	host hostenv.Host
	path string
}

func getCtx(thread *starlark.Thread) *overlayCtx {
	return thread.Local("overlayCtx").(*overlayCtx)
}

// Apply runs the overlay script at path against the descriptor.
func Apply(ctx context.Context, host hostenv.Host, path string, desc *crosstool.Descriptor) error {
	if desc.Content == nil {
		return eris.New("the MSYS toolchain is a fixed block and can't be amended")
	}

	script, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "failed to read %s", path)
	}

	builtins := starlark.StringDict{
		"CPU":     starlark.String(desc.CPU),
		"FAMILY":  starlark.String(desc.Family.String()),
		"info":    starlark.NewBuiltin("info", starInfo),
		"warn":    starlark.NewBuiltin("warn", starWarn),
		"error":   starlark.NewBuiltin("error", starError),
		"getenv":  starlark.NewBuiltin("getenv", starGetenv),
		"which":   starlark.NewBuiltin("which", starWhich),
		"execute": starlark.NewBuiltin("execute", starExec),
	}

	thread := &starlark.Thread{
		Name: "overlay",
		Print: func(thread *starlark.Thread, msg string) {
			cclog.Log(ctx).Info().Str("thread", thread.Name).Msg(msg)
		},
	}
	thread.SetLocal("overlayCtx", &overlayCtx{ctx: ctx, host: host, path: path})

	globals, err := starlark.ExecFile(thread, filepath.Base(path), script, builtins)
	if err != nil {
		if evalErr, ok := err.(*starlark.EvalError); ok {
			return eris.Errorf("failed to execute %s:\n%s", path, evalErr.Backtrace())
		}
		return eris.Wrapf(err, "failed to execute %s", path)
	}

	amend, ok := globals["amend"]
	if !ok {
		return eris.Errorf("%s did not declare an amend function", path)
	}

	amendFunc, ok := amend.(starlark.Callable)
	if !ok {
		return eris.Errorf("%s did declare an amend value but it's not a function", path)
	}

	dict, err := configToDict(desc.Content)
	if err != nil {
		return err
	}

	_, err = starlark.Call(thread, amendFunc, starlark.Tuple{dict}, nil)
	if err != nil {
		if evalErr, ok := err.(*starlark.EvalError); ok {
			return eris.New(evalErr.Backtrace())
		}
		return eris.Wrapf(err, "failed amend call in %s", path)
	}

	return writeBack(dict, desc.Content)
}
