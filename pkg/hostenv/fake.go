package hostenv

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
)

// Fake is an in-memory Host for tests. Probe results are registered up front,
// keyed by the space-joined argument list; executing an unregistered command
// yields a spawn error which optional probes treat as "unsupported".
type Fake struct {
	OS      string
	Env     map[string]string
	Tools   map[string]string
	Results map[string]Result
	Errs    map[string]error

	// Calls records every Execute invocation in order
	Calls [][]string
	// Scratch records the content passed to ScratchFile by name
	Scratch map[string][]byte
}

var _ Host = (*Fake)(nil)

func NewFake(osName string) *Fake {
	return &Fake{
		OS:      osName,
		Env:     make(map[string]string),
		Tools:   make(map[string]string),
		Results: make(map[string]Result),
		Errs:    make(map[string]error),
		Scratch: make(map[string][]byte),
	}
}

func (f *Fake) OSName() string {
	return f.OS
}

func (f *Fake) Getenv(name string) (string, bool) {
	value, ok := f.Env[name]
	return value, ok
}

func (f *Fake) Which(cmd string) (string, bool) {
	path, ok := f.Tools[cmd]
	return path, ok
}

// On registers the given result for a command line.
func (f *Fake) On(result Result, args ...string) {
	f.Results[strings.Join(args, " ")] = result
}

// OnErr registers a spawn error for a command line.
func (f *Fake) OnErr(err error, args ...string) {
	f.Errs[strings.Join(args, " ")] = err
}

func (f *Fake) Execute(ctx context.Context, args ...string) (Result, error) {
	f.Calls = append(f.Calls, args)

	key := strings.Join(args, " ")
	if err, ok := f.Errs[key]; ok {
		return Result{}, err
	}

	result, ok := f.Results[key]
	if !ok {
		return Result{}, eris.Errorf("no fake result registered for %q", key)
	}

	return result, nil
}

func (f *Fake) ScratchFile(name string, content []byte) (string, error) {
	f.Scratch[name] = content
	return "/scratch/" + name, nil
}
