package probe

import "fmt"

// MissingEnvVarError is reported when a required environment variable is
// unset and no default was supplied.
type MissingEnvVarError struct {
	Name string
}

var _ error = (*MissingEnvVarError)(nil)

func (e MissingEnvVarError) Error() string {
	return fmt.Sprintf("the environment variable %s is not set", e.Name)
}

// ToolNotFoundError is reported when a required tool can't be found on the
// search path and no default was supplied.
type ToolNotFoundError struct {
	Name string
	Path string
}

var _ error = (*ToolNotFoundError)(nil)

func (e ToolNotFoundError) Error() string {
	return fmt.Sprintf("cannot find %s on the search path (%s)", e.Name, e.Path)
}
