// Package crosstool models the toolchain descriptor: an ordered,
// schema-checked field set per build mode, the serializer that renders it in
// the descriptor's key/value grammar and the builder that fills it from host
// probes.
package crosstool

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Kind describes the value type a descriptor field accepts.
type Kind int

const (
	KindString Kind = iota
	KindBool
	KindStringList
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindStringList:
		return "list of strings"
	default:
		return "string"
	}
}

// schema fixes the set of legal toolchain fields and their kinds. Fields
// outside this set are never emitted.
var schema = map[string]Kind{
	"abi_version":                       KindString,
	"abi_libc_version":                  KindString,
	"builtin_sysroot":                   KindString,
	"compiler":                          KindString,
	"host_system_name":                  KindString,
	"needsPic":                          KindBool,
	"supports_gold_linker":              KindBool,
	"supports_incremental_linker":       KindBool,
	"supports_fission":                  KindBool,
	"supports_interface_shared_objects": KindBool,
	"supports_normalizing_ar":           KindBool,
	"supports_start_end_lib":            KindBool,
	"supports_thin_archives":            KindBool,
	"target_libc":                       KindString,
	"target_cpu":                        KindString,
	"target_system_name":                KindString,
	"cxx_flag":                          KindStringList,
	"linker_flag":                       KindStringList,
	"ar_flag":                           KindStringList,
	"cxx_builtin_include_directory":     KindStringList,
	"objcopy_embed_flag":                KindStringList,
	"unfiltered_cxx_flag":               KindStringList,
	"compiler_flag":                     KindStringList,
}

// KindOf reports the schema kind of the given field name.
func KindOf(key string) (Kind, bool) {
	kind, ok := schema[key]
	return kind, ok
}

type entry struct {
	key  string
	kind Kind
	str  string
	flag bool
	list []string
}

// Config is the ordered field set of a toolchain descriptor. Fields render
// in the order they were first set and list fields repeat their key once per
// element, never sorted. The zero value isn't usable, use NewConfig.
type Config struct {
	entries []entry
	index   map[string]int
}

func NewConfig() *Config {
	return &Config{index: make(map[string]int)}
}

func (c *Config) put(e entry) {
	if pos, ok := c.index[e.key]; ok {
		c.entries[pos] = e
		return
	}

	c.index[e.key] = len(c.entries)
	c.entries = append(c.entries, e)
}

func mustBeKind(key string, kind Kind) {
	actual, ok := schema[key]
	if !ok {
		panic(fmt.Sprintf("unknown toolchain field %q", key))
	}
	if actual != kind {
		panic(fmt.Sprintf("toolchain field %q holds a %s, not a %s", key, actual, kind))
	}
}

// SetString assigns a string field. Unknown fields and kind mismatches are
// programmer errors and panic; validated input goes through Set instead.
func (c *Config) SetString(key, value string) {
	mustBeKind(key, KindString)
	c.put(entry{key: key, kind: KindString, str: value})
}

func (c *Config) SetBool(key string, value bool) {
	mustBeKind(key, KindBool)
	c.put(entry{key: key, kind: KindBool, flag: value})
}

func (c *Config) SetList(key string, values []string) {
	mustBeKind(key, KindStringList)
	c.put(entry{key: key, kind: KindStringList, list: values})
}

// Set assigns a field from untyped input, validating both the field name and
// the value type against the schema. This is the write path for overlay
// scripts.
func (c *Config) Set(key string, value interface{}) error {
	kind, ok := schema[key]
	if !ok {
		return eris.Errorf("unknown toolchain field %q", key)
	}

	switch kind {
	case KindString:
		str, ok := value.(string)
		if !ok {
			return eris.Errorf("the toolchain field %q expects a %s", key, kind)
		}
		c.put(entry{key: key, kind: kind, str: str})
	case KindBool:
		flag, ok := value.(bool)
		if !ok {
			return eris.Errorf("the toolchain field %q expects a %s", key, kind)
		}
		c.put(entry{key: key, kind: kind, flag: flag})
	case KindStringList:
		list, ok := value.([]string)
		if !ok {
			return eris.Errorf("the toolchain field %q expects a %s", key, kind)
		}
		c.put(entry{key: key, kind: kind, list: list})
	}

	return nil
}

// Get returns the current value of a field as string, bool or []string.
func (c *Config) Get(key string) (interface{}, bool) {
	pos, ok := c.index[key]
	if !ok {
		return nil, false
	}

	e := c.entries[pos]
	switch e.kind {
	case KindBool:
		return e.flag, true
	case KindStringList:
		return e.list, true
	default:
		return e.str, true
	}
}

// Keys returns the field names in the order they were set.
func (c *Config) Keys() []string {
	keys := make([]string, len(c.entries))
	for i, e := range c.entries {
		keys[i] = e.key
	}

	return keys
}

// Render serializes the fields, one line per value with the given prefix.
// String values are inserted verbatim between the quotes; anything that
// needs escaping has to be escaped at construction time.
func (c *Config) Render(prefix string) string {
	var lines []string
	for _, e := range c.entries {
		switch e.kind {
		case KindBool:
			lines = append(lines, fmt.Sprintf("%s%s: %t", prefix, e.key, e.flag))
		case KindStringList:
			for _, value := range e.list {
				lines = append(lines, fmt.Sprintf("%s%s: \"%s\"", prefix, e.key, value))
			}
		default:
			lines = append(lines, fmt.Sprintf("%s%s: \"%s\"", prefix, e.key, e.str))
		}
	}

	return strings.Join(lines, "\n")
}

// ToolPath names the executable the build system should use for one tool.
type ToolPath struct {
	Name string
	Path string
}

// RenderToolPaths serializes tool_path blocks, one per line with the given
// prefix.
func RenderToolPaths(prefix string, paths []ToolPath) string {
	var lines []string
	for _, p := range paths {
		lines = append(lines, fmt.Sprintf("%stool_path { name: \"%s\" path: \"%s\" }", prefix, p.Name, p.Path))
	}

	return strings.Join(lines, "\n")
}
