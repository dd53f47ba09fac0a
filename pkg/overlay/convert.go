package overlay

import (
	"github.com/rotisserie/eris"
	"go.starlark.net/starlark"

	"github.com/ngld/ccprobe/pkg/crosstool"
)

func configToDict(conf *crosstool.Config) (*starlark.Dict, error) {
	keys := conf.Keys()
	dict := starlark.NewDict(len(keys))

	for _, key := range keys {
		value, _ := conf.Get(key)

		var starValue starlark.Value
		switch value := value.(type) {
		case string:
			starValue = starlark.String(value)
		case bool:
			starValue = starlark.Bool(value)
		case []string:
			tuple := make(starlark.Tuple, len(value))
			for idx, item := range value {
				tuple[idx] = starlark.String(item)
			}
			starValue = tuple
		}

		if err := dict.SetKey(starlark.String(key), starValue); err != nil {
			return nil, err
		}
	}

	return dict, nil
}

// writeBack copies the dict entries into the config, validating names and
// kinds against the schema. Entries removed from the dict keep their old
// value, there is no way to unset a field.
func writeBack(dict *starlark.Dict, conf *crosstool.Config) error {
	for _, item := range dict.Items() {
		key, ok := item[0].(starlark.String)
		if !ok {
			return eris.Errorf("toolchain keys must be strings, got a %s", item[0].Type())
		}

		name := key.GoString()
		kind, ok := crosstool.KindOf(name)
		if !ok {
			return eris.Errorf("unknown toolchain field %q", name)
		}

		value, err := starlarkValue(kind, item[1])
		if err != nil {
			return eris.Wrapf(err, "invalid value for the toolchain field %q", name)
		}

		if err := conf.Set(name, value); err != nil {
			return err
		}
	}

	return nil
}

// starlarkValue converts a script value to the Go value the field's kind
// expects.
func starlarkValue(kind crosstool.Kind, value starlark.Value) (interface{}, error) {
	switch kind {
	case crosstool.KindString:
		str, ok := value.(starlark.String)
		if !ok {
			return nil, eris.Errorf("got a %s, expected a %s", value.Type(), kind)
		}
		return str.GoString(), nil

	case crosstool.KindBool:
		flag, ok := value.(starlark.Bool)
		if !ok {
			return nil, eris.Errorf("got a %s, expected a %s", value.Type(), kind)
		}
		return bool(flag), nil
	}

	switch value := value.(type) {
	case starlark.Tuple:
		return stringSlice(value)
	case *starlark.List:
		items := make(starlark.Tuple, value.Len())
		for idx := 0; idx < value.Len(); idx++ {
			items[idx] = value.Index(idx)
		}
		return stringSlice(items)
	}

	return nil, eris.Errorf("got a %s, expected a %s", value.Type(), kind)
}

func stringSlice(items starlark.Tuple) ([]string, error) {
	result := make([]string, len(items))
	for idx, item := range items {
		str, ok := item.(starlark.String)
		if !ok {
			return nil, eris.Errorf("element %d is a %s, expected string", idx, item.Type())
		}
		result[idx] = str.GoString()
	}

	return result, nil
}
