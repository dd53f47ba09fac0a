package crosstool

import "strings"

const (
	fieldIndent = "  "
	modeIndent  = "    "
)

// descriptorTemplate frames the serialized toolchain fields. The build
// system picks the toolchain through the default_toolchain entry matching
// the host cpu.
const descriptorTemplate = `major_version: "local"
minor_version: ""
default_target_cpu: "same_as_host"

default_toolchain {
  cpu: "%{cpu}"
  toolchain_identifier: "local"
}

toolchain {
  toolchain_identifier: "local"
%{content}

  compilation_mode_flags {
    mode: DBG
%{dbg_content}
  }
  compilation_mode_flags {
    mode: OPT
%{opt_content}
  }
  linking_mode_flags { mode: DYNAMIC }
}
`

// Render produces the final descriptor text.
func (d *Descriptor) Render() string {
	content := d.literal
	optContent := ""
	dbgContent := ""

	if content == "" {
		content = d.Content.Render(fieldIndent)
		if len(d.ToolPaths) > 0 {
			content += "\n" + RenderToolPaths(fieldIndent, d.ToolPaths)
		}

		optContent = d.Opt.Render(modeIndent)
		dbgContent = d.Dbg.Render(modeIndent)
	}

	return strings.NewReplacer(
		"%{cpu}", d.CPU,
		"%{content}", content,
		"%{dbg_content}", dbgContent,
		"%{opt_content}", optContent,
	).Replace(descriptorTemplate)
}
