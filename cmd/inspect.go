package cmd

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ngld/ccprobe/pkg/cclog"
	"github.com/ngld/ccprobe/pkg/crosstool"
	"github.com/ngld/ccprobe/pkg/hostenv"
)

type compilerReport struct {
	Path string `yaml:"path"`
	// Version is the compiler's own -dumpversion output, Normalized the
	// semver reading of it (empty when the output isn't a version at all).
	Version    string `yaml:"version,omitempty"`
	Normalized string `yaml:"normalized,omitempty"`
}

// inspectReport is the YAML document the inspect command prints.
type inspectReport struct {
	CPU         string            `yaml:"cpu"`
	Family      string            `yaml:"family"`
	Compiler    *compilerReport   `yaml:"compiler,omitempty"`
	GoldLinker  bool              `yaml:"gold_linker"`
	IncludeDirs []string          `yaml:"include_dirs,omitempty"`
	Environment map[string]string `yaml:"environment,omitempty"`
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print a summary of the detected toolchain",
	Long: `Runs the same probes as configure but prints a YAML summary instead of
writing the descriptor. The environment section lists the recognized
variables that are set and therefore influenced the result.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, _, err := loadConfig()
		if err != nil {
			return err
		}

		host := hostenv.NewSystem()
		defer host.Close()

		desc, err := crosstool.Build(ctx, host)
		if err != nil {
			host.Close()
			cclog.Log(ctx).Fatal().Err(err).Msg("Could not configure the C++ toolchain")
		}

		report := buildReport(desc, host)
		data, err := yaml.Marshal(&report)
		if err != nil {
			return eris.Wrap(err, "failed to encode the summary")
		}

		fmt.Print(string(data))
		return nil
	},
}

// buildReport assembles the YAML document from the probed descriptor.
func buildReport(desc *crosstool.Descriptor, host hostenv.Host) inspectReport {
	report := inspectReport{
		CPU:         desc.CPU,
		Family:      desc.Family.String(),
		GoldLinker:  desc.GoldLinker,
		IncludeDirs: desc.IncludeDirs,
		Environment: observedValues(host),
	}

	if desc.Compiler.Path != "" {
		report.Compiler = &compilerReport{
			Path:    desc.Compiler.Path,
			Version: desc.Compiler.RawVersion,
		}
		if desc.Compiler.Version != nil {
			report.Compiler.Normalized = desc.Compiler.Version.String()
		}
	}

	return report
}

// observedValues collects the recognized environment variables that are set.
func observedValues(host hostenv.Host) map[string]string {
	values := make(map[string]string)
	for _, name := range hostenv.ObservedVariables {
		if value, ok := host.Getenv(name); ok {
			values[name] = value
		}
	}
	return values
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
