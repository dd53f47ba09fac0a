package cmd

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ngld/ccprobe/pkg/cclog"
	"github.com/ngld/ccprobe/pkg/crosstool"
	"github.com/ngld/ccprobe/pkg/hostenv"
	"github.com/ngld/ccprobe/pkg/overlay"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Detect the host toolchain and write the descriptor",
	Long: `Locates the host C/C++ compiler, probes its supported flags and writes the
toolchain descriptor. Pass an overlay script to amend the detected values
before they're written.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cfg, err := loadConfig()
		if err != nil {
			return err
		}

		dryRun, err := cmd.Flags().GetBool("dry")
		if err != nil {
			return err
		}

		output, err := cmd.Flags().GetString("output")
		if err != nil {
			return err
		}
		if output == "" {
			output = cfg.Output
		}

		overlayPath, err := cmd.Flags().GetString("overlay")
		if err != nil {
			return err
		}
		if overlayPath == "" {
			overlayPath = cfg.Overlay
		}

		host := hostenv.NewSystem()
		defer host.Close()

		desc, err := crosstool.Build(ctx, host)
		if err != nil {
			host.Close()
			cclog.Log(ctx).Fatal().Err(err).Msg("Could not configure the C++ toolchain")
		}

		if overlayPath != "" {
			err = overlay.Apply(ctx, host, overlayPath, desc)
			if err != nil {
				host.Close()
				cclog.Log(ctx).Fatal().Err(err).Msgf("Overlay %s failed", overlayPath)
			}
		}

		// Render everything up front so a failure never leaves a partial
		// descriptor behind.
		rendered := desc.Render()

		if dryRun {
			fmt.Print(rendered)
			return nil
		}

		err = os.WriteFile(output, []byte(rendered), 0o644)
		if err != nil {
			return eris.Wrapf(err, "failed to write %s", output)
		}

		cclog.Log(ctx).Info().Msgf("Wrote %s for %s", output, desc.CPU)
		return nil
	},
}

func init() {
	configureCmd.Flags().BoolP("dry", "n", false, "print the descriptor instead of writing it")
	configureCmd.Flags().StringP("output", "o", "", "descriptor path (overrides the configured default)")
	configureCmd.Flags().String("overlay", "", "Starlark overlay script (overrides the configured default)")

	rootCmd.AddCommand(configureCmd)
}
