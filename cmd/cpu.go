package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ngld/ccprobe/pkg/hostenv"
	"github.com/ngld/ccprobe/pkg/probe"
)

var cpuCmd = &cobra.Command{
	Use:   "cpu",
	Short: "Print the platform identifier for this host",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, _, err := loadConfig()
		if err != nil {
			return err
		}

		host := hostenv.NewSystem()
		defer host.Close()

		fmt.Println(probe.CPUValue(ctx, host))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cpuCmd)
}
