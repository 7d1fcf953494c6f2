package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ava-labs/crank/consts"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", consts.Name, consts.Version)
		},
	}
}
