package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aryankumar/batchexec/internal/output"
	"github.com/aryankumar/batchexec/pkg/version"
)

// newVersionCmd creates the version command
func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Display detailed version information for batchexec",
		// Version output needs no configuration
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion(cmd)
		},
	}

	return cmd
}

func runVersion(cmd *cobra.Command) error {
	info := version.Get()
	w := cmd.OutOrStdout()

	format, _ := cmd.Flags().GetString("output")
	if format == "" {
		fmt.Fprintln(w, info.String())
		return nil
	}

	parsed, err := output.ParseFormat(format)
	if err != nil {
		return err
	}
	noColor, _ := cmd.Flags().GetBool("no-color")

	return output.NewFormatter(parsed, output.WithNoColor(noColor)).Format(w, info.Fields())
}
