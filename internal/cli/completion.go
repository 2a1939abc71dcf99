package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aryankumar/batchexec/internal/output"
)

// newCompletionCmd creates the completion command for generating shell completions
func newCompletionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a shell completion script for batchexec and write it to stdout.

  bash:        source <(batchexec completion bash)
  zsh:         batchexec completion zsh > "${fpath[1]}/_batchexec"
  fish:        batchexec completion fish | source
  powershell:  batchexec completion powershell | Out-String | Invoke-Expression

The --output flag completes to the supported formats.`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		// Skip parent's PersistentPreRunE (config loading) for completion command
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompletion(cmd, args[0])
		},
	}

	return cmd
}

func runCompletion(cmd *cobra.Command, shell string) error {
	root, w := cmd.Root(), cmd.OutOrStdout()
	switch shell {
	case "bash":
		return root.GenBashCompletionV2(w, true)
	case "zsh":
		return root.GenZshCompletion(w)
	case "fish":
		return root.GenFishCompletion(w, true)
	case "powershell":
		return root.GenPowerShellCompletionWithDesc(w)
	default:
		return fmt.Errorf("unsupported shell type %q", shell)
	}
}

// completeOutputFormat offers the formats accepted by --output
func completeOutputFormat(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	formats := []string{
		string(output.FormatTable) + "\tborderless table",
		string(output.FormatJSON) + "\tindented JSON",
		string(output.FormatYAML) + "\tYAML",
	}
	return formats, cobra.ShellCompDirectiveNoFileComp
}
