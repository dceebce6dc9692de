package cmd

import (
	"github.com/spf13/cobra"
)

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion script",
		Long: `Generate shell completion script for battly-setup. Useful when the installer
is driven from a shell for scripted deployments.

To load completions:

Bash:
  $ source <(battly-setup completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ battly-setup completion bash > /etc/bash_completion.d/battly-setup
  # macOS:
  $ battly-setup completion bash > $(brew --prefix)/etc/bash_completion.d/battly-setup

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it.  You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ battly-setup completion zsh > "${fpath[1]}/_battly-setup"

  # You will need to start a new shell for this setup to take effect.

  # Oh My Zsh:
  $ mkdir -p ~/.oh-my-zsh/completions
  $ battly-setup completion zsh > ~/.oh-my-zsh/completions/_battly-setup

Fish:
  $ battly-setup completion fish > ~/.config/fish/completions/battly-setup.fish

PowerShell:
  PS> battly-setup completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
}
