package main

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/PizzaHomicide/reelcore/internal/config"
)

var (
	envNameStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	envSetStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#43BF6D"))
	envUnsetStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#777777"))
)

func init() {
	rootCmd.AddCommand(envCmd)
	envCmd.Flags().BoolP("set-only", "s", false, "Only show variables that are set")
}

// envCmd prints the supported environment variables and their current values
var envCmd = &cobra.Command{
	Use:   "env",
	Short: "List the environment variables that override the configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		setOnly, err := cmd.Flags().GetBool("set-only")
		if err != nil {
			return err
		}

		for _, entry := range config.EnvVarHelp() {
			name, desc := entry[0], entry[1]
			value, present := os.LookupEnv(name)
			if setOnly && !present {
				continue
			}

			cmd.Print(envNameStyle.Render(name), "=")
			if present {
				cmd.Print(envSetStyle.Render(value))
			} else {
				cmd.Print(envUnsetStyle.Render("unset"))
			}
			cmd.Println(envUnsetStyle.Render("  # " + desc))
		}
		return nil
	},
}
