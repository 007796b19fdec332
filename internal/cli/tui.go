package cli

import (
	"fmt"
	"os"

	"github.com/andy/invoicer/internal/tui"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the terminal UI",
	Long:  `Launch the interactive terminal user interface for invoicer.`,
	Run:   launchTUI,
}

func launchTUI(cmd *cobra.Command, args []string) {
	if appInstance == nil {
		fmt.Fprintln(os.Stderr, "app not initialized")
		os.Exit(1)
	}

	if err := tui.Run(appInstance); err != nil {
		fmt.Fprintf(os.Stderr, "tui error: %v\n", err)
		os.Exit(1)
	}
}
