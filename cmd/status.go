package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"displayctl/internal/brightness"
)

var statusCmd = &cobra.Command{
	Use:   "status <display-id>",
	Short: "Get the current brightness of a display",
	Long:  "Read the hardware and software brightness of one display. IDs are shown by the list command.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		display, err := session.Display(args[0])
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), cfg.Output, display, func(w io.Writer) {
			printDisplays(w, []brightness.Display{display})
		})
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
