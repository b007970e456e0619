package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"displayctl/internal/brightness"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists connected displays",
	Long:  "Lists every connected display with its hardware and software brightness.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		displays, err := session.ListDisplays()
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), cfg.Output, displays, func(w io.Writer) {
			printDisplays(w, displays)
		})
	},
}

func printDisplays(w io.Writer, displays []brightness.Display) {
	fmt.Fprintln(w, "ID\tNAME\tBUILT-IN\tBRIGHTNESS\tSOFTWARE")
	for _, d := range displays {
		fmt.Fprintf(w, "%s\t%s\t%t\t%s\t%s\n", d.ID, d.Name, d.IsBuiltIn, percent(d.Brightness), percent(d.SoftwareBrightness))
	}
}

func init() {
	rootCmd.AddCommand(listCmd)
}
