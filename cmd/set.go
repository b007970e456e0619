package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var setCmd = &cobra.Command{
	Use:   "set <display-id> <level>",
	Short: "Set the hardware brightness of a display",
	Long: `Set the hardware brightness of a display. The level is a fraction (0.5) or a
percentage (50%). Out of range values are clamped.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := parseLevel(args[1])
		if err != nil {
			return err
		}
		ok, err := session.SetBrightness(args[0], level)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no backend could set the brightness of %s", args[0])
		}
		if verbose {
			fmt.Fprintf(cmd.OutOrStdout(), "%s set to %s via %s\n", args[0], percent(level), session.Routes()[args[0]].Backend)
		}
		return nil
	},
}

var softCmd = &cobra.Command{
	Use:   "soft <display-id> <level>",
	Short: "Set the software (gamma) brightness of a display",
	Long: `Dim a display through its gamma ramp without touching the backlight. Colours
wash out at low levels. Use 1 or 100% to restore.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := parseLevel(args[1])
		if err != nil {
			return err
		}
		ok, err := session.SetSoftwareBrightness(args[0], level)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("gamma adjustment is not available for %s", args[0])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(softCmd)
}
