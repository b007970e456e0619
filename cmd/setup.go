package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"displayctl/internal/privilege"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Grant the current user access to the i2c buses",
	Long: `Loads i2c-dev and, when the buses are not accessible, asks through pkexec to
create the i2c group, add you to it and install a udev rule. Linux only.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch res := bootstrap.Setup(); res {
		case privilege.AlreadyAccessible:
			fmt.Fprintln(out, "i2c buses are already accessible")
		case privilege.Granted:
			fmt.Fprintln(out, "i2c access granted")
		case privilege.NeedsRelogin:
			fmt.Fprintln(out, "i2c access configured; log out and back in for the group membership to apply")
		case privilege.Refused:
			return fmt.Errorf("authorization was refused")
		default:
			return fmt.Errorf("i2c access could not be set up on this system (%s)", res)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
