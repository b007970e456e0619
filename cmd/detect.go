package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"displayctl/internal/resolver"
	"displayctl/internal/sysinfo"
	"displayctl/internal/topology"
)

type detectReport struct {
	System     sysinfo.Info              `json:"system" yaml:"system"`
	Backends   []string                  `json:"backends" yaml:"backends"`     // Hardware chain in priority order
	Permission string                    `json:"permission" yaml:"permission"` // i2c access state
	Outputs    []topology.Output         `json:"outputs" yaml:"outputs"`
	Routes     map[string]resolver.Route `json:"routes" yaml:"routes"` // Backend that answered per display
	Error      string                    `json:"error,omitempty" yaml:"error,omitempty"`
}

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detects displays and the backends that control them",
	Long: `Reports the operating system, every connected output with its bus candidates,
the backend chain and which backend answered for each display.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		report := detectReport{
			System:   sysinfo.Describe(runner),
			Backends: session.Backends(),
		}
		if _, err := session.ListDisplays(); err != nil {
			report.Error = err.Error()
		}
		report.Outputs = session.Outputs()
		report.Routes = session.Routes()
		report.Permission = bootstrap.State().String()

		return render(cmd.OutOrStdout(), cfg.Output, report, func(w io.Writer) {
			printReport(w, report)
		})
	},
}

func printReport(w io.Writer, r detectReport) {
	fmt.Fprintln(w, r.System.String())
	if r.System.Kernel != "" {
		fmt.Fprintf(w, "Kernel: %s (%s)\n", r.System.Kernel, r.System.Machine)
	}
	fmt.Fprintf(w, "Backends: %s\n", strings.Join(r.Backends, ", "))
	fmt.Fprintf(w, "I2C access: %s\n", r.Permission)
	if r.Error != "" {
		fmt.Fprintf(w, "Discovery failed: %s\n", r.Error)
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "ID\tNAME\tCONNECTOR\tBUSES\tROUTE")
	for _, o := range r.Outputs {
		buses := make([]string, 0, len(o.Buses))
		for _, b := range o.Buses {
			buses = append(buses, fmt.Sprintf("%d(%s)", b.Bus, b.Origin))
		}

		route := "-"
		if rt, ok := r.Routes[o.ID]; ok {
			route = rt.Backend
			if rt.Bus != resolver.NoBus {
				route = fmt.Sprintf("%s:%d", rt.Backend, rt.Bus)
			}
		}

		connector := o.Connector
		if connector == "" {
			connector = o.Device
		}
		if connector == "" {
			connector = "-"
		}
		busList := strings.Join(buses, ",")
		if busList == "" {
			busList = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", o.ID, o.Name, connector, busList, route)
	}
}

func init() {
	rootCmd.AddCommand(detectCmd)
}
