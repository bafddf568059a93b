package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	sim "github.com/triage-sim/triage-sim/sim"
	"github.com/triage-sim/triage-sim/sim/workload"
)

// defaultsCmd prints the built-in config and workload spec so they can be
// saved and edited as --config and --workload files.
var defaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Print the default simulation config and workload spec as YAML",
	Run: func(cmd *cobra.Command, args []string) {
		if err := writeDefaults(os.Stdout); err != nil {
			logrus.Fatalf("Failed to render defaults: %v", err)
		}
	},
}

func writeDefaults(w io.Writer) error {
	cfg, err := sim.DefaultConfig().YAML()
	if err != nil {
		return err
	}
	spec, err := yaml.Marshal(workload.DefaultSpec())
	if err != nil {
		return fmt.Errorf("rendering workload spec: %w", err)
	}
	_, err = fmt.Fprintf(w, "# --config\n%s---\n# --workload\n%s", cfg, spec)
	return err
}
