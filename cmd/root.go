package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/triage-sim/triage-sim/sim"
	"github.com/triage-sim/triage-sim/sim/workload"
)

var (
	// Input files
	configPath   string // YAML file for sim.Config
	workloadPath string // YAML file for workload.Spec

	// Workload overrides
	seed     int64 // Seed for patient generation
	patients int   // Number of patients

	// Facility overrides
	threshold    int           // Lane load threshold
	responders   int           // Responder pool size
	shiftStart   float64       // Minutes since midnight at which worker clocks start
	backoff      time.Duration // Pause between responder rescans
	serviceScale time.Duration // Wall-clock delay per simulated minute of responder service
	privileged   string        // Class served first within a lane
	openPolicy   string        // Lane opening policy
	maxLanes     int           // Cap on open lanes, 0 = unlimited

	// Output
	logLevel    string // Log verbosity level
	metricsFile string // Prometheus text exposition output path
	noColor     bool   // Disable colored report
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "triage-sim",
	Short: "Patient-flow simulator for caretaker lanes and emergency responders",
}

// runCmd executes the simulation using parameters from the config files and CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the patient-flow simulation",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
		if noColor {
			color.NoColor = true
		}

		cfg, err := resolveConfig(cmd)
		if err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}
		spec, err := resolveWorkload(cmd)
		if err != nil {
			logrus.Fatalf("Invalid workload: %v", err)
		}

		logrus.Infof("Starting simulation: %d patients, threshold=%d, responders=%d, policy=%s, privileged=%s",
			spec.Patients, cfg.LaneLoadThreshold, cfg.ResponderPoolSize, cfg.OpenPolicy, cfg.PrivilegedClass)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		startTime := time.Now()
		if err := runSimulation(ctx, cfg, spec, os.Stdout, metricsFile); err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
		logrus.Infof("Simulation complete in %v.", time.Since(startTime).Round(time.Millisecond))
	},
}

// resolveConfig loads --config (or the defaults) and applies every flag the
// user set explicitly. Flags left at their defaults never overwrite file values.
func resolveConfig(cmd *cobra.Command) (sim.Config, error) {
	cfg := sim.DefaultConfig()
	if configPath != "" {
		loaded, err := sim.LoadConfig(configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	flags := cmd.Flags()
	if flags.Changed("threshold") {
		cfg.LaneLoadThreshold = threshold
	}
	if flags.Changed("responders") {
		cfg.ResponderPoolSize = responders
	}
	if flags.Changed("shift-start") {
		cfg.ShiftStart = shiftStart
	}
	if flags.Changed("backoff") {
		cfg.ReassignBackoff = backoff
	}
	if flags.Changed("service-scale") {
		cfg.ServiceTimeScale = serviceScale
	}
	if flags.Changed("privileged") {
		p, err := sim.ParsePriorityClass(privileged)
		if err != nil {
			return cfg, err
		}
		cfg.PrivilegedClass = p
	}
	if flags.Changed("open-policy") {
		cfg.OpenPolicy = sim.OpenPolicy(openPolicy)
	}
	if flags.Changed("max-lanes") {
		cfg.MaxLanes = maxLanes
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// resolveWorkload loads --workload (or the reference day) and applies the
// --seed and --patients overrides when set.
func resolveWorkload(cmd *cobra.Command) (*workload.Spec, error) {
	spec := workload.DefaultSpec()
	if workloadPath != "" {
		loaded, err := workload.LoadSpec(workloadPath)
		if err != nil {
			return nil, err
		}
		spec = *loaded
	}
	if cmd.Flags().Changed("seed") {
		spec.Seed = seed
	}
	if cmd.Flags().Changed("patients") {
		spec.Patients = patients
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}

// runSimulation generates the workload, runs it, prints the report to w and
// writes the metrics registry to metricsPath when non-empty.
func runSimulation(ctx context.Context, cfg sim.Config, spec *workload.Spec, w io.Writer, metricsPath string) error {
	entities, err := workload.GenerateEntities(spec)
	if err != nil {
		return err
	}
	reg := prometheus.NewRegistry()
	s, err := sim.NewSimulator(cfg, sim.NewMetrics(reg))
	if err != nil {
		return err
	}
	result, err := s.Run(ctx, entities)
	if err != nil {
		return err
	}
	printReport(w, result)
	if metricsPath != "" {
		if err := prometheus.WriteToTextfile(metricsPath, reg); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
		logrus.Infof("Metrics written to %s", metricsPath)
	}
	return nil
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	defaults := sim.DefaultConfig()
	day := workload.DefaultSpec()

	runCmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML simulation config")
	runCmd.Flags().StringVar(&workloadPath, "workload", "", "Path to a YAML workload spec")
	runCmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")

	// Workload overrides
	runCmd.Flags().Int64Var(&seed, "seed", day.Seed, "Seed for patient generation")
	runCmd.Flags().IntVar(&patients, "patients", day.Patients, "Number of patients")

	// Facility overrides
	runCmd.Flags().IntVar(&threshold, "threshold", defaults.LaneLoadThreshold, "Max patients per caretaker lane before another opens")
	runCmd.Flags().IntVar(&responders, "responders", defaults.ResponderPoolSize, "Number of emergency responders")
	runCmd.Flags().Float64Var(&shiftStart, "shift-start", defaults.ShiftStart, "Shift start in minutes since midnight")
	runCmd.Flags().DurationVar(&backoff, "backoff", defaults.ReassignBackoff, "Pause between responder scans when all are busy")
	runCmd.Flags().DurationVar(&serviceScale, "service-scale", defaults.ServiceTimeScale, "Wall-clock delay per simulated minute of responder service")
	runCmd.Flags().StringVar(&privileged, "privileged", defaults.PrivilegedClass.String(), "Class served first within a lane (normal, critical)")
	runCmd.Flags().StringVar(&openPolicy, "open-policy", string(defaults.OpenPolicy), "Lane opening policy (lazy, eager)")
	runCmd.Flags().IntVar(&maxLanes, "max-lanes", defaults.MaxLanes, "Cap on open caretaker lanes (0 = unlimited)")

	// Output
	runCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus text metrics to this file")
	runCmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(defaultsCmd)
}
