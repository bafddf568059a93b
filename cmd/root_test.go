package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sim "github.com/triage-sim/triage-sim/sim"
	"github.com/triage-sim/triage-sim/sim/workload"
)

// setFlag sets a run flag for the duration of the test.
func setFlag(t *testing.T, name, value string) {
	t.Helper()
	f := runCmd.Flags().Lookup(name)
	require.NotNil(t, f, "flag %s", name)
	require.NoError(t, runCmd.Flags().Set(name, value))
	t.Cleanup(func() {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
}

func setPath(t *testing.T, target *string, value string) {
	t.Helper()
	old := *target
	*target = value
	t.Cleanup(func() { *target = old })
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestResolveConfig_DefaultsWithoutFlags(t *testing.T) {
	cfg, err := resolveConfig(runCmd)
	require.NoError(t, err)
	assert.Equal(t, sim.DefaultConfig(), cfg)
}

func TestResolveConfig_ChangedFlagsOverrideFile(t *testing.T) {
	// GIVEN a config file with threshold 10 and 3 responders
	setPath(t, &configPath, writeFile(t, "config.yaml", "lane_load_threshold: 10\nresponder_pool_size: 3\n"))

	// WHEN only --responders is passed on the command line
	setFlag(t, "responders", "7")
	setFlag(t, "privileged", "normal")
	cfg, err := resolveConfig(runCmd)

	// THEN the flag wins for responders and the file value stays for threshold
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.LaneLoadThreshold)
	assert.Equal(t, 7, cfg.ResponderPoolSize)
	assert.Equal(t, sim.Normal, cfg.PrivilegedClass)
}

func TestResolveConfig_InvalidFlagValue(t *testing.T) {
	setFlag(t, "open-policy", "greedy")
	_, err := resolveConfig(runCmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open policy")
}

func TestResolveConfig_UnknownPrivilegedClass(t *testing.T) {
	setFlag(t, "privileged", "vip")
	_, err := resolveConfig(runCmd)
	assert.Error(t, err)
}

func TestResolveWorkload_SeedOverride(t *testing.T) {
	// GIVEN a workload file with seed 42
	setPath(t, &workloadPath, writeFile(t, "workload.yaml", "seed: 42\npatients: 10\n"))

	// WHEN --seed is set
	setFlag(t, "seed", "100")
	spec, err := resolveWorkload(runCmd)

	// THEN the CLI seed replaces the file seed, patients stay as in the file
	require.NoError(t, err)
	assert.Equal(t, int64(100), spec.Seed)
	assert.Equal(t, 10, spec.Patients)
}

func TestRunSimulation_PrintsReportAndWritesMetrics(t *testing.T) {
	color.NoColor = true

	// GIVEN a small workload and no service delay
	cfg := sim.DefaultConfig()
	cfg.LaneLoadThreshold = 5
	cfg.ServiceTimeScale = 0
	cfg.ReassignBackoff = time.Millisecond
	spec := workload.DefaultSpec()
	spec.Patients = 30
	metricsPath := filepath.Join(t.TempDir(), "metrics.prom")

	// WHEN running end to end
	var out bytes.Buffer
	err := runSimulation(context.Background(), cfg, &spec, &out, metricsPath)

	// THEN every report section is printed and metrics are written
	require.NoError(t, err)
	report := out.String()
	assert.Contains(t, report, "CARETAKER PROCESSING DETAILS")
	assert.Contains(t, report, "SIMULATION SUMMARY")
	assert.Contains(t, report, "Total caretakers opened:")
	assert.Contains(t, report, "Normal Patients (")
	assert.Contains(t, report, "Caretaker #1 | Patient ")

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "triage_completions_total")
	assert.Contains(t, string(data), "triage_lanes_opened")
}

func TestWriteDefaults_RoundTrips(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, writeDefaults(&out))
	text := out.String()
	assert.Contains(t, text, "lane_load_threshold: 25")
	assert.Contains(t, text, "privileged_class: critical")
	assert.Contains(t, text, "reassign_backoff: 10ms")
	assert.Contains(t, text, "patients: 100")
}
