package main

import (
	"bytes"
	"coach/internal/diagnostic"
	"coach/internal/engine"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	requestFile = "../examples/request.yaml"
	evaluatedAt = "2024-06-15T00:00:00Z"
)

// writeConfig points a copy of the sample configuration at the sample dataset and rules.
func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	dataset, err := filepath.Abs("../examples/dataset.yaml")
	require.NoError(t, err)
	rules, err := filepath.Abs("../examples/rules.yaml")
	require.NoError(t, err)

	content := fmt.Sprintf(`
logger:
  level: error
facts:
  file: %s
rules:
  file: %s
engine:
  combine: minimum
  scorers:
    - submetric: market
      model: diag-market-stress
    - submetric: habits
      model: diag-application-rhythm
audit:
  file: %s
`, dataset, rules, filepath.Join(dir, "diagnostics.jsonl"))
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))
	return file
}

func run(t *testing.T, args ...string) []byte {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append([]string{"--config", writeConfig(t)}, args...))
	require.NoError(t, rootCmd.Execute())
	return out.Bytes()
}

func TestLoadRequest(t *testing.T) {
	request, err := LoadRequest(requestFile)
	require.NoError(t, err)

	assert.Equal(t, "Sophie", request.User.Name)
	assert.Equal(t, []string{"INTERVIEW"}, request.User.Frustrations)
	assert.Equal(t, "M1607", request.Project.JobGroupID)
	assert.Equal(t, "31", request.Project.DepartementID)
	assert.Equal(t, []string{"network"}, request.Project.Strategies)
	assert.Equal(t, 2023, request.Project.JobSearchStartedAt.Year())
	assert.True(t, request.Features.Enabled("show_testimonials"))
}

func TestLoadRequest_Invalid(t *testing.T) {
	file := filepath.Join(t.TempDir(), "request.yaml")
	require.NoError(t, os.WriteFile(file, []byte("user: [unclosed"), 0o600))

	_, err := LoadRequest(file)
	assert.Error(t, err)

	_, err = LoadRequest(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestScoreCommand(t *testing.T) {
	out := run(t, "score", "-r", requestFile, "--now", evaluatedAt,
		"for-stressed-market", "for-experienced", "for-frustrated-by-interviews")

	var outputs []scoreOutput
	require.NoError(t, json.Unmarshal(out, &outputs))
	require.Len(t, outputs, 3)

	require.NotNil(t, outputs[0].Score)
	assert.Equal(t, 3.0, *outputs[0].Score)
	require.NotNil(t, outputs[1].Score)
	assert.Equal(t, 0.0, *outputs[1].Score, "seniority 2 is not experienced")
	require.NotNil(t, outputs[2].Score)
	assert.Equal(t, 3.0, *outputs[2].Score)
}

func TestFilterCommand_Best(t *testing.T) {
	t.Cleanup(func() { filterBest = false })
	out := run(t, "filter", "job_boards", "--best", "-r", requestFile, "--now", evaluatedAt)

	var best engine.Record
	require.NoError(t, json.Unmarshal(out, &best))
	assert.Equal(t, "toulouse-jobs", best.ID)
}

func TestDiagnoseCommand(t *testing.T) {
	out := run(t, "diagnose", "-r", requestFile, "--now", evaluatedAt)

	var d diagnostic.Diagnostic
	require.NoError(t, json.Unmarshal(out, &d))
	assert.Equal(t, "project-1", d.ProjectID)
	assert.Len(t, d.Submetrics, 2)
	assert.Contains(t, d.Examples, "secretariat")
}

func TestSelftestCommand(t *testing.T) {
	out := run(t, "selftest")

	assert.Equal(t, "ok\n", string(out))
}

func TestMetricsTextfile(t *testing.T) {
	t.Cleanup(func() { metricsTextfile = "" })
	file := filepath.Join(t.TempDir(), "coach.prom")
	run(t, "filter", "advice_modules", "-r", requestFile, "--now", evaluatedAt, "--metrics-textfile", file)

	content, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(content), "coach_filter_evaluations_total")
}
