/*
 * Copyright (C) 2025-2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package experiment

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"gotest.tools/assert"

	v1 "github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/api/v1"
	"github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/processor"
)

func reportEngine(t *testing.T) (*processor.Engine, string) {
	registry := processor.NewRegistry()
	processor.RegisterBuiltins(registry)
	dataRoot := t.TempDir()
	return processor.NewEngine(registry, registry, dataRoot), dataRoot
}

func reportExperiment(t *testing.T) *v1.Experiment {
	spec := definedSpec()
	spec.OutputLineProcessor = map[string]string{"results.log": "builtin kv"}
	exp, err := New("mnist-1", spec, "/data/experiments/mnist-1", testNow)
	assert.NilError(t, err)
	return exp
}

func hasLine(lines []string, want string) bool {
	for _, line := range lines {
		if line == want {
			return true
		}
	}
	return false
}

func TestReportDefinedExperiment(t *testing.T) {
	engine, _ := reportEngine(t)
	exp := reportExperiment(t)

	lines := Report(exp, engine)
	assert.Equal(t, "mnist-1", lines[0])
	assert.Assert(t, hasLine(lines, "  Run command: python3"))
	assert.Assert(t, hasLine(lines, "  Main code file: train.py"))
	assert.Assert(t, hasLine(lines, "  Parameters: --lr 0.01"))
	assert.Assert(t, hasLine(lines, "  Parameters format: --lr {lr}"))
	assert.Assert(t, hasLine(lines, "  Collection: mnist-1"))
	assert.Assert(t, hasLine(lines, "  State: defined"))
	assert.Assert(t, hasLine(lines, "  Last modified: 2025-06-01 10:00:00"))
	// no cluster, no outputs, no warnings for a freshly defined record
	assert.Assert(t, !hasLine(lines, "  Output:"))
	assert.Assert(t, !hasLine(lines, "  Warnings:"))
	for _, line := range lines {
		assert.Assert(t, !strings.HasPrefix(line, "  Cluster:"))
	}
}

func TestReportConditionDetail(t *testing.T) {
	engine, _ := reportEngine(t)
	exp := reportExperiment(t)

	lines := Report(exp, engine)
	assert.Assert(t, hasLine(lines, "  Conditions:"))
	assert.Assert(t, hasLine(lines, "    diverged:"))
	assert.Assert(t, hasLine(lines, "      variablename: loss"))
	assert.Assert(t, hasLine(lines, "      killvalue: 100"))
	assert.Assert(t, hasLine(lines, "      comparator: gt"))
	assert.Assert(t, hasLine(lines, "      when: immediately"))
	assert.Assert(t, hasLine(lines, "      action: kill"))
}

func TestReportRunningWithOutputs(t *testing.T) {
	engine, dataRoot := reportEngine(t)
	exp := reportExperiment(t)
	exp.UpdateState(v1.ExperimentRunning, testNow.Add(time.Minute))
	exp.Status.ClusterId = "slurm-a"

	dir := exp.ResultsDir(dataRoot)
	assert.NilError(t, os.MkdirAll(dir, 0755))
	assert.NilError(t, os.WriteFile(filepath.Join(dir, "results.log"), []byte("loss 0.5\nloss 0.25\n"), 0644))

	lines := Report(exp, engine)
	assert.Assert(t, hasLine(lines, "  State: running"))
	assert.Assert(t, hasLine(lines, "  Cluster: slurm-a"))
	assert.Assert(t, hasLine(lines, "  Output:"))
	assert.Assert(t, hasLine(lines, "    results.log:"))
	assert.Assert(t, hasLine(lines, "      loss: [0.5 0.25]"))
}

func TestReportSkipsUnreadableOutputs(t *testing.T) {
	engine, dataRoot := reportEngine(t)
	exp := reportExperiment(t)
	exp.Spec.Outputs = []string{"results.log", "missing.log"}
	exp.Spec.OutputLineProcessor["missing.log"] = "builtin kv"
	exp.UpdateState(v1.ExperimentRunning, testNow.Add(time.Minute))

	dir := exp.ResultsDir(dataRoot)
	assert.NilError(t, os.MkdirAll(dir, 0755))
	assert.NilError(t, os.WriteFile(filepath.Join(dir, "results.log"), []byte("loss 0.5\n"), 0644))

	lines := Report(exp, engine)
	assert.Assert(t, hasLine(lines, "    results.log:"))
	assert.Assert(t, !hasLine(lines, "    missing.log:"))
}

func TestReportWarnings(t *testing.T) {
	engine, _ := reportEngine(t)
	exp := reportExperiment(t)
	exp.SetWarning("diverged", testNow.Add(time.Minute))

	lines := Report(exp, engine)
	assert.Assert(t, hasLine(lines, "  Warnings:"))
	assert.Assert(t, hasLine(lines, "    2025-06-01 10:01:00: The condition 'diverged' was met"))
}

func TestReportIsRestartable(t *testing.T) {
	engine, _ := reportEngine(t)
	exp := reportExperiment(t)
	exp.SetWarning("diverged", testNow)

	first := Report(exp, engine)
	second := Report(exp, engine)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("report changed between invocations:\n%v\n%v", first, second)
	}
}
