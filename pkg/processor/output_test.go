/*
 * Copyright (C) 2025-2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package processor

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gotest.tools/assert"

	v1 "github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/api/v1"
	"github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/errors"
)

func newTestEngine(t *testing.T) (*Engine, *Registry, string) {
	registry := NewRegistry()
	RegisterBuiltins(registry)
	dataRoot := t.TempDir()
	return NewEngine(registry, registry, dataRoot), registry, dataRoot
}

func newOutputExperiment() *v1.Experiment {
	exp := &v1.Experiment{
		Id: "mnist-001",
		Spec: v1.ExperimentSpec{
			RunCommandPrefix:    "python3",
			MainCodeFile:        "main.py",
			Outputs:             []string{"results.log"},
			OutputLineProcessor: map[string]string{"results.log": "builtin kv"},
		},
	}
	exp.Status.StatesInfo = []v1.StateChange{{State: v1.ExperimentDefined, Time: time.Now().UTC()}}
	return exp
}

func writeResultsFile(t *testing.T, dataRoot string, exp *v1.Experiment, filename, content string) string {
	dir := exp.ResultsDir(dataRoot)
	assert.NilError(t, os.MkdirAll(dir, 0755))
	path := filepath.Join(dir, filename)
	assert.NilError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestGetOutputLineProcessor(t *testing.T) {
	engine, _, dataRoot := newTestEngine(t)
	exp := newOutputExperiment()
	writeResultsFile(t, dataRoot, exp, "results.log", "loss 0.5\nloss 0.25\n")

	output, err := engine.GetOutput(exp, "results.log")
	assert.NilError(t, err)
	values, ok := output["loss"].([]interface{})
	assert.Assert(t, ok)
	assert.Equal(t, 2, len(values))
	assert.Equal(t, 0.5, values[0])
	assert.Equal(t, 0.25, values[1])
}

func TestGetOutputSkipsNoiseLines(t *testing.T) {
	engine, _, dataRoot := newTestEngine(t)
	exp := newOutputExperiment()
	writeResultsFile(t, dataRoot, exp, "results.log",
		"starting run\nloss 0.5\nepoch done in 3s\nloss 0.25\n")

	output, err := engine.GetOutput(exp, "results.log")
	assert.NilError(t, err)
	values := output["loss"].([]interface{})
	assert.Equal(t, 2, len(values))
}

func TestGetOutputAllNoiseLines(t *testing.T) {
	engine, _, dataRoot := newTestEngine(t)
	exp := newOutputExperiment()
	writeResultsFile(t, dataRoot, exp, "results.log", "starting run\nepoch done in 3s\n")

	output, err := engine.GetOutput(exp, "results.log")
	assert.NilError(t, err)
	assert.Equal(t, 0, len(output))
}

func TestGetOutputPrefersFileProcessor(t *testing.T) {
	engine, registry, dataRoot := newTestEngine(t)
	exp := newOutputExperiment()
	exp.Spec.OutputFileProcessor = map[string]string{"results.log": "grader whole"}
	registry.RegisterFileProcessor("grader", "whole", func(content string, args ...string) (map[string]interface{}, error) {
		return map[string]interface{}{"source": "file"}, nil
	})
	writeResultsFile(t, dataRoot, exp, "results.log", "loss 0.5\n")

	output, err := engine.GetOutput(exp, "results.log")
	assert.NilError(t, err)
	assert.Equal(t, "file", output["source"])
	_, hasLoss := output["loss"]
	assert.Assert(t, !hasLoss)
}

func TestGetOutputNoProcessorDefined(t *testing.T) {
	engine, _, dataRoot := newTestEngine(t)
	exp := newOutputExperiment()
	writeResultsFile(t, dataRoot, exp, "other.log", "loss 0.5\n")

	_, err := engine.GetOutput(exp, "other.log")
	assert.Assert(t, err != nil)
	assert.Assert(t, errors.IsOutputRead(err))
}

func TestGetOutputMissingFile(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	exp := newOutputExperiment()

	_, err := engine.GetOutput(exp, "results.log")
	assert.Assert(t, err != nil)
	assert.Assert(t, errors.IsOutputRead(err))
}

func TestGetOutputShortSpec(t *testing.T) {
	engine, _, dataRoot := newTestEngine(t)
	exp := newOutputExperiment()
	exp.Spec.OutputLineProcessor["results.log"] = "builtin"
	writeResultsFile(t, dataRoot, exp, "results.log", "loss 0.5\n")

	_, err := engine.GetOutput(exp, "results.log")
	assert.Assert(t, errors.IsOutputRead(err))
}

func TestGetOutputUnresolvedProcessor(t *testing.T) {
	engine, _, dataRoot := newTestEngine(t)
	exp := newOutputExperiment()
	exp.Spec.OutputLineProcessor["results.log"] = "nosuch module"
	writeResultsFile(t, dataRoot, exp, "results.log", "loss 0.5\n")

	_, err := engine.GetOutput(exp, "results.log")
	assert.Assert(t, errors.IsOutputRead(err))
}

func TestGetOutputFileProcessorNilResult(t *testing.T) {
	engine, registry, dataRoot := newTestEngine(t)
	exp := newOutputExperiment()
	exp.Spec.OutputFileProcessor = map[string]string{"results.log": "grader broken"}
	registry.RegisterFileProcessor("grader", "broken", func(content string, args ...string) (map[string]interface{}, error) {
		return nil, nil
	})
	writeResultsFile(t, dataRoot, exp, "results.log", "loss 0.5\n")

	_, err := engine.GetOutput(exp, "results.log")
	assert.Assert(t, errors.IsOutputRead(err))
}

func TestGetOutputProcessorPanic(t *testing.T) {
	engine, registry, dataRoot := newTestEngine(t)
	exp := newOutputExperiment()
	exp.Spec.OutputFileProcessor = map[string]string{"results.log": "grader panics"}
	registry.RegisterFileProcessor("grader", "panics", func(content string, args ...string) (map[string]interface{}, error) {
		panic("user code exploded")
	})
	writeResultsFile(t, dataRoot, exp, "results.log", "loss 0.5\n")

	_, err := engine.GetOutput(exp, "results.log")
	assert.Assert(t, errors.IsOutputRead(err))
}

func TestGetOutputProcessorError(t *testing.T) {
	engine, registry, dataRoot := newTestEngine(t)
	exp := newOutputExperiment()
	exp.Spec.OutputLineProcessor["results.log"] = "grader failing"
	registry.RegisterLineProcessor("grader", "failing", func(line string, args ...string) (map[string]interface{}, error) {
		return nil, fmt.Errorf("cannot parse")
	})
	writeResultsFile(t, dataRoot, exp, "results.log", "loss 0.5\n")

	_, err := engine.GetOutput(exp, "results.log")
	assert.Assert(t, errors.IsOutputRead(err))
}

func TestGetOutputFinishedReadsLastRunResult(t *testing.T) {
	engine, _, dataRoot := newTestEngine(t)
	exp := newOutputExperiment()

	runDir := filepath.Join(t.TempDir(), "run-2")
	assert.NilError(t, os.MkdirAll(runDir, 0755))
	assert.NilError(t, os.WriteFile(filepath.Join(runDir, "results.log"), []byte("loss 0.1\n"), 0644))
	exp.AppendRunResult(filepath.Join(t.TempDir(), "run-1"))
	exp.AppendRunResult(runDir)
	exp.UpdateState(v1.ExperimentFinished, time.Now().UTC())

	// nothing under the canonical path, so the data must come from run-2
	_ = dataRoot
	output, err := engine.GetOutput(exp, "results.log")
	assert.NilError(t, err)
	values := output["loss"].([]interface{})
	assert.Equal(t, 1, len(values))
	assert.Equal(t, 0.1, values[0])
}

func TestRegistryResolution(t *testing.T) {
	registry := NewRegistry()
	_, ok := registry.ResolveFile("builtin", "json")
	assert.Assert(t, !ok)

	RegisterBuiltins(registry)
	_, ok = registry.ResolveFile("builtin", "json")
	assert.Assert(t, ok)
	_, ok = registry.ResolveLine("builtin", "kv")
	assert.Assert(t, ok)
	_, ok = registry.Resolve("builtin", "series")
	assert.Assert(t, ok)
	_, ok = registry.Resolve("builtin", "heatmap")
	assert.Assert(t, !ok)
}
