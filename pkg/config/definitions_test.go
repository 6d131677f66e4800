/*
 * Copyright (c) 2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gotest.tools/assert"

	v1 "github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/api/v1"
)

var testNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

const testDefinitions = `mnist-base:
  runCommandPrefix: python3
  mainCodeFile: train.py
  parameters:
    lr: 0.01
  parametersFormat: "--lr {lr}"
  conditions:
    diverged:
      varname: loss
      killvalue: 100
      comparator: gt
      when: immediately
      action: kill
mnist-wide:
  runCommandPrefix: python3
  mainCodeFile: train.py
`

func writeDefinition(t *testing.T, dir, name, content string) {
	assert.NilError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestLoadDefinitions(t *testing.T) {
	dir := t.TempDir()
	writeDefinition(t, dir, "mnist.yaml", testDefinitions)

	exps, err := LoadDefinitions(dir, testNow)
	assert.NilError(t, err)
	assert.Equal(t, len(exps), 2)
	assert.Equal(t, exps[0].Id, "mnist-base")
	assert.Equal(t, exps[1].Id, "mnist-wide")
	assert.Equal(t, exps[0].Status.Path, filepath.Join(dir, "mnist-base"))
	assert.Equal(t, exps[0].State(), v1.ExperimentDefined)
	assert.Equal(t, exps[0].Spec.Conditions["diverged"].Name, "diverged")
	assert.Equal(t, exps[0].Spec.Conditions["diverged"].Comparator, v1.ComparatorGt)
}

func TestLoadDefinitionsRejectsUnknownField(t *testing.T) {
	dir := t.TempDir()
	writeDefinition(t, dir, "defs.yaml", `typo-exp:
  runCommandPrefix: python3
  mainCodeFile: train.py
  misspelledField: oops
ok-exp:
  runCommandPrefix: python3
  mainCodeFile: train.py
`)

	exps, err := LoadDefinitions(dir, testNow)
	assert.NilError(t, err)
	assert.Equal(t, len(exps), 1)
	assert.Equal(t, exps[0].Id, "ok-exp")
}

func TestLoadDefinitionsSkipsInvalidRecord(t *testing.T) {
	dir := t.TempDir()
	writeDefinition(t, dir, "defs.yaml", `no-code-file:
  runCommandPrefix: python3
`)

	exps, err := LoadDefinitions(dir, testNow)
	assert.NilError(t, err)
	assert.Equal(t, len(exps), 0)
}

func TestLoadDefinitionsIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	writeDefinition(t, dir, "mnist.yaml", testDefinitions)
	writeDefinition(t, dir, "notes.txt", "not a definition")
	writeDefinition(t, dir, ".hidden.yaml", testDefinitions)
	assert.NilError(t, os.Mkdir(filepath.Join(dir, "subdir.yaml"), 0755))

	exps, err := LoadDefinitions(dir, testNow)
	assert.NilError(t, err)
	assert.Equal(t, len(exps), 2)
}

func TestLoadDefinitionsSkipsBrokenFile(t *testing.T) {
	dir := t.TempDir()
	writeDefinition(t, dir, "broken.yaml", "- just\n- a\n- list\n")
	writeDefinition(t, dir, "mnist.yaml", testDefinitions)

	exps, err := LoadDefinitions(dir, testNow)
	assert.NilError(t, err)
	assert.Equal(t, len(exps), 2)
}

func TestLoadDefinitionsMissingDir(t *testing.T) {
	_, err := LoadDefinitions(filepath.Join(t.TempDir(), "nope"), testNow)
	assert.Assert(t, err != nil)
}
