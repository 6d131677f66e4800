/*
 * Copyright (c) 2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package v1

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/timeutil"
)

type ExperimentState string

const (
	ExperimentKind = "Experiment"

	ExperimentDefined        ExperimentState = "defined"
	ExperimentSubmitted      ExperimentState = "submitted"
	ExperimentSubmittedToKid ExperimentState = "submitted_to_kid"
	ExperimentLost           ExperimentState = "lost"
	ExperimentTerminated     ExperimentState = "terminated"
	ExperimentRunning        ExperimentState = "running"
	ExperimentFinished       ExperimentState = "finished"
)

// IsEnd reports whether the state is soft-terminal. Further transitions
// out of a soft-terminal state are not forbidden.
func (s ExperimentState) IsEnd() bool {
	return s == ExperimentTerminated || s == ExperimentLost || s == ExperimentFinished
}

func (s ExperimentState) IsValid() bool {
	switch s {
	case ExperimentDefined, ExperimentSubmitted, ExperimentSubmittedToKid,
		ExperimentLost, ExperimentTerminated, ExperimentRunning, ExperimentFinished:
		return true
	}
	return false
}

// StateChange is one entry of the lifecycle history.
type StateChange struct {
	State ExperimentState `json:"state"`
	Time  time.Time       `json:"time"`
}

// ExperimentSpec holds the declarative fields of an experiment: the
// mandatory and optional fields a definition file may set. The field set
// is closed; definitions are decoded with unknown fields disallowed.
type ExperimentSpec struct {
	// Command prefix used to invoke the job, e.g. "python3"
	RunCommandPrefix string `json:"runCommandPrefix"`
	// The code file passed to the run command
	MainCodeFile string `json:"mainCodeFile"`
	// Files that must be present next to the main code file. Informational
	RequiredFiles []string `json:"requiredFiles,omitempty"`
	// Parameter values consumed by ParametersFormat
	Parameters map[string]interface{} `json:"parameters,omitempty"`
	// Template rendering Parameters into the callstring,
	// e.g. "--lr {lr} --epochs {epochs}"
	ParametersFormat string `json:"parametersFormat,omitempty"`
	// Output filenames the job is expected to produce
	Outputs []string `json:"outputs,omitempty"`
	// Filename of the job's primary log, relative to the results
	// directory. Monitors follow this file
	LogOutput string `json:"logOutput,omitempty"`
	// Output filename -> processor invocation spec, run once over the
	// whole file content
	OutputFileProcessor map[string]string `json:"outputFileProcessor,omitempty"`
	// Output filename -> processor invocation spec, run once per line
	OutputLineProcessor map[string]string `json:"outputLineProcessor,omitempty"`
	// Plot name -> plotter invocation spec
	Plot map[string]string `json:"plot,omitempty"`
	// Group labels. Defaults to the basename of the experiment path
	Collection []string `json:"collection,omitempty"`
	// Monitored threshold conditions keyed by name. May be empty
	Conditions map[string]*ConditionSpec `json:"conditions,omitempty"`
	// Extra arguments handed to the cluster scheduler. Opaque
	SbatchArgs string `json:"sbatchArgs,omitempty"`
	// Free-form message shown in reports
	CustomMsg string `json:"customMsg,omitempty"`
}

// ExperimentStatus holds the automatic fields. They are never taken from
// a definition file.
type ExperimentStatus struct {
	// Filesystem location owned by this experiment
	Path string `json:"path,omitempty"`
	// Set once at creation or duplication
	TimeCreated time.Time `json:"timeCreated,omitempty"`
	// Not auto-touched on field writes
	TimeModified time.Time `json:"timeModified,omitempty"`
	// Append-only lifecycle history. Never truncated; the first entry is
	// the defined state recorded at construction
	StatesInfo []StateChange `json:"statesInfo,omitempty"`
	// Set once the job is placed on a cluster
	ClusterId string `json:"clusterId,omitempty"`
	// Append-only human-readable warnings, except explicit bulk replace
	Warnings []string `json:"warnings,omitempty"`
	// Results directories of completed runs, most recent last
	RunResults []string `json:"runResults,omitempty"`
}

type Experiment struct {
	// Unique, immutable after creation
	Id string `json:"id"`

	Spec   ExperimentSpec   `json:"spec"`
	Status ExperimentStatus `json:"status,omitempty"`
}

// State returns the state of the last lifecycle entry.
func (e *Experiment) State() ExperimentState {
	l := len(e.Status.StatesInfo)
	if l == 0 {
		return ExperimentDefined
	}
	return e.Status.StatesInfo[l-1].State
}

// StateInfo returns the last lifecycle entry, or nil for a record with
// no history.
func (e *Experiment) StateInfo() *StateChange {
	l := len(e.Status.StatesInfo)
	if l == 0 {
		return nil
	}
	return &e.Status.StatesInfo[l-1]
}

func (e *Experiment) IsRunning() bool {
	return e.State() == ExperimentRunning
}

func (e *Experiment) IsEnd() bool {
	return e.State().IsEnd()
}

func (e *Experiment) HasConditions() bool {
	return len(e.Spec.Conditions) > 0
}

// ConditionNames returns the condition names in lexicographic order.
// Aggregation iterates this order so that the first firing condition is
// reproducible.
func (e *Experiment) ConditionNames() []string {
	names := make([]string, 0, len(e.Spec.Conditions))
	for name := range e.Spec.Conditions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UpdateState appends a lifecycle entry. A transition to the current
// state is a no-op. An actual transition into running re-arms every
// condition's time gate.
func (e *Experiment) UpdateState(state ExperimentState, now time.Time) {
	if e.State() == state {
		return
	}
	if state == ExperimentRunning && e.HasConditions() {
		for _, cond := range e.Spec.Conditions {
			cond.StartTime = now
		}
	}
	e.Status.StatesInfo = append(e.Status.StatesInfo, StateChange{State: state, Time: now})
}

// SetWarning records that the named condition was met.
func (e *Experiment) SetWarning(conditionName string, now time.Time) {
	e.Status.Warnings = append(e.Status.Warnings,
		fmt.Sprintf("%s: The condition '%s' was met", timeutil.FormatTime(now), conditionName))
}

// ReplaceWarnings is the administrative bulk reset of the warning list.
func (e *Experiment) ReplaceWarnings(warnings []string) {
	e.Status.Warnings = warnings
}

func (e *Experiment) HasWarnings() bool {
	return len(e.Status.Warnings) > 0
}

// AppendRunResult records the results directory of a completed run.
func (e *Experiment) AppendRunResult(dir string) {
	e.Status.RunResults = append(e.Status.RunResults, dir)
}

// ResultsDir resolves the directory holding this experiment's outputs.
// A finished experiment resolves to its most recent run result; every
// other state resolves to the canonical path under the data root.
func (e *Experiment) ResultsDir(dataRoot string) string {
	if e.State() == ExperimentFinished && len(e.Status.RunResults) > 0 {
		return e.Status.RunResults[len(e.Status.RunResults)-1]
	}
	return filepath.Join(dataRoot, "results", e.Id)
}

// Callstring renders the full invocation string of the job:
// run command prefix, main code file, then the rendered parameters.
// Deterministic for a fixed record.
func (e *Experiment) Callstring() string {
	parts := []string{}
	for _, part := range []string{
		e.Spec.RunCommandPrefix,
		e.Spec.MainCodeFile,
		RenderParameters(e.Spec.ParametersFormat, e.Spec.Parameters),
	} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, " ")
}

// RenderParameters substitutes every "{key}" occurrence in format with
// the parameter value. Keys are applied in sorted order; unknown
// placeholders are left as-is.
func RenderParameters(format string, params map[string]interface{}) string {
	if format == "" || len(params) == 0 {
		return strings.TrimSpace(format)
	}
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	result := format
	for _, key := range keys {
		result = strings.ReplaceAll(result, "{"+key+"}", fmt.Sprintf("%v", params[key]))
	}
	return strings.TrimSpace(result)
}

// ElapsedTime returns the seconds from construction to the last
// soft-terminal transition, or to now for a live experiment.
func (e *Experiment) ElapsedTime() int64 {
	if len(e.Status.StatesInfo) == 0 {
		return 0
	}
	start := e.Status.StatesInfo[0].Time
	if e.IsEnd() {
		return int64(e.StateInfo().Time.Sub(start).Seconds())
	}
	return int64(time.Now().UTC().Sub(start).Seconds())
}
