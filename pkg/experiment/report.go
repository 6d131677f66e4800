/*
 * Copyright (C) 2025-2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package experiment

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	v1 "github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/api/v1"
	"github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/processor"
	"github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/timeutil"
)

// Report renders the ordered line summary of one experiment. It is a
// pure function of the current record state and is rebuilt on every
// call. Output extraction is best-effort: files whose extraction fails
// are left out silently.
func Report(exp *v1.Experiment, engine *processor.Engine) []string {
	lines := []string{exp.Id}
	lines = append(lines, "  Run command: "+exp.Spec.RunCommandPrefix)
	lines = append(lines, "  Main code file: "+exp.Spec.MainCodeFile)
	lines = append(lines, "  Parameters: "+v1.RenderParameters(exp.Spec.ParametersFormat, exp.Spec.Parameters))
	lines = append(lines, "  Parameters format: "+exp.Spec.ParametersFormat)
	if len(exp.Spec.Collection) > 0 {
		lines = append(lines, "  Collection: "+strings.Join(exp.Spec.Collection, ", "))
	}
	lines = append(lines, "  State: "+string(exp.State()))
	if exp.Status.ClusterId != "" {
		lines = append(lines, "  Cluster: "+exp.Status.ClusterId)
	}
	lines = append(lines, outputLines(exp, engine)...)
	lines = append(lines, "  Last modified: "+timeutil.FormatTime(exp.Status.TimeModified))
	lines = append(lines, conditionLines(exp)...)
	if exp.HasWarnings() {
		lines = append(lines, "  Warnings:")
		for _, warning := range exp.Status.Warnings {
			lines = append(lines, "    "+warning)
		}
	}
	return lines
}

// outputLines renders the extracted outputs of a running or finished
// experiment. Nothing is rendered when no output file has a processor.
func outputLines(exp *v1.Experiment, engine *processor.Engine) []string {
	if engine == nil {
		return nil
	}
	if state := exp.State(); state != v1.ExperimentRunning && state != v1.ExperimentFinished {
		return nil
	}
	canProcess := false
	for _, outputFile := range exp.Spec.Outputs {
		if _, ok := exp.Spec.OutputFileProcessor[outputFile]; ok {
			canProcess = true
		}
		if _, ok := exp.Spec.OutputLineProcessor[outputFile]; ok {
			canProcess = true
		}
	}
	if !canProcess {
		return nil
	}
	lines := []string{"  Output:"}
	for _, outputFile := range exp.Spec.Outputs {
		output, err := engine.GetOutput(exp, outputFile)
		if err != nil {
			continue
		}
		lines = append(lines, "    "+outputFile+":")
		fields := make([]string, 0, len(output))
		for field := range output {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			lines = append(lines, fmt.Sprintf("      %s: %v", field, output[field]))
		}
	}
	return lines
}

func conditionLines(exp *v1.Experiment) []string {
	if !exp.HasConditions() {
		return nil
	}
	lines := []string{"  Conditions:"}
	for _, name := range exp.ConditionNames() {
		cond := exp.Spec.Conditions[name]
		lines = append(lines,
			"    "+cond.Name+":",
			"      variablename: "+cond.VarName,
			"      killvalue: "+strconv.FormatFloat(cond.KillValue, 'g', -1, 64),
			"      comparator: "+string(cond.Comparator),
			"      when: "+cond.When,
			"      action: "+cond.Action,
		)
	}
	return lines
}
