/*
 * Copyright (C) 2025-2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package processor

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/google/shlex"

	v1 "github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/api/v1"
	"github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/errors"
)

// Plot renders the named plot of the experiment. The feedback value must
// be the one returned by the previous Plot call for the same plot name,
// or nil on the first call; the returned feedback is handed to the next
// call. Extraction failures keep their OutputRead code and are never
// rewrapped as Plot errors.
func (e *Engine) Plot(exp *v1.Experiment, plotName string, feedback interface{}) (interface{}, error) {
	spec, ok := exp.Spec.Plot[plotName]
	if !ok {
		return nil, errors.NewPlotMessagef(nil, "%s: no plot named %s defined", exp.Id, plotName)
	}
	tokens, err := shlex.Split(spec)
	if err != nil || len(tokens) < 3 {
		return nil, errors.NewPlotMessagef(err, "%s: couldn't parse plot arguments", exp.Id)
	}
	module, function, outputFilename := tokens[0], tokens[1], tokens[2]
	plotArgs := tokens[3:]

	plotter, ok := e.plotters.Resolve(module, function)
	if !ok {
		return nil, errors.NewPlotMessagef(nil, "%s: couldn't resolve %s from %s", exp.Id, function, module)
	}

	output, err := e.GetOutput(exp, outputFilename)
	if err != nil {
		return nil, err
	}

	plotData := make([]interface{}, 0, len(plotArgs))
	for _, arg := range plotArgs {
		if values, ok := output[arg]; ok {
			plotData = append(plotData, PlotValue{Name: arg, Values: values})
		} else {
			plotData = append(plotData, arg)
		}
	}

	destination := filepath.Join(exp.ResultsDir(e.dataRoot), plotName)
	next, err := invokePlotter(plotter, destination, feedback, plotData)
	if err != nil {
		return nil, errors.NewPlot(exp.Id, plotName, err)
	}
	return next, nil
}

// PlotOutputs renders every plot of the experiment once, each with a
// fresh feedback. Rendering stops at the first failure.
func (e *Engine) PlotOutputs(exp *v1.Experiment) error {
	names := make([]string, 0, len(exp.Spec.Plot))
	for name := range exp.Spec.Plot {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := e.Plot(exp, name, nil); err != nil {
			return err
		}
	}
	return nil
}

func invokePlotter(plotter Plotter, destination string, feedback interface{}, data []interface{}) (next interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("plotter panicked: %v", r)
		}
	}()
	return plotter(destination, feedback, data)
}
