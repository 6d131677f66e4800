/*
 * Copyright (C) 2025-2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package processor

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/shlex"
	"k8s.io/klog/v2"

	v1 "github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/api/v1"
	"github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/errors"
)

// Engine runs the output extraction and plotting pipelines against the
// registered processors and plotters.
type Engine struct {
	processors ProcessorRegistry
	plotters   PlotterRegistry
	dataRoot   string
}

func NewEngine(processors ProcessorRegistry, plotters PlotterRegistry, dataRoot string) *Engine {
	return &Engine{
		processors: processors,
		plotters:   plotters,
		dataRoot:   dataRoot,
	}
}

// ResultsDir resolves the directory holding the experiment's outputs.
func (e *Engine) ResultsDir(exp *v1.Experiment) string {
	return exp.ResultsDir(e.dataRoot)
}

// GetOutput extracts the structured data of one output file. A whole-file
// processor is preferred over a per-line processor for the same filename.
// Every failure surfaces as an OutputRead error.
func (e *Engine) GetOutput(exp *v1.Experiment, filename string) (map[string]interface{}, error) {
	if spec, ok := exp.Spec.OutputFileProcessor[filename]; ok {
		return e.runFileProcessor(exp, filename, spec)
	}
	if spec, ok := exp.Spec.OutputLineProcessor[filename]; ok {
		return e.runLineProcessor(exp, filename, spec)
	}
	return nil, errors.NewOutputReadMessagef(nil,
		"%s: no output processor defined for %s", exp.Id, filename)
}

func (e *Engine) runFileProcessor(exp *v1.Experiment, filename, spec string) (map[string]interface{}, error) {
	module, function, extraArgs, err := splitProcessorSpec(spec)
	if err != nil {
		return nil, errors.NewOutputReadMessagef(err,
			"%s: couldn't parse outputFileProcessor arguments for %s", exp.Id, filename)
	}
	proc, ok := e.processors.ResolveFile(module, function)
	if !ok {
		return nil, errors.NewOutputReadMessagef(nil,
			"%s: couldn't resolve %s from %s", exp.Id, function, module)
	}
	path := filepath.Join(exp.ResultsDir(e.dataRoot), filename)
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewOutputRead(exp.Id, filename, function, err)
	}
	result, err := invokeFileProcessor(proc, string(content), extraArgs)
	if err != nil {
		return nil, errors.NewOutputReadMessagef(err,
			"%s: couldn't read %s with %s", exp.Id, filename, function)
	}
	if result == nil {
		return nil, errors.NewOutputReadMessagef(nil,
			"%s: outputFileProcessor for %s didn't return a map", exp.Id, filename)
	}
	return result, nil
}

func (e *Engine) runLineProcessor(exp *v1.Experiment, filename, spec string) (map[string]interface{}, error) {
	module, function, extraArgs, err := splitProcessorSpec(spec)
	if err != nil {
		return nil, errors.NewOutputReadMessagef(err,
			"%s: couldn't parse outputLineProcessor arguments for %s", exp.Id, filename)
	}
	proc, ok := e.processors.ResolveLine(module, function)
	if !ok {
		return nil, errors.NewOutputReadMessagef(nil,
			"%s: couldn't resolve %s from %s", exp.Id, function, module)
	}
	path := filepath.Join(exp.ResultsDir(e.dataRoot), filename)
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewOutputRead(exp.Id, filename, function, err)
	}
	defer func() {
		if err2 := f.Close(); err2 != nil {
			klog.ErrorS(err2, "failed to close output file", "path", path)
		}
	}()

	data := map[string]interface{}{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lineData, err := invokeLineProcessor(proc, scanner.Text(), extraArgs)
		if err != nil {
			return nil, errors.NewOutputReadMessagef(err,
				"%s: couldn't read %s with %s", exp.Id, filename, function)
		}
		// a line the processor has nothing to say about is normal noise
		for key, value := range lineData {
			if existing, ok := data[key].([]interface{}); ok {
				data[key] = append(existing, value)
			} else {
				data[key] = []interface{}{value}
			}
		}
	}
	if err = scanner.Err(); err != nil {
		return nil, errors.NewOutputRead(exp.Id, filename, function, err)
	}
	return data, nil
}

// splitProcessorSpec tokenizes "<module> <function> [extra-args...]".
func splitProcessorSpec(spec string) (string, string, []string, error) {
	tokens, err := shlex.Split(spec)
	if err != nil {
		return "", "", nil, err
	}
	if len(tokens) < 2 {
		return "", "", nil, fmt.Errorf("expected at least module and function, got %d tokens", len(tokens))
	}
	return tokens[0], tokens[1], tokens[2:], nil
}

func invokeFileProcessor(proc FileProcessor, content string, args []string) (result map[string]interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("processor panicked: %v", r)
		}
	}()
	return proc(content, args...)
}

func invokeLineProcessor(proc LineProcessor, line string, args []string) (result map[string]interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("processor panicked: %v", r)
		}
	}()
	return proc(line, args...)
}
