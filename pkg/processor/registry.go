/*
 * Copyright (C) 2025-2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package processor

import (
	"fmt"
	"sync"
)

// FileProcessor turns the whole content of an output file into a result
// map. Extra arguments come from the invocation spec.
type FileProcessor func(content string, args ...string) (map[string]interface{}, error)

// LineProcessor turns one log/output line into a result map. Values of
// repeated keys accumulate across lines in order.
type LineProcessor func(line string, args ...string) (map[string]interface{}, error)

// Plotter renders one plot. It receives the destination path, the
// feedback value returned by its previous invocation (nil on the first
// call) and the plot data, and returns the next feedback value. The
// feedback is opaque to everything but the plotter itself.
type Plotter func(destination string, feedback interface{}, data []interface{}) (interface{}, error)

// PlotValue pairs a plot argument token with the extracted output values
// it referred to. Tokens that match no output key are passed to the
// plotter as plain strings instead.
type PlotValue struct {
	Name   string
	Values interface{}
}

// ProcessorRegistry resolves the module/function identifiers of a
// processor invocation spec to a callable.
type ProcessorRegistry interface {
	ResolveFile(module, function string) (FileProcessor, bool)
	ResolveLine(module, function string) (LineProcessor, bool)
}

// PlotterRegistry resolves the module/function identifiers of a plot
// invocation spec to a callable.
type PlotterRegistry interface {
	Resolve(module, function string) (Plotter, bool)
}

// Registry is the default ProcessorRegistry and PlotterRegistry backed
// by explicit registration.
type Registry struct {
	mutex          sync.RWMutex
	fileProcessors map[string]FileProcessor
	lineProcessors map[string]LineProcessor
	plotters       map[string]Plotter
}

func NewRegistry() *Registry {
	return &Registry{
		fileProcessors: make(map[string]FileProcessor),
		lineProcessors: make(map[string]LineProcessor),
		plotters:       make(map[string]Plotter),
	}
}

func registryKey(module, function string) string {
	return fmt.Sprintf("%s %s", module, function)
}

func (r *Registry) RegisterFileProcessor(module, function string, p FileProcessor) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.fileProcessors[registryKey(module, function)] = p
}

func (r *Registry) RegisterLineProcessor(module, function string, p LineProcessor) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.lineProcessors[registryKey(module, function)] = p
}

func (r *Registry) RegisterPlotter(module, function string, p Plotter) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.plotters[registryKey(module, function)] = p
}

func (r *Registry) ResolveFile(module, function string) (FileProcessor, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	p, ok := r.fileProcessors[registryKey(module, function)]
	return p, ok
}

func (r *Registry) ResolveLine(module, function string) (LineProcessor, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	p, ok := r.lineProcessors[registryKey(module, function)]
	return p, ok
}

func (r *Registry) Resolve(module, function string) (Plotter, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	p, ok := r.plotters[registryKey(module, function)]
	return p, ok
}
