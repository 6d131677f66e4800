/*
 * Copyright (C) 2025-2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package processor

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/utils"
)

// BuiltinModule is the module identifier of the processors and plotters
// shipped with the service.
const BuiltinModule = "builtin"

// RegisterBuiltins installs the built-in processors and plotters. User
// extensions register through the same Registry API.
func RegisterBuiltins(r *Registry) {
	r.RegisterLineProcessor(BuiltinModule, "kv", KeyValueLines)
	r.RegisterFileProcessor(BuiltinModule, "json", JsonFile)
	r.RegisterPlotter(BuiltinModule, "series", SeriesPlot)
}

// KeyValueLines parses "<key> <number>" lines. Optional spec arguments
// restrict the accepted keys. Lines of any other shape are noise.
func KeyValueLines(line string, args ...string) (map[string]interface{}, error) {
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) != 2 {
		return nil, nil
	}
	value, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return nil, nil
	}
	if len(args) > 0 {
		accepted := false
		for _, arg := range args {
			if arg == fields[0] {
				accepted = true
				break
			}
		}
		if !accepted {
			return nil, nil
		}
	}
	return map[string]interface{}{fields[0]: value}, nil
}

// JsonFile decodes a whole output file holding one JSON object.
func JsonFile(content string, _ ...string) (map[string]interface{}, error) {
	result := map[string]interface{}{}
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return nil, err
	}
	return result, nil
}

// SeriesPlot writes a plain-text rendering of the plot data. The
// feedback carries the render count so successive invocations of a live
// plot are distinguishable in the output.
func SeriesPlot(destination string, feedback interface{}, data []interface{}) (interface{}, error) {
	render := 1
	if previous, ok := feedback.(int); ok {
		render = previous + 1
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# render %d\n", render)
	for _, item := range data {
		switch v := item.(type) {
		case PlotValue:
			fmt.Fprintf(&b, "%s:", v.Name)
			if values, ok := v.Values.([]interface{}); ok {
				for _, value := range values {
					fmt.Fprintf(&b, " %v", value)
				}
			} else {
				fmt.Fprintf(&b, " %v", v.Values)
			}
			b.WriteString("\n")
		default:
			fmt.Fprintf(&b, "# %v\n", v)
		}
	}
	if err := utils.WriteFile(destination, b.String(), 0644); err != nil {
		return feedback, err
	}
	return render, nil
}
