/*
 * Copyright (C) 2025-2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package monitor

import (
	"strconv"
	"strings"
	"time"

	v1 "github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/api/v1"
	"github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/timeutil"
)

// Evaluate checks one condition against one log line. It returns the
// condition's action label and true when the condition fired, or
// (NoAction, false) otherwise. A malformed line is never an error; it
// simply does not fire.
func Evaluate(cond *v1.ConditionSpec, line string, now time.Time) (string, bool) {
	if cond == nil {
		return v1.NoAction, false
	}
	if cond.HasTimeGate() {
		// An unset baseline or an unparsable gate keeps the condition
		// inert, not gate-free.
		if cond.StartTime.IsZero() {
			return v1.NoAction, false
		}
		minutes, err := cond.TimeGateMinutes()
		if err != nil {
			return v1.NoAction, false
		}
		if timeutil.ElapsedMinutes(cond.StartTime, now) < minutes {
			return v1.NoAction, false
		}
	}
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, cond.VarName) {
		return v1.NoAction, false
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimPrefix(line, cond.VarName)), 64)
	if err != nil {
		return v1.NoAction, false
	}
	if !cond.Comparator.Holds(value, cond.KillValue) {
		return v1.NoAction, false
	}
	return cond.Action, true
}

// GetAction evaluates every condition of the experiment against one log
// line. Conditions are visited in name order. A firing kill condition
// wins immediately; otherwise the first firing condition supplies the
// verdict and later ones are only inspected for a pre-empting kill.
// The default verdict is ("no action", "").
func GetAction(exp *v1.Experiment, line string, now time.Time) (string, string) {
	action, conditionName := v1.NoAction, ""
	for _, name := range exp.ConditionNames() {
		label, fired := Evaluate(exp.Spec.Conditions[name], line, now)
		if !fired {
			continue
		}
		if label == v1.ActionKill {
			return label, name
		}
		if action == v1.NoAction {
			action, conditionName = label, name
		}
	}
	return action, conditionName
}
