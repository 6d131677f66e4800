/*
 * Copyright (c) 2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package v1

import (
	"strconv"
	"strings"
	"time"
)

type Comparator string

const (
	ComparatorGt  Comparator = "gt"
	ComparatorLt  Comparator = "lt"
	ComparatorEq  Comparator = "eq"
	ComparatorGeq Comparator = "geq"
	ComparatorLeq Comparator = "leq"
)

const (
	// WhenImmediately marks a condition with no time gate.
	WhenImmediately = "immediately"
	// whenTimePrefix starts a time gate of the form "time <minutes>".
	whenTimePrefix = "time"

	// ActionKill is the only action label with built-in meaning. It
	// pre-empts every other firing condition.
	ActionKill = "kill"

	NoAction = "no action"
)

// ConditionSpec is a named threshold rule monitoring one variable in an
// experiment's log stream.
type ConditionSpec struct {
	// Label of the condition, unique within one experiment
	Name string `json:"name"`
	// Token that must prefix a log line for the condition to be examined
	VarName string `json:"varname"`
	// Threshold the parsed log value is compared against
	KillValue float64 `json:"killvalue"`
	// One of gt, lt, eq, geq, leq
	Comparator Comparator `json:"comparator"`
	// Either "immediately" or "time <minutes>". The latter keeps the
	// condition inert until that many minutes have passed since the
	// experiment last entered the running state.
	When string `json:"when"`
	// Action label prescribed when the condition fires. Opaque except
	// for the literal "kill".
	Action string `json:"action"`
	// Baseline of the time gate. Reset on every actual transition into
	// running; never reset by a no-op transition.
	StartTime time.Time `json:"startTime,omitempty"`
}

func (c Comparator) IsValid() bool {
	switch c {
	case ComparatorGt, ComparatorLt, ComparatorEq, ComparatorGeq, ComparatorLeq:
		return true
	}
	return false
}

// Holds reports whether value compared against threshold satisfies the
// comparator. An unknown comparator never holds.
func (c Comparator) Holds(value, threshold float64) bool {
	switch c {
	case ComparatorGt:
		return value > threshold
	case ComparatorLt:
		return value < threshold
	case ComparatorEq:
		return value == threshold
	case ComparatorGeq:
		return value >= threshold
	case ComparatorLeq:
		return value <= threshold
	}
	return false
}

// HasTimeGate reports whether When is of the "time <minutes>" form.
func (c *ConditionSpec) HasTimeGate() bool {
	return strings.HasPrefix(strings.TrimSpace(c.When), whenTimePrefix)
}

// TimeGateMinutes parses the gate value of a "time <minutes>" When.
// A gated condition whose gate cannot be parsed never fires, so callers
// must treat an error as inert, not as gate-free.
func (c *ConditionSpec) TimeGateMinutes() (float64, error) {
	when := strings.TrimSpace(c.When)
	return strconv.ParseFloat(strings.TrimSpace(strings.TrimPrefix(when, whenTimePrefix)), 64)
}

func (c *ConditionSpec) IsKill() bool {
	return c.Action == ActionKill
}
