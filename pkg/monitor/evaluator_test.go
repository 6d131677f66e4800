/*
 * Copyright (C) 2025-2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package monitor

import (
	"fmt"
	"testing"
	"time"

	"gotest.tools/assert"

	v1 "github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/api/v1"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newCondition(varname string, killValue float64, comparator v1.Comparator, when, action string) *v1.ConditionSpec {
	return &v1.ConditionSpec{
		Name:       "cond",
		VarName:    varname,
		KillValue:  killValue,
		Comparator: comparator,
		When:       when,
		Action:     action,
	}
}

func TestEvaluateFires(t *testing.T) {
	cond := newCondition("loss", 100, v1.ComparatorGt, v1.WhenImmediately, v1.ActionKill)

	action, fired := Evaluate(cond, "loss 150", testNow)
	assert.Assert(t, fired)
	assert.Equal(t, v1.ActionKill, action)

	action, fired = Evaluate(cond, "loss 50", testNow)
	assert.Assert(t, !fired)
	assert.Equal(t, v1.NoAction, action)
}

func TestEvaluateLineShapes(t *testing.T) {
	cond := newCondition("loss", 100, v1.ComparatorGt, v1.WhenImmediately, "email")
	cases := []struct {
		line  string
		fired bool
	}{
		{"loss 150", true},
		{"  loss 150  ", true},
		{"loss 1.5e2", true},
		{"loss  150", true},
		{"losses 150", false},
		{"validation loss 150", false},
		{"loss", false},
		{"loss abc", false},
		{"", false},
	}
	for _, tc := range cases {
		_, fired := Evaluate(cond, tc.line, testNow)
		assert.Equal(t, tc.fired, fired, "line: %q", tc.line)
	}
}

func TestEvaluateComparators(t *testing.T) {
	cases := []struct {
		comparator v1.Comparator
		value      float64
		threshold  float64
		fired      bool
	}{
		{v1.ComparatorGt, 150, 100, true},
		{v1.ComparatorGt, 100, 100, false},
		{v1.ComparatorLt, 50, 100, true},
		{v1.ComparatorLt, 100, 100, false},
		{v1.ComparatorEq, 100, 100, true},
		{v1.ComparatorEq, 100.5, 100, false},
		{v1.ComparatorGeq, 100, 100, true},
		{v1.ComparatorGeq, 99, 100, false},
		{v1.ComparatorLeq, 100, 100, true},
		{v1.ComparatorLeq, 101, 100, false},
		{v1.Comparator("gte"), 150, 100, false},
	}
	for _, tc := range cases {
		cond := newCondition("loss", tc.threshold, tc.comparator, v1.WhenImmediately, "email")
		_, fired := Evaluate(cond, fmt.Sprintf("loss %v", tc.value), testNow)
		assert.Equal(t, tc.fired, fired, "%s %v vs %v", tc.comparator, tc.value, tc.threshold)
	}
}

func TestEvaluateTimeGate(t *testing.T) {
	cond := newCondition("loss", 100, v1.ComparatorGt, "time 10", v1.ActionKill)

	cond.StartTime = testNow.Add(-9 * time.Minute)
	_, fired := Evaluate(cond, "loss 150", testNow)
	assert.Assert(t, !fired)

	cond.StartTime = testNow.Add(-10 * time.Minute)
	_, fired = Evaluate(cond, "loss 150", testNow)
	assert.Assert(t, fired)

	cond.StartTime = testNow.Add(-11 * time.Minute)
	_, fired = Evaluate(cond, "loss 150", testNow)
	assert.Assert(t, fired)
}

// A gated condition without a baseline, or with a gate that does not
// parse, never fires at all.
func TestEvaluateTimeGateInertForms(t *testing.T) {
	for _, when := range []string{"time 10", "time soon", "time", "time 10 20"} {
		cond := newCondition("loss", 100, v1.ComparatorGt, when, v1.ActionKill)
		_, fired := Evaluate(cond, "loss 150", testNow)
		assert.Assert(t, !fired, "when: %q", when)
	}

	cond := newCondition("loss", 100, v1.ComparatorGt, "time soon", v1.ActionKill)
	cond.StartTime = testNow.Add(-time.Hour)
	_, fired := Evaluate(cond, "loss 150", testNow)
	assert.Assert(t, !fired)
}

func TestEvaluateImmediateNeedsNoBaseline(t *testing.T) {
	cond := newCondition("loss", 100, v1.ComparatorGt, v1.WhenImmediately, "email")
	assert.Assert(t, cond.StartTime.IsZero())
	_, fired := Evaluate(cond, "loss 150", testNow)
	assert.Assert(t, fired)
}

func TestEvaluateNilCondition(t *testing.T) {
	action, fired := Evaluate(nil, "loss 150", testNow)
	assert.Assert(t, !fired)
	assert.Equal(t, v1.NoAction, action)
}

func newConditionedExperiment(conds map[string]*v1.ConditionSpec) *v1.Experiment {
	for name, cond := range conds {
		cond.Name = name
	}
	return &v1.Experiment{
		Id: "mnist-001",
		Spec: v1.ExperimentSpec{
			RunCommandPrefix: "python3",
			MainCodeFile:     "main.py",
			Conditions:       conds,
		},
	}
}

func TestGetActionDefault(t *testing.T) {
	exp := newConditionedExperiment(map[string]*v1.ConditionSpec{
		"diverged": newCondition("loss", 100, v1.ComparatorGt, v1.WhenImmediately, v1.ActionKill),
	})
	action, name := GetAction(exp, "accuracy 0.5", testNow)
	assert.Equal(t, v1.NoAction, action)
	assert.Equal(t, "", name)
}

func TestGetActionKillPreempts(t *testing.T) {
	exp := newConditionedExperiment(map[string]*v1.ConditionSpec{
		"alert": newCondition("loss", 100, v1.ComparatorGt, v1.WhenImmediately, "email"),
		"stop":  newCondition("loss", 100, v1.ComparatorGt, v1.WhenImmediately, v1.ActionKill),
	})
	// "alert" sorts before "stop" yet kill still wins
	action, name := GetAction(exp, "loss 150", testNow)
	assert.Equal(t, v1.ActionKill, action)
	assert.Equal(t, "stop", name)
}

func TestGetActionFirstNonKillWins(t *testing.T) {
	exp := newConditionedExperiment(map[string]*v1.ConditionSpec{
		"alert":  newCondition("loss", 100, v1.ComparatorGt, v1.WhenImmediately, "email"),
		"notify": newCondition("loss", 100, v1.ComparatorGt, v1.WhenImmediately, "page"),
	})
	action, name := GetAction(exp, "loss 150", testNow)
	assert.Equal(t, "email", action)
	assert.Equal(t, "alert", name)
}

func TestGetActionSkipsInertKill(t *testing.T) {
	exp := newConditionedExperiment(map[string]*v1.ConditionSpec{
		"alert": newCondition("loss", 100, v1.ComparatorGt, v1.WhenImmediately, "email"),
		"stop":  newCondition("loss", 100, v1.ComparatorGt, "time 60", v1.ActionKill),
	})
	// the kill condition has no armed baseline, so the warning wins
	action, name := GetAction(exp, "loss 150", testNow)
	assert.Equal(t, "email", action)
	assert.Equal(t, "alert", name)
}
