/*
 * Copyright (C) 2025-2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package experiment

import (
	"path/filepath"
	"time"

	v1 "github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/api/v1"
	"github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/errors"
)

// DefaultLogOutput is the log filename monitors follow when a definition
// does not name one.
const DefaultLogOutput = "stdout.log"

// New builds an experiment record from its declarative fields. Mandatory
// fields and condition syntax are validated up front, optional fields get
// their defaults, and the lifecycle history starts with the defined
// state.
func New(id string, spec v1.ExperimentSpec, path string, now time.Time) (*v1.Experiment, error) {
	if id == "" {
		return nil, errors.NewInvalidDefinition(id, "experiment id is empty")
	}
	if spec.RunCommandPrefix == "" {
		return nil, errors.NewInvalidDefinition(id, "runCommandPrefix is mandatory")
	}
	if spec.MainCodeFile == "" {
		return nil, errors.NewInvalidDefinition(id, "mainCodeFile is mandatory")
	}
	applyDefaults(&spec, path)
	if err := validateConditions(id, spec.Conditions); err != nil {
		return nil, err
	}

	exp := &v1.Experiment{
		Id:   id,
		Spec: spec,
		Status: v1.ExperimentStatus{
			Path:         path,
			TimeCreated:  now,
			TimeModified: now,
			StatesInfo:   []v1.StateChange{{State: v1.ExperimentDefined, Time: now}},
		},
	}
	return exp, nil
}

func applyDefaults(spec *v1.ExperimentSpec, path string) {
	if len(spec.Collection) == 0 && path != "" {
		spec.Collection = []string{filepath.Base(path)}
	}
	if spec.LogOutput == "" {
		spec.LogOutput = DefaultLogOutput
	}
	for name, cond := range spec.Conditions {
		if cond == nil {
			continue
		}
		if cond.Name == "" {
			cond.Name = name
		}
		// the time gate baseline is runtime state, not configuration
		cond.StartTime = time.Time{}
	}
}

func validateConditions(id string, conditions map[string]*v1.ConditionSpec) error {
	for name, cond := range conditions {
		if cond == nil {
			return errors.NewInvalidDefinition(id, "condition "+name+" is empty")
		}
		if cond.Name != name {
			return errors.NewInvalidDefinition(id, "condition "+name+" names itself "+cond.Name)
		}
		if cond.VarName == "" {
			return errors.NewInvalidDefinition(id, "condition "+name+" has no varname")
		}
		if !cond.Comparator.IsValid() {
			return errors.NewInvalidDefinition(id,
				"condition "+name+" has unknown comparator "+string(cond.Comparator))
		}
		if cond.Action == "" {
			return errors.NewInvalidDefinition(id, "condition "+name+" has no action")
		}
		if cond.When != v1.WhenImmediately {
			if !cond.HasTimeGate() {
				return errors.NewInvalidDefinition(id,
					"condition "+name+" has invalid when "+cond.When)
			}
			if _, err := cond.TimeGateMinutes(); err != nil {
				return errors.NewInvalidDefinition(id,
					"condition "+name+" has unparsable time gate "+cond.When)
			}
		}
	}
	return nil
}

// Duplicate produces an independent record sharing only the declarative
// fields of exp: fresh identity, fresh path and empty lifecycle and
// warning history. Mutating one record never affects the other.
func Duplicate(exp *v1.Experiment, newId string, now time.Time) (*v1.Experiment, error) {
	if newId == "" {
		return nil, errors.NewBadRequest("duplicate needs a new experiment id")
	}
	if newId == exp.Id {
		return nil, errors.NewBadRequest("duplicate must not reuse the id " + exp.Id)
	}
	spec := *exp.Spec.DeepCopy()
	for _, cond := range spec.Conditions {
		cond.StartTime = time.Time{}
	}
	path := ""
	if exp.Status.Path != "" {
		path = filepath.Join(filepath.Dir(exp.Status.Path), newId)
	}
	return New(newId, spec, path, now)
}
