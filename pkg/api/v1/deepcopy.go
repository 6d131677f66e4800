/*
 * Copyright (c) 2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package v1

// DeepCopy returns a copy sharing no mutable state with in.
func (in *ConditionSpec) DeepCopy() *ConditionSpec {
	if in == nil {
		return nil
	}
	out := *in
	return &out
}

// DeepCopy returns a copy sharing no mutable state with in.
func (in *ExperimentSpec) DeepCopy() *ExperimentSpec {
	if in == nil {
		return nil
	}
	out := *in
	if in.RequiredFiles != nil {
		out.RequiredFiles = make([]string, len(in.RequiredFiles))
		copy(out.RequiredFiles, in.RequiredFiles)
	}
	if in.Outputs != nil {
		out.Outputs = make([]string, len(in.Outputs))
		copy(out.Outputs, in.Outputs)
	}
	if in.Collection != nil {
		out.Collection = make([]string, len(in.Collection))
		copy(out.Collection, in.Collection)
	}
	if in.Parameters != nil {
		out.Parameters = make(map[string]interface{}, len(in.Parameters))
		for key, value := range in.Parameters {
			out.Parameters[key] = value
		}
	}
	out.OutputFileProcessor = copyStringMap(in.OutputFileProcessor)
	out.OutputLineProcessor = copyStringMap(in.OutputLineProcessor)
	out.Plot = copyStringMap(in.Plot)
	if in.Conditions != nil {
		out.Conditions = make(map[string]*ConditionSpec, len(in.Conditions))
		for name, cond := range in.Conditions {
			out.Conditions[name] = cond.DeepCopy()
		}
	}
	return &out
}

// DeepCopy returns a copy sharing no mutable state with in.
func (in *Experiment) DeepCopy() *Experiment {
	if in == nil {
		return nil
	}
	out := &Experiment{Id: in.Id}
	out.Spec = *in.Spec.DeepCopy()
	out.Status = *in.Status.DeepCopy()
	return out
}

// DeepCopy returns a copy sharing no mutable state with in.
func (in *ExperimentStatus) DeepCopy() *ExperimentStatus {
	if in == nil {
		return nil
	}
	out := *in
	if in.StatesInfo != nil {
		out.StatesInfo = make([]StateChange, len(in.StatesInfo))
		copy(out.StatesInfo, in.StatesInfo)
	}
	if in.Warnings != nil {
		out.Warnings = make([]string, len(in.Warnings))
		copy(out.Warnings, in.Warnings)
	}
	if in.RunResults != nil {
		out.RunResults = make([]string, len(in.RunResults))
		copy(out.RunResults, in.RunResults)
	}
	return &out
}

func copyStringMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
