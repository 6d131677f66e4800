/*
 * Copyright (c) 2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package errors

const PrimusPrefix = "Primus."

/*
   5-digit Error Code Convention: [xx][yyy]
   [xx] Business ID (00–99), used to distinguish errors from different business interfaces.
   00: General errors
   01: Experiment-related errors
   02: Output pipeline errors
   [yyy] Error code range (000–999)
*/

// public: 00xxx
const (
	InternalError = PrimusPrefix + "00001"
	BadRequest    = PrimusPrefix + "00002"
	AlreadyExist  = PrimusPrefix + "00004"
	NotFound      = PrimusPrefix + "00005"
)

// experiment: 01xxx
const (
	ExperimentNotFound = PrimusPrefix + "01001"
	InvalidDefinition  = PrimusPrefix + "01002"
	UnknownField       = PrimusPrefix + "01003"
)

// output pipeline: 02xxx
const (
	OutputRead = PrimusPrefix + "02001"
	Plot       = PrimusPrefix + "02002"
)

func IsBadRequest(err error) bool {
	code := GetErrorCode(err)
	return code == BadRequest || code == InvalidDefinition || code == UnknownField
}

func IsInternal(err error) bool {
	return GetErrorCode(err) == InternalError
}

func IsAlreadyExist(err error) bool {
	return GetErrorCode(err) == AlreadyExist
}

func IsNotFound(err error) bool {
	code := GetErrorCode(err)
	return code == NotFound || code == ExperimentNotFound
}

func IsOutputRead(err error) bool {
	return GetErrorCode(err) == OutputRead
}

func IsPlot(err error) bool {
	return GetErrorCode(err) == Plot
}

func IgnoreFound(err error) error {
	if err == nil || IsNotFound(err) {
		return nil
	}
	return err
}

func NewBadRequest(message string) *Error {
	return newError(2).WithCode(BadRequest).WithMessagef("Bad request. %s", message)
}

func NewInternalError(message string) *Error {
	return newError(2).WithCode(InternalError).WithMessagef("Internal error. %s", message)
}

func NewAlreadyExist(message string) *Error {
	return newError(2).WithCode(AlreadyExist).WithMessage(message)
}

func NewNotFound(message string) *Error {
	return newError(2).WithCode(NotFound).WithMessage(message)
}

func NewExperimentNotFound(id string) *Error {
	return newError(2).WithCode(ExperimentNotFound).WithMessagef("experiment %s not found.", id)
}

func NewInvalidDefinition(id, reason string) *Error {
	return newError(2).WithCode(InvalidDefinition).WithMessagef("invalid definition of experiment %s: %s", id, reason)
}

func NewUnknownField(id string, err error) *Error {
	return newError(2).WithCode(UnknownField).
		WithMessagef("definition of experiment %s has unknown fields", id).WithError(err)
}

// NewOutputRead reports a failure of the output extraction pipeline. The
// low-level cause stays in the chain; callers branch on the code only.
func NewOutputRead(expId, filename, funcName string, cause error) *Error {
	return newError(2).WithCode(OutputRead).
		WithMessagef("failed to read output of experiment %s, file %s, function %s", expId, filename, funcName).
		WithError(cause)
}

func NewOutputReadMessagef(cause error, format string, args ...interface{}) *Error {
	return newError(2).WithCode(OutputRead).WithMessagef(format, args...).WithError(cause)
}

// NewPlot reports a failure of the plotting pipeline.
func NewPlot(expId, plotName string, cause error) *Error {
	return newError(2).WithCode(Plot).
		WithMessagef("failed to plot %s of experiment %s", plotName, expId).
		WithError(cause)
}

func NewPlotMessagef(cause error, format string, args ...interface{}) *Error {
	return newError(2).WithCode(Plot).WithMessagef(format, args...).WithError(cause)
}
