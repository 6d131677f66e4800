/*
 * Copyright © AMD. 2025-2026. All rights reserved.
 */

package types

import (
	"k8s.io/client-go/util/workqueue"
)

const (
	// ActionMessage kinds
	KindCondition = 0
	KindFinished  = 1
)

type ActionQueue workqueue.TypedRateLimitingInterface[*ActionMessage]

// ActionMessage is one verdict produced by a monitor. The daemon workers
// consume the queue and carry the verdicts out.
type ActionMessage struct {
	// The experiment the verdict applies to
	ExperimentId string
	// One of the Kind constants
	Kind int
	// The action label of the fired condition. Only "kill" has built-in
	// meaning; every other label is recorded as a warning.
	Action string
	// The name of the condition that fired
	ConditionName string
	// The log line that fired the condition
	Line string
}
