/*
 * Copyright (C) 2025-2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package daemon

import (
	"context"

	"k8s.io/klog/v2"

	v1 "github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/api/v1"
	"github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/channel"
	"github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/errors"
	"github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/metrics"
	"github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/monitor"
	"github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/types"
)

// Dispatcher drains the action queue and carries each verdict out. A kill
// verdict stops the cluster job before the record moves to terminated,
// any other action label only marks the record with a warning, and an
// end-marker message closes out the finished run. Failed messages are
// requeued with rate limiting.
type Dispatcher struct {
	queue      *types.ActionQueue
	manager    *monitor.Manager
	terminator Terminator
	tomb       *channel.Tomb
	isExited   bool
}

func NewDispatcher(queue *types.ActionQueue, manager *monitor.Manager, terminator Terminator) *Dispatcher {
	return &Dispatcher{
		queue:      queue,
		manager:    manager,
		terminator: terminator,
		tomb:       channel.NewTomb(),
		isExited:   true,
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	go func() {
		d.isExited = false
		defer func() {
			d.tomb.Done()
		}()
		for {
			select {
			case <-d.tomb.Stopping():
				return
			default:
				if shutdown := d.Dispatch(ctx); shutdown {
					return
				}
			}
		}
	}()
}

// Stop is only safe after the queue has been shut down; Dispatch blocks
// on the queue until then.
func (d *Dispatcher) Stop() {
	if d.isExited {
		return
	}
	d.tomb.Stop()
	d.isExited = true
}

func (d *Dispatcher) IsExited() bool {
	return d.isExited
}

func (d *Dispatcher) Dispatch(ctx context.Context) bool {
	message, shutdown := (*d.queue).Get()
	if shutdown {
		return true
	}
	defer (*d.queue).Done(message)

	if err := d.handle(ctx, message); err != nil {
		klog.ErrorS(err, "failed to carry out the verdict",
			"experiment", message.ExperimentId, "condition", message.ConditionName)
		(*d.queue).AddRateLimited(message)
		return false
	}
	(*d.queue).Forget(message)
	return false
}

func (d *Dispatcher) handle(ctx context.Context, message *types.ActionMessage) error {
	switch {
	case message.Kind == types.KindFinished:
		return d.manager.CompleteRun(ctx, message.ExperimentId)
	case message.Action == v1.ActionKill:
		return d.terminate(ctx, message)
	default:
		return d.manager.Warn(ctx, message.ExperimentId, message.ConditionName)
	}
}

func (d *Dispatcher) terminate(ctx context.Context, message *types.ActionMessage) error {
	exp, err := d.manager.Get(message.ExperimentId)
	if err != nil {
		// The record may have been deleted while the message waited.
		return errors.IgnoreFound(err)
	}
	if exp.IsEnd() {
		return nil
	}
	klog.Infof("condition %s of experiment %s prescribes kill on line %q, stopping the job",
		message.ConditionName, message.ExperimentId, message.Line)
	if err = d.terminator.Terminate(ctx, exp); err != nil {
		return err
	}
	metrics.TerminationsExecuted.Inc()
	return d.manager.UpdateState(ctx, message.ExperimentId, v1.ExperimentTerminated, "")
}
