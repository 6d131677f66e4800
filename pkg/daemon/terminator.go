/*
 * Copyright (C) 2025-2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package daemon

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/shlex"
	"k8s.io/klog/v2"

	v1 "github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/api/v1"
	"github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/config"
)

// Terminator stops the cluster job behind an experiment.
type Terminator interface {
	Terminate(ctx context.Context, exp *v1.Experiment) error
}

// CommandTerminator shells out to the configured terminate command, e.g.
// scancel. The job id recorded on the record is handed to the command as
// its last argument; a record that never reported one is addressed by the
// experiment id instead. Failed invocations are retried with exponential
// backoff until maxElapsed runs out.
type CommandTerminator struct {
	command    string
	timeout    time.Duration
	maxElapsed time.Duration
}

func NewCommandTerminator() *CommandTerminator {
	return &CommandTerminator{
		command:    config.GetTerminateCommand(),
		timeout:    time.Duration(config.GetTerminateTimeoutSecond()) * time.Second,
		maxElapsed: time.Duration(config.GetTerminateMaxElapsedSecond()) * time.Second,
	}
}

func (t *CommandTerminator) Terminate(ctx context.Context, exp *v1.Experiment) error {
	args, err := t.args(exp)
	if err != nil {
		return err
	}
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = t.maxElapsed
	return backoff.Retry(func() error {
		return t.runOnce(ctx, args)
	}, backoff.WithContext(b, ctx))
}

// args tokenizes the configured command and appends the kill target.
func (t *CommandTerminator) args(exp *v1.Experiment) ([]string, error) {
	parts, err := shlex.Split(t.command)
	if err != nil {
		return nil, fmt.Errorf("broken terminate command %q: %v", t.command, err)
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("the terminate command is empty")
	}
	target := exp.Status.ClusterId
	if target == "" {
		target = exp.Id
	}
	return append(parts, target), nil
}

func (t *CommandTerminator) runOnce(ctx context.Context, args []string) error {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	output, err := exec.CommandContext(ctx, args[0], args[1:]...).CombinedOutput()
	if err != nil {
		klog.ErrorS(err, "terminate command failed", "args", args, "output", string(output))
		return err
	}
	klog.Infof("executed %v", args)
	return nil
}
