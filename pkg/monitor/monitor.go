/*
 * Copyright (C) 2025-2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package monitor

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"k8s.io/klog/v2"

	v1 "github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/api/v1"
	"github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/channel"
	"github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/errors"
	"github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/metrics"
	"github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/processor"
	"github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/types"
	"github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/utils"
)

// EndMarkerFile signals run completion. The job wrapper drops it into
// the results directory as its last step.
const EndMarkerFile = ".finished"

// Monitor tails the output log of one experiment and reports a verdict
// for every new line through the queue.
type Monitor struct {
	// The experiment record this monitor watches. While the monitor is
	// running, record mutations go through the manager, which stops the
	// monitor first.
	exp *v1.Experiment
	// The queue verdicts are reported to; the daemon workers act on them
	queue *types.ActionQueue
	// Resolves results directories and renders plots
	engine *processor.Engine
	// Cron spec of the tick, e.g. "@every 30s"
	schedule string
	// Byte offset of the next read from the output log
	offset int64
	// Plot feedback carried between ticks, keyed by plot name
	feedback map[string]interface{}
	// Used to control whether to exit the monitor
	tomb *channel.Tomb
	// Wall clock, swappable in tests
	now func() time.Time
	// Mark whether the monitor has exited
	isExited bool
}

// NewMonitor creates a new Monitor instance for the experiment.
func NewMonitor(exp *v1.Experiment, queue *types.ActionQueue, engine *processor.Engine, schedule string) *Monitor {
	if exp == nil {
		return nil
	}
	return &Monitor{
		exp:      exp,
		queue:    queue,
		engine:   engine,
		schedule: schedule,
		feedback: map[string]interface{}{},
		tomb:     channel.NewTomb(),
		now:      time.Now,
		isExited: true,
	}
}

// Experiment returns the record the monitor watches.
func (m *Monitor) Experiment() *v1.Experiment {
	return m.exp
}

// Start the monitoring process by the cron job. An ended experiment gets
// no ticks.
func (m *Monitor) Start() {
	if m == nil || m.exp.IsEnd() {
		return
	}
	go m.startCronJob()
	m.isExited = false
}

// Stop the monitoring process and wait out an in-flight tick.
func (m *Monitor) Stop() {
	if !m.IsExited() && m.tomb != nil {
		m.tomb.Stop()
	}
	m.isExited = true
}

// startCronJob: initializes and starts the cron scheduler for this monitor
func (m *Monitor) startCronJob() {
	start := time.Now().UTC()
	defer func() {
		klog.Infof("stop monitor of experiment %s, duration: %v", m.exp.Id, time.Since(start))
	}()

	// Create a new Cron instance. If a tick is still running, subsequent
	// triggers are skipped, so the log is never read concurrently.
	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DiscardLogger),
	))

	schedule, err := cron.ParseStandard(m.schedule)
	if err != nil {
		klog.ErrorS(err, "failed to parse monitor schedule", "schedule", m.schedule)
		return
	}
	c.Schedule(schedule, m)
	c.Start()
	klog.Infof("start monitor of experiment %s", m.exp.Id)

	<-m.tomb.Stopping()
	// Note: Once stopped, it cannot be restarted. You can only create a new one.
	// The returned context closes after an in-flight tick has completed.
	<-c.Stop().Done()
	m.tomb.Done()
}

// Run: reads the log lines produced since the previous tick and reports a
// verdict for each. It implements the cron.Job interface.
func (m *Monitor) Run() {
	if !m.exp.IsRunning() {
		return
	}
	resultsDir := m.engine.ResultsDir(m.exp)
	lines, err := m.readNewLines(filepath.Join(resultsDir, m.exp.Spec.LogOutput))
	if err != nil {
		// The log shows up only once the job starts writing.
		klog.V(4).Infof("output log of experiment %s is not readable: %v", m.exp.Id, err)
		return
	}

	now := m.now()
	for _, line := range lines {
		metrics.LogLinesEvaluated.Inc()
		action, conditionName := GetAction(m.exp, line, now)
		if action == v1.NoAction {
			continue
		}
		metrics.ConditionsFired.WithLabelValues(action).Inc()
		(*m.queue).Add(&types.ActionMessage{
			ExperimentId:  m.exp.Id,
			Kind:          types.KindCondition,
			Action:        action,
			ConditionName: conditionName,
			Line:          line,
		})
		if action == v1.ActionKill {
			// The job is going down; the remaining lines no longer matter.
			return
		}
	}

	if len(lines) > 0 {
		m.refreshPlots()
	}
	if utils.IsFileExist(filepath.Join(resultsDir, EndMarkerFile)) {
		(*m.queue).Add(&types.ActionMessage{
			ExperimentId: m.exp.Id,
			Kind:         types.KindFinished,
		})
	}
}

// readNewLines returns the complete lines appended to the log since the
// previous call. A trailing fragment without a newline stays unread until
// a later tick completes it.
func (m *Monitor) readNewLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err2 := f.Close(); err2 != nil {
			klog.ErrorS(err2, "failed to close output log", "path", path)
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() < m.offset {
		// The log was truncated or replaced, start over.
		m.offset = 0
	}
	if _, err = f.Seek(m.offset, io.SeekStart); err != nil {
		return nil, err
	}

	var lines []string
	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadString('\n')
		if err == io.EOF {
			break
		}
		if err != nil {
			return lines, err
		}
		m.offset += int64(len(line))
		lines = append(lines, strings.TrimRight(line, "\r\n"))
	}
	return lines, nil
}

// refreshPlots reruns every configured plot, threading the feedback the
// plotter returned on the previous tick, so live plots update in place.
func (m *Monitor) refreshPlots() {
	names := make([]string, 0, len(m.exp.Spec.Plot))
	for name := range m.exp.Spec.Plot {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		next, err := m.engine.Plot(m.exp, name, m.feedback[name])
		if err != nil {
			if errors.IsOutputRead(err) {
				// Outputs may not exist yet while the job warms up.
				klog.V(4).Infof("plot %s of experiment %s skipped: %v", name, m.exp.Id, err)
			} else {
				klog.ErrorS(err, "failed to refresh plot", "experiment", m.exp.Id, "plot", name)
			}
			continue
		}
		m.feedback[name] = next
	}
}

// IsExited: returns whether the monitor has been stopped
func (m *Monitor) IsExited() bool {
	return m.isExited
}
