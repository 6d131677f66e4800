/*
 * Copyright (C) 2025-2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package monitor

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"k8s.io/klog/v2"

	v1 "github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/api/v1"
	"github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/channel"
	"github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/config"
	"github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/errors"
	"github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/experiment"
	"github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/metrics"
	"github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/processor"
	"github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/types"
	"github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/utils"
)

// Persister saves experiment records as the manager mutates the set.
// Implemented by the database store.
type Persister interface {
	Save(ctx context.Context, exp *v1.Experiment) error
	Delete(ctx context.Context, id string) error
}

// Manager owns the set of experiment records and the monitors of the
// live ones. Every record mutation goes through the manager, and the
// record's monitor is stopped before the mutation is applied, so a tick
// never observes a half-applied change.
type Manager struct {
	// All known records by id, live and ended
	experiments map[string]*v1.Experiment
	// Ids of the records backed by a definition file
	definedIds map[string]bool
	// Monitors of the live records, experiment id -> *Monitor
	monitors sync.Map
	queue    *types.ActionQueue
	engine   *processor.Engine
	store    Persister
	// The directory watched for definition files
	definitionsPath string
	// Cron spec shared by all monitors
	schedule string
	tomb     *channel.Tomb
	mu       sync.Mutex
	// Wall clock, swappable in tests
	now      func() time.Time
	isExited bool
}

func NewManager(queue *types.ActionQueue, engine *processor.Engine, store Persister,
	definitionsPath string, intervalSecond int) *Manager {
	if intervalSecond <= 0 {
		intervalSecond = 30
	}
	return &Manager{
		experiments:     map[string]*v1.Experiment{},
		definedIds:      map[string]bool{},
		queue:           queue,
		engine:          engine,
		store:           store,
		definitionsPath: definitionsPath,
		schedule:        fmt.Sprintf("@every %ds", intervalSecond),
		tomb:            channel.NewTomb(),
		now:             time.Now,
		isExited:        true,
	}
}

// Start adopts the known records, loads the definitions directory and
// begins watching it for changes.
func (mgr *Manager) Start(ctx context.Context, known []*v1.Experiment) error {
	mgr.mu.Lock()
	for _, exp := range known {
		mgr.experiments[exp.Id] = exp
		if !exp.IsEnd() {
			mgr.startMonitor(exp)
		}
	}
	mgr.mu.Unlock()

	if err := mgr.syncDefinitions(ctx); err != nil {
		return err
	}
	go mgr.watchDefinitions(ctx)
	mgr.isExited = false
	return nil
}

// Stop halts the definitions watch and every monitor.
func (mgr *Manager) Stop() {
	if !mgr.isExited && mgr.tomb != nil {
		mgr.tomb.Stop()
		mgr.stopMonitors()
	}
	mgr.isExited = true
}

func (mgr *Manager) stopMonitors() {
	count := 0
	mgr.monitors.Range(func(key, value interface{}) bool {
		if inst, ok := value.(*Monitor); ok {
			inst.Stop()
			count++
		}
		return true
	})
	klog.Infof("stop all monitors, total count: %d", count)
}

func (mgr *Manager) watchDefinitions(ctx context.Context) {
	defer mgr.tomb.Done()

	for {
		select {
		case <-mgr.tomb.Stopping():
			klog.Infof("stop to watch dir: %s", mgr.definitionsPath)
			return
		default:
			if err := mgr.watchOnce(ctx); err != nil {
				time.Sleep(time.Second)
			}
		}
	}
}

func (mgr *Manager) watchOnce(ctx context.Context) error {
	watcher, err := utils.GetDirWatcher(mgr.definitionsPath)
	if err != nil {
		klog.ErrorS(err, "failed to get watcher", "path", mgr.definitionsPath)
		return err
	}
	defer func() {
		if err = watcher.Close(); err != nil {
			klog.ErrorS(err, "failed to close dir watcher")
		}
	}()

	klog.Infof("start to watch dir(%s) for definition changes", mgr.definitionsPath)
	for {
		select {
		case <-mgr.tomb.Stopping():
			return nil
		case ev, ok := <-watcher.Events:
			if ok && (ev.Op == fsnotify.Create || ev.Op == fsnotify.Write || ev.Op == fsnotify.Remove) {
				if err = mgr.syncDefinitions(ctx); err != nil {
					klog.ErrorS(err, "failed to reload definitions")
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("unknown error")
			}
			return err
		}
	}
}

// syncDefinitions reconciles the records with the definitions directory.
// A new definition becomes a record; a changed definition updates the
// record's declarative fields and restarts its monitor; a removed
// definition stops the monitor but keeps the record and its history.
// Records created through the API are not touched.
func (mgr *Manager) syncDefinitions(ctx context.Context) error {
	defined, err := config.LoadDefinitions(mgr.definitionsPath, mgr.now())
	if err != nil {
		return err
	}

	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	newDefined := make(map[string]bool, len(defined))
	for _, exp := range defined {
		newDefined[exp.Id] = true
	}
	for id := range mgr.definedIds {
		if !newDefined[id] {
			mgr.removeMonitor(id)
			klog.Infof("definition of experiment %s removed, monitor stopped", id)
		}
	}
	mgr.definedIds = newDefined

	for _, newExp := range defined {
		current, known := mgr.experiments[newExp.Id]
		switch {
		case !known:
			if err = mgr.adoptExperiment(ctx, newExp); err != nil {
				klog.ErrorS(err, "failed to adopt experiment", "id", newExp.Id)
			}
		case specChanged(&current.Spec, &newExp.Spec):
			mgr.updateSpec(ctx, current, newExp.Spec)
		default:
			if !current.IsEnd() && mgr.getMonitor(current.Id) == nil {
				mgr.startMonitor(current)
			}
		}
	}
	return nil
}

// specChanged compares declarative fields. Condition start times are
// runtime state and are ignored.
func specChanged(current, loaded *v1.ExperimentSpec) bool {
	a, b := current.DeepCopy(), loaded.DeepCopy()
	for _, cond := range a.Conditions {
		cond.StartTime = time.Time{}
	}
	for _, cond := range b.Conditions {
		cond.StartTime = time.Time{}
	}
	return !reflect.DeepEqual(a, b)
}

func (mgr *Manager) adoptExperiment(ctx context.Context, exp *v1.Experiment) error {
	if err := mgr.store.Save(ctx, exp); err != nil {
		return err
	}
	mgr.experiments[exp.Id] = exp
	mgr.startMonitor(exp)
	klog.Infof("load experiment %s", exp.Id)
	return nil
}

// updateSpec adopts changed declarative fields. The lifecycle history,
// warnings and run results stay untouched. Time gates of a running
// experiment are re-armed, as on a transition into running.
func (mgr *Manager) updateSpec(ctx context.Context, exp *v1.Experiment, spec v1.ExperimentSpec) {
	mgr.removeMonitor(exp.Id)
	exp.Spec = *spec.DeepCopy()
	if exp.IsRunning() {
		for _, cond := range exp.Spec.Conditions {
			cond.StartTime = mgr.now()
		}
	}
	if err := mgr.store.Save(ctx, exp); err != nil {
		klog.ErrorS(err, "failed to save experiment", "id", exp.Id)
	}
	if !exp.IsEnd() {
		mgr.startMonitor(exp)
	}
	klog.Infof("definition of experiment %s changed, monitor restarted", exp.Id)
}

// AddExperiment adopts a record created outside the definitions
// directory, such as one posted through the API.
func (mgr *Manager) AddExperiment(ctx context.Context, exp *v1.Experiment) error {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	if _, ok := mgr.experiments[exp.Id]; ok {
		return errors.NewAlreadyExist(fmt.Sprintf("experiment %s already exists", exp.Id))
	}
	return mgr.adoptExperiment(ctx, exp)
}

// Get returns a copy of the known record with the id. Callers may hold
// or marshal it without racing record mutations.
func (mgr *Manager) Get(id string) (*v1.Experiment, error) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	exp, ok := mgr.experiments[id]
	if !ok {
		return nil, errors.NewExperimentNotFound(id)
	}
	return exp.DeepCopy(), nil
}

// List returns copies of all known records sorted by id.
func (mgr *Manager) List() []*v1.Experiment {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	out := make([]*v1.Experiment, 0, len(mgr.experiments))
	for _, exp := range mgr.experiments {
		out = append(out, exp.DeepCopy())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	return out
}

// Duplicate creates an independent copy of the record under newId and
// adopts it. An empty newId derives one from the source id.
func (mgr *Manager) Duplicate(ctx context.Context, id, newId string) (*v1.Experiment, error) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	src, ok := mgr.experiments[id]
	if !ok {
		return nil, errors.NewExperimentNotFound(id)
	}
	if newId == "" {
		newId = fmt.Sprintf("%s-%.8s", id, uuid.NewString())
	}
	if _, ok = mgr.experiments[newId]; ok {
		return nil, errors.NewAlreadyExist(fmt.Sprintf("experiment %s already exists", newId))
	}
	dup, err := experiment.Duplicate(src, newId, mgr.now())
	if err != nil {
		return nil, err
	}
	if err = mgr.adoptExperiment(ctx, dup); err != nil {
		return nil, err
	}
	return dup.DeepCopy(), nil
}

// UpdateState applies a lifecycle transition. The record's monitor is
// stopped first and a fresh one is started afterwards unless the record
// ended. A transition to the current state changes nothing.
func (mgr *Manager) UpdateState(ctx context.Context, id string, state v1.ExperimentState, clusterId string) error {
	if !state.IsValid() {
		return errors.NewBadRequest(fmt.Sprintf("unknown state %s", state))
	}
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	exp, ok := mgr.experiments[id]
	if !ok {
		return errors.NewExperimentNotFound(id)
	}
	if exp.State() == state {
		if clusterId != "" && clusterId != exp.Status.ClusterId {
			exp.Status.ClusterId = clusterId
			return mgr.store.Save(ctx, exp)
		}
		return nil
	}

	mgr.removeMonitor(id)
	exp.UpdateState(state, mgr.now())
	if clusterId != "" {
		exp.Status.ClusterId = clusterId
	}
	err := mgr.store.Save(ctx, exp)
	if !exp.IsEnd() {
		mgr.startMonitor(exp)
	}
	return err
}

// CompleteRun archives the results directory of the finished run on the
// record and moves it to the finished state. Repeated calls for an
// already finished record change nothing.
func (mgr *Manager) CompleteRun(ctx context.Context, id string) error {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	exp, ok := mgr.experiments[id]
	if !ok {
		return errors.NewExperimentNotFound(id)
	}
	if exp.State() == v1.ExperimentFinished {
		return nil
	}
	// Resolve before the transition; a finished record resolves to its
	// last run result instead.
	resultsDir := mgr.engine.ResultsDir(exp)
	mgr.removeMonitor(id)
	exp.AppendRunResult(resultsDir)
	exp.UpdateState(v1.ExperimentFinished, mgr.now())
	return mgr.store.Save(ctx, exp)
}

// Warn records that the named condition of the experiment was met.
func (mgr *Manager) Warn(ctx context.Context, id, conditionName string) error {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	exp, ok := mgr.experiments[id]
	if !ok {
		return errors.NewExperimentNotFound(id)
	}
	exp.SetWarning(conditionName, mgr.now())
	return mgr.store.Save(ctx, exp)
}

// ReplaceWarnings performs the administrative bulk reset of a record's
// warning list.
func (mgr *Manager) ReplaceWarnings(ctx context.Context, id string, warnings []string) error {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	exp, ok := mgr.experiments[id]
	if !ok {
		return errors.NewExperimentNotFound(id)
	}
	exp.ReplaceWarnings(warnings)
	return mgr.store.Save(ctx, exp)
}

// DeleteExperiment stops the record's monitor and drops the record. A
// record still backed by a definition file comes back on the next sync;
// remove the file first.
func (mgr *Manager) DeleteExperiment(ctx context.Context, id string) error {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	if _, ok := mgr.experiments[id]; !ok {
		return errors.NewExperimentNotFound(id)
	}
	mgr.removeMonitor(id)
	delete(mgr.experiments, id)
	return mgr.store.Delete(ctx, id)
}

func (mgr *Manager) startMonitor(exp *v1.Experiment) {
	if exp.IsEnd() {
		return
	}
	m := NewMonitor(exp, mgr.queue, mgr.engine, mgr.schedule)
	if m == nil {
		return
	}
	m.now = mgr.now
	mgr.monitors.Store(exp.Id, m)
	m.Start()
	metrics.MonitoredExperiments.Inc()
}

func (mgr *Manager) removeMonitor(id string) {
	m := mgr.getMonitor(id)
	if m == nil {
		return
	}
	m.Stop()
	mgr.monitors.Delete(id)
	metrics.MonitoredExperiments.Dec()
}

func (mgr *Manager) getMonitor(id string) *Monitor {
	val, ok := mgr.monitors.Load(id)
	if !ok {
		return nil
	}
	m, ok := val.(*Monitor)
	if !ok {
		return nil
	}
	return m
}
