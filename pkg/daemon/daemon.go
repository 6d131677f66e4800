/*
 * Copyright © AMD. 2025-2026. All rights reserved.
 */

package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"k8s.io/client-go/util/workqueue"
	"k8s.io/klog/v2"

	v1 "github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/api/v1"
	"github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/config"
	"github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/database"
	"github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/log"
	"github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/monitor"
	"github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/processor"
	"github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/server"
	"github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/types"
)

type Daemon struct {
	opts       *types.Options
	queue      types.ActionQueue
	db         *sqlx.DB
	store      monitor.Persister
	dbStore    *database.Store
	engine     *processor.Engine
	manager    *monitor.Manager
	dispatcher *Dispatcher
	server     *server.Server
	isInited   bool
}

func NewDaemon() (*Daemon, error) {
	d := &Daemon{
		opts: &types.Options{},
		queue: workqueue.NewTypedRateLimitingQueueWithConfig(
			workqueue.DefaultTypedControllerRateLimiter[*types.ActionMessage](),
			workqueue.TypedRateLimitingQueueConfig[*types.ActionMessage]{Name: "daemon"}),
	}

	var err error
	if err = d.opts.Init(); err != nil {
		return nil, fmt.Errorf("failed to parse options, err: %s", err.Error())
	}
	if err = log.Init(d.opts.LogfilePath, d.opts.LogFileSize); err != nil {
		return nil, fmt.Errorf("failed to init logs. %s", err.Error())
	}
	if err = d.initConfig(); err != nil {
		return nil, err
	}
	if err = d.initStore(); err != nil {
		return nil, err
	}
	registry := processor.NewRegistry()
	processor.RegisterBuiltins(registry)
	d.engine = processor.NewEngine(registry, registry, config.GetDataRoot())
	d.manager = monitor.NewManager(&d.queue, d.engine, d.store,
		config.GetDefinitionsPath(), config.GetMonitorIntervalSecond())
	d.dispatcher = NewDispatcher(&d.queue, d.manager, NewCommandTerminator())
	if d.server, err = server.NewServer(d.manager, d.engine); err != nil {
		return nil, fmt.Errorf("failed to init http server. %s", err.Error())
	}
	d.isInited = true
	return d, nil
}

func (d *Daemon) initConfig() error {
	configPath, err := filepath.Abs(d.opts.ConfigPath)
	if err != nil {
		return err
	}
	if err = config.LoadConfig(configPath); err != nil {
		return fmt.Errorf("failed to load config %s, err: %s", configPath, err.Error())
	}
	// Flags override the file settings.
	if d.opts.DefinitionsPath != "" {
		config.SetDefinitionsPath(d.opts.DefinitionsPath)
	}
	if d.opts.DataRoot != "" {
		config.SetDataRoot(d.opts.DataRoot)
	}
	if config.GetDefinitionsPath() == "" {
		return fmt.Errorf("the experiment definitions path is not configured")
	}
	if config.GetDataRoot() == "" {
		return fmt.Errorf("the experiment data root is not configured")
	}
	return nil
}

func (d *Daemon) initStore() error {
	if !config.IsDBEnable() {
		klog.Infof("the database is disabled, records live in memory only")
		d.store = database.NullStore{}
		return nil
	}
	db, err := database.Connect(database.NewConfig())
	if err != nil {
		return fmt.Errorf("failed to connect database. %s", err.Error())
	}
	store := database.NewStore(db, time.Duration(config.GetDBRequestTimeoutSecond())*time.Second)
	if err = store.EnsureSchema(context.Background()); err != nil {
		return fmt.Errorf("failed to ensure schema. %s", err.Error())
	}
	d.db = db
	d.dbStore = store
	d.store = store
	return nil
}

func (d *Daemon) Start() {
	if !d.isInited {
		klog.Errorf("Please initialize the daemon first")
		return
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	klog.Infof("start experiment-manager daemon")
	defer d.Stop()
	known, err := d.storedExperiments(ctx)
	if err != nil {
		klog.ErrorS(err, "failed to load stored experiments")
		return
	}
	if err = d.manager.Start(ctx, known); err != nil {
		klog.ErrorS(err, "failed to start monitor manager")
		return
	}
	d.dispatcher.Start(ctx)
	go func() {
		if err := d.server.Start(); err != nil {
			klog.Fatalf("failed to run http server, err: %s", err.Error())
		}
	}()
	<-ctx.Done()
}

// storedExperiments loads the records adopted on startup. Without a
// database the definitions directory alone seeds the manager.
func (d *Daemon) storedExperiments(ctx context.Context) ([]*v1.Experiment, error) {
	if d.dbStore == nil {
		return nil, nil
	}
	return d.dbStore.ListAll(ctx)
}

func (d *Daemon) Stop() {
	if d.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		d.server.Stop(ctx)
		cancel()
	}
	if d.manager != nil {
		d.manager.Stop()
	}
	d.queue.ShutDown()
	if d.dispatcher != nil {
		d.dispatcher.Stop()
	}
	if d.db != nil {
		if err := d.db.Close(); err != nil {
			klog.ErrorS(err, "failed to close database")
		}
	}
	klog.Infof("experiment-manager daemon stopped")
	klog.Flush()
}
