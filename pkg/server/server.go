/*
 * Copyright (C) 2025-2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"

	"github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/config"
	"github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/monitor"
	"github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/processor"
)

// Server exposes the experiment records over HTTP. All reads and
// mutations go through the manager, which serializes them against the
// monitors.
type Server struct {
	manager    *monitor.Manager
	engine     *processor.Engine
	httpServer *http.Server
}

func NewServer(manager *monitor.Manager, engine *processor.Engine) (*Server, error) {
	if config.GetServerPort() <= 0 {
		return nil, fmt.Errorf("the server port is not defined")
	}
	gin.SetMode(gin.ReleaseMode)
	gin.EnableJsonDecoderDisallowUnknownFields()

	s := &Server{manager: manager, engine: engine}
	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", config.GetServerPort()),
		Handler: s.initRouters(),
	}
	return s, nil
}

// Start serves until Stop is called. It blocks.
func (s *Server) Start() error {
	klog.Infof("http-server listen port: %d", config.GetServerPort())
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		klog.ErrorS(err, "failed to start http server")
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		klog.ErrorS(err, "failed to shutdown httpserver")
	}
}
