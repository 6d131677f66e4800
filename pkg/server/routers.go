/*
 * Copyright (c) 2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/config"
	"github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/errors"
)

func (s *Server) initRouters() *gin.Engine {
	e := gin.New()
	e.Use(gin.Logger(), gin.Recovery())
	e.NoRoute(func(c *gin.Context) {
		AbortWithApiError(c, errors.NewNotFound("no route for "+c.Request.Method+" "+c.Request.URL.Path))
	})

	group := e.Group("/v1")
	{
		if config.IsHealthCheckEnabled() {
			group.GET("healthz", s.Healthz)
		}
		group.GET("metrics", gin.WrapH(promhttp.Handler()))

		group.GET("experiments", s.ListExperiments)
		group.GET("experiments/:id", s.GetExperiment)
		group.GET("experiments/:id/report", s.GetExperimentReport)
		group.POST("experiments/:id/duplicate", s.DuplicateExperiment)
		group.POST("experiments/:id/state", s.UpdateExperimentState)
		group.POST("experiments/:id/warnings", s.ReplaceExperimentWarnings)
		group.DELETE("experiments/:id", s.DeleteExperiment)
	}
	return e
}
