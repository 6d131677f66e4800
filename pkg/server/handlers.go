/*
 * Copyright (c) 2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	v1 "github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/api/v1"
	"github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/errors"
	"github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/experiment"
)

// StateRequest asks for a lifecycle transition.
type StateRequest struct {
	State string `json:"state"`
	// Scheduler job id, recorded on submission transitions
	ClusterId string `json:"clusterId,omitempty"`
}

// DuplicateRequest names the copy. An empty NewId derives one from the
// source id.
type DuplicateRequest struct {
	NewId string `json:"newId,omitempty"`
}

// WarningsRequest replaces the warning list of a record.
type WarningsRequest struct {
	Warnings []string `json:"warnings"`
}

func (s *Server) Healthz(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// ListExperiments returns all known records, optionally filtered by
// state, collection label, or the presence of warnings.
func (s *Server) ListExperiments(c *gin.Context) {
	state := c.Query("state")
	collection := c.Query("collection")
	var warned *bool
	if val := c.Query("warned"); val != "" {
		parsed, err := strconv.ParseBool(val)
		if err != nil {
			AbortWithApiError(c, errors.NewBadRequest("warned must be a boolean"))
			return
		}
		warned = &parsed
	}

	exps := make([]*v1.Experiment, 0)
	for _, exp := range s.manager.List() {
		if state != "" && string(exp.State()) != state {
			continue
		}
		if collection != "" && !hasCollection(exp, collection) {
			continue
		}
		if warned != nil && exp.HasWarnings() != *warned {
			continue
		}
		exps = append(exps, exp)
	}
	c.JSON(http.StatusOK, exps)
}

func hasCollection(exp *v1.Experiment, label string) bool {
	for _, name := range exp.Spec.Collection {
		if name == label {
			return true
		}
	}
	return false
}

func (s *Server) GetExperiment(c *gin.Context) {
	exp, err := s.manager.Get(c.Param("id"))
	if err != nil {
		AbortWithApiError(c, err)
		return
	}
	c.JSON(http.StatusOK, exp)
}

// GetExperimentReport renders the plain-text report of one record.
func (s *Server) GetExperimentReport(c *gin.Context) {
	exp, err := s.manager.Get(c.Param("id"))
	if err != nil {
		AbortWithApiError(c, err)
		return
	}
	lines := experiment.Report(exp, s.engine)
	c.String(http.StatusOK, strings.Join(lines, "\n")+"\n")
}

func (s *Server) DuplicateExperiment(c *gin.Context) {
	req := DuplicateRequest{}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithApiError(c, errors.NewBadRequest(err.Error()))
			return
		}
	}
	dup, err := s.manager.Duplicate(c.Request.Context(), c.Param("id"), req.NewId)
	if err != nil {
		AbortWithApiError(c, err)
		return
	}
	c.JSON(http.StatusOK, dup)
}

func (s *Server) UpdateExperimentState(c *gin.Context) {
	req := StateRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithApiError(c, errors.NewBadRequest(err.Error()))
		return
	}
	id := c.Param("id")
	if err := s.manager.UpdateState(c.Request.Context(), id, v1.ExperimentState(req.State), req.ClusterId); err != nil {
		AbortWithApiError(c, err)
		return
	}
	exp, err := s.manager.Get(id)
	if err != nil {
		AbortWithApiError(c, err)
		return
	}
	c.JSON(http.StatusOK, exp)
}

func (s *Server) ReplaceExperimentWarnings(c *gin.Context) {
	req := WarningsRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithApiError(c, errors.NewBadRequest(err.Error()))
		return
	}
	id := c.Param("id")
	if err := s.manager.ReplaceWarnings(c.Request.Context(), id, req.Warnings); err != nil {
		AbortWithApiError(c, err)
		return
	}
	exp, err := s.manager.Get(id)
	if err != nil {
		AbortWithApiError(c, err)
		return
	}
	c.JSON(http.StatusOK, exp)
}

func (s *Server) DeleteExperiment(c *gin.Context) {
	if err := s.manager.DeleteExperiment(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithApiError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
