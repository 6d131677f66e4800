/*
 * Copyright (C) 2025-2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/errors"
)

// ApiError is the JSON error body of the HTTP surface.
type ApiError struct {
	HttpCode     int    `json:"-"`
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

func (err *ApiError) Error() string {
	return err.ErrorMessage
}

func AbortWithApiError(c *gin.Context, err error) {
	_ = c.Error(err)
	rsp := cvtToErrResponse(err)
	c.AbortWithStatusJSON(rsp.HttpCode, rsp)
}

func cvtToErrResponse(err error) ApiError {
	code := errors.GetErrorCode(err)
	if code == "" {
		code = errors.InternalError
	}
	return ApiError{
		HttpCode:     httpStatus(err),
		ErrorCode:    code,
		ErrorMessage: err.Error(),
	}
}

func httpStatus(err error) int {
	switch {
	case errors.IsNotFound(err):
		return http.StatusNotFound
	case errors.IsBadRequest(err):
		return http.StatusBadRequest
	case errors.IsAlreadyExist(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
