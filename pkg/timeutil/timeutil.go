/*
 * Copyright (C) 2025-2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package timeutil

import (
	"time"
)

// TimeDefault is the human-readable timestamp layout used in warnings
// and reports.
const TimeDefault = "2006-01-02 15:04:05"

func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(TimeDefault)
}

func ParseTime(strTime string) (time.Time, error) {
	if strTime == "" {
		return time.Time{}, nil
	}
	return time.Parse(TimeDefault, strTime)
}

// ElapsedMinutes returns the wall-clock minutes between since and now.
func ElapsedMinutes(since, now time.Time) float64 {
	return now.Sub(since).Minutes()
}
