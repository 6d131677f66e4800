/*
 * Copyright (C) 2025-2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package log

import (
	"flag"
	"strconv"

	"k8s.io/klog/v2"
)

// Init routes klog output to the given log file and mirrors it to stderr.
// An empty path leaves klog logging to stderr only. logFileSize bounds a
// single log file in megabytes, 0 means unlimited.
func Init(logfilePath string, logFileSize int) error {
	klog.InitFlags(nil)
	if logfilePath == "" {
		return nil
	}
	flag.Set("log_file", logfilePath)
	flag.Set("alsologtostderr", "true")
	flag.Set("logtostderr", "false")
	flag.Set("skip_log_headers", "true")
	if logFileSize != 0 {
		flag.Set("log_file_max_size", strconv.Itoa(logFileSize))
	}
	flag.Parse()
	return nil
}
