/*
 * Copyright (c) 2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package types

import (
	"flag"
	"fmt"
)

type Options struct {
	ConfigPath      string
	DefinitionsPath string
	DataRoot        string
	LogfilePath     string
	LogFileSize     int // unit: MB
}

func (opt *Options) Init() error {
	if opt == nil {
		return fmt.Errorf("the options is not initialized")
	}
	flag.StringVar(&opt.ConfigPath, "config", "", "The path of the service configuration file.")
	flag.StringVar(&opt.DefinitionsPath, "definitions_path", "", "The directory holding experiment definition files. "+
		"If set, it overrides the value from the configuration file.")
	flag.StringVar(&opt.DataRoot, "data_root", "", "The root directory experiment results are resolved under. "+
		"If set, it overrides the value from the configuration file.")
	flag.StringVar(&opt.LogfilePath, "log_file_path", "", "Path to the log file")
	flag.IntVar(&opt.LogFileSize, "log_file_size", 0,
		"Defines the maximum size of the log file. Unit is megabytes. "+
			"The default is 0, which means that the size is unlimited.")
	flag.Parse()

	if opt.ConfigPath == "" {
		return fmt.Errorf("-config is not found")
	}
	return nil
}
