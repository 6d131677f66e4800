/*
 * Copyright (c) 2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package config

const (
	// server
	serverPrefix = "server."
	serverPort   = serverPrefix + "port"

	// health_check
	healthCheckPrefix = "health_check."
	healthCheckEnable = healthCheckPrefix + "enable"

	// experiment
	experimentPrefix          = "experiment."
	experimentDefinitionsPath = experimentPrefix + "definitions_path"
	experimentDataRoot        = experimentPrefix + "data_root"

	// monitor
	monitorPrefix         = "monitor."
	monitorIntervalSecond = monitorPrefix + "interval_second"

	// terminate
	terminatePrefix           = "terminate."
	terminateCommand          = terminatePrefix + "command"
	terminateTimeoutSecond    = terminatePrefix + "timeout_second"
	terminateMaxElapsedSecond = terminatePrefix + "max_elapsed_second"

	// db
	dbPrefix               = "db."
	dbEnable               = dbPrefix + "enable"
	dbSecretPath           = dbPrefix + "secret_path"
	dbHost                 = dbPrefix + "host"
	dbPort                 = dbPrefix + "port"
	dbName                 = dbPrefix + "dbname"
	dbUser                 = dbPrefix + "user"
	dbPassword             = dbPrefix + "password"
	dbSslMode              = dbPrefix + "ssl_mode"
	dbMaxOpenConns         = dbPrefix + "max_open_conns"
	dbMaxIdleConns         = dbPrefix + "max_idle_conns"
	dbMaxLifetime          = dbPrefix + "max_life_time_second"
	dbMaxIdleTimeSecond    = dbPrefix + "max_idle_time_second"
	dbConnectTimeoutSecond = dbPrefix + "connect_timeout_second"
	dbRequestTimeoutSecond = dbPrefix + "request_timeout_second"
)
