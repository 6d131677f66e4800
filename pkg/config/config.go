/*
 * Copyright (C) 2025-2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

func SetValue(key, value string) {
	viper.Set(key, value)
}

func LoadConfig(path string) error {
	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")
	return viper.ReadInConfig()
}

func getString(key, defaultValue string) string {
	if !viper.IsSet(key) {
		return defaultValue
	}
	return viper.GetString(key)
}

func getBool(key string, defaultValue bool) bool {
	if !viper.IsSet(key) {
		return defaultValue
	}
	return viper.GetBool(key)
}

func getInt(key string, defaultValue int) int {
	if !viper.IsSet(key) {
		return defaultValue
	}
	return viper.GetInt(key)
}

func GetServerPort() int {
	return getInt(serverPort, 8080)
}

func IsHealthCheckEnabled() bool {
	return getBool(healthCheckEnable, true)
}

// GetDefinitionsPath returns the directory watched for experiment
// definition files.
func GetDefinitionsPath() string {
	return getString(experimentDefinitionsPath, "")
}

func SetDefinitionsPath(path string) {
	SetValue(experimentDefinitionsPath, path)
}

// GetDataRoot returns the root directory experiment results are resolved
// under.
func GetDataRoot() string {
	return getString(experimentDataRoot, "")
}

func SetDataRoot(path string) {
	SetValue(experimentDataRoot, path)
}

func GetMonitorIntervalSecond() int {
	return getInt(monitorIntervalSecond, 30)
}

// GetTerminateCommand returns the command invoked to cancel a job. The
// experiment id is appended as the last argument.
func GetTerminateCommand() string {
	return getString(terminateCommand, "scancel")
}

func GetTerminateTimeoutSecond() int {
	return getInt(terminateTimeoutSecond, 30)
}

func GetTerminateMaxElapsedSecond() int {
	return getInt(terminateMaxElapsedSecond, 120)
}

func IsDBEnable() bool {
	return getBool(dbEnable, false)
}

func GetDBHost() string {
	if host := getString(dbHost, ""); host != "" {
		return host
	}
	return getFromFile(dbSecretPath, "host")
}

func GetDBPort() int {
	if port := getInt(dbPort, 0); port > 0 {
		return port
	}
	data := getFromFile(dbSecretPath, "port")
	n, err := strconv.Atoi(data)
	if err != nil {
		return 0
	}
	return n
}

func GetDBName() string {
	if name := getString(dbName, ""); name != "" {
		return name
	}
	return getFromFile(dbSecretPath, "dbname")
}

func GetDBUser() string {
	if user := getString(dbUser, ""); user != "" {
		return user
	}
	return getFromFile(dbSecretPath, "user")
}

func GetDBPassword() string {
	if passwd := getString(dbPassword, ""); passwd != "" {
		return passwd
	}
	return getFromFile(dbSecretPath, "password")
}

func GetDBSslMode() string {
	return getString(dbSslMode, "require")
}

func GetDBMaxOpenConns() int {
	return getInt(dbMaxOpenConns, 100)
}

func GetDBMaxIdleConns() int {
	return getInt(dbMaxIdleConns, 10)
}

func GetDBMaxLifetimeSecond() int {
	return getInt(dbMaxLifetime, 600)
}

func GetDBMaxIdleTimeSecond() int {
	return getInt(dbMaxIdleTimeSecond, 60)
}

func GetDBConnectTimeoutSecond() int {
	return getInt(dbConnectTimeoutSecond, 10)
}

func GetDBRequestTimeoutSecond() int {
	return getInt(dbRequestTimeoutSecond, 20)
}

func getFromFile(configPath, item string) string {
	path := getString(configPath, "")
	data, err := os.ReadFile(filepath.Join(path, item))
	if err != nil {
		return ""
	}
	key := string(data)
	return strings.TrimRight(key, "\r\n")
}
