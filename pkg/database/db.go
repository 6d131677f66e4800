/*
 * Copyright (C) 2025-2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package database

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/config"
)

// Config carries the Postgres connection settings.
type Config struct {
	Host           string
	Port           int
	Username       string
	Password       string
	DBName         string
	SSLMode        string
	MaxOpenConns   int
	MaxIdleConns   int
	MaxLifetime    time.Duration
	MaxIdleTime    time.Duration
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
}

// NewConfig assembles the connection settings from the service config.
func NewConfig() *Config {
	return &Config{
		Host:           config.GetDBHost(),
		Port:           config.GetDBPort(),
		Username:       config.GetDBUser(),
		Password:       config.GetDBPassword(),
		DBName:         config.GetDBName(),
		SSLMode:        config.GetDBSslMode(),
		MaxOpenConns:   config.GetDBMaxOpenConns(),
		MaxIdleConns:   config.GetDBMaxIdleConns(),
		MaxLifetime:    time.Duration(config.GetDBMaxLifetimeSecond()) * time.Second,
		MaxIdleTime:    time.Duration(config.GetDBMaxIdleTimeSecond()) * time.Second,
		ConnectTimeout: time.Duration(config.GetDBConnectTimeoutSecond()) * time.Second,
		RequestTimeout: time.Duration(config.GetDBRequestTimeoutSecond()) * time.Second,
	}
}

func (c *Config) SourceName() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d",
		c.Host, c.Port, c.Username, c.Password, c.DBName, c.SSLMode, int(c.ConnectTimeout.Seconds()))
}

// Connect opens the Postgres pool and verifies it with a ping.
func Connect(cfg *Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.SourceName())
	if err != nil {
		return nil, fmt.Errorf("failed to connect db %s, err: %v", cfg.DBName, err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxIdleTime(cfg.MaxIdleTime)
	db.SetConnMaxLifetime(cfg.MaxLifetime)
	return db, nil
}
