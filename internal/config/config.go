/**
 * Copyright 2025-present Gooddeeds Technologies, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gooddeedstech/crypt2p-main-service-sub000/internal/models"
)

func Load() (*models.Config, error) {
	pollInterval, err := getEnvDuration("POLL_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, err
	}

	pollDeadline, err := getEnvDuration("POLL_DEADLINE", 30*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	return &models.Config{
		Database: models.DatabaseConfig{
			Path:            getEnvString("DATABASE_PATH", "exchange.db"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: connMaxLifetime,
			ConnMaxIdleTime: connMaxIdleTime,
			PingTimeout:     pingTimeout,
		},
		Settlement: models.SettlementConfig{
			BaseURL:       getEnvString("SETTLEMENT_API_URL", ""),
			APIKey:        getEnvString("SETTLEMENT_API_KEY", ""),
			WebhookSecret: getEnvString("SETTLEMENT_WEBHOOK_SECRET", ""),
		},
		Rails: models.RailsConfig{
			BaseURL:            getEnvString("RAILS_API_URL", ""),
			APIKey:             getEnvString("RAILS_API_KEY", ""),
			DebitAccountName:   getEnvString("RAILS_DEBIT_ACCOUNT_NAME", ""),
			DebitAccountNumber: getEnvString("RAILS_DEBIT_ACCOUNT_NUMBER", ""),
		},
		Exchange: models.ExchangeConfig{
			RatesFile:     getEnvString("RATES_FILE", "rates.yaml"),
			MarginPercent: getEnvString("MARGIN_FEE_PERCENT", "0.5"),
		},
		Reconcile: models.ReconcileConfig{
			PollInterval: pollInterval,
			PollDeadline: pollDeadline,
		},
		Server: models.ServerConfig{
			Addr:            getEnvString("SERVER_ADDR", ":8080"),
			ShutdownTimeout: shutdownTimeout,
			StrictWebhook:   getEnvBool("STRICT_WEBHOOK", false),
		},
	}, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
