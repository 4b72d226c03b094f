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

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gooddeedstech/crypt2p-main-service-sub000/internal/api"
	"github.com/gooddeedstech/crypt2p-main-service-sub000/internal/common"
	"github.com/gooddeedstech/crypt2p-main-service-sub000/internal/config"
	"github.com/gooddeedstech/crypt2p-main-service-sub000/internal/observability"
	"github.com/gooddeedstech/crypt2p-main-service-sub000/internal/webhook"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	zap.L().Info("Starting exchange settlement service")

	observability.Register()

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	// Pollers do not survive restarts; pick up where the last process stopped.
	if err := services.ResumeOpenPollers(ctx); err != nil {
		zap.L().Fatal("Failed to resume open transactions", zap.Error(err))
	}

	webhookHandler := webhook.NewHandler(services.Engine, cfg.Settlement.WebhookSecret, cfg.Server.StrictWebhook)
	apiHandler := api.NewHandler(services.DbService, services.ExchangeService)

	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: apiHandler.Router(webhookHandler),
	}

	serverErr := make(chan error, 1)
	go func() {
		zap.L().Info("HTTP server listening", zap.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		zap.L().Fatal("HTTP server failed", zap.Error(err))
	case sig := <-sigChan:
		zap.L().Info("Shutdown signal received", zap.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zap.L().Warn("HTTP server shutdown forced", zap.Error(err))
	}

	// Registry.StopAll in services.Close waits for every poller to exit, so
	// nothing is mid-transition when the database closes.
	zap.L().Info("Exchange settlement service stopped")
}
