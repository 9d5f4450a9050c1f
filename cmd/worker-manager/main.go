// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"product-chat-workers/internal/common/catalog"
	"product-chat-workers/internal/common/config"
	"product-chat-workers/internal/common/database"
	"product-chat-workers/internal/common/logger"
	"product-chat-workers/internal/common/observability"
	"product-chat-workers/pkg/registry"

	// Chat Pipeline Workers (6)
	ci "product-chat-workers/internal/workers/chat/classify-intent"
	cp "product-chat-workers/internal/workers/chat/compose-prompt"
	ca "product-chat-workers/internal/workers/chat/compute-analytics"
	dl "product-chat-workers/internal/workers/chat/detect-language"
	fc "product-chat-workers/internal/workers/chat/filter-catalog-facts"
	gr "product-chat-workers/internal/workers/chat/generate-response"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var zeebeClient zbc.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebeClient, err = zbc.NewClient(&zbc.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init Catalog Source ---
	var source catalog.Source
	var pg *database.PostgresClient

	switch cfg.Catalog.Source {
	case "postgres":
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			// Test the connection with context
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()
		zapLog.Info("PostgreSQL connected successfully")

		source = catalog.NewPostgresSource(pg, cfg.Catalog.Table)
	default:
		source = catalog.NewFileSource(cfg.Catalog.Path)
	}

	// The catalog is all-or-nothing. A broken catalog means no worker can
	// answer truthfully, so startup stops here.
	store := catalog.NewStore(source)
	snap, err := store.Reload(ctx)
	if err != nil {
		zapLog.Fatal("catalog load failed", zap.Error(err))
	}
	zapLog.Info("Catalog loaded",
		zap.String("version", snap.Version),
		zap.Int("products", len(snap.Products)),
	)

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		// Test the connection with context
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Template Registry ---
	templates, err := registry.LoadRegistry(cfg.Template.RegistryPath)
	if err != nil {
		zapLog.Fatal("template registry load failed", zap.Error(err))
	}
	zapLog.Info("Template registry loaded")

	// --- Register ALL 6 Workers ---

	// Create adapters for the workers' package-local Logger interfaces
	dlLogAdapter := &detectLanguageLoggerAdapter{log}
	ciLogAdapter := &classifyIntentLoggerAdapter{log}
	caLogAdapter := &computeAnalyticsLoggerAdapter{log}
	fcLogAdapter := &filterCatalogFactsLoggerAdapter{log}
	cpLogAdapter := &composePromptLoggerAdapter{log}
	grLogAdapter := &generateResponseLoggerAdapter{log}

	if cfg.Workers[dl.TaskType].Enabled {
		handler := dl.NewHandler(
			&dl.Config{
				Timeout: time.Duration(cfg.Workers[dl.TaskType].Timeout) * time.Millisecond,
			},
			dlLogAdapter,
		)
		startWorker(zeebeClient, dl.TaskType, cfg.Workers[dl.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[ci.TaskType].Enabled {
		handler := ci.NewHandler(
			&ci.Config{
				Timeout: time.Duration(cfg.Workers[ci.TaskType].Timeout) * time.Millisecond,
			},
			store, ciLogAdapter,
		)
		startWorker(zeebeClient, ci.TaskType, cfg.Workers[ci.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[ca.TaskType].Enabled {
		handler := ca.NewHandler(
			&ca.Config{
				Timeout:  time.Duration(cfg.Workers[ca.TaskType].Timeout) * time.Millisecond,
				CacheTTL: time.Duration(cfg.Catalog.CacheTTL) * time.Second,
			},
			store, redis.Client, caLogAdapter,
		)
		startWorker(zeebeClient, ca.TaskType, cfg.Workers[ca.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[fc.TaskType].Enabled {
		handler := fc.NewHandler(
			&fc.Config{
				Timeout: time.Duration(cfg.Workers[fc.TaskType].Timeout) * time.Millisecond,
			},
			store, fcLogAdapter,
		)
		startWorker(zeebeClient, fc.TaskType, cfg.Workers[fc.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[cp.TaskType].Enabled {
		handler := cp.NewHandler(
			&cp.Config{
				Timeout: time.Duration(cfg.Workers[cp.TaskType].Timeout) * time.Millisecond,
			},
			templates, cpLogAdapter,
		)
		startWorker(zeebeClient, cp.TaskType, cfg.Workers[cp.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[gr.TaskType].Enabled {
		handler := gr.NewHandler(
			&gr.Config{
				GenAIBaseURL: cfg.APIs.GenAI.BaseURL,
				APIKey:       cfg.APIs.GenAI.APIKey,
				Timeout:      time.Duration(cfg.APIs.GenAI.Timeout) * time.Millisecond,
				MaxRetries:   2,
			},
			grLogAdapter,
		)
		startWorker(zeebeClient, gr.TaskType, cfg.Workers[gr.TaskType], handler.Handle, zapLog)
	}

	zapLog.Info("All 6 workers registered successfully")

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if store.Snapshot() == nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{"status": "catalog not loaded"})
				return
			}
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/catalog/reload", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			snap, err := store.Reload(r.Context())
			if err != nil {
				zapLog.Error("catalog reload failed, keeping previous snapshot", zap.Error(err))
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
				return
			}
			json.NewEncoder(w).Encode(map[string]interface{}{
				"version":  snap.Version,
				"products": len(snap.Products),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_ = shutdownCtx

	if err := zeebeClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// Logger adapters for workers that declare their own Logger interfaces
type detectLanguageLoggerAdapter struct {
	logger.Logger
}

func (a *detectLanguageLoggerAdapter) With(fields map[string]interface{}) dl.Logger {
	return &detectLanguageLoggerAdapter{a.Logger.With(fields)}
}

type classifyIntentLoggerAdapter struct {
	logger.Logger
}

func (a *classifyIntentLoggerAdapter) With(fields map[string]interface{}) ci.Logger {
	return &classifyIntentLoggerAdapter{a.Logger.With(fields)}
}

type computeAnalyticsLoggerAdapter struct {
	logger.Logger
}

func (a *computeAnalyticsLoggerAdapter) With(fields map[string]interface{}) ca.Logger {
	return &computeAnalyticsLoggerAdapter{a.Logger.With(fields)}
}

type filterCatalogFactsLoggerAdapter struct {
	logger.Logger
}

func (a *filterCatalogFactsLoggerAdapter) With(fields map[string]interface{}) fc.Logger {
	return &filterCatalogFactsLoggerAdapter{a.Logger.With(fields)}
}

type composePromptLoggerAdapter struct {
	logger.Logger
}

func (a *composePromptLoggerAdapter) With(fields map[string]interface{}) cp.Logger {
	return &composePromptLoggerAdapter{a.Logger.With(fields)}
}

type generateResponseLoggerAdapter struct {
	logger.Logger
}

func (a *generateResponseLoggerAdapter) With(fields map[string]interface{}) gr.Logger {
	return &generateResponseLoggerAdapter{a.Logger.With(fields)}
}

func startWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handlerFunc func(worker.JobClient, entities.Job), log *zap.Logger) {
	if !wcfg.Enabled {
		log.Info("worker disabled", zap.String("taskType", taskType))
		return
	}

	client.NewJobWorker().
		JobType(taskType).
		Handler(handlerFunc).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	log.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
}
