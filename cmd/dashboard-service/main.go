package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/renalview/monitor/pkg/common/config"
	"github.com/renalview/monitor/pkg/common/database"
	"github.com/renalview/monitor/pkg/common/kafka"
	"github.com/renalview/monitor/pkg/common/logger"
	"github.com/renalview/monitor/pkg/common/middleware"
	"github.com/renalview/monitor/pkg/dashboard"
	"github.com/renalview/monitor/pkg/observability/metrics"
	"github.com/renalview/monitor/pkg/progression"
	"github.com/renalview/monitor/pkg/terminology"
)

const serviceSource = "dashboard-service"

func main() {
	logger.Init()
	cfg := config.Load()

	catalog, err := terminology.Load(cfg.MetricCatalogPath)
	if err != nil {
		logger.Log.WithError(err).Warn("Metric catalog load failed, using built-in defaults")
		catalog = terminology.DefaultCatalog()
	}

	client := progression.NewClient(cfg.BackendBaseURL, cfg.BackendRequestTimeout)

	// Optional collaborators: the service runs without the audit trail,
	// cache or event bus when they are not configured.
	var controllerOpts []progression.Option
	var audit *progression.AuditTrail
	if cfg.AuditTrailEnabled {
		db, err := database.GetPostgres()
		if err != nil {
			logger.Log.WithError(err).Warn("Audit trail disabled: PostgreSQL unavailable")
		} else {
			audit = progression.NewAuditTrail(db)
			if err := audit.AutoMigrate(); err != nil {
				logger.Log.WithError(err).Warn("Audit trail disabled: migration failed")
				audit = nil
			}
		}
	}
	if audit != nil {
		controllerOpts = append(controllerOpts, progression.WithAuditTrail(audit))
	}

	var producer, dlqProducer *kafka.Producer
	if cfg.EventBusEnabled {
		producer = kafka.NewProducer(cfg.CohortEventsTopic)
		dlqProducer = kafka.NewProducer(cfg.CohortEventsDLQTopic)
		controllerOpts = append(controllerOpts, progression.WithEventBus(producer, dlqProducer, serviceSource))
	}

	controller := progression.NewController(client, controllerOpts...)

	startCtx, cancelStart := context.WithTimeout(context.Background(), cfg.BackendRequestTimeout)
	if _, err := controller.Refresh(startCtx); err != nil {
		logger.Log.WithError(err).Warn("Initial cycle metadata fetch failed, will retry on demand")
	}
	cancelStart()

	serviceOpts := []dashboard.ServiceOption{}
	if audit != nil {
		serviceOpts = append(serviceOpts, dashboard.WithAudit(audit))
	}
	if cfg.DashboardCacheTTL > 0 {
		serviceOpts = append(serviceOpts, dashboard.WithCache(dashboard.NewCache(database.GetRedis(), cfg.DashboardCacheTTL)))
	}

	feed := dashboard.NewFeed(cfg.ActivityFeedSize)
	serviceOpts = append(serviceOpts, dashboard.WithFeed(feed))

	service := dashboard.NewService(client, controller, catalog, serviceOpts...)

	// Bus subscriber: feeds the activity list and picks up advances made
	// by other producers.
	consumerCtx, cancelConsumer := context.WithCancel(context.Background())
	var consumer *kafka.Consumer
	if cfg.EventBusEnabled {
		consumer = kafka.NewConsumer(cfg.CohortEventsTopic, cfg.KafkaGroupID)
		go func() {
			if err := consumer.Consume(consumerCtx, dashboard.NewEventHandler(feed, controller, serviceSource)); err != nil && consumerCtx.Err() == nil {
				logger.Log.WithError(err).Error("Cohort event consumer stopped")
			}
		}()
	}

	router := mux.NewRouter()
	router.Use(middleware.Logging)
	router.Use(middleware.Recovery)
	router.Use(middleware.CORS)
	router.Use(middleware.BodyLimit(cfg.MaxRequestBody))
	router.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods("GET")
	router.Handle("/metrics", metrics.Handler()).Methods("GET")

	apiRouter := router.PathPrefix("/api").Subrouter()
	dashboard.NewHandler(service, controller).Register(apiRouter)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host":    cfg.ServerHost,
			"port":    cfg.ServerPort,
			"backend": cfg.BackendBaseURL,
		}).Info("Dashboard service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down dashboard service...")

	cancelConsumer()
	if consumer != nil {
		consumer.Close()
	}
	if producer != nil {
		producer.Close()
	}
	if dlqProducer != nil {
		dlqProducer.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Error("Server forced to shutdown")
	}

	database.ClosePostgres()
	database.CloseRedis()

	logger.Log.Info("Dashboard service stopped")
}
