package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"GoldSentinel/internal/api"
	"GoldSentinel/internal/collector"
	"GoldSentinel/internal/config"
	"GoldSentinel/internal/logger"
	"GoldSentinel/internal/metrics"
	"GoldSentinel/internal/model"
	"GoldSentinel/internal/notifier"
	"GoldSentinel/internal/report"
	"GoldSentinel/internal/scheduler"
	"GoldSentinel/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	envPath := ".env"
	if v := os.Getenv("ENV_FILE"); v != "" {
		envPath = v
	}
	if err := config.LoadDotEnv(envPath); err != nil {
		logger.Warnf("%v", err)
	}

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("config validation: %v", err)
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Env); err != nil {
		logger.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()
	log := logger.Get().With("component", "main")
	log.Infow("starting", "system", cfg.System.Name, "version", cfg.System.Version, "addr", cfg.Addr())

	metrics.Init()
	loc := cfg.Location()

	// Init fetcher
	var fetcher collector.Fetcher
	if cfg.DataSource.BaseURL != "" {
		fetcher = collector.NewBarsAPIFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy, cfg.DataSource.Timeout)
	} else {
		fetcher = collector.NewYahooFetcher(cfg.Proxy, cfg.DataSource.Timeout)
	}
	log.Infow("data source selected", "fetcher", fetcher.Name(), "symbol", cfg.DataSource.Symbol)

	gen := collector.NewGenerator(cfg.DataSource.BasePrice, cfg.DataSource.MaxSyntheticBars, 0)
	col := collector.NewCollector(fetcher, gen, cfg.DataSource.Symbol, cfg.DataSource.RSIPeriod, cfg.MarketLocation())

	// Init report store
	var st store.Store
	if cfg.Redis.Addr != "" {
		rs, err := store.NewRedisStore(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.KeyPrefix)
		if err != nil {
			log.Warnw("redis store unavailable, using memory store", "addr", cfg.Redis.Addr, "error", err)
			st = store.NewMemoryStore()
		} else {
			st = rs
		}
	} else {
		st = store.NewMemoryStore()
	}
	defer st.Close()

	// Init forwarders
	var (
		forwarders []notifier.Forwarder
		webhook    *notifier.WebhookForwarder
	)
	if cfg.Webhook.URL != "" {
		webhook = notifier.NewWebhookForwarder(cfg.Webhook.URL, cfg.Proxy, cfg.Webhook.Timeout, cfg.Webhook.RetryAttempts, cfg.Webhook.RetryDelay)
		forwarders = append(forwarders, webhook)
	}
	if len(cfg.Kafka.Brokers) > 0 {
		kf := notifier.NewKafkaForwarder(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer kf.Close()
		forwarders = append(forwarders, kf)
	}
	if len(forwarders) == 0 {
		log.Warnw("no report forwarders configured, /api/forward-report will be rejected")
	}
	dispatcher := notifier.NewDispatcher(forwarders...)

	reports := report.NewService(st, dispatcher, col, cfg.System.Version, loc)
	reports.Timeout = cfg.Webhook.ForwardTimeout

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, st, reports, loc)
	delivery := model.DeliveryOptions{
		Recipient: cfg.Schedule.ReportRecipient,
		Subject:   cfg.Schedule.ReportSubject,
	}
	if err := sched.RegisterAll(cfg.Schedule.DailyResetCron, cfg.Schedule.ReportCron, delivery); err != nil {
		logger.Fatalf("register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	handlerCfg := api.HandlerConfig{
		Market:      col,
		Reports:     reports,
		Store:       st,
		SystemName:  cfg.System.Name,
		Version:     cfg.System.Version,
		Environment: cfg.Log.Env,
		Location:    loc,
	}
	if webhook != nil {
		handlerCfg.Webhook = webhook
	}
	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: api.SetupRoutes(api.NewHandler(handlerCfg), api.RouterOptions{
			CORSOrigins:        cfg.Server.CORSOrigins,
			RateLimitPerMinute: cfg.Server.RateLimit,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Infow("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorw("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Infow("shutdown signal received, stopping")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("http server shutdown", "error", err)
	}
	log.Infow("stopped")
}
