package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/youruser/memberids/internal/api"
	"github.com/youruser/memberids/internal/app"
	"github.com/youruser/memberids/internal/config"
	"github.com/youruser/memberids/internal/logger"
	"github.com/youruser/memberids/internal/metrics"
	"github.com/youruser/memberids/internal/render"
)

func main() {
	cfg := config.FromEnv()
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	a, err := app.New(cfg, log)
	if err != nil {
		log.Fatal("init failed", "error", err)
	}
	dir, err := a.Directory()
	if err != nil {
		log.Fatal("member directory", "error", err)
	}
	preview, err := render.NewPreview(12)
	if err != nil {
		log.Fatal("preview renderer", "error", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if cfg.LogMode == "prod" || cfg.LogMode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	h := api.NewHandler(api.Deps{
		Directory: dir,
		Fetcher:   a.Fetcher,
		Profiles:  a.Profiles,
		Profile:   cfg.Profile,
		Branding:  a.Branding,
		Options:   a.Options,
		Preview:   preview,
		Metrics:   metrics.New(reg),
		Log:       log,
	})
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{cfg.SiteBase}
	}
	r := api.NewRouter(h, api.RouterOptions{AllowOrigins: origins, Gatherer: reg})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Info("starting server", "addr", "http://localhost:"+cfg.Port, "profile", cfg.Profile, "api_base", cfg.APIBase)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	log.Info("server stopped")
}
