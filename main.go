package main

import (
	"context"
	"crypto/tls"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"abcretail/api"
	"abcretail/config"
	"abcretail/processor"
	"abcretail/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	gw, err := storage.New(cfg.StorageConnectionString, storage.Options{
		ConditionalUpdates: cfg.ConditionalUpdates,
	})
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	// Provision everything up front so request paths never carry
	// existence checks.
	provisionCtx, cancelProvision := context.WithTimeout(context.Background(), time.Minute)
	if err := gw.Provision(provisionCtx); err != nil {
		log.Fatalf("provision: %v", err)
	}
	cancelProvision()

	var store api.Gateway = gw
	procStore := processor.Store(gw)
	if cfg.RedisConnectionString != "" {
		rc := redis.NewClient(redisOptions(cfg.RedisConnectionString))
		cache := storage.NewCache(gw, rc, cfg.ProductCacheTTL)
		store = cache
		procStore = cache
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go processor.Run(ctx, procStore, cfg.ProcessorIdle)

	e := echo.New()
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	logger := log.New()
	api.Register(e, store, logger)

	e.Logger.Fatal(e.Start(cfg.ListenAddr))
}

func redisOptions(connStr string) *redis.Options {
	opts, err := redis.ParseURL(connStr)
	if err == nil {
		return opts
	}
	// Azure-style "host:port,password=...,ssl=true" connection strings.
	parts := strings.Split(connStr, ",")
	opts = &redis.Options{Addr: parts[0]}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(kv[0]) {
		case "password":
			opts.Password = kv[1]
		case "ssl":
			if strings.ToLower(kv[1]) == "true" {
				opts.TLSConfig = &tls.Config{}
			}
		}
	}
	return opts
}
