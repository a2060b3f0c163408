// Provision creates the storefront's fixed storage resources and exits.
// It is safe to run repeatedly, e.g. as an init container.
package main

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"abcretail/config"
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
	log.Info("storage provisioning starting")

	gw, err := storage.New(cfg.StorageConnectionString, storage.Options{})
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := gw.Provision(ctx); err != nil {
		log.Fatalf("provision: %v", err)
	}

	log.Info("storage provisioning complete")
}
