package main

import (
	"context"
	"log"

	"github.com/DaInfernalCoder/idea-to-epic-maker/config"
	"github.com/DaInfernalCoder/idea-to-epic-maker/internal/bootstrap"
	"github.com/DaInfernalCoder/idea-to-epic-maker/internal/cleanup"
	"github.com/DaInfernalCoder/idea-to-epic-maker/internal/generate"
	"github.com/DaInfernalCoder/idea-to-epic-maker/internal/identity"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	bootstrap.SetGinMode(cfg.App.Environment)

	ctx := context.Background()

	db, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{DSN: cfg.Database.DSN})
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer db.Close()

	sqlDB, err := bootstrap.OpenSQL(ctx, cfg.Database.DSN)
	if err != nil {
		log.Fatalf("postgres (documents): %v", err)
	}
	defer sqlDB.Close()

	rdb, err := bootstrap.OpenRedis(ctx, cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	deps := bootstrap.RouterDeps{
		ServiceName: "promptflow-api",
		Version:     cfg.App.Version,
		DB:          db,
		SQL:         sqlDB,
		Redis:       rdb,
	}

	if cfg.Firebase.CredentialsPath != "" {
		authClient, err := identity.InitializeFirebase(&cfg.Firebase)
		if err != nil {
			log.Fatalf("firebase: %v", err)
		}
		deps.AuthClient = authClient
	} else {
		log.Println("FIREBASE_CREDENTIALS_PATH not set, running in guest-only mode")
	}

	if cfg.Anthropic.APIKey != "" {
		gen, err := generate.NewClient(cfg.Anthropic)
		if err != nil {
			log.Fatalf("anthropic: %v", err)
		}
		deps.Generator = gen
	} else {
		log.Println("ANTHROPIC_API_KEY not set, generation endpoints disabled")
	}

	sweeper := cleanup.NewSweeper(rdb)
	cronRunner := sweeper.Start()
	defer cronRunner.Stop()

	r := bootstrap.BuildRouter(deps)

	log.Printf("listening on :%s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}
