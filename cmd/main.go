package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"recipe-vault/cmd/config"
	migration "recipe-vault/cmd/database/migrate"
	"recipe-vault/internal/utils"
	"recipe-vault/internal/utils/logger"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	migrate := flag.Bool("migrate", false, "run database migrations and exit")
	flag.Parse()

	cfg, err := utils.LoadConfig(*configPath)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.AppEnv)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	db, err := config.ConnectDB(cfg, log)
	if err != nil {
		log.Fatal("connect database", zap.Error(err))
	}

	if *migrate {
		if err := migration.Migrate(db, log); err != nil {
			log.Fatal("migrate database", zap.Error(err))
		}
		return
	}

	app, scheduler, err := config.NewApp(db, cfg, log)
	if err != nil {
		log.Fatal("build app", zap.Error(err))
	}
	scheduler.Start()

	go func() {
		if err := app.Listen(":" + cfg.AppPort); err != nil {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	<-scheduler.Stop().Done()
	if err := app.Shutdown(); err != nil {
		log.Error("server shutdown", zap.Error(err))
	}
}
