package main

import (
	"context"
	"flag"
	"log"

	"queryly/database/migrations"
	"queryly/internal/config"
	"queryly/internal/database"
	"queryly/internal/logger"
	"queryly/internal/repository"

	"go.uber.org/zap"
)

func main() {
	direction := flag.String("direction", "up", "migration direction: up or down")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	l := logger.Get()
	defer logger.Sync()

	ctx := context.Background()

	switch cfg.History.Driver {
	case "oracle":
		db, err := database.NewSQLXOracleDB(ctx, cfg.GetDSN())
		if err != nil {
			l.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		if err := database.RunOracleMigrations(ctx, db.DB, migrations.Oracle, migrations.OracleDir, *direction); err != nil {
			l.Fatal("Failed to run migrations", zap.Error(err))
		}
	case "mongo":
		client, err := repository.NewMongoClient(ctx, cfg.History.Mongo)
		if err != nil {
			l.Fatal("Failed to connect to mongodb", zap.Error(err))
		}
		defer client.Disconnect(ctx)

		if err := database.RunMongoMigrations(client, cfg.History.Mongo.Database, migrations.Mongo, migrations.MongoDir, *direction); err != nil {
			l.Fatal("Failed to run migrations", zap.Error(err))
		}
	default:
		l.Info("No migrations for history driver", zap.String("driver", cfg.History.Driver))
		return
	}
	l.Info("Migrations completed successfully", zap.String("direction", *direction))
}
