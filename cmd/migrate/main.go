package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/threadline/storefront-gateway/pkg/config"
	"github.com/threadline/storefront-gateway/pkg/db"
	"github.com/threadline/storefront-gateway/pkg/logger"
	"github.com/threadline/storefront-gateway/pkg/migrate"
)

func main() {
	cmd := flag.String("cmd", "up", "migration command: up|down|status|version|create|validate")
	dir := flag.String("dir", migrate.DefaultDir, "goose migrations directory")
	name := flag.String("name", "", "migration name (for create)")
	version := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fatalf("load config: %v", err)
	}

	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": *cmd,
		"dir": *dir,
	})

	// create and validate work on files alone.
	switch *cmd {
	case "create":
		runCreate(*dir, *name)
		return
	case "validate":
		runValidate(*dir)
		return
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		fatalf("connect database: %v", err)
	}
	defer dbClient.Close()

	sqlDB, err := dbClient.SQLDB()
	if err != nil {
		fatalf("extract sql database: %v", err)
	}

	logg.Info(ctx, "migrate ready")

	switch *cmd {
	case "up", "down", "status":
		if err := migrate.Run(ctx, sqlDB, *dir, *cmd); err != nil {
			fatalf("goose %s: %v", *cmd, err)
		}
	case "version":
		if *version == "" {
			fatalf("missing -version for version command")
		}
		if err := migrate.MigrateToVersion(ctx, sqlDB, *dir, *version); err != nil {
			fatalf("goose version migrate: %v", err)
		}
	default:
		fatalf("unknown -cmd value: %s", *cmd)
	}
}

func runCreate(dir, name string) {
	if name == "" {
		fatalf("missing -name for create")
	}
	path, err := migrate.CreateSQLMigration(dir, name)
	if err != nil {
		fatalf("create migration: %v", err)
	}
	fmt.Println("created migration:", path)
}

func runValidate(dir string) {
	if err := migrate.ValidateDir(dir); err != nil {
		fatalf("migration validation: %v", err)
	}
	fmt.Println("migration validation passed")
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
