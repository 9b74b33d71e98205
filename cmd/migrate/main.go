package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/angelmondragon/nearbuy-backend/pkg/config"
	"github.com/angelmondragon/nearbuy-backend/pkg/db"
	"github.com/angelmondragon/nearbuy-backend/pkg/localcache"
	"github.com/angelmondragon/nearbuy-backend/pkg/logger"
	"github.com/angelmondragon/nearbuy-backend/pkg/migrate"
	"github.com/joho/godotenv"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "migrate"})

	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "migration command: up|down|status|version|create|validate|cache-init")
	dir := flag.String("dir", migrate.EmbeddedDir, "goose migrations directory; \"migrations\" uses the embedded set")
	name := flag.String("name", "", "migration name (for create)")
	version := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")

	flag.Parse()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx = logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": *cmd,
		"dir": *dir,
	})

	switch *cmd {
	case "create":
		if *name == "" {
			fmt.Fprintln(os.Stderr, "missing -name for create")
			os.Exit(1)
		}
		target := *dir
		if target == migrate.EmbeddedDir {
			target = migrate.DefaultDir
		}
		path, err := migrate.CreateSQLMigration(target, *name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create migration: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("created migration:", path)
		return

	case "validate":
		if err := migrate.ValidateDir(*dir); err != nil {
			fmt.Fprintf(os.Stderr, "migration validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("migration validation passed")
		return

	case "cache-init":
		cacheClient, err := db.OpenSQLite(ctx, cfg.Cache.Path, logg)
		requireResource(ctx, logg, "local cache", err)
		defer cacheClient.Close()
		_, err = localcache.NewSQLiteStore(cacheClient.DB())
		requireResource(ctx, logg, "local cache schema", err)
		fmt.Println("local cache ready:", cfg.Cache.Path)
		return
	}

	if !cfg.Remote.UsesPostgres() {
		fmt.Fprintf(os.Stderr, "remote driver %q manages its own schema; goose runs against postgres only\n", cfg.Remote.Driver)
		os.Exit(1)
	}

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	requireResource(ctx, logg, "sql database", err)

	runner, err := migrate.NewRunner(sqlDB, *dir, logg)
	requireResource(ctx, logg, "migrations", err)

	logg.Info(ctx, "migrate ready")

	switch *cmd {
	case "up":
		err = runner.Up(ctx)

	case "down":
		err = runner.Down(ctx)

	case "status":
		var states []migrate.MigrationState
		states, err = runner.Status(ctx)
		for _, st := range states {
			state := "pending"
			if st.Applied {
				state = "applied"
			}
			fmt.Printf("%-14d %-8s %s\n", st.Version, state, st.Path)
		}

	case "version":
		if *version == "" {
			fmt.Fprintln(os.Stderr, "missing -version for version command")
			os.Exit(1)
		}
		err = runner.ToVersion(ctx, *version)

	default:
		fmt.Fprintln(os.Stderr, "unknown -cmd value:", *cmd)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "migrate %s failed: %v\n", *cmd, err)
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
