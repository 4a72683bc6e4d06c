package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/trainplan/internal/config"
	"github.com/claude/trainplan/internal/engine"
	trainmcp "github.com/claude/trainplan/internal/mcp"
	"github.com/claude/trainplan/internal/storage"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "", "path to config file (local mode)")
	serverURL := flag.String("url", "", "TrainPlan server URL (remote mode, e.g. https://trainplan.tail1234.ts.net)")
	apiKey := flag.String("api-key", os.Getenv("TRAINPLAN_API_KEY"), "API key for remote mode")
	user := flag.String("user", os.Getenv("TRAINPLAN_USER_ID"), "UUID of the user tools act on by default")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("trainplan-mcp", Version)
		return
	}

	// stdout carries the MCP protocol; logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if (*configPath == "") == (*serverURL == "") {
		fmt.Fprintf(os.Stderr, "Usage: trainplan-mcp (-config config.yaml | -url <server URL> [-api-key KEY]) [-user UUID]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	userID := uuid.Nil
	if *user != "" {
		id, err := uuid.Parse(*user)
		if err != nil {
			log.Error("invalid -user", "error", err)
			os.Exit(1)
		}
		userID = id
	}

	var ds trainmcp.DataSource
	if *serverURL != "" {
		ds = trainmcp.NewHTTPClient(*serverURL, *apiKey)
		log.Info("remote mode", "url", *serverURL)
	} else {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		db, err := storage.New(context.Background(), cfg.Database.DSN())
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		ds = trainmcp.Local{Engine: engine.New(db, log)}
		log.Info("local mode", "database", cfg.Database.Name)
	}

	s := trainmcp.New(ds, Version, log)
	err := server.ServeStdio(s, server.WithStdioContextFunc(func(ctx context.Context) context.Context {
		if userID == uuid.Nil {
			return ctx
		}
		return trainmcp.WithUserID(ctx, userID)
	}))
	if err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
