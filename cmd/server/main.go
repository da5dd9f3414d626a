package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/npezzotti/go-office/internal/api"
	"github.com/npezzotti/go-office/internal/config"
	"github.com/npezzotti/go-office/internal/server"
	"github.com/npezzotti/go-office/internal/stats"
)

func main() {
	logger := log.New(os.Stderr, "[go-office] ", log.LstdFlags)

	cfg, err := config.Load(flag.CommandLine, os.Args[1:])
	if err != nil {
		logger.Fatal("config: ", err)
	}

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux)

	officeServer, err := server.NewOfficeServer(logger, statsUpdater, server.RoomConfig{
		ChatLogLimit: cfg.ChatLogLimit,
		Quiz: server.QuizConfig{
			PreQuizDuration: cfg.PreQuizDuration,
			QuizDuration:    cfg.QuizDuration,
			QuestionCount:   cfg.QuestionCount,
		},
		PatchInterval:   cfg.PatchInterval,
		IdleRoomTimeout: cfg.IdleRoomTimeout,
	})
	if err != nil {
		logger.Fatal("new office server: ", err)
	}

	statsUpdater.Run()
	defer statsUpdater.Stop()

	if _, err := officeServer.CreateRoom(server.RoomOptions{
		Name:        cfg.LobbyName,
		Description: cfg.LobbyDescription,
	}); err != nil {
		logger.Fatal("create lobby: ", err)
	}

	srv := api.NewOfficeApp(mux, logger, officeServer, cfg)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s\n", sig)
	case err := <-errCh:
		logger.Println("server:", err)
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("HTTP server shutdown:", err)
	}

	logger.Println("shutting down office server...")
	if err := officeServer.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("office server shutdown:", err)
	}

	logger.Println("shutdown complete")
}
