package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"

	"city-relay-server/config"
	"city-relay-server/hub"
	"city-relay-server/protocol"
	"city-relay-server/registry"
	ws "city-relay-server/websocket"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg, err := config.LoadServer()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg.LogLevel)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: newMux(cfg),
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

func setupLogger(level string) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: config.Level(level)})))
}

func newMux(cfg config.Server) *http.ServeMux {
	broadcaster := hub.New()
	handler := protocol.NewHandler(registry.New(), broadcaster)
	upgrader := ws.NewUpgrader(cfg.AllowedOrigins)
	opts := ws.Options{
		WriteWait:      cfg.WriteTimeout,
		PongWait:       cfg.IdleTimeout,
		MaxMessageSize: cfg.MaxMessageSize,
		SendBuffer:     cfg.SendBuffer,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler(upgrader, handler, opts))
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/stats", statsHandler(handler, broadcaster))
	return mux
}

func wsHandler(upgrader *websocket.Upgrader, handler *protocol.Handler, opts ws.Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("upgrade error", "error", err)
			return
		}

		wsConn := ws.NewConn(uuid.NewString(), conn, handler, opts)
		wsConn.Start()
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func statsHandler(handler *protocol.Handler, broadcaster *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int{
			"sessions":  handler.Sessions(),
			"connected": broadcaster.Len(),
		})
	}
}
