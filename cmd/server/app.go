// File: cmd/server/app.go
package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iyunix/go-soliloquy/internal/config"
	"github.com/iyunix/go-soliloquy/internal/handlers"
	"github.com/iyunix/go-soliloquy/internal/live"
	"github.com/iyunix/go-soliloquy/internal/metrics"
	"github.com/iyunix/go-soliloquy/internal/middleware"
	"github.com/iyunix/go-soliloquy/internal/services"
	"github.com/iyunix/go-soliloquy/internal/services/conversation"
	"github.com/iyunix/go-soliloquy/internal/services/directory"
	"github.com/iyunix/go-soliloquy/internal/store"
)

// Application aggregates all services and handlers
type Application struct {
	Config      *config.Config
	Registry    *prometheus.Registry
	Metrics     *metrics.Metrics
	Store       *store.Store
	ChatService *services.ChatService
	Session     *conversation.Session

	ChatHandler    *handlers.ChatHandler
	MessageHandler *handlers.MessageHandler
	SessionHandler *handlers.SessionHandler
	LiveHandler    *handlers.LiveHandler
}

// NewApplication opens the store, prepares the schema and wires every handler.
func NewApplication(ctx context.Context, cfg *config.Config) (*Application, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	st, err := store.Open(cfg.DBPath, store.Options{
		Logger:   services.NewLogger("store"),
		Observer: m,
		Bus:      live.NewBus(),
	})
	if err != nil {
		return nil, err
	}

	dirCfg := directory.DefaultConfig()
	dirCfg.AppName = cfg.AppName
	dirCfg.Location = cfg.Location

	convCfg := conversation.DefaultConfig()
	convCfg.DraftDebounce = cfg.DraftDebounce
	convCfg.Location = cfg.Location

	chatService, err := services.NewChatService(st, dirCfg, convCfg, m, services.NewLogger("chat_service"))
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	if err := chatService.Bootstrap(ctx, cfg.SeedOnStart); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("bootstrap database: %w", err)
	}

	session := chatService.NewSession(ctx)

	return &Application{
		Config:         cfg,
		Registry:       reg,
		Metrics:        m,
		Store:          st,
		ChatService:    chatService,
		Session:        session,
		ChatHandler:    handlers.NewChatHandler(chatService),
		MessageHandler: handlers.NewMessageHandler(chatService),
		SessionHandler: handlers.NewSessionHandler(session, cfg.Location),
		LiveHandler:    handlers.NewLiveHandler(chatService, session),
	}, nil
}

// Router builds the HTTP routes of the local API.
func (a *Application) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.LoggingMiddleware(a.Metrics))
	r.Use(middleware.RecoverPanic)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK); _, _ = w.Write([]byte("OK")) }).Methods("GET")
	r.Handle("/metrics", promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{})).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/log", handlers.LogFrontendEvent).Methods("POST")

	// --- Chat directory ---
	api.HandleFunc("/chats", a.ChatHandler.ListChats).Methods("GET")
	api.HandleFunc("/chats", a.ChatHandler.CreateChat).Methods("POST")
	api.HandleFunc("/chats/import", a.ChatHandler.ImportChat).Methods("POST")
	api.HandleFunc("/chats/batch/pin", a.ChatHandler.BatchSetPinned).Methods("POST")
	api.HandleFunc("/chats/batch/delete", a.ChatHandler.BatchDelete).Methods("POST")
	api.HandleFunc("/chats/reorder", a.ChatHandler.Reorder).Methods("POST")
	api.HandleFunc("/chats/stream", a.LiveHandler.StreamChats).Methods("GET")
	api.HandleFunc("/chats/{id:[0-9]+}", a.ChatHandler.GetChat).Methods("GET")
	api.HandleFunc("/chats/{id:[0-9]+}", a.ChatHandler.RenameChat).Methods("PATCH")
	api.HandleFunc("/chats/{id:[0-9]+}", a.ChatHandler.DeleteChat).Methods("DELETE")
	api.HandleFunc("/chats/{id:[0-9]+}/pin", a.ChatHandler.TogglePin).Methods("POST")
	api.HandleFunc("/chats/{id:[0-9]+}/export", a.ChatHandler.ExportChat).Methods("GET")

	// --- Conversation ---
	api.HandleFunc("/chats/{id:[0-9]+}/messages", a.MessageHandler.GetChatMessages).Methods("GET")
	api.HandleFunc("/chats/{id:[0-9]+}/messages", a.MessageHandler.SendMessage).Methods("POST")
	api.HandleFunc("/chats/{id:[0-9]+}/messages", a.MessageHandler.ClearHistory).Methods("DELETE")
	api.HandleFunc("/chats/{id:[0-9]+}/messages/stream", a.LiveHandler.StreamMessages).Methods("GET")
	api.HandleFunc("/chats/{id:[0-9]+}/messages/unpin", a.MessageHandler.UnpinAll).Methods("POST")
	api.HandleFunc("/chats/{id:[0-9]+}/messages/{messageId:[0-9]+}", a.MessageHandler.DeleteMessage).Methods("DELETE")
	api.HandleFunc("/chats/{id:[0-9]+}/draft", a.MessageHandler.GetDraft).Methods("GET")
	api.HandleFunc("/chats/{id:[0-9]+}/draft", a.MessageHandler.SaveDraft).Methods("PUT")
	api.HandleFunc("/messages/{messageId:[0-9]+}/pin", a.MessageHandler.TogglePinMessage).Methods("POST")

	// --- Chat window session ---
	api.HandleFunc("/session", a.SessionHandler.GetState).Methods("GET")
	api.HandleFunc("/session/stream", a.LiveHandler.StreamSession).Methods("GET")
	api.HandleFunc("/session/open", a.SessionHandler.OpenChat).Methods("POST")
	api.HandleFunc("/session/pins/activate", a.SessionHandler.ActivatePin).Methods("POST")
	api.HandleFunc("/session/search", a.SessionHandler.Search).Methods("POST")
	api.HandleFunc("/session/search/next", a.SessionHandler.NextMatch).Methods("POST")
	api.HandleFunc("/session/search/prev", a.SessionHandler.PrevMatch).Methods("POST")
	api.HandleFunc("/session/jump", a.SessionHandler.JumpToDate).Methods("GET")

	// outside the router so preflight requests reach it without a matching route
	return corsMiddleware(r)
}

// Close stops the session, flushes drafts and closes the database.
func (a *Application) Close() error {
	a.Session.Close()
	a.ChatService.Shutdown()
	return a.Store.Close()
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, X-Request-ID")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
