package main

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mcdev12/fantasymatch/go/internal/chatlog"
	"github.com/mcdev12/fantasymatch/go/internal/matching"
	"github.com/mcdev12/fantasymatch/go/internal/unlock"
)

func setupServer(config *Config, services *Services) *http.Server {
	mux := http.NewServeMux()

	registerServices(mux, services)
	setupHealthCheck(mux)

	// CORS for browsers calling the unlock function and the Connect procedures directly
	handler := unlock.NewCORS(config.CORS.AllowedHeaders).Handler(mux)

	return &http.Server{
		Addr:    fmt.Sprintf(":%s", config.Server.Port),
		Handler: h2c.NewHandler(handler, &http2.Server{}),
	}
}

func registerServices(mux *http.ServeMux, services *Services) {
	// Connect procedures
	mux.Handle(unlock.NewService(services.Unlock).Handler())
	mux.Handle(matching.NewService(services.Matching).Handler())

	// Plain JSON routes
	unlock.NewHandler(services.Unlock).RegisterRoutes(mux)
	matching.NewHandler(services.Matching).RegisterRoutes(mux)
	chatlog.NewHandler(services.ChatLog).RegisterRoutes(mux)

	if services.Gateway != nil {
		services.Gateway.RegisterRoutes(mux)
	}
}

func setupHealthCheck(mux *http.ServeMux) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})
}
