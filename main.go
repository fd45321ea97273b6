package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	intconfig "github.com/thaistayandfly/travel-itinerary/internal/config"
	"github.com/thaistayandfly/travel-itinerary/internal/gateway"
	router "github.com/thaistayandfly/travel-itinerary/internal/http"
	"github.com/thaistayandfly/travel-itinerary/internal/http/handlers"
	"github.com/thaistayandfly/travel-itinerary/internal/repositories"
	"github.com/thaistayandfly/travel-itinerary/internal/store"
)

// shellAssets are warmed into the active shell bucket on startup so the
// start page keeps its styling offline.
var shellAssets = []string{
	"https://cdn.jsdelivr.net/npm/bootstrap@5.3.0/dist/css/bootstrap.min.css",
	"https://fonts.googleapis.com/css2?family=Heebo:wght@400;500;700&display=swap",
}

func main() {
	env := intconfig.LoadEnv()
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	intconfig.ConnectDB(env)
	defer intconfig.CloseDB()

	kv := store.OpenKV(env.DataDir)
	respCache := store.OpenResponseCache(env.DataDir)
	docs := &repositories.DocumentRepository{}
	if err := docs.EnsureSchema(); err != nil {
		log.Printf("warning: document store schema: %v", err)
	}

	transport := &gateway.Transport{
		Cache:       respCache,
		ShellBucket: env.ShellVersion,
		Rules:       gateway.DefaultRules(env.APIURL),
	}
	transport.Activate()
	go transport.Warm(nil, shellAssets)

	app := handlers.NewApp(env, kv, respCache, docs, transport)

	r := router.NewRouter(env, app)

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Server running at http://localhost%s", env.AppAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server stopped cleanly.")
}
