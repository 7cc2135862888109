package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/tanmaybisen31/Cargo-Flight-Management/internal/api"
	"github.com/tanmaybisen31/Cargo-Flight-Management/internal/buildinfo"
)

func main() {
	server, err := api.NewServer()
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	addr := ":8080"
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           logMiddleware(server.Routes()),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("cargo planner API %s listening on %s", buildinfo.Version, addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s %v", r.RemoteAddr, r.Method, r.URL.Path, time.Since(start))
	})
}
