//go:build ignore

// Backend is a small HTTP server for trying virtual hosting locally. Every
// response names the backend and echoes the Host the request arrived with.
//
// Usage:
//
//	go run backend.go -port 8081 -name shop
//
// Point several routes at backends started with different names and compare
// the answers for different Host headers.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"
)

type reply struct {
	Backend string    `json:"backend"`
	Host    string    `json:"host"`
	Path    string    `json:"path"`
	Time    time.Time `json:"time"`
}

func main() {
	port := flag.Int("port", 8081, "port to listen on")
	name := flag.String("name", "", "name reported in responses (defaults to the port)")
	failing := flag.Bool("fail", false, "answer every request with 500, to exercise the circuit breaker")
	flag.Parse()

	if *name == "" {
		*name = fmt.Sprintf("backend-%d", *port)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		log.Printf("request: method=%s host=%s path=%s from=%s", r.Method, r.Host, r.URL.Path, r.RemoteAddr)

		if *failing {
			http.Error(w, "backend failing on purpose", http.StatusInternalServerError)
			return
		}

		b, _ := json.Marshal(reply{
			Backend: *name,
			Host:    r.Host,
			Path:    r.URL.Path,
			Time:    time.Now().UTC(),
		})
		w.Header().Set("Content-Type", "application/json")
		w.Write(b)
	})

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("starting backend %q on %s", *name, addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
