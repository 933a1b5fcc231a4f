package main

import (
	"context"
	"log"
	"net/http"

	"github.com/marcovillca/tanda-agent/internal/adapters/collab"
	httpadapter "github.com/marcovillca/tanda-agent/internal/adapters/http"
	"github.com/marcovillca/tanda-agent/internal/adapters/llm"
	firestorestore "github.com/marcovillca/tanda-agent/internal/adapters/storage/firestore"
	sqlitestore "github.com/marcovillca/tanda-agent/internal/adapters/storage/sqlite"
	"github.com/marcovillca/tanda-agent/internal/app/router"
	"github.com/marcovillca/tanda-agent/internal/config"
	"github.com/marcovillca/tanda-agent/internal/dedup"
	"github.com/marcovillca/tanda-agent/internal/domain"
	"github.com/marcovillca/tanda-agent/internal/session"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	// Responder: mock or Vertex by config (useful for dev)
	var (
		responder domain.Responder
		err       error
	)
	if cfg.UseMockLLM {
		log.Println("[LLM] Using MOCK responder")
		responder = llm.NewMockLLM()
	} else {
		log.Println("[LLM] Using Vertex responder")
		responder, err = llm.NewVertexClient(ctx, cfg.GCPProjectID, cfg.GCPLocation, cfg.ModelName)
		if err != nil {
			log.Fatalf("error initializing Vertex responder: %v", err)
		}
	}

	// Durable backend: sqlite (default), firestore, or none (memory-only)
	var backend domain.SessionBackend
	switch cfg.StorageBackend {
	case "firestore":
		log.Printf("[STORE] Using Firestore backend (project=%s)", cfg.GCPProjectID)
		backend, err = firestorestore.NewStore(ctx, cfg.GCPProjectID)
		if err != nil {
			log.Fatalf("error initializing Firestore backend: %v", err)
		}
	case "memory":
		log.Println("[STORE] Using in-memory sessions only (no durable backend)")
		backend = nil
	default:
		log.Printf("[STORE] Using SQLite backend (path=%s)", cfg.SQLitePath)
		backend, err = sqlitestore.NewStore(cfg.SQLitePath)
		if err != nil {
			log.Fatalf("error initializing SQLite backend: %v", err)
		}
	}

	sessions := session.NewStore(backend)
	dedupCache := dedup.New(cfg.DedupTTL)

	// External collaborators: in-memory implementations until the real
	// group/payment/verification services are plugged in.
	rt := router.New(router.Config{
		AppName:           cfg.AppName,
		Sessions:          sessions,
		Groups:            collab.NewGroupService(),
		Payments:          collab.NewPaymentService(),
		Verification:      collab.NewVerificationService(),
		Responder:         responder,
		DelegationTimeout: cfg.DelegationTimeout,
	})

	handler := httpadapter.NewServer(cfg.AppName, rt, sessions, dedupCache)

	addr := ":" + cfg.Port
	log.Println("Tanda API listening on", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatal(err)
	}
}
