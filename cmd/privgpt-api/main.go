package main

import (
	"context"
	"log"
	"net/http"

	httpadapter "github.com/Shaesh-Kuiper/PrivGPT-Studio/internal/adapters/http"
	"github.com/Shaesh-Kuiper/PrivGPT-Studio/internal/adapters/llm"
	"github.com/Shaesh-Kuiper/PrivGPT-Studio/internal/adapters/pdf"
	firestorestore "github.com/Shaesh-Kuiper/PrivGPT-Studio/internal/adapters/storage/firestore"
	memstore "github.com/Shaesh-Kuiper/PrivGPT-Studio/internal/adapters/storage/memory"
	"github.com/Shaesh-Kuiper/PrivGPT-Studio/internal/app/chat"
	"github.com/Shaesh-Kuiper/PrivGPT-Studio/internal/config"
	"github.com/Shaesh-Kuiper/PrivGPT-Studio/internal/domain"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	// Local backend doubles as the model discovery source.
	ollama := llm.NewOllamaClient(cfg.OllamaBaseURL)

	var cloud domain.Backend
	if cfg.UseMockLLM {
		log.Println("[LLM] Using mock cloud backend")
		cloud = llm.NewMockBackend()
	} else {
		log.Println("[LLM] Using Gemini cloud backend")
		gemini, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Fatalf("error initializing Gemini client: %v", err)
		}
		cloud = gemini
	}

	var store domain.SessionStore
	switch cfg.StorageBackend {
	case "firestore":
		log.Printf("[STORE] Using Firestore storage (project=%s)", cfg.GCPProjectID)
		fsStore, err := firestorestore.NewStore(ctx, cfg.GCPProjectID)
		if err != nil {
			log.Fatalf("error initializing Firestore store: %v", err)
		}
		store = fsStore
	default:
		log.Println("[STORE] Using in-memory storage")
		store = memstore.NewSessionStore()
	}

	svc := chat.NewService(ollama, cloud, store, pdf.NewExtractor())
	handler := httpadapter.NewServer(svc, store, ollama)

	addr := ":" + cfg.Port
	log.Println("PrivGPT API listening on", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatal(err)
	}
}
