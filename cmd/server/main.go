package main

import (
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/contractguard/auditor/internal/api"
	"github.com/contractguard/auditor/internal/audit"
	"github.com/contractguard/auditor/internal/classify"
	"github.com/contractguard/auditor/internal/normalize"
	"github.com/contractguard/auditor/internal/repository"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err == nil {
		log.Printf("Loaded environment from .env")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "contractguard.db"
	}

	log.Printf("Initializing database at %s", dbPath)
	db, err := repository.InitDB(dbPath)
	if err != nil {
		log.Fatalf("Failed to init DB: %v", err)
	}
	defer db.Close()

	// Repositories.
	runRepo := repository.NewRunRepo(db)
	discRepo := repository.NewDiscrepancyRepo(db)

	// Audit thresholds, overridable from YAML.
	cfg := audit.DefaultConfig()
	if path := os.Getenv("AUDIT_CONFIG"); path != "" {
		cfg, err = audit.LoadConfig(path)
		if err != nil {
			log.Fatalf("Failed to load audit config %s: %v", path, err)
		}
		log.Printf("Loaded audit config from %s", path)
	}

	// Field alias tables, overridable from YAML.
	aliases := normalize.DefaultAliases()
	if path := os.Getenv("FIELD_ALIASES"); path != "" {
		aliases, err = normalize.LoadAliases(path)
		if err != nil {
			log.Fatalf("Failed to load field aliases %s: %v", path, err)
		}
		log.Printf("Loaded field aliases from %s", path)
	}

	// Oracle: live when an API key is configured, conservative fallback
	// otherwise. The engine is fully functional either way.
	var oracle classify.Oracle = classify.Unavailable{}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		model := os.Getenv("ORACLE_MODEL")
		oracle = classify.NewAnthropic(key, model)
		log.Printf("Oracle enabled (model=%s)", model)
	} else {
		log.Printf("No ANTHROPIC_API_KEY set, running in deterministic mode")
	}

	// Services.
	classifier := classify.New(oracle, cfg.OracleConcurrency)
	auditSvc := audit.NewService(classifier, aliases, cfg)

	// Router.
	router := api.NewRouter(auditSvc, runRepo, discRepo)

	log.Printf("ContractGuard Billing Audit Engine")
	log.Printf("Listening on http://localhost:%s", port)
	log.Printf("API base: http://localhost:%s/api/v1", port)
	log.Printf("")
	log.Printf("Endpoints:")
	log.Printf("  POST   /api/v1/audits")
	log.Printf("  GET    /api/v1/audits")
	log.Printf("  GET    /api/v1/audits/{id}")
	log.Printf("  GET    /api/v1/discrepancies")
	log.Printf("  GET    /api/v1/discrepancies/summary")
	log.Printf("  GET    /api/v1/dashboard")

	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
