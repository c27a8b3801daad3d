package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/lordjav/use-your-brains/handlers"
	"github.com/lordjav/use-your-brains/jobs"
	"github.com/lordjav/use-your-brains/questionnaire"
	"github.com/lordjav/use-your-brains/quiz"
	"github.com/lordjav/use-your-brains/stats"
	"github.com/lordjav/use-your-brains/store"
	"github.com/lordjav/use-your-brains/utils"
)

func main() {
	// Set up logging with timestamps
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	utils.LogStartup("Use Your Brains quiz engine starting...")

	if err := godotenv.Load(); err != nil {
		utils.LogStartup("No .env file found, using environment as-is")
	}

	port := utils.GetEnvOrDefault("PORT", "8046")
	storePath := utils.GetEnvOrDefault("STORE_PATH", "./useyourbrains.db")
	questionnairesDir := utils.GetEnvOrDefault("QUESTIONNAIRES_DIR", "./questionnaires")
	cacheTTL := time.Duration(utils.GetEnvInt("CACHE_TTL_MINUTES", 60)) * time.Minute
	redisURL := os.Getenv("REDIS_URL")

	utils.LogStartup("Config: port=%s store=%s questionnaires=%s cache_ttl=%v",
		port, storePath, questionnairesDir, cacheTTL)

	// Initialize persistence
	kv, err := store.Open(storePath)
	if err != nil {
		log.Fatalf("[FATAL] Failed to open store: %v", err)
	}

	// Load questionnaires (cache-aware)
	service := questionnaire.NewService(questionnairesDir, kv, cacheTTL)
	if err := service.Load(); err != nil {
		log.Fatalf("[FATAL] Failed to load questionnaires: %v", err)
	}
	if len(service.All()) == 0 {
		utils.LogError("No valid questionnaires found in %s", questionnairesDir)
	}

	aggregator := stats.New(kv)
	sessions := quiz.NewSessionStore()

	// Background recording is optional; without Redis the handlers record
	// results inline.
	var jobManager *jobs.JobManager
	if redisURL != "" {
		utils.LogStartup("Job queue enabled (redis: %s)", redisURL)
		jobManager = jobs.NewJobManager(redisURL)
		jobManager.RegisterHandlers(aggregator)
		go func() {
			if err := jobManager.Start(); err != nil {
				utils.LogError("Job queue worker stopped: %v", err)
			}
		}()
	}

	// Set up graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		utils.LogShutdown("Received shutdown signal...")
		if jobManager != nil {
			jobManager.Stop()
		}
		if err := kv.Close(); err != nil {
			utils.LogError("Error closing store: %v", err)
		} else {
			utils.LogShutdown("Store closed successfully")
		}
		os.Exit(0)
	}()

	router := handlers.NewRouter(service, sessions, aggregator, jobManager)

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	utils.LogStartup("Server ready at http://localhost:%s", port)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("[FATAL] Server failed to start: %v", err)
	}
}
