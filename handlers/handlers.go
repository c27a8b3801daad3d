package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/lordjav/use-your-brains/jobs"
	"github.com/lordjav/use-your-brains/questionnaire"
	"github.com/lordjav/use-your-brains/quiz"
	"github.com/lordjav/use-your-brains/stats"
	"github.com/lordjav/use-your-brains/utils"
)

// API wrapper to hold all handlers
type API struct {
	questionnaireHandlers *QuestionnaireHandlers
	sessionHandlers       *SessionHandlers
	statsHandlers         *StatsHandlers
}

func NewAPI(service *questionnaire.Service, sessions *quiz.SessionStore, aggregator *stats.Aggregator, jobManager *jobs.JobManager) *API {
	return &API{
		questionnaireHandlers: NewQuestionnaireHandlers(service),
		sessionHandlers:       NewSessionHandlers(service, sessions, aggregator, jobManager),
		statsHandlers:         NewStatsHandlers(aggregator),
	}
}

func NewRouter(service *questionnaire.Service, sessions *quiz.SessionStore, aggregator *stats.Aggregator, jobManager *jobs.JobManager) http.Handler {
	api := NewAPI(service, sessions, aggregator, jobManager)

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", healthCheck)

	// Questionnaire routes
	mux.HandleFunc("/questionnaires", api.questionnaireHandlers.HandleQuestionnaires)
	mux.HandleFunc("/questionnaires/reload", api.questionnaireHandlers.ReloadQuestionnaires)
	mux.HandleFunc("/questionnaires/", api.questionnaireHandlers.HandleQuestionnaireByID)

	// Session routes
	mux.HandleFunc("/sessions", api.sessionHandlers.HandleSessions)
	mux.HandleFunc("/sessions/", api.sessionHandlers.HandleSessionByID)

	// Statistics routes
	mux.HandleFunc("/stats", api.statsHandlers.GetLifetimeStats)
	mux.HandleFunc("/stats/questionnaires", api.statsHandlers.GetAllQuestionnaireStats)
	mux.HandleFunc("/stats/questionnaires/", api.statsHandlers.GetQuestionnaireStats)

	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	utils.LogHTTP("Health check requested")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
