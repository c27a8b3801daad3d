package handlers

import (
	"net/http"
	"strings"

	"github.com/lordjav/use-your-brains/stats"
	"github.com/lordjav/use-your-brains/utils"
)

type StatsHandlers struct {
	aggregator *stats.Aggregator
}

func NewStatsHandlers(aggregator *stats.Aggregator) *StatsHandlers {
	return &StatsHandlers{aggregator: aggregator}
}

func (th *StatsHandlers) GetLifetimeStats(w http.ResponseWriter, r *http.Request) {
	utils.LogHTTP("%s /stats", r.Method)
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, th.aggregator.Lifetime())
}

func (th *StatsHandlers) GetAllQuestionnaireStats(w http.ResponseWriter, r *http.Request) {
	utils.LogHTTP("%s /stats/questionnaires", r.Method)
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, th.aggregator.AllQuestionnaireStats())
}

func (th *StatsHandlers) GetQuestionnaireStats(w http.ResponseWriter, r *http.Request) {
	utils.LogHTTP("%s %s", r.Method, r.URL.Path)
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/stats/questionnaires/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "Invalid questionnaire ID", http.StatusBadRequest)
		return
	}

	questionnaireStats, exists := th.aggregator.QuestionnaireStats(id)
	if !exists {
		http.Error(w, "No statistics for questionnaire", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, questionnaireStats)
}
