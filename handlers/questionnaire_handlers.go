package handlers

import (
	"net/http"
	"strings"

	"github.com/lordjav/use-your-brains/models"
	"github.com/lordjav/use-your-brains/questionnaire"
	"github.com/lordjav/use-your-brains/utils"
)

type QuestionnaireHandlers struct {
	service *questionnaire.Service
}

func NewQuestionnaireHandlers(service *questionnaire.Service) *QuestionnaireHandlers {
	return &QuestionnaireHandlers{service: service}
}

func (qh *QuestionnaireHandlers) HandleQuestionnaires(w http.ResponseWriter, r *http.Request) {
	utils.LogHTTP("%s /questionnaires", r.Method)
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	all := qh.service.All()
	metadata := make([]models.Metadata, 0, len(all))
	for _, q := range all {
		metadata = append(metadata, q.Metadata())
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"questionnaires": metadata,
		"count":          len(metadata),
	})
}

func (qh *QuestionnaireHandlers) HandleQuestionnaireByID(w http.ResponseWriter, r *http.Request) {
	utils.LogHTTP("%s %s", r.Method, r.URL.Path)
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/questionnaires/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "Invalid questionnaire ID", http.StatusBadRequest)
		return
	}

	q, err := qh.service.GetByID(id)
	if err != nil {
		utils.LogHTTP("Questionnaire %q not found", id)
		http.Error(w, "Questionnaire not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, q.Metadata())
}

func (qh *QuestionnaireHandlers) ReloadQuestionnaires(w http.ResponseWriter, r *http.Request) {
	utils.LogHTTP("%s /questionnaires/reload", r.Method)
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := qh.service.Reload(); err != nil {
		utils.LogError("Failed to reload questionnaires: %v", err)
		http.Error(w, "Failed to reload questionnaires", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reloaded": true,
		"count":    len(qh.service.All()),
	})
}
