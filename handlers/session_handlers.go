package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/lordjav/use-your-brains/jobs"
	"github.com/lordjav/use-your-brains/models"
	"github.com/lordjav/use-your-brains/questionnaire"
	"github.com/lordjav/use-your-brains/quiz"
	"github.com/lordjav/use-your-brains/stats"
	"github.com/lordjav/use-your-brains/utils"
)

type SessionHandlers struct {
	service    *questionnaire.Service
	sessions   *quiz.SessionStore
	aggregator *stats.Aggregator
	jobManager *jobs.JobManager // nil when no queue is configured
}

func NewSessionHandlers(service *questionnaire.Service, sessions *quiz.SessionStore, aggregator *stats.Aggregator, jobManager *jobs.JobManager) *SessionHandlers {
	return &SessionHandlers{
		service:    service,
		sessions:   sessions,
		aggregator: aggregator,
		jobManager: jobManager,
	}
}

type startSessionRequest struct {
	QuestionnaireID string `json:"questionnaire_id"`
	QuestionCount   int    `json:"question_count"`
}

func (sh *SessionHandlers) HandleSessions(w http.ResponseWriter, r *http.Request) {
	utils.LogHTTP("%s /sessions", r.Method)
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.LogHTTP("Invalid JSON in session request: %v", err)
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if req.QuestionnaireID == "" {
		http.Error(w, "Missing questionnaire_id", http.StatusBadRequest)
		return
	}

	q, err := sh.service.GetByID(req.QuestionnaireID)
	if err != nil {
		utils.LogHTTP("Questionnaire %q not found", req.QuestionnaireID)
		http.Error(w, "Questionnaire not found", http.StatusNotFound)
		return
	}

	session, err := sh.sessions.Create(q, req.QuestionCount, nil)
	if err != nil {
		utils.LogError("Failed to start session for %q: %v", req.QuestionnaireID, err)
		http.Error(w, "No questions available", http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, session.Snapshot())
}

func (sh *SessionHandlers) HandleSessionByID(w http.ResponseWriter, r *http.Request) {
	utils.LogHTTP("%s %s", r.Method, r.URL.Path)

	path := strings.TrimPrefix(r.URL.Path, "/sessions/")
	parts := strings.Split(path, "/")
	if parts[0] == "" {
		http.Error(w, "Missing session ID", http.StatusBadRequest)
		return
	}

	session, exists := sh.sessions.Get(parts[0])
	if !exists {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, session.Snapshot())
	case len(parts) == 1 && r.Method == http.MethodDelete:
		sh.abandonSession(w, session)
	case len(parts) == 2 && r.Method == http.MethodPost:
		sh.handleAction(w, r, session, parts[1])
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (sh *SessionHandlers) handleAction(w http.ResponseWriter, r *http.Request, session *quiz.Session, action string) {
	switch action {
	case "answer":
		sh.selectAnswer(w, r, session)
	case "guess":
		sh.submitGuess(w, r, session)
	case "reveal":
		sh.revealAndFinish(w, session)
	case "next":
		sh.advance(w, session)
	default:
		http.Error(w, "Unknown action", http.StatusNotFound)
	}
}

func (sh *SessionHandlers) selectAnswer(w http.ResponseWriter, r *http.Request, session *quiz.Session) {
	var req struct {
		Answer string `json:"answer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	feedback, ok := session.SelectAnswer(req.Answer)
	if !ok {
		http.Error(w, "Action not applicable in current state", http.StatusConflict)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"feedback": feedback,
		"session":  session.Snapshot(),
	})
}

func (sh *SessionHandlers) submitGuess(w http.ResponseWriter, r *http.Request, session *quiz.Session) {
	var req struct {
		Guess string `json:"guess"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	feedback, ok := session.SubmitGuess(req.Guess)
	if !ok {
		http.Error(w, "Action not applicable in current state", http.StatusConflict)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"feedback": feedback,
		"session":  session.Snapshot(),
	})
}

func (sh *SessionHandlers) revealAndFinish(w http.ResponseWriter, session *quiz.Session) {
	feedback, ok := session.RevealAndFinish()
	if !ok {
		http.Error(w, "Action not applicable in current state", http.StatusConflict)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"feedback": feedback,
		"session":  session.Snapshot(),
	})
}

// advance moves to the next question; the advance that completes the
// session is the one (and only) trigger for recording its result.
func (sh *SessionHandlers) advance(w http.ResponseWriter, session *quiz.Session) {
	if !session.Advance() {
		http.Error(w, "Action not applicable in current state", http.StatusConflict)
		return
	}

	snapshot := session.Snapshot()
	response := map[string]interface{}{
		"session": snapshot,
	}

	if snapshot.State == quiz.StateCompleted {
		if result, ok := session.Result(); ok {
			sh.recordResult(result)
			response["result"] = result
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// recordResult persists a completed session's result, through the job
// queue when one is configured. Recording is best-effort: a failure is
// logged and the response still succeeds.
func (sh *SessionHandlers) recordResult(result *models.QuizResult) {
	if sh.jobManager != nil {
		if err := sh.jobManager.QueueResult(result); err == nil {
			return
		}
		utils.LogError("Failed to queue result, recording inline")
	}
	if err := sh.aggregator.Record(result); err != nil {
		utils.LogError("Failed to record result: %v", err)
	}
}

func (sh *SessionHandlers) abandonSession(w http.ResponseWriter, session *quiz.Session) {
	utils.LogQuiz("Session %s abandoned, discarding without recording", session.ID())
	sh.sessions.Delete(session.ID())
	w.WriteHeader(http.StatusNoContent)
}
