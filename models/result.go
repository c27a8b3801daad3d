package models

import "time"

// TallyPair is a correct/total count at one difficulty level. For choice
// questions both move by one per question; for list questions they move by
// found/expected item counts. The granularity difference is deliberate and
// mirrors how results have always been displayed.
type TallyPair struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// DifficultyBreakdown tallies correct/total units per difficulty level.
type DifficultyBreakdown struct {
	Easy   TallyPair `json:"easy"`
	Medium TallyPair `json:"medium"`
	Hard   TallyPair `json:"hard"`
}

// At returns a pointer to the tally for a difficulty so callers can
// increment it in place. Unknown difficulties fall back to easy, which
// load-time validation should make unreachable.
func (d *DifficultyBreakdown) At(difficulty Difficulty) *TallyPair {
	switch difficulty {
	case Medium:
		return &d.Medium
	case Hard:
		return &d.Hard
	}
	return &d.Easy
}

// QuizResult is the record a completed session emits, consumed exactly
// once by the statistics aggregator.
type QuizResult struct {
	QuestionnaireID  string              `json:"questionnaire_id"`
	Date             time.Time           `json:"date"`
	Score            int                 `json:"score"`
	MaxPossibleScore int                 `json:"max_possible_score"`
	CorrectAnswers   int                 `json:"correct_answers"`
	IncorrectAnswers int                 `json:"incorrect_answers"`
	TotalQuestions   int                 `json:"total_questions"`
	Accuracy         int                 `json:"accuracy"`
	TimeSpentSeconds int                 `json:"time_spent_seconds"`
	Difficulty       DifficultyBreakdown `json:"difficulty"`
}

// HistoryEntry is one line of the bounded quiz history.
type HistoryEntry struct {
	QuestionnaireID string    `json:"questionnaire_id"`
	Date            time.Time `json:"date"`
	Score           int       `json:"score"`
	Accuracy        int       `json:"accuracy"`
	CorrectAnswers  int       `json:"correct_answers"`
	TotalQuestions  int       `json:"total_questions"`
}

// Statistics are the lifetime counters persisted across sessions.
type Statistics struct {
	TotalQuizzesTaken      int            `json:"total_quizzes_taken"`
	TotalQuestionsAnswered int            `json:"total_questions_answered"`
	TotalCorrectAnswers    int            `json:"total_correct_answers"`
	AverageAccuracy        int            `json:"average_accuracy"`
	QuizHistory            []HistoryEntry `json:"quiz_history"`
}

// QuestionnaireStats is the per-questionnaire record. BestScoreMax keeps
// the maximum possible score of the attempt that set BestScore, so a
// 40/50 best is not displayed against a later attempt's 100-point scale.
type QuestionnaireStats struct {
	TimesCompleted int        `json:"times_completed"`
	BestScore      int        `json:"best_score"`
	BestScoreMax   int        `json:"best_score_max"`
	AverageScore   int        `json:"average_score"`
	TotalScores    int        `json:"total_scores"`
	LastCompleted  *time.Time `json:"last_completed,omitempty"`
}
