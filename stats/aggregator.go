package stats

import (
	"math"
	"time"

	"github.com/lordjav/use-your-brains/models"
	"github.com/lordjav/use-your-brains/store"
	"github.com/lordjav/use-your-brains/utils"
)

// historyLimit bounds the persisted quiz history; oldest entries go first.
const historyLimit = 50

// Aggregator folds completed quiz results into the persisted lifetime and
// per-questionnaire statistics. Persistence is best-effort: a failed write
// is logged and reported, but never affects the session that produced the
// result.
type Aggregator struct {
	store store.Store
	now   func() time.Time
}

func New(s store.Store) *Aggregator {
	return &Aggregator{store: s, now: time.Now}
}

// Record updates the lifetime statistics and the per-questionnaire record
// for one completed session.
func (a *Aggregator) Record(result *models.QuizResult) error {
	utils.LogStats("Recording result for %q: score %d/%d, %d/%d correct",
		result.QuestionnaireID, result.Score, result.MaxPossibleScore,
		result.CorrectAnswers, result.TotalQuestions)

	if err := a.recordLifetime(result); err != nil {
		return err
	}
	return a.recordQuestionnaire(result)
}

func (a *Aggregator) recordLifetime(result *models.QuizResult) error {
	stats := a.Lifetime()

	stats.TotalQuizzesTaken++

	// List-question edge cases upstream can report more correct answers
	// than questions; clamp per result before summing so the rolling
	// accuracy can never exceed 100%.
	correct := result.CorrectAnswers
	if correct > result.TotalQuestions {
		correct = result.TotalQuestions
	}

	stats.TotalQuestionsAnswered += result.TotalQuestions
	stats.TotalCorrectAnswers += correct

	if stats.TotalQuestionsAnswered > 0 {
		accuracy := int(math.Round(float64(stats.TotalCorrectAnswers) /
			float64(stats.TotalQuestionsAnswered) * 100))
		if accuracy > 100 {
			accuracy = 100
		}
		stats.AverageAccuracy = accuracy
	}

	entryAccuracy := result.Accuracy
	if entryAccuracy > 100 {
		entryAccuracy = 100
	}
	stats.QuizHistory = append(stats.QuizHistory, models.HistoryEntry{
		QuestionnaireID: result.QuestionnaireID,
		Date:            a.now().UTC(),
		Score:           result.Score,
		Accuracy:        entryAccuracy,
		CorrectAnswers:  correct,
		TotalQuestions:  result.TotalQuestions,
	})
	if len(stats.QuizHistory) > historyLimit {
		stats.QuizHistory = stats.QuizHistory[len(stats.QuizHistory)-historyLimit:]
	}

	if err := a.store.Set(store.KeyStatistics, stats); err != nil {
		utils.LogError("Failed to persist lifetime statistics: %v", err)
		return err
	}
	return nil
}

func (a *Aggregator) recordQuestionnaire(result *models.QuizResult) error {
	all := a.AllQuestionnaireStats()

	stats := all[result.QuestionnaireID]

	stats.TimesCompleted++
	completed := a.now().UTC()
	stats.LastCompleted = &completed

	// Strict improvement only: a tie keeps the earlier attempt's
	// max-possible-score context.
	if result.Score > stats.BestScore {
		stats.BestScore = result.Score
		stats.BestScoreMax = result.MaxPossibleScore
	}

	stats.TotalScores += result.Score
	stats.AverageScore = int(math.Round(float64(stats.TotalScores) / float64(stats.TimesCompleted)))

	all[result.QuestionnaireID] = stats

	if err := a.store.Set(store.KeyQuestionnaireStats, all); err != nil {
		utils.LogError("Failed to persist questionnaire statistics: %v", err)
		return err
	}

	utils.LogStats("Questionnaire %q: completed %d times, best %d/%d, average %d",
		result.QuestionnaireID, stats.TimesCompleted, stats.BestScore,
		stats.BestScoreMax, stats.AverageScore)
	return nil
}

// Lifetime returns the persisted lifetime statistics, or zeroed defaults
// when nothing has been recorded or the read fails.
func (a *Aggregator) Lifetime() models.Statistics {
	var stats models.Statistics
	found, err := a.store.Get(store.KeyStatistics, &stats)
	if err != nil {
		utils.LogError("Failed to load lifetime statistics, starting fresh: %v", err)
	}
	if !found || err != nil {
		return models.Statistics{}
	}
	return stats
}

// AllQuestionnaireStats returns the per-questionnaire records keyed by
// questionnaire ID.
func (a *Aggregator) AllQuestionnaireStats() map[string]models.QuestionnaireStats {
	all := make(map[string]models.QuestionnaireStats)
	found, err := a.store.Get(store.KeyQuestionnaireStats, &all)
	if err != nil {
		utils.LogError("Failed to load questionnaire statistics, starting fresh: %v", err)
	}
	if !found || err != nil {
		return make(map[string]models.QuestionnaireStats)
	}
	return all
}

// QuestionnaireStats returns the record for one questionnaire; the bool
// reports whether it has ever been completed.
func (a *Aggregator) QuestionnaireStats(questionnaireID string) (models.QuestionnaireStats, bool) {
	stats, exists := a.AllQuestionnaireStats()[questionnaireID]
	return stats, exists
}
