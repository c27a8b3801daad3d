package stats

import (
	"path/filepath"
	"testing"

	"github.com/lordjav/use-your-brains/models"
	"github.com/lordjav/use-your-brains/store"
)

func testAggregator(t *testing.T) *Aggregator {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return New(s)
}

func result(questionnaireID string, score, maxScore, correct, total int) *models.QuizResult {
	return &models.QuizResult{
		QuestionnaireID:  questionnaireID,
		Score:            score,
		MaxPossibleScore: maxScore,
		CorrectAnswers:   correct,
		IncorrectAnswers: total - correct,
		TotalQuestions:   total,
		Accuracy:         0,
	}
}

func TestRecordLifetime(t *testing.T) {
	aggregator := testAggregator(t)

	if err := aggregator.Record(result("anatomia", 40, 50, 8, 10)); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := aggregator.Record(result("anatomia", 50, 50, 10, 10)); err != nil {
		t.Fatalf("Record: %v", err)
	}

	stats := aggregator.Lifetime()
	if stats.TotalQuizzesTaken != 2 {
		t.Errorf("quizzes taken = %d, want 2", stats.TotalQuizzesTaken)
	}
	if stats.TotalQuestionsAnswered != 20 || stats.TotalCorrectAnswers != 18 {
		t.Errorf("answered/correct = %d/%d, want 20/18",
			stats.TotalQuestionsAnswered, stats.TotalCorrectAnswers)
	}
	if stats.AverageAccuracy != 90 {
		t.Errorf("average accuracy = %d, want 90", stats.AverageAccuracy)
	}
	if len(stats.QuizHistory) != 2 {
		t.Fatalf("history length = %d, want 2", len(stats.QuizHistory))
	}
	if stats.QuizHistory[0].Score != 40 || stats.QuizHistory[1].Score != 50 {
		t.Errorf("history scores = %d, %d, want 40, 50",
			stats.QuizHistory[0].Score, stats.QuizHistory[1].Score)
	}
}

func TestRecordClampsCorrectAnswers(t *testing.T) {
	aggregator := testAggregator(t)

	// List questions can report more correct items than questions; the
	// lifetime accuracy must still top out at 100.
	if err := aggregator.Record(result("anatomia", 10, 10, 7, 2)); err != nil {
		t.Fatalf("Record: %v", err)
	}

	stats := aggregator.Lifetime()
	if stats.TotalCorrectAnswers != 2 {
		t.Errorf("correct answers = %d, want clamped to 2", stats.TotalCorrectAnswers)
	}
	if stats.AverageAccuracy != 100 {
		t.Errorf("average accuracy = %d, want 100", stats.AverageAccuracy)
	}
}

func TestHistoryIsBounded(t *testing.T) {
	aggregator := testAggregator(t)

	for i := 0; i < historyLimit+5; i++ {
		if err := aggregator.Record(result("anatomia", i, 100, 1, 2)); err != nil {
			t.Fatalf("Record %d: %v", i, err)
		}
	}

	stats := aggregator.Lifetime()
	if len(stats.QuizHistory) != historyLimit {
		t.Fatalf("history length = %d, want %d", len(stats.QuizHistory), historyLimit)
	}
	// Oldest entries drop first.
	if got := stats.QuizHistory[0].Score; got != 5 {
		t.Errorf("oldest retained score = %d, want 5", got)
	}
	if got := stats.QuizHistory[historyLimit-1].Score; got != historyLimit+4 {
		t.Errorf("newest score = %d, want %d", got, historyLimit+4)
	}
}

func TestBestScoreStrictImprovement(t *testing.T) {
	aggregator := testAggregator(t)

	if err := aggregator.Record(result("anatomia", 40, 50, 8, 10)); err != nil {
		t.Fatalf("Record: %v", err)
	}

	stats, exists := aggregator.QuestionnaireStats("anatomia")
	if !exists {
		t.Fatalf("no stats after first completion")
	}
	if stats.BestScore != 40 || stats.BestScoreMax != 50 {
		t.Errorf("best = %d/%d, want 40/50", stats.BestScore, stats.BestScoreMax)
	}

	// An equal score on a different scale must not steal the best-score
	// context; only a strictly higher score replaces it.
	if err := aggregator.Record(result("anatomia", 40, 100, 8, 20)); err != nil {
		t.Fatalf("Record: %v", err)
	}
	stats, _ = aggregator.QuestionnaireStats("anatomia")
	if stats.BestScore != 40 || stats.BestScoreMax != 50 {
		t.Errorf("best after tie = %d/%d, want unchanged 40/50", stats.BestScore, stats.BestScoreMax)
	}

	if err := aggregator.Record(result("anatomia", 60, 100, 12, 20)); err != nil {
		t.Fatalf("Record: %v", err)
	}
	stats, _ = aggregator.QuestionnaireStats("anatomia")
	if stats.BestScore != 60 || stats.BestScoreMax != 100 {
		t.Errorf("best after improvement = %d/%d, want 60/100", stats.BestScore, stats.BestScoreMax)
	}

	if stats.TimesCompleted != 3 {
		t.Errorf("times completed = %d, want 3", stats.TimesCompleted)
	}
	if stats.AverageScore != 47 { // round((40+40+60)/3)
		t.Errorf("average score = %d, want 47", stats.AverageScore)
	}
	if stats.LastCompleted == nil {
		t.Errorf("last completed not set")
	}
}

func TestQuestionnaireStatsAreIndependent(t *testing.T) {
	aggregator := testAggregator(t)

	if err := aggregator.Record(result("anatomia", 40, 50, 8, 10)); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := aggregator.Record(result("fisiologia", 20, 50, 4, 10)); err != nil {
		t.Fatalf("Record: %v", err)
	}

	all := aggregator.AllQuestionnaireStats()
	if len(all) != 2 {
		t.Fatalf("stats for %d questionnaires, want 2", len(all))
	}
	if all["anatomia"].BestScore != 40 || all["fisiologia"].BestScore != 20 {
		t.Errorf("best scores = %d/%d, want 40/20",
			all["anatomia"].BestScore, all["fisiologia"].BestScore)
	}

	if _, exists := aggregator.QuestionnaireStats("histologia"); exists {
		t.Errorf("stats reported for a questionnaire never completed")
	}
}

func TestLifetimeDefaults(t *testing.T) {
	aggregator := testAggregator(t)

	stats := aggregator.Lifetime()
	if stats.TotalQuizzesTaken != 0 || len(stats.QuizHistory) != 0 {
		t.Errorf("fresh store returned non-zero statistics: %+v", stats)
	}
}
