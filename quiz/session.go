package quiz

import (
	"errors"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lordjav/use-your-brains/models"
	"github.com/lordjav/use-your-brains/utils"
)

// DefaultQuestionCount is used when the caller does not ask for a
// specific session length.
const DefaultQuestionCount = 20

type State string

const (
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
)

var (
	ErrNoQuestionnaire = errors.New("no questionnaire available")
	ErrNoQuestions     = errors.New("questionnaire has no questions")
)

// GuessOutcome classifies one list-question submission.
type GuessOutcome string

const (
	GuessFound     GuessOutcome = "found"
	GuessDuplicate GuessOutcome = "duplicate"
	GuessNotFound  GuessOutcome = "not_found"
)

// AnswerFeedback is the response to a choice-type answer.
type AnswerFeedback struct {
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correct_answer"`
	PointsAwarded int    `json:"points_awarded"`
	Explanation   string `json:"explanation"`
}

// GuessFeedback is the response to a list-question guess. Completed is set
// when the guess found the last remaining target, which finishes the
// question with full credit.
type GuessFeedback struct {
	Outcome       GuessOutcome `json:"outcome"`
	Found         string       `json:"found,omitempty"`
	FoundCount    int          `json:"found_count"`
	TargetCount   int          `json:"target_count"`
	Completed     bool         `json:"completed"`
	PointsAwarded int          `json:"points_awarded,omitempty"`
	Explanation   string       `json:"explanation,omitempty"`
}

// RevealFeedback is the response to reveal-and-finish: the targets the
// player did not find, plus the partial credit computed for the question.
type RevealFeedback struct {
	Remaining       []string `json:"remaining"`
	FoundCount      int      `json:"found_count"`
	TargetCount     int      `json:"target_count"`
	PointsAwarded   int      `json:"points_awarded"`
	CountsAsCorrect bool     `json:"counts_as_correct"`
	Explanation     string   `json:"explanation"`
}

// Session is one play-through of a questionnaire. All mutation goes
// through the action methods; guarded no-ops return ok=false instead of
// errors, so a rapid double-click can never score twice.
type Session struct {
	mu sync.Mutex

	id            string
	questionnaire *models.Questionnaire
	questions     []models.Question
	choiceOrder   [][]string // pre-shuffled options per question, choice types only

	state  State
	cursor int

	score             int
	maxPossibleScore  int
	correctAnswers    int
	incorrectAnswers  int
	questionsAnswered int
	questionsCorrect  int
	tally             models.DifficultyBreakdown

	isAnswered bool

	// list question sub-state, reset on advance
	foundAnswers map[string]bool
	foundOrder   []string
	listFinished bool

	startedAt  time.Time
	lastActive time.Time
}

// NewSession selects min(requestedCount, available) questions via an
// unbiased shuffle and starts the session. A nil rng gets a time-seeded
// one; tests pass their own for reproducibility.
func NewSession(questionnaire *models.Questionnaire, requestedCount int, rng *rand.Rand) (*Session, error) {
	if questionnaire == nil {
		return nil, ErrNoQuestionnaire
	}
	if len(questionnaire.Questions) == 0 {
		return nil, ErrNoQuestions
	}

	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if requestedCount <= 0 {
		requestedCount = DefaultQuestionCount
	}

	count := requestedCount
	if count > len(questionnaire.Questions) {
		count = len(questionnaire.Questions)
	}

	shuffled := make([]models.Question, len(questionnaire.Questions))
	copy(shuffled, questionnaire.Questions)
	shuffle(shuffled, rng)
	selected := shuffled[:count]

	maxPoints := 0
	for _, q := range selected {
		maxPoints += q.Points
	}

	choiceOrder := make([][]string, len(selected))
	for i, q := range selected {
		if q.Type == models.MultipleChoice && q.Choice != nil {
			options := make([]string, 0, len(q.Choice.Incorrect)+1)
			options = append(options, q.Choice.Correct)
			options = append(options, q.Choice.Incorrect...)
			shuffleStrings(options, rng)
			choiceOrder[i] = options
		}
	}

	now := time.Now()
	session := &Session{
		id:               uuid.NewString(),
		questionnaire:    questionnaire,
		questions:        selected,
		choiceOrder:      choiceOrder,
		state:            StateInProgress,
		maxPossibleScore: maxPoints,
		foundAnswers:     make(map[string]bool),
		startedAt:        now,
		lastActive:       now,
	}

	utils.LogQuiz("Session %s started: questionnaire %q, %d/%d questions, %d points possible",
		session.id, questionnaire.ID, count, len(questionnaire.Questions), maxPoints)

	return session, nil
}

// shuffle is a Fisher-Yates shuffle; every permutation is equally likely.
func shuffle(questions []models.Question, rng *rand.Rand) {
	for i := len(questions) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		questions[i], questions[j] = questions[j], questions[i]
	}
}

func shuffleStrings(values []string, rng *rand.Rand) {
	for i := len(values) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		values[i], values[j] = values[j], values[i]
	}
}

func (s *Session) ID() string {
	return s.id
}

// SelectAnswer answers the current choice-type question. Returns ok=false
// when the action does not apply: list question, already answered, or the
// session is over.
func (s *Session) SelectAnswer(answer string) (AnswerFeedback, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()

	if s.state != StateInProgress || s.isAnswered {
		return AnswerFeedback{}, false
	}

	question := &s.questions[s.cursor]

	var correct bool
	var correctAnswer string
	switch question.Type {
	case models.MultipleChoice:
		correctAnswer = question.Choice.Correct
		correct = answer == correctAnswer
	case models.TrueFalse:
		correctAnswer = strconv.FormatBool(question.Bool.Correct)
		submitted, err := strconv.ParseBool(strings.TrimSpace(strings.ToLower(answer)))
		correct = err == nil && submitted == question.Bool.Correct
	default:
		return AnswerFeedback{}, false
	}

	s.isAnswered = true
	s.questionsAnswered++
	pair := s.tally.At(question.Difficulty)
	pair.Total++

	awarded := 0
	if correct {
		awarded = question.Points
		s.score += awarded
		s.correctAnswers++
		s.questionsCorrect++
		pair.Correct++
	} else {
		s.incorrectAnswers++
	}

	utils.LogQuiz("Session %s question %d answered: correct=%t, +%d points (score %d)",
		s.id, s.cursor+1, correct, awarded, s.score)

	return AnswerFeedback{
		Correct:       correct,
		CorrectAnswer: correctAnswer,
		PointsAwarded: awarded,
		Explanation:   question.CleanExplanation(),
	}, true
}

// SubmitGuess runs one list-question submission through the matcher. The
// matcher only says which target the input refers to; telling "already
// found" apart from "not found" happens here, against the found set.
func (s *Session) SubmitGuess(input string) (GuessFeedback, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()

	if s.state != StateInProgress || s.listFinished {
		return GuessFeedback{}, false
	}

	question := &s.questions[s.cursor]
	if question.Type != models.List {
		return GuessFeedback{}, false
	}

	targets := question.List.Answers
	feedback := GuessFeedback{
		Outcome:     GuessNotFound,
		FoundCount:  len(s.foundOrder),
		TargetCount: len(targets),
	}

	found, ok := MatchAnswer(input, targets)
	if !ok {
		utils.LogQuiz("Session %s guess %q: no match", s.id, input)
		return feedback, true
	}

	if s.foundAnswers[found] {
		feedback.Outcome = GuessDuplicate
		feedback.Found = found
		utils.LogQuiz("Session %s guess %q: already found %q", s.id, input, found)
		return feedback, true
	}

	s.foundAnswers[found] = true
	s.foundOrder = append(s.foundOrder, found)
	feedback.Outcome = GuessFound
	feedback.Found = found
	feedback.FoundCount = len(s.foundOrder)

	utils.LogQuiz("Session %s guess %q matched %q (%d/%d)",
		s.id, input, found, feedback.FoundCount, feedback.TargetCount)

	if len(s.foundOrder) == len(targets) {
		awarded, _ := s.finishList(question)
		feedback.Completed = true
		feedback.PointsAwarded = awarded
		feedback.Explanation = question.CleanExplanation()
	}

	return feedback, true
}

// RevealAndFinish ends the current list question early, revealing the
// unmatched targets and scoring partial credit for what was found.
func (s *Session) RevealAndFinish() (RevealFeedback, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()

	if s.state != StateInProgress || s.listFinished {
		return RevealFeedback{}, false
	}

	question := &s.questions[s.cursor]
	if question.Type != models.List {
		return RevealFeedback{}, false
	}

	var remaining []string
	for _, target := range question.List.Answers {
		if !s.foundAnswers[target] {
			remaining = append(remaining, target)
		}
	}

	awarded, countsAsCorrect := s.finishList(question)

	return RevealFeedback{
		Remaining:       remaining,
		FoundCount:      len(s.foundOrder),
		TargetCount:     len(question.List.Answers),
		PointsAwarded:   awarded,
		CountsAsCorrect: countsAsCorrect,
		Explanation:     question.CleanExplanation(),
	}, true
}

// finishList applies list scoring: points proportional to targets found,
// tallies counted per item rather than per question. Caller holds the lock.
func (s *Session) finishList(question *models.Question) (awarded int, countsAsCorrect bool) {
	foundCount := len(s.foundOrder)
	targetCount := len(question.List.Answers)

	// An empty answer set would otherwise divide by zero; count it as
	// fully found.
	fraction := 1.0
	if targetCount > 0 {
		fraction = float64(foundCount) / float64(targetCount)
	}

	awarded = int(math.Round(float64(question.Points) * fraction))
	countsAsCorrect = fraction >= 0.5

	s.score += awarded
	s.correctAnswers += foundCount
	s.incorrectAnswers += targetCount - foundCount
	s.questionsAnswered++
	if countsAsCorrect {
		s.questionsCorrect++
	}

	pair := s.tally.At(question.Difficulty)
	pair.Correct += foundCount
	pair.Total += targetCount

	s.listFinished = true
	s.isAnswered = true

	utils.LogQuiz("Session %s list question %d finished: %d/%d found, +%d points (score %d)",
		s.id, s.cursor+1, foundCount, targetCount, awarded, s.score)

	return awarded, countsAsCorrect
}

// Advance moves to the next question once the current one is finished.
// The cursor never goes back; advancing past the last question completes
// the session.
func (s *Session) Advance() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()

	if s.state != StateInProgress || !s.isAnswered {
		return false
	}

	s.cursor++
	s.isAnswered = false
	s.listFinished = false
	s.foundAnswers = make(map[string]bool)
	s.foundOrder = nil

	if s.cursor >= len(s.questions) {
		s.state = StateCompleted
		utils.LogQuiz("Session %s completed: score %d/%d, accuracy %d%%",
			s.id, s.score, s.maxPossibleScore, s.accuracyLocked())
	}

	return true
}

// Result builds the emitted record of a completed session.
func (s *Session) Result() (*models.QuizResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateCompleted {
		return nil, false
	}

	return &models.QuizResult{
		QuestionnaireID:  s.questionnaire.ID,
		Date:             time.Now().UTC(),
		Score:            s.score,
		MaxPossibleScore: s.maxPossibleScore,
		CorrectAnswers:   s.correctAnswers,
		IncorrectAnswers: s.incorrectAnswers,
		TotalQuestions:   s.questionsAnswered,
		Accuracy:         s.accuracyLocked(),
		TimeSpentSeconds: int(math.Round(time.Since(s.startedAt).Seconds())),
		Difficulty:       s.tally,
	}, true
}

func (s *Session) accuracyLocked() int {
	if s.questionsAnswered == 0 {
		return 0
	}
	return int(math.Round(float64(s.questionsCorrect) / float64(s.questionsAnswered) * 100))
}

// QuestionView is the read-only shape of the current question. The correct
// answer is never included; choices come pre-shuffled per session.
type QuestionView struct {
	Index           int                 `json:"index"`
	Total           int                 `json:"total"`
	Type            models.QuestionType `json:"type"`
	Difficulty      models.Difficulty   `json:"difficulty"`
	DifficultyLevel int                 `json:"difficulty_level"`
	Points          int                 `json:"points"`
	Prompt          string              `json:"prompt"`
	Choices         []string            `json:"choices,omitempty"`
	ExpectedAnswers int                 `json:"expected_answers,omitempty"`
	FoundAnswers    []string            `json:"found_answers,omitempty"`
	Answered        bool                `json:"answered"`
}

// Snapshot is the read-only session view consumed by the presentation
// layer.
type Snapshot struct {
	ID               string                     `json:"id"`
	QuestionnaireID  string                     `json:"questionnaire_id"`
	State            State                      `json:"state"`
	Score            int                        `json:"score"`
	MaxPossibleScore int                        `json:"max_possible_score"`
	CorrectAnswers   int                        `json:"correct_answers"`
	IncorrectAnswers int                        `json:"incorrect_answers"`
	Accuracy         int                        `json:"accuracy"`
	ProgressPercent  int                        `json:"progress_percent"`
	Difficulty       models.DifficultyBreakdown `json:"difficulty"`
	Current          *QuestionView              `json:"current_question,omitempty"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := Snapshot{
		ID:               s.id,
		QuestionnaireID:  s.questionnaire.ID,
		State:            s.state,
		Score:            s.score,
		MaxPossibleScore: s.maxPossibleScore,
		CorrectAnswers:   s.correctAnswers,
		IncorrectAnswers: s.incorrectAnswers,
		Accuracy:         s.accuracyLocked(),
		ProgressPercent:  s.cursor * 100 / len(s.questions),
		Difficulty:       s.tally,
	}

	if s.state == StateInProgress {
		question := &s.questions[s.cursor]
		view := &QuestionView{
			Index:           s.cursor + 1,
			Total:           len(s.questions),
			Type:            question.Type,
			Difficulty:      question.Difficulty,
			DifficultyLevel: question.Difficulty.Level(),
			Points:          question.Points,
			Prompt:          question.Prompt,
			Answered:        s.isAnswered,
		}
		switch question.Type {
		case models.MultipleChoice:
			view.Choices = s.choiceOrder[s.cursor]
		case models.TrueFalse:
			view.Choices = []string{"true", "false"}
		case models.List:
			view.ExpectedAnswers = len(question.List.Answers)
			view.FoundAnswers = append([]string(nil), s.foundOrder...)
		}
		snapshot.Current = view
	}

	return snapshot
}

// LastActive is used by the session store to expire abandoned sessions.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}
