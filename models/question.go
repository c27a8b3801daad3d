package models

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	List           QuestionType = "list"
)

type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Level returns the star level shown for a difficulty (1-3).
func (d Difficulty) Level() int {
	switch d {
	case Easy:
		return 1
	case Medium:
		return 2
	case Hard:
		return 3
	}
	return 1
}

// Question is the tagged variant of the source data's duck-typed question
// shape. Exactly one of Choice, Bool or List is set, matching Type.
type Question struct {
	Type        QuestionType
	Difficulty  Difficulty
	Points      int
	Prompt      string
	Explanation string

	Choice *ChoicePayload
	Bool   *BoolPayload
	List   *ListPayload
}

// ChoicePayload holds the correct option plus the distractors. The number
// of distractors is whatever the data provides, not assumed to be three.
type ChoicePayload struct {
	Correct   string
	Incorrect []string
}

type BoolPayload struct {
	Correct bool
}

// ListPayload is the answer set of a free-text recall question. Order is
// irrelevant for matching; it is kept as loaded for display.
type ListPayload struct {
	Answers []string
}

var citationPattern = regexp.MustCompile(`\s*\[[\d,\s]+]\s*`)

// CleanExplanation returns the explanation with bracketed citation markers
// like [1] or [2, 3] stripped out.
func (q *Question) CleanExplanation() string {
	cleaned := citationPattern.ReplaceAllString(q.Explanation, " ")
	return strings.Join(strings.Fields(cleaned), " ")
}

// rawQuestion mirrors the source JSON. The correct field is a string for
// multiple choice and a bool for true/false, so it stays raw here.
type rawQuestion struct {
	Type        string          `json:"type"`
	Difficulty  string          `json:"difficulty"`
	Points      int             `json:"points"`
	Question    string          `json:"question"`
	Explanation string          `json:"explanation"`
	Correct     json.RawMessage `json:"correct"`
}

// UnmarshalJSON converts the duck-typed source shape (correct/incorrect_N
// for choices, answer_N for lists) into the tagged variant. Shape errors
// are reported here so bad questions are rejected at load time, not when
// they come up mid-quiz.
func (q *Question) UnmarshalJSON(data []byte) error {
	var raw rawQuestion
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	q.Type = QuestionType(raw.Type)
	if raw.Type == "multiple_selection" { // legacy alias in older data files
		q.Type = MultipleChoice
	}
	q.Difficulty = Difficulty(raw.Difficulty)
	q.Points = raw.Points
	q.Prompt = raw.Question
	q.Explanation = raw.Explanation
	q.Choice = nil
	q.Bool = nil
	q.List = nil

	switch q.Type {
	case MultipleChoice:
		var correct string
		if len(raw.Correct) > 0 {
			if err := json.Unmarshal(raw.Correct, &correct); err != nil {
				return fmt.Errorf("multiple_choice correct answer: %w", err)
			}
		}
		q.Choice = &ChoicePayload{
			Correct:   correct,
			Incorrect: collectPrefixed(fields, "incorrect_"),
		}
	case TrueFalse:
		var correct bool
		if len(raw.Correct) > 0 {
			if err := json.Unmarshal(raw.Correct, &correct); err != nil {
				return fmt.Errorf("true_false correct answer: %w", err)
			}
		}
		q.Bool = &BoolPayload{Correct: correct}
	case List:
		q.List = &ListPayload{Answers: collectPrefixed(fields, "answer_")}
	}

	return nil
}

// MarshalJSON writes the source shape back out so cached questionnaires
// decode through the same path as freshly loaded ones.
func (q Question) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{
		"type":        string(q.Type),
		"difficulty":  string(q.Difficulty),
		"points":      q.Points,
		"question":    q.Prompt,
		"explanation": q.Explanation,
	}

	switch q.Type {
	case MultipleChoice:
		if q.Choice != nil {
			out["correct"] = q.Choice.Correct
			for i, answer := range q.Choice.Incorrect {
				out[fmt.Sprintf("incorrect_%d", i+1)] = answer
			}
		}
	case TrueFalse:
		if q.Bool != nil {
			out["correct"] = q.Bool.Correct
		}
	case List:
		if q.List != nil {
			for i, answer := range q.List.Answers {
				out[fmt.Sprintf("answer_%d", i+1)] = answer
			}
		}
	}

	return json.Marshal(out)
}

// collectPrefixed gathers string fields whose names start with the given
// prefix, ordered by their numeric suffix (answer_1, answer_2, ...).
func collectPrefixed(fields map[string]json.RawMessage, prefix string) []string {
	type entry struct {
		order int
		value string
	}

	var entries []entry
	for key, raw := range fields {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(key, prefix))
		if err != nil {
			continue
		}
		var value string
		if err := json.Unmarshal(raw, &value); err != nil {
			continue
		}
		entries = append(entries, entry{order: n, value: value})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].order < entries[j].order })

	values := make([]string, 0, len(entries))
	for _, e := range entries {
		values = append(values, e.value)
	}
	return values
}

// Validate checks the question is usable in a session.
func (q *Question) Validate() error {
	switch q.Type {
	case MultipleChoice, TrueFalse, List:
	default:
		return fmt.Errorf("unknown question type %q", q.Type)
	}

	switch q.Difficulty {
	case Easy, Medium, Hard:
	default:
		return fmt.Errorf("unknown difficulty %q", q.Difficulty)
	}

	if q.Points <= 0 {
		return fmt.Errorf("points must be positive, got %d", q.Points)
	}

	if strings.TrimSpace(q.Prompt) == "" {
		return fmt.Errorf("empty question text")
	}

	switch q.Type {
	case MultipleChoice:
		if q.Choice == nil || q.Choice.Correct == "" {
			return fmt.Errorf("multiple_choice question has no correct answer")
		}
		if len(q.Choice.Incorrect) == 0 {
			return fmt.Errorf("multiple_choice question has no distractors")
		}
	case TrueFalse:
		if q.Bool == nil {
			return fmt.Errorf("true_false question has no correct answer")
		}
	case List:
		if q.List == nil || len(q.List.Answers) == 0 {
			return fmt.Errorf("list question has no expected answers")
		}
	}

	return nil
}
