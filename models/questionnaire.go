package models

import "fmt"

// Questionnaire is a named, ordered collection of questions plus display
// metadata, as loaded from a questionnaire data file.
type Questionnaire struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	ReadTime     int        `json:"read_time,omitempty"`
	Bibliography []string   `json:"bibliography,omitempty"`
	PDFPath      string     `json:"pdfPath,omitempty"`
	CreatedAt    string     `json:"created_at,omitempty"`
	UpdatedAt    string     `json:"updated_at,omitempty"`
	Questions    []Question `json:"questions"`
}

// Metadata is the summary view shown on listing screens.
type Metadata struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	ReadTime      int    `json:"read_time,omitempty"`
	PDFPath       string `json:"pdfPath,omitempty"`
	QuestionCount int    `json:"question_count"`
	TotalPoints   int    `json:"total_points"`
}

func (q *Questionnaire) QuestionCount() int {
	return len(q.Questions)
}

// TotalPoints is the sum of all question point values.
func (q *Questionnaire) TotalPoints() int {
	total := 0
	for _, question := range q.Questions {
		total += question.Points
	}
	return total
}

func (q *Questionnaire) Metadata() Metadata {
	return Metadata{
		ID:            q.ID,
		Title:         q.Title,
		Description:   q.Description,
		ReadTime:      q.ReadTime,
		PDFPath:       q.PDFPath,
		QuestionCount: q.QuestionCount(),
		TotalPoints:   q.TotalPoints(),
	}
}

// Validate checks the questionnaire invariants: identified, titled,
// non-empty, and every question individually valid.
func (q *Questionnaire) Validate() error {
	if q.ID == "" {
		return fmt.Errorf("questionnaire has no id")
	}
	if q.Title == "" {
		return fmt.Errorf("questionnaire %q has no title", q.ID)
	}
	if len(q.Questions) == 0 {
		return fmt.Errorf("questionnaire %q has no questions", q.ID)
	}
	for i := range q.Questions {
		if err := q.Questions[i].Validate(); err != nil {
			return fmt.Errorf("questionnaire %q question %d: %w", q.ID, i+1, err)
		}
	}
	return nil
}
