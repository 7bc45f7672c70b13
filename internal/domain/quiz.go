package domain

import "time"

type QuestionType string

const (
	QuestionTypeSingle    QuestionType = "SINGLE"
	QuestionTypeMultiple  QuestionType = "MULTIPLE"
	QuestionTypeTrueFalse QuestionType = "TRUE_FALSE"
)

type Quiz struct {
	ID               string     `json:"id"`
	ModuleID         string     `json:"moduleId"`
	Title            string     `json:"title"`
	Description      string     `json:"description,omitempty"`
	PassingScore     int        `json:"passingScore"`
	AttemptsAllowed  int        `json:"attemptsAllowed"`
	TimeLimitMinutes int        `json:"timeLimitMinutes,omitempty"`
	Questions        []Question `json:"questions,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

type Question struct {
	ID      string         `json:"id"`
	QuizID  string         `json:"quizId"`
	Text    string         `json:"text"`
	Type    QuestionType   `json:"type"`
	Weight  int            `json:"weight"`
	Order   int            `json:"order"`
	Options []AnswerOption `json:"answerOptions,omitempty"`
}

type AnswerOption struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect,omitempty"`
}

type CreateQuizInput struct {
	ModuleID         string `json:"moduleId" validate:"required"`
	Title            string `json:"title" validate:"required,notblank,max=200"`
	Description      string `json:"description,omitempty"`
	PassingScore     int    `json:"passingScore" validate:"gte=0,lte=100"`
	AttemptsAllowed  int    `json:"attemptsAllowed" validate:"gte=1"`
	TimeLimitMinutes int    `json:"timeLimitMinutes,omitempty" validate:"gte=0"`
}

type CreateQuestionInput struct {
	QuizID  string              `json:"quizId" validate:"required"`
	Text    string              `json:"text" validate:"required,notblank"`
	Type    QuestionType        `json:"type" validate:"required,oneof=SINGLE MULTIPLE TRUE_FALSE"`
	Weight  int                 `json:"weight" validate:"gte=1"`
	Order   int                 `json:"order" validate:"gte=1"`
	Options []AnswerOptionInput `json:"answerOptions" validate:"required,min=2,dive"`
}

type AnswerOptionInput struct {
	Text      string `json:"text" validate:"required,notblank"`
	IsCorrect bool   `json:"isCorrect"`
}

// QuizSubmission is a student's set of chosen options per question.
type QuizSubmission struct {
	QuizID  string              `json:"quizId" validate:"required"`
	Answers map[string][]string `json:"answers" validate:"required,min=1"`
}

type QuizAttempt struct {
	ID          string    `json:"id"`
	QuizID      string    `json:"quizId"`
	Score       int       `json:"score"`
	Passed      bool      `json:"passed"`
	SubmittedAt time.Time `json:"submittedAt"`
}
