package service

import (
	"duelquiz/internal/model"
	"fmt"
)

const (
	minChoices = 2
	maxChoices = 6
)

// ValidationResult is the outcome of checking a quiz document
type ValidationResult struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// ValidateQuiz checks that a quiz document can be played
func ValidateQuiz(quiz *model.Quiz) ValidationResult {
	if quiz == nil {
		return invalid("Quiz payload missing")
	}
	if len(quiz.Questions) < 1 {
		return invalid("Quiz needs at least one question")
	}
	for i, q := range quiz.Questions {
		if q.Prompt == "" || q.Choices == nil {
			return invalid(fmt.Sprintf("Question %d missing prompt/choices", i))
		}
		if len(q.Choices) < minChoices || len(q.Choices) > maxChoices {
			return invalid(fmt.Sprintf("Question %d must have %d-%d choices", i, minChoices, maxChoices))
		}
		if q.AnswerIndex == nil || *q.AnswerIndex < 0 || *q.AnswerIndex >= len(q.Choices) {
			return invalid(fmt.Sprintf("Question %d has invalid answerIndex", i))
		}
	}
	if s := quiz.Settings.TimePerQuestionSec; s != nil && *s <= 0 {
		return invalid("timePerQuestionSec must be positive")
	}
	if s := quiz.Settings.ReadDelaySec; s != nil && *s < 0 {
		return invalid("readDelaySec must not be negative")
	}
	return ValidationResult{Valid: true}
}

func invalid(msg string) ValidationResult {
	return ValidationResult{Valid: false, Error: msg}
}
