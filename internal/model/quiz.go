package model

// Quiz defaults applied when a document omits them
const (
	DefaultQuizTitle          = "Quiz"
	DefaultTimePerQuestionSec = 20
	DefaultReadDelaySec       = 3
)

// QuizDocumentSettings holds optional pacing values from the quiz document
type QuizDocumentSettings struct {
	TimePerQuestionSec *int `json:"timePerQuestionSec,omitempty" bson:"timePerQuestionSec,omitempty"`
	ReadDelaySec       *int `json:"readDelaySec,omitempty" bson:"readDelaySec,omitempty"`
}

// Quiz is the immutable document a session is created from
type Quiz struct {
	Title     string               `json:"title" bson:"title"`
	Settings  QuizDocumentSettings `json:"settings" bson:"settings"`
	Questions []QuizQuestion       `json:"questions" bson:"questions"`
}

// QuizQuestion is a multiple choice question including its answer key.
// AnswerIndex is nil when the document omits it.
type QuizQuestion struct {
	Prompt      string   `json:"prompt" bson:"prompt"`
	Choices     []string `json:"choices" bson:"choices"`
	AnswerIndex *int     `json:"answerIndex" bson:"answerIndex"`
}

// CorrectIndex returns the answer key, or -1 when the question has none.
func (q QuizQuestion) CorrectIndex() int {
	if q.AnswerIndex == nil {
		return -1
	}
	return *q.AnswerIndex
}

// ScrubbedQuestion is what participants receive: no answer key.
type ScrubbedQuestion struct {
	Prompt  string   `json:"prompt"`
	Choices []string `json:"choices"`
}

// Scrub strips the answer key from q.
func (q QuizQuestion) Scrub() ScrubbedQuestion {
	choices := make([]string, len(q.Choices))
	copy(choices, q.Choices)
	return ScrubbedQuestion{
		Prompt:  q.Prompt,
		Choices: choices,
	}
}

// SessionSettings derives the session settings, filling in defaults.
func (q *Quiz) SessionSettings() QuizSettings {
	settings := QuizSettings{
		Title:                  q.Title,
		TimePerQuestionSeconds: DefaultTimePerQuestionSec,
		ReadDelaySeconds:       DefaultReadDelaySec,
	}
	if settings.Title == "" {
		settings.Title = DefaultQuizTitle
	}
	if q.Settings.TimePerQuestionSec != nil {
		settings.TimePerQuestionSeconds = *q.Settings.TimePerQuestionSec
	}
	if q.Settings.ReadDelaySec != nil {
		settings.ReadDelaySeconds = *q.Settings.ReadDelaySec
	}
	return settings
}
