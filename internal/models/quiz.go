package models

// QuizResponse holds a questionnaire's answers. It is only sent to the remote
// once every question has been answered.
type QuizResponse struct {
	Age             int      `json:"age" yaml:"age"`
	EducationLevel  string   `json:"education_level" yaml:"education_level"`
	Weight          float64  `json:"weight" yaml:"weight"`
	Height          float64  `json:"height" yaml:"height"`
	Goals           []string `json:"goals" yaml:"goals"`
	CurrentQuestion int      `json:"current_question" yaml:"current_question"`
}
