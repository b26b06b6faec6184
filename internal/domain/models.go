package domain

import "time"

// Subject is one of the two curricular tracks.
type Subject string

const (
	SubjectPureMath   Subject = "pure_math"
	SubjectStatistics Subject = "statistics"
)

// Grade is one of the two school years a quiz targets.
type Grade string

const (
	GradeFirstSecondary  Grade = "first_secondary"
	GradeSecondSecondary Grade = "second_secondary"
)

// OptionCount is the fixed number of options per question.
const OptionCount = 4

// Unanswered marks an answer slot the student never filled.
const Unanswered = -1

// Question models an MCQ question with exactly one correct option.
type Question struct {
	ID            string   `json:"id"`
	QuestionText  string   `json:"question_text" validate:"required"`
	QuestionImage string   `json:"question_image,omitempty"`
	Options       []string `json:"options" validate:"len=4,dive,required"`
	CorrectAnswer int      `json:"correct_answer" validate:"min=0,max=3"`
	QuizID        string   `json:"quiz_id,omitempty"`
}

// Quiz is a titled, subject/grade-tagged collection of questions.
type Quiz struct {
	ID        string     `json:"id"`
	Title     string     `json:"title" validate:"required"`
	Subject   Subject    `json:"subject" validate:"oneof=pure_math statistics"`
	Grade     Grade      `json:"grade" validate:"oneof=first_secondary second_secondary"`
	Questions []Question `json:"questions" validate:"dive"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Attempt is one student's immutable submission for one quiz.
type Attempt struct {
	ID          string    `json:"id"`
	StudentName string    `json:"student_name"`
	QuizID      string    `json:"quiz_id"`
	Answers     []int     `json:"answers"`
	Score       int       `json:"score"`
	CompletedAt time.Time `json:"completed_at"`
}

// Session identifies the caller. It is not an authentication record.
type Session struct {
	ID          string `json:"-"`
	IsTeacher   bool   `json:"isTeacher"`
	StudentName string `json:"studentName"`
}

// PublicQuestion is a question as shown to students, without the answer key.
type PublicQuestion struct {
	ID            string   `json:"id"`
	QuestionText  string   `json:"question_text"`
	QuestionImage string   `json:"question_image,omitempty"`
	Options       []string `json:"options"`
}

// Public strips the answer key.
func (q Question) Public() PublicQuestion {
	options := make([]string, len(q.Options))
	copy(options, q.Options)
	return PublicQuestion{
		ID:            q.ID,
		QuestionText:  q.QuestionText,
		QuestionImage: q.QuestionImage,
		Options:       options,
	}
}

// PublicQuiz is the student-facing view of a quiz.
type PublicQuiz struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Subject   Subject          `json:"subject"`
	Grade     Grade            `json:"grade"`
	Questions []PublicQuestion `json:"questions"`
	CreatedAt time.Time        `json:"created_at"`
}

// Public strips answer keys from every question.
func (q Quiz) Public() PublicQuiz {
	questions := make([]PublicQuestion, 0, len(q.Questions))
	for _, question := range q.Questions {
		questions = append(questions, question.Public())
	}
	return PublicQuiz{
		ID:        q.ID,
		Title:     q.Title,
		Subject:   q.Subject,
		Grade:     q.Grade,
		Questions: questions,
		CreatedAt: q.CreatedAt,
	}
}

// Clone returns a deep copy so cached quizzes cannot be mutated by callers.
func (q Quiz) Clone() Quiz {
	out := q
	out.Questions = make([]Question, len(q.Questions))
	for i, question := range q.Questions {
		question.Options = append([]string(nil), question.Options...)
		out.Questions[i] = question
	}
	return out
}
