package domain

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateQuiz checks required fields and the per-question option invariants.
// Cross-field advice (see Advisory) is never enforced here.
func ValidateQuiz(q Quiz) error {
	q = q.Clone()
	for i, question := range q.Questions {
		q.Questions[i].QuestionText = strings.TrimSpace(question.QuestionText)
	}
	q.Title = strings.TrimSpace(q.Title)
	if len(q.Questions) == 0 {
		return fmt.Errorf("%w: at least one question is required", ErrInvalidQuiz)
	}
	if err := validate.Struct(q); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidQuiz, err)
	}
	for i, question := range q.Questions {
		for j, option := range question.Options {
			if strings.TrimSpace(option) == "" {
				return fmt.Errorf("%w: question %d option %d is empty", ErrInvalidQuiz, i+1, j+1)
			}
		}
	}
	return nil
}

// AdvisoryStatisticsFirstGrade is shown when a first-year quiz is tagged statistics.
const AdvisoryStatisticsFirstGrade = "تنبيه: الأول الثانوي لا يدرس الاستاتيكا"

// Advisory returns a non-blocking warning for the subject/grade pair, or "".
func Advisory(subject Subject, grade Grade) string {
	if subject == SubjectStatistics && grade == GradeFirstSecondary {
		return AdvisoryStatisticsFirstGrade
	}
	return ""
}

// AvailableSubjects lists the subjects offered to a grade.
func AvailableSubjects(grade Grade) []Subject {
	if grade == GradeFirstSecondary {
		return []Subject{SubjectPureMath}
	}
	return []Subject{SubjectPureMath, SubjectStatistics}
}

// ValidSubject reports whether s is a known subject.
func ValidSubject(s Subject) bool {
	return s == SubjectPureMath || s == SubjectStatistics
}

// ValidGrade reports whether g is a known grade.
func ValidGrade(g Grade) bool {
	return g == GradeFirstSecondary || g == GradeSecondSecondary
}
