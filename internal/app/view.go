package app

import "math-quiz-service/internal/domain"

// View is the top-level screen a client should show.
type View string

const (
	ViewLogin   View = "login"
	ViewTeacher View = "teacher"
	ViewStudent View = "student"
)

// ChooseView picks the top-level screen from the session state. A nil
// session means nobody is logged in.
func ChooseView(session *domain.Session) View {
	switch {
	case session == nil || session.StudentName == "":
		return ViewLogin
	case session.IsTeacher:
		return ViewTeacher
	default:
		return ViewStudent
	}
}
