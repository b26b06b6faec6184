package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrInvalidQuiz wraps validation failures on quiz payloads and drafts.
	ErrInvalidQuiz = errors.New("invalid quiz")
	// ErrInvalidName is returned when a login carries an empty display name.
	ErrInvalidName = errors.New("display name is required")
	// ErrSessionNotFound is returned when a session id is unknown or logged out.
	ErrSessionNotFound = errors.New("session not found")
	// ErrUnauthenticated is returned when a request carries no usable session.
	ErrUnauthenticated = errors.New("not logged in")
	// ErrForbidden is returned when a student calls a teacher-only operation or vice versa.
	ErrForbidden = errors.New("operation not allowed for this session")
	// ErrAlreadyAttempted enforces one attempt per student per quiz.
	ErrAlreadyAttempted = errors.New("quiz already attempted by this student")
	// ErrDraftNotFound indicates an unknown or expired authoring draft.
	ErrDraftNotFound = errors.New("draft not found")
	// ErrLastQuestion blocks removing the only remaining question of a draft.
	ErrLastQuestion = errors.New("a quiz needs at least one question")
	// ErrQuestionIndex indicates a question position outside the quiz.
	ErrQuestionIndex = errors.New("question index out of range")
	// ErrOptionIndex indicates an option position outside the question.
	ErrOptionIndex = errors.New("option index out of range")
	// ErrTakingClosed is returned when a finished taking receives a command.
	ErrTakingClosed = errors.New("quiz taking already finished")
	// ErrInvalidTransition is returned for commands not valid in the current taking state.
	ErrInvalidTransition = errors.New("command not allowed in current state")
	// ErrResetFailed wraps the first failing step of a teacher reset.
	ErrResetFailed = errors.New("reset failed")
	// ErrInvalidImage indicates an upload that could not be decoded as an image.
	ErrInvalidImage = errors.New("invalid image")
)
