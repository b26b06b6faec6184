package app

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"math-quiz-service/internal/domain"
)

// QuestionImagePrefix is the object storage prefix for uploaded question images.
const QuestionImagePrefix = "question-images/"

// Draft is a quiz being authored. QuizID is set when editing an existing quiz.
type Draft struct {
	ID        string            `json:"id"`
	QuizID    string            `json:"quiz_id,omitempty"`
	Title     string            `json:"title"`
	Subject   domain.Subject    `json:"subject"`
	Grade     domain.Grade      `json:"grade"`
	Questions []domain.Question `json:"questions"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func blankQuestion() domain.Question {
	return domain.Question{
		ID:      uuid.NewString(),
		Options: make([]string, domain.OptionCount),
	}
}

// NewDraft returns an empty draft with a single blank question.
func NewDraft(id string) *Draft {
	return &Draft{
		ID:        id,
		Subject:   domain.SubjectPureMath,
		Grade:     domain.GradeFirstSecondary,
		Questions: []domain.Question{blankQuestion()},
	}
}

// DraftFromQuiz seeds a draft with an existing quiz for editing.
func DraftFromQuiz(id string, quiz domain.Quiz) *Draft {
	quiz = quiz.Clone()
	d := &Draft{
		ID:        id,
		QuizID:    quiz.ID,
		Title:     quiz.Title,
		Subject:   quiz.Subject,
		Grade:     quiz.Grade,
		Questions: quiz.Questions,
	}
	if len(d.Questions) == 0 {
		d.Questions = []domain.Question{blankQuestion()}
	}
	for i := range d.Questions {
		if len(d.Questions[i].Options) < domain.OptionCount {
			padded := make([]string, domain.OptionCount)
			copy(padded, d.Questions[i].Options)
			d.Questions[i].Options = padded
		}
	}
	return d
}

func (d *Draft) question(i int) (*domain.Question, error) {
	if i < 0 || i >= len(d.Questions) {
		return nil, domain.ErrQuestionIndex
	}
	return &d.Questions[i], nil
}

// SetMeta replaces title, subject and grade.
func (d *Draft) SetMeta(title string, subject domain.Subject, grade domain.Grade) error {
	if !domain.ValidSubject(subject) || !domain.ValidGrade(grade) {
		return fmt.Errorf("%w: unknown subject or grade", domain.ErrInvalidQuiz)
	}
	d.Title = title
	d.Subject = subject
	d.Grade = grade
	return nil
}

// AddQuestion appends a blank question and returns its index.
func (d *Draft) AddQuestion() int {
	d.Questions = append(d.Questions, blankQuestion())
	return len(d.Questions) - 1
}

// RemoveQuestion deletes question i while more than one remains.
func (d *Draft) RemoveQuestion(i int) error {
	if _, err := d.question(i); err != nil {
		return err
	}
	if len(d.Questions) <= 1 {
		return domain.ErrLastQuestion
	}
	d.Questions = append(d.Questions[:i], d.Questions[i+1:]...)
	return nil
}

func (d *Draft) SetText(i int, text string) error {
	q, err := d.question(i)
	if err != nil {
		return err
	}
	q.QuestionText = text
	return nil
}

func (d *Draft) SetOption(i, option int, text string) error {
	q, err := d.question(i)
	if err != nil {
		return err
	}
	if option < 0 || option >= len(q.Options) {
		return domain.ErrOptionIndex
	}
	q.Options[option] = text
	return nil
}

// SetCorrect marks option as the single correct answer of question i.
func (d *Draft) SetCorrect(i, option int) error {
	q, err := d.question(i)
	if err != nil {
		return err
	}
	if option < 0 || option >= len(q.Options) {
		return domain.ErrOptionIndex
	}
	q.CorrectAnswer = option
	return nil
}

func (d *Draft) SetImage(i int, url string) error {
	q, err := d.question(i)
	if err != nil {
		return err
	}
	q.QuestionImage = url
	return nil
}

func (d *Draft) ClearImage(i int) error {
	return d.SetImage(i, "")
}

// Advisory returns the non-blocking subject/grade warning for the draft.
func (d *Draft) Advisory() string {
	return domain.Advisory(d.Subject, d.Grade)
}

// Quiz materialises the draft. Identifiers and timestamps are left to Submit.
func (d *Draft) Quiz() domain.Quiz {
	quiz := domain.Quiz{
		ID:        d.QuizID,
		Title:     strings.TrimSpace(d.Title),
		Subject:   d.Subject,
		Grade:     d.Grade,
		Questions: d.Questions,
	}
	return quiz.Clone()
}

// ImageNormalizer re-encodes uploads before they reach object storage.
type ImageNormalizer interface {
	Normalize(data []byte, filename string) (NormalizedImage, error)
}

// NormalizedImage is an upload ready for storage.
type NormalizedImage struct {
	Data        []byte
	Ext         string
	ContentType string
}

// AuthoringService contains the teacher's quiz editing use cases.
type AuthoringService struct {
	quizzes    QuizRepository
	drafts     DraftRepository
	images     ImageStore
	normalizer ImageNormalizer
	now        func() time.Time
}

func NewAuthoringService(quizzes QuizRepository, drafts DraftRepository, images ImageStore, normalizer ImageNormalizer) *AuthoringService {
	return &AuthoringService{
		quizzes:    quizzes,
		drafts:     drafts,
		images:     images,
		normalizer: normalizer,
		now:        time.Now,
	}
}

// WithClock is test-only for deterministic timestamps.
func (s *AuthoringService) WithClock(now func() time.Time) *AuthoringService {
	s.now = now
	return s
}

// StartDraft opens a blank draft, or a draft of quizID when it is non-empty.
func (s *AuthoringService) StartDraft(ctx context.Context, session domain.Session, quizID string) (*Draft, error) {
	if err := requireTeacher(session); err != nil {
		return nil, err
	}
	draft := NewDraft(uuid.NewString())
	if quizID != "" {
		quiz, err := s.quizzes.GetQuiz(ctx, quizID)
		if err != nil {
			return nil, err
		}
		draft = DraftFromQuiz(draft.ID, quiz)
	}
	draft.UpdatedAt = s.now()
	if err := s.drafts.SaveDraft(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

func (s *AuthoringService) GetDraft(ctx context.Context, session domain.Session, draftID string) (*Draft, error) {
	if err := requireTeacher(session); err != nil {
		return nil, err
	}
	return s.drafts.GetDraft(ctx, draftID)
}

// EditDraft loads a draft, applies edit, and saves it. A failing edit leaves
// the stored draft untouched.
func (s *AuthoringService) EditDraft(ctx context.Context, session domain.Session, draftID string, edit func(*Draft) error) (*Draft, error) {
	if err := requireTeacher(session); err != nil {
		return nil, err
	}
	draft, err := s.drafts.GetDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if err := edit(draft); err != nil {
		return nil, err
	}
	draft.UpdatedAt = s.now()
	if err := s.drafts.SaveDraft(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// AttachImage uploads an image and stores its public URL on question i.
func (s *AuthoringService) AttachImage(ctx context.Context, session domain.Session, draftID string, i int, filename string, data []byte) (*Draft, error) {
	if err := requireTeacher(session); err != nil {
		return nil, err
	}
	draft, err := s.drafts.GetDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if _, err := draft.question(i); err != nil {
		return nil, err
	}
	url, err := s.UploadImage(ctx, session, filename, data)
	if err != nil {
		return nil, err
	}
	return s.EditDraft(ctx, session, draftID, func(d *Draft) error {
		return d.SetImage(i, url)
	})
}

// UploadImage stores an image under the question image prefix and returns its URL.
func (s *AuthoringService) UploadImage(ctx context.Context, session domain.Session, filename string, data []byte) (string, error) {
	if err := requireTeacher(session); err != nil {
		return "", err
	}
	img, err := s.normalizer.Normalize(data, filename)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("%s%d.%s", QuestionImagePrefix, s.now().UnixMilli(), img.Ext)
	url, err := s.images.Put(ctx, key, img.ContentType, bytes.NewReader(img.Data))
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	return url, nil
}

// SubmitDraft validates the draft and inserts or updates its quiz.
func (s *AuthoringService) SubmitDraft(ctx context.Context, session domain.Session, draftID string) (domain.Quiz, error) {
	if err := requireTeacher(session); err != nil {
		return domain.Quiz{}, err
	}
	draft, err := s.drafts.GetDraft(ctx, draftID)
	if err != nil {
		return domain.Quiz{}, err
	}
	quiz, err := s.SaveQuiz(ctx, session, draft.Quiz())
	if err != nil {
		return domain.Quiz{}, err
	}
	if err := s.drafts.DeleteDraft(ctx, draftID); err != nil {
		return quiz, err
	}
	return quiz, nil
}

// SaveQuiz inserts quiz when it has no id, otherwise updates the stored quiz
// with that id, keeping its creation time.
func (s *AuthoringService) SaveQuiz(ctx context.Context, session domain.Session, quiz domain.Quiz) (domain.Quiz, error) {
	if err := requireTeacher(session); err != nil {
		return domain.Quiz{}, err
	}
	quiz = quiz.Clone()
	quiz.Title = strings.TrimSpace(quiz.Title)
	if err := domain.ValidateQuiz(quiz); err != nil {
		return domain.Quiz{}, err
	}

	now := s.now().UTC()
	if quiz.ID == "" {
		quiz.ID = uuid.NewString()
		quiz.CreatedAt = now
		quiz.UpdatedAt = now
		assignQuestionIDs(&quiz)
		if err := s.quizzes.CreateQuiz(ctx, quiz); err != nil {
			return domain.Quiz{}, fmt.Errorf("create quiz: %w", err)
		}
		return quiz, nil
	}

	existing, err := s.quizzes.GetQuiz(ctx, quiz.ID)
	if err != nil {
		return domain.Quiz{}, err
	}
	quiz.CreatedAt = existing.CreatedAt
	quiz.UpdatedAt = now
	assignQuestionIDs(&quiz)
	if err := s.quizzes.UpdateQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("update quiz: %w", err)
	}
	return quiz, nil
}

// GetQuiz returns a quiz with its answer key.
func (s *AuthoringService) GetQuiz(ctx context.Context, session domain.Session, quizID string) (domain.Quiz, error) {
	if err := requireTeacher(session); err != nil {
		return domain.Quiz{}, err
	}
	return s.quizzes.GetQuiz(ctx, quizID)
}

// DeleteQuiz removes a single quiz. Its attempts are kept and show up as orphans.
func (s *AuthoringService) DeleteQuiz(ctx context.Context, session domain.Session, quizID string) error {
	if err := requireTeacher(session); err != nil {
		return err
	}
	return s.quizzes.DeleteQuiz(ctx, quizID)
}

func assignQuestionIDs(quiz *domain.Quiz) {
	for i := range quiz.Questions {
		if quiz.Questions[i].ID == "" {
			quiz.Questions[i].ID = uuid.NewString()
		}
		quiz.Questions[i].QuizID = quiz.ID
	}
}
