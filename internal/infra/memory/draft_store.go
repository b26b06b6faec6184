package memory

import (
	"context"
	"encoding/json"
	"sync"

	"math-quiz-service/internal/app"
	"math-quiz-service/internal/domain"
)

// DraftStore keeps authoring drafts in process. Drafts are stored encoded so
// callers never share slices with the stored copy.
type DraftStore struct {
	mu     sync.RWMutex
	drafts map[string][]byte
}

func NewDraftStore() *DraftStore {
	return &DraftStore{drafts: make(map[string][]byte)}
}

func (s *DraftStore) SaveDraft(_ context.Context, draft *app.Draft) error {
	raw, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.drafts[draft.ID] = raw
	s.mu.Unlock()
	return nil
}

func (s *DraftStore) GetDraft(_ context.Context, draftID string) (*app.Draft, error) {
	s.mu.RLock()
	raw, ok := s.drafts[draftID]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrDraftNotFound
	}
	var draft app.Draft
	if err := json.Unmarshal(raw, &draft); err != nil {
		return nil, err
	}
	return &draft, nil
}

func (s *DraftStore) DeleteDraft(_ context.Context, draftID string) error {
	s.mu.Lock()
	delete(s.drafts, draftID)
	s.mu.Unlock()
	return nil
}
