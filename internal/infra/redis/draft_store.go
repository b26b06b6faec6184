package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"math-quiz-service/internal/app"
	"math-quiz-service/internal/domain"
)

// DraftStore keeps in-progress quiz drafts in Redis. Each save refreshes the
// TTL so abandoned drafts eventually disappear.
type DraftStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDraftStore(client *redis.Client, ttl time.Duration) *DraftStore {
	return &DraftStore{client: client, ttl: ttl}
}

func (s *DraftStore) SaveDraft(ctx context.Context, draft *app.Draft) error {
	raw, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(draft.ID), raw, s.ttl).Err()
}

func (s *DraftStore) GetDraft(ctx context.Context, draftID string) (*app.Draft, error) {
	raw, err := s.client.Get(ctx, s.key(draftID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrDraftNotFound
	}
	if err != nil {
		return nil, err
	}
	var draft app.Draft
	if err := json.Unmarshal(raw, &draft); err != nil {
		return nil, err
	}
	return &draft, nil
}

func (s *DraftStore) DeleteDraft(ctx context.Context, draftID string) error {
	return s.client.Del(ctx, s.key(draftID)).Err()
}

func (s *DraftStore) key(draftID string) string {
	return "quiz:draft:" + draftID
}
