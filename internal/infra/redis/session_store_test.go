package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"math-quiz-service/internal/app"
	"math-quiz-service/internal/domain"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewSessionStore(newClient(mr))

	if err := store.Save(ctx, domain.Session{ID: "s1", IsTeacher: true, StudentName: "shymaa9977"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !mr.Exists("quiz:session:s1") {
		t.Fatalf("expected redis key to be set")
	}
	if ttl := mr.TTL("quiz:session:s1"); ttl != 0 {
		t.Fatalf("expected no expiry, got %s", ttl)
	}

	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != "s1" || !got.IsTeacher || got.StudentName != "shymaa9977" {
		t.Fatalf("unexpected session %+v", got)
	}

	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if mr.Exists("quiz:session:s1") {
		t.Fatalf("expected redis key to be removed")
	}
	if _, err := store.Get(ctx, "s1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDraftStoreRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewDraftStore(newClient(mr), time.Hour)

	draft := app.NewDraft("d1")
	if err := draft.SetText(0, "2 + 3 = ?"); err != nil {
		t.Fatalf("set text: %v", err)
	}
	if err := store.SaveDraft(ctx, draft); err != nil {
		t.Fatalf("save: %v", err)
	}
	if ttl := mr.TTL("quiz:draft:d1"); ttl != time.Hour {
		t.Fatalf("expected draft ttl, got %s", ttl)
	}

	got, err := store.GetDraft(ctx, "d1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Questions[0].QuestionText != "2 + 3 = ?" || len(got.Questions[0].Options) != domain.OptionCount {
		t.Fatalf("unexpected draft %+v", got.Questions[0])
	}

	_ = store.DeleteDraft(ctx, "d1")
	if _, err := store.GetDraft(ctx, "d1"); !errors.Is(err, domain.ErrDraftNotFound) {
		t.Fatalf("expected draft gone, got %v", err)
	}
}
