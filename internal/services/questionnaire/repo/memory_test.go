package repo

import (
	"context"
	"testing"
	"time"

	perr "voiceform/internal/platform/errors"
	"voiceform/internal/services/questionnaire/domain"
)

func TestMemory_RoundTrip(t *testing.T) {
	t.Parallel()

	m := NewMemory(0, time.Minute)
	ctx := context.Background()

	sess := domain.NewSession("s1")
	sess.RecordResponse(domain.UserResponse{
		QuestionID:         1,
		Transcript:         "yes",
		ClassifiedCategory: "yes",
		Confidence:         0.9,
		RecordedAt:         time.Now().UTC(),
	})
	if err := m.Create(ctx, sess); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := m.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.CurrentQuestionIndex != sess.CurrentQuestionIndex {
		t.Fatalf("index = %d, want %d", got.CurrentQuestionIndex, sess.CurrentQuestionIndex)
	}
	if len(got.Responses) != 1 || got.Responses[1].ClassifiedCategory != "yes" {
		t.Fatalf("responses = %+v, want the recorded answer", got.Responses)
	}
	if len(got.TranscriptHistory) != 1 {
		t.Fatalf("transcript history = %v, want one line", got.TranscriptHistory)
	}
}

func TestMemory_GetMissingIsNotFound(t *testing.T) {
	t.Parallel()

	m := NewMemory(0, time.Minute)
	_, err := m.Get(context.Background(), "nope")
	if !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("err = %v, want not found code", err)
	}
}

func TestMemory_CreateDuplicateFails(t *testing.T) {
	t.Parallel()

	m := NewMemory(0, time.Minute)
	ctx := context.Background()

	if err := m.Create(ctx, domain.NewSession("dup")); err != nil {
		t.Fatalf("first create: %v", err)
	}
	err := m.Create(ctx, domain.NewSession("dup"))
	if !perr.IsCode(err, perr.ErrorCodeDuplicateKey) {
		t.Fatalf("err = %v, want duplicate key code", err)
	}
}

func TestMemory_PutBumpsVersion(t *testing.T) {
	t.Parallel()

	m := NewMemory(0, time.Minute)
	ctx := context.Background()

	sess := domain.NewSession("v")
	if err := m.Create(ctx, sess); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sess.Version != 1 {
		t.Fatalf("version after create = %d, want 1", sess.Version)
	}

	sess.IncrementRetry()
	if err := m.Put(ctx, sess); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if sess.Version != 2 {
		t.Fatalf("version after put = %d, want 2", sess.Version)
	}

	got, _ := m.Get(ctx, "v")
	if got.Version != 2 || got.RetryCount != 1 {
		t.Fatalf("stored version=%d retryCount=%d, want 2 and 1", got.Version, got.RetryCount)
	}
}

func TestMemory_PutDetectsConcurrentWriter(t *testing.T) {
	t.Parallel()

	m := NewMemory(0, time.Minute)
	ctx := context.Background()

	sess := domain.NewSession("race")
	if err := m.Create(ctx, sess); err != nil {
		t.Fatalf("Create: %v", err)
	}

	a, _ := m.Get(ctx, "race")
	b, _ := m.Get(ctx, "race")

	a.IncrementRetry()
	if err := m.Put(ctx, a); err != nil {
		t.Fatalf("first writer: %v", err)
	}

	b.IncrementRetry()
	err := m.Put(ctx, b)
	if !perr.IsCode(err, perr.ErrorCodeConflict) {
		t.Fatalf("err = %v, want conflict code", err)
	}
}

func TestMemory_PutMissingIsNotFound(t *testing.T) {
	t.Parallel()

	m := NewMemory(0, time.Minute)
	err := m.Put(context.Background(), domain.NewSession("ghost"))
	if !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("err = %v, want not found code", err)
	}
}

func TestMemory_DeleteAndExists(t *testing.T) {
	t.Parallel()

	m := NewMemory(0, time.Minute)
	ctx := context.Background()

	if err := m.Create(ctx, domain.NewSession("d")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	ok, err := m.Exists(ctx, "d")
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v; want true", ok, err)
	}

	if err := m.Delete(ctx, "d"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	ok, _ = m.Exists(ctx, "d")
	if ok {
		t.Fatalf("session still exists after delete")
	}

	// deleting again is fine
	if err := m.Delete(ctx, "d"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestMemory_TTLExpiresEntries(t *testing.T) {
	t.Parallel()

	m := NewMemory(0, 20*time.Millisecond)
	ctx := context.Background()

	if err := m.Create(ctx, domain.NewSession("ttl")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	time.Sleep(60 * time.Millisecond)

	_, err := m.Get(ctx, "ttl")
	if !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("err = %v, want not found after expiry", err)
	}
}

func TestMemory_ExtendKeepsSessionAlive(t *testing.T) {
	t.Parallel()

	m := NewMemory(0, 80*time.Millisecond)
	ctx := context.Background()

	if err := m.Create(ctx, domain.NewSession("keep")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	for i := 0; i < 3; i++ {
		time.Sleep(40 * time.Millisecond)
		if err := m.Extend(ctx, "keep"); err != nil {
			t.Fatalf("Extend %d: %v", i, err)
		}
	}

	ok, _ := m.Exists(ctx, "keep")
	if !ok {
		t.Fatalf("session expired despite extends")
	}
}
