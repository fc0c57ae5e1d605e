package stats

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cozycove/cozycove/internal/metrics"
	"github.com/cozycove/cozycove/internal/model"
)

func testWorker() *Worker {
	return &Worker{
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: metrics.NewNoop(),
	}
}

type fakeStatsRepo struct {
	inserted   int
	refreshed  [][]string
	refreshErr error
}

func (f *fakeStatsRepo) BulkInsertClickEvents(ctx context.Context, events []*model.ClickEvent) error {
	f.inserted += len(events)
	return nil
}

func (f *fakeStatsRepo) RefreshProductStats(ctx context.Context, productIDs []string) error {
	if f.refreshErr != nil {
		return f.refreshErr
	}
	f.refreshed = append(f.refreshed, productIDs)
	return nil
}

type fakeClickCounters struct {
	reset []string
}

func (f *fakeClickCounters) GetAndResetClicks(ctx context.Context, productID string) (int64, error) {
	f.reset = append(f.reset, productID)
	return 1, nil
}

func TestParseMessages_ValidPayloads(t *testing.T) {
	t.Parallel()

	w := testWorker()

	clickedAt := time.Date(2026, 8, 30, 9, 15, 0, 0, time.UTC)
	payload, _ := json.Marshal(ClickEventPayload{
		ProductID:   "1005006789",
		Referrer:    "https://pinterest.com/pin/123",
		VisitorHash: "a1b2c3d4e5f60718",
		CountryCode: "US",
		ClickedAt:   clickedAt.UnixMilli(),
	})

	messages := []redis.XMessage{
		{ID: "1757700000000-0", Values: map[string]interface{}{"payload": string(payload)}},
	}

	events, messageIDs := w.parseMessages(context.Background(), messages)

	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if len(messageIDs) != 1 || messageIDs[0] != "1757700000000-0" {
		t.Errorf("messageIDs = %v, want the stream id", messageIDs)
	}

	event := events[0]
	if event.EventID != "1757700000000-0" {
		t.Errorf("EventID = %q, want stream id", event.EventID)
	}
	if event.ProductID != "1005006789" {
		t.Errorf("ProductID = %q", event.ProductID)
	}
	if event.ID == "" {
		t.Error("expected a generated ULID")
	}
	if !event.ClickedAt.Equal(clickedAt) {
		t.Errorf("ClickedAt = %v, want %v", event.ClickedAt, clickedAt)
	}
}

func TestParseMessages_ULIDsAreUnique(t *testing.T) {
	t.Parallel()

	w := testWorker()

	payload, _ := json.Marshal(ClickEventPayload{
		ProductID:   "1005006789",
		VisitorHash: "a1b2c3d4e5f60718",
		ClickedAt:   time.Now().UnixMilli(),
	})

	messages := []redis.XMessage{
		{ID: "1-0", Values: map[string]interface{}{"payload": string(payload)}},
		{ID: "1-1", Values: map[string]interface{}{"payload": string(payload)}},
	}

	events, _ := w.parseMessages(context.Background(), messages)
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	if events[0].ID == events[1].ID {
		t.Error("each event should get its own ULID")
	}
}

func TestIsConsumerGroupExistsError(t *testing.T) {
	t.Parallel()

	if !isConsumerGroupExistsError(errors.New("BUSYGROUP Consumer Group name already exists")) {
		t.Error("BUSYGROUP error should be recognized")
	}
	if isConsumerGroupExistsError(errors.New("connection refused")) {
		t.Error("unrelated errors should not be treated as group-exists")
	}
	if isConsumerGroupExistsError(nil) {
		t.Error("nil error should not be treated as group-exists")
	}
}

func TestNewConsumerID(t *testing.T) {
	t.Parallel()

	id1 := NewConsumerID()
	id2 := NewConsumerID()

	if id1 == "" {
		t.Fatal("consumer id should not be empty")
	}
	if id1 == id2 {
		t.Error("consumer ids should be unique per call")
	}
	if strings.Count(id1, "-") < 2 {
		t.Errorf("consumer id %q should carry host, pid and nonce parts", id1)
	}
}

func TestProcessBatch_ResetsLiveCounters(t *testing.T) {
	t.Parallel()

	repo := &fakeStatsRepo{}
	counters := &fakeClickCounters{}
	w := testWorker()
	w.repo = repo
	w.SetClickCounters(counters)

	now := time.Now()
	events := []*model.ClickEvent{
		{ID: "a", EventID: "1-0", ProductID: "p-1", ClickedAt: now},
		{ID: "b", EventID: "1-1", ProductID: "p-2", ClickedAt: now},
		{ID: "c", EventID: "1-2", ProductID: "p-1", ClickedAt: now},
	}

	if err := w.processBatch(context.Background(), events); err != nil {
		t.Fatalf("processBatch error: %v", err)
	}

	if repo.inserted != 3 {
		t.Errorf("inserted = %d, want 3", repo.inserted)
	}
	// One reset per distinct product in the batch.
	if len(counters.reset) != 2 {
		t.Errorf("reset counters = %v, want one per distinct product", counters.reset)
	}
}

func TestProcessBatch_NoResetWhenRefreshFails(t *testing.T) {
	t.Parallel()

	repo := &fakeStatsRepo{refreshErr: errors.New("db down")}
	counters := &fakeClickCounters{}
	w := testWorker()
	w.repo = repo
	w.SetClickCounters(counters)

	events := []*model.ClickEvent{
		{ID: "a", EventID: "1-0", ProductID: "p-1", ClickedAt: time.Now()},
	}

	if err := w.processBatch(context.Background(), events); err == nil {
		t.Fatal("expected error when the stats refresh fails")
	}
	// Counters must survive so the retry still covers those clicks.
	if len(counters.reset) != 0 {
		t.Errorf("reset counters = %v, want none on failure", counters.reset)
	}
}

func TestShutdown_NotStarted(t *testing.T) {
	t.Parallel()

	w := testWorker()
	if err := w.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown on a never-started worker = %v, want nil", err)
	}
}
