package notify

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/zoobzio/eventry"
	"github.com/zoobzio/eventry/recorder/memory"
)

const nextMsgTimeout = 2 * time.Second

// TestNATSPublisherPublishesAfterInsert connects to EVENTRY_TEST_NATS_URL and
// confirms a successful InsertEvents results in a message on the expected
// subject. Skipped when the variable is unset: this exercises a real NATS
// server and is not run as part of the default unit test suite.
func TestNATSPublisherPublishesAfterInsert(t *testing.T) {
	url := os.Getenv("EVENTRY_TEST_NATS_URL")
	if url == "" {
		t.Skip("EVENTRY_TEST_NATS_URL not set; skipping NATS integration test")
	}

	conn, err := nats.Connect(url)
	if err != nil {
		t.Fatalf("nats.Connect: %v", err)
	}
	defer conn.Close()

	sub, err := conn.SubscribeSync("events.>")
	if err != nil {
		t.Fatalf("SubscribeSync: %v", err)
	}
	defer sub.Unsubscribe() //nolint:errcheck

	rec := memory.New()
	pub := Wrap(rec, conn, "events", "test-app")

	ctx := context.Background()
	aggID := uuid.New()
	_, err = pub.InsertEvents(ctx, []eventry.StoredEvent{
		{OriginatorID: aggID, OriginatorVersion: 1, Topic: "widget.created", State: []byte("payload")},
	})
	if err != nil {
		t.Fatalf("InsertEvents: %v", err)
	}

	msg, err := sub.NextMsg(nextMsgTimeout)
	if err != nil {
		t.Fatalf("NextMsg: %v", err)
	}
	if msg.Subject != "events.widget.created" {
		t.Errorf("subject = %q, want %q", msg.Subject, "events.widget.created")
	}
}
