package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
)

type fakeJetStream struct {
	subject string
	data    []byte
	opts    int
	err     error
}

func (f *fakeJetStream) Publish(subj string, data []byte, opts ...nats.PubOpt) (*nats.PubAck, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.subject = subj
	f.data = data
	f.opts = len(opts)
	return &nats.PubAck{Stream: "constructia-audit", Sequence: 1}, nil
}

func TestNATSPublisherPublishesJSON(t *testing.T) {
	js := &fakeJetStream{}
	pub := NewNATSPublisher(js)
	evt := Event{
		ID:         "entry-1",
		Type:       "DOCUMENT_UPLOADED_EXTERNAL",
		DocumentID: "doc-1",
		ActorID:    "user-1",
		OccurredAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	if err := pub.Publish(context.Background(), Subject(evt.Type), evt); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if js.subject != "audit.DOCUMENT_UPLOADED_EXTERNAL" {
		t.Fatalf("unexpected subject %q", js.subject)
	}
	if js.opts != 2 {
		t.Fatalf("expected context and msg id options, got %d", js.opts)
	}
	var decoded Event
	if err := json.Unmarshal(js.data, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.ID != "entry-1" || decoded.DocumentID != "doc-1" {
		t.Fatalf("unexpected payload %+v", decoded)
	}
}

func TestNATSPublisherWrapsErrors(t *testing.T) {
	boom := errors.New("no responders")
	pub := NewNATSPublisher(&fakeJetStream{err: boom})
	err := pub.Publish(context.Background(), "audit.X", Event{ID: "e"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestNilPublisherFails(t *testing.T) {
	var pub *NATSPublisher
	if err := pub.Publish(context.Background(), "audit.X", Event{}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestConnectRequiresURL(t *testing.T) {
	if _, err := ConnectNATS("", "stream"); err == nil {
		t.Fatalf("expected error")
	}
}
