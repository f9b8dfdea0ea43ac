package clients

import (
	"context"
	"errors"
	"testing"
	"time"

	"constructia-backend/internal/audit"
)

type recordingSink struct {
	entries []audit.Entry
}

func (r *recordingSink) Submit(e audit.Entry) { r.entries = append(r.entries, e) }

func newTestService() (*Service, *recordingSink) {
	sink := &recordingSink{}
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return &Service{Repo: NewMemoryRepo(), Audit: sink, Now: func() time.Time { return now }}, sink
}

func TestUpdateCredentialsMarksConfigured(t *testing.T) {
	svc, sink := newTestService()
	ctx := context.Background()

	client, err := svc.Create(ctx, "tenant-1", "Construcciones Norte")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if client.Credentials.Configured {
		t.Fatalf("new client must not be configured")
	}

	updated, err := svc.UpdateCredentials(ctx, "tenant-1", client.ID, "user-1", audit.Origin{Source: "test"}, CredentialsInput{
		Username: " obralia-user ",
		Password: "s3cret",
	})
	if err != nil {
		t.Fatalf("UpdateCredentials: %v", err)
	}
	if !updated.Credentials.Configured || updated.Credentials.Username != "obralia-user" {
		t.Fatalf("unexpected credentials %+v", updated.Credentials)
	}

	stored, err := svc.Get(ctx, "tenant-1", client.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !stored.Credentials.Configured {
		t.Fatalf("expected stored client configured")
	}

	if len(sink.entries) != 1 || sink.entries[0].Action != audit.ActionClientCredentialsUpdated {
		t.Fatalf("expected one credentials audit entry, got %+v", sink.entries)
	}
	if sink.entries[0].ActorID != "user-1" || sink.entries[0].ClientID != client.ID {
		t.Fatalf("unexpected audit entry %+v", sink.entries[0])
	}
}

func TestUpdateCredentialsWithoutPasswordIsNotConfigured(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	client, _ := svc.Create(ctx, "tenant-1", "Acme")

	updated, err := svc.UpdateCredentials(ctx, "tenant-1", client.ID, "user-1", audit.Origin{}, CredentialsInput{Username: "only-user"})
	if err != nil {
		t.Fatalf("UpdateCredentials: %v", err)
	}
	if updated.Credentials.Configured {
		t.Fatalf("expected not configured without password")
	}
}

func TestGetHidesOtherTenants(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	client, _ := svc.Create(ctx, "tenant-1", "Acme")

	if _, err := svc.Get(ctx, "tenant-2", client.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.UpdateCredentials(ctx, "tenant-2", client.ID, "u", audit.Origin{}, CredentialsInput{Username: "a", Password: "b"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateValidates(t *testing.T) {
	svc, _ := newTestService()
	if _, err := svc.Create(context.Background(), "tenant-1", "  "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestListOrdersByName(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	for _, name := range []string{"Zeta", "Alfa", "Beta"} {
		if _, err := svc.Create(ctx, "tenant-1", name); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	_, _ = svc.Create(ctx, "tenant-2", "Other")

	list, err := svc.List(ctx, "tenant-1", 2, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].Name != "Alfa" || list[1].Name != "Beta" {
		t.Fatalf("unexpected list %+v", list)
	}
}
