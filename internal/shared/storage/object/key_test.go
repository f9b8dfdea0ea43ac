package object

import (
	"io"
	"strings"
	"testing"

	"constructia-backend/internal/shared/util"
)

func TestNewKeyNamespacesByTenant(t *testing.T) {
	key, err := NewKey("tenant-1", "tc2 march.pdf")
	if err != nil {
		t.Fatalf("NewKey: %v", err)
	}
	if !strings.HasPrefix(key, util.HashTenantKey("tenant-1")+"/") {
		t.Fatalf("expected tenant namespace, got %q", key)
	}
	if !strings.HasSuffix(key, "_tc2 march.pdf") {
		t.Fatalf("expected file name suffix, got %q", key)
	}

	other, err := NewKey("tenant-1", "tc2 march.pdf")
	if err != nil {
		t.Fatalf("NewKey: %v", err)
	}
	if other == key {
		t.Fatalf("expected random prefix to differ")
	}
}

func TestNewKeyRejectsTraversal(t *testing.T) {
	if _, err := NewKey("tenant-1", "../etc/passwd"); err == nil {
		t.Fatalf("expected traversal to be rejected")
	}
}

func TestSniffReplaysHead(t *testing.T) {
	body := "%PDF-1.4 rest of the document"
	mime, r, err := Sniff(strings.NewReader(body))
	if err != nil {
		t.Fatalf("Sniff: %v", err)
	}
	if mime != "application/pdf" {
		t.Fatalf("expected application/pdf, got %q", mime)
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != body {
		t.Fatalf("expected body replayed, got %q", got)
	}
}
