package minio

import "testing"

func TestNewValidatesOptions(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{name: "missing bucket", opts: Options{Endpoint: "localhost:9000"}, wantErr: true},
		{name: "missing endpoint", opts: Options{Bucket: "documents"}, wantErr: true},
		{name: "ok", opts: Options{Endpoint: "localhost:9000", Bucket: "documents", AccessKey: "a", SecretKey: "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := New(tt.opts)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if store.bucket != "documents" {
				t.Fatalf("unexpected bucket %q", store.bucket)
			}
		})
	}
}
