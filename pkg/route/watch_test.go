package route

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestWatcherReloadsOnWrite(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	path := filepath.Join(t.TempDir(), "routes.json")
	if err := os.WriteFile(path, []byte(`{"a.com":[{"ip":"1.1.1.1","name":"a.com","time":1}]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := Watch(ctx, path, log.New(io.Discard))
	if err != nil {
		t.Fatalf("Watch() error: %v", err)
	}
	defer w.Close()

	if _, err := w.Lookup(ctx, "a.com"); err != nil {
		t.Fatalf("Lookup(a.com) error: %v", err)
	}

	if err := os.WriteFile(path, []byte(`{"b.com":[{"ip":"2.2.2.2","name":"b.com","time":2}]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := w.Lookup(ctx, "b.com"); err == nil {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("route table was not reloaded after write")
}

func TestWatcherKeepsTableOnBadReload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "routes.json")
	if err := os.WriteFile(path, []byte(`{"a.com":[{"ip":"1.1.1.1","name":"a.com","time":1}]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := Watch(ctx, path, log.New(io.Discard))
	if err != nil {
		t.Fatalf("Watch() error: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte(`{broken`), 0o644); err != nil {
		t.Fatal(err)
	}
	w.reload()

	if _, err := w.Lookup(ctx, "a.com"); err != nil {
		t.Errorf("Lookup(a.com) after bad reload error: %v", err)
	}
}
