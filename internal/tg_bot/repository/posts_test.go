package repository

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestPostJournal_Record(t *testing.T) {
	var buf bytes.Buffer
	journal := NewPostJournal(&buf)

	if err := journal.Record(42, "Продается квартира"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	want := "-----\n42\nПродается квартира\n-----\n\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestPostJournal_ConcurrentBlocks(t *testing.T) {
	var buf bytes.Buffer
	journal := NewPostJournal(&buf)

	var wg sync.WaitGroup
	for uid := int64(1); uid <= 20; uid++ {
		wg.Add(1)
		go func(uid int64) {
			defer wg.Done()
			_ = journal.Record(uid, "текст")
		}(uid)
	}
	wg.Wait()

	block := len("-----\n1\nтекст\n-----\n\n")
	if got := bytes.Count(buf.Bytes(), []byte("-----\n")); got != 40 {
		t.Errorf("expected 40 delimiters, got %d", got)
	}
	if buf.Len() < 20*block {
		t.Errorf("journal too short: %d bytes", buf.Len())
	}
}

func TestUserContextStore_Load(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "7"), []byte("Агентство недвижимости в Казани"), 0644); err != nil {
		t.Fatalf("write context: %v", err)
	}
	store := NewUserContextStore(dir)

	got, err := store.Load(7)
	if err != nil || got != "Агентство недвижимости в Казани" {
		t.Fatalf("Load(7) = %q, %v", got, err)
	}

	got, err = store.Load(8)
	if err != nil || got != "" {
		t.Fatalf("expected empty context for unknown user, got %q, %v", got, err)
	}

	if _, err = NewUserContextStore(filepath.Join(dir, "7")).Load(1); err == nil {
		t.Errorf("expected error when the context path is a file")
	}
}
