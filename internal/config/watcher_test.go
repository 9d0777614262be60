package config

import (
	"os"
	"testing"
	"time"
)

func TestWatcherReloadsOnWrite(t *testing.T) {
	cfg := tempConfig(t, `{"text": "before"}`)

	w, err := Watch(cfg, WithWatchDebounce(10*time.Millisecond))
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Close()

	changed := make(chan string, 1)
	w.OnChange(func(c *Config) {
		select {
		case changed <- c.Text():
		default:
		}
	})

	if err := os.WriteFile(cfg.Path(), []byte(`{"text": "after"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-changed:
		if got != "after" {
			t.Fatalf("reloaded text = %q, want after", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification delivered")
	}
}

func TestWatcherIgnoresSiblingFiles(t *testing.T) {
	cfg := tempConfig(t, `{"text": "keep"}`)

	w, err := Watch(cfg, WithWatchDebounce(10*time.Millisecond))
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Close()

	notified := make(chan struct{}, 1)
	w.OnChange(func(*Config) {
		select {
		case notified <- struct{}{}:
		default:
		}
	})

	sibling := cfg.Path() + ".bak"
	if err := os.WriteFile(sibling, []byte(`{"text": "other"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-notified:
		t.Fatal("sibling file change triggered a reload")
	case <-time.After(300 * time.Millisecond):
	}
	if got := cfg.Text(); got != "keep" {
		t.Fatalf("Text() = %q, want keep", got)
	}
}

func TestWatcherClose(t *testing.T) {
	cfg := tempConfig(t, "")
	w, err := Watch(cfg, WithWatchDebounce(10*time.Millisecond))
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
