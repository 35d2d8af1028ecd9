package fsutil

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	if runtime.GOOS == "windows" {
		t.Setenv("USERPROFILE", home)
	}
	if got, err := ExpandHome("/tmp"); err != nil || got != "/tmp" {
		t.Fatalf("got %q err=%v", got, err)
	}
	if got, err := ExpandHome(""); err != nil || got != "" {
		t.Fatalf("got %q err=%v", got, err)
	}
	if p, err := ExpandHome("~"); err != nil || p != home {
		t.Fatalf("expected %q, got %q err=%v", home, p, err)
	}
	exp, err := ExpandHome("~/datasets")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if filepath.Base(exp) != "datasets" || filepath.Dir(exp) != home {
		t.Fatalf("unexpected expanded path: %q", exp)
	}
}

func TestReadLimited(t *testing.T) {
	d := t.TempDir()
	p := filepath.Join(d, "train.jsonl")
	if err := os.WriteFile(p, []byte("0123456789"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	name, data, err := ReadLimited(p, 0)
	if err != nil || name != "train.jsonl" || string(data) != "0123456789" {
		t.Fatalf("got %q %q err=%v", name, data, err)
	}
	if _, _, err := ReadLimited(p, 10); err != nil {
		t.Fatalf("exact limit must pass: %v", err)
	}
	if _, _, err := ReadLimited(p, 4); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
	if _, _, err := ReadLimited(d, 0); err == nil {
		t.Fatalf("expected error for directory")
	}
	if _, _, err := ReadLimited(filepath.Join(d, "missing"), 0); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist, got %v", err)
	}
}
