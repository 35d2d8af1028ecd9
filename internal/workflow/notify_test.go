package workflow

import "testing"

func TestMemoryNotifier_KeepsMostRecent(t *testing.T) {
	n := NewMemoryNotifier(2)
	for _, m := range []string{"a", "b", "c"} {
		n.Publish(NewNotification(LevelInfo, "t", m))
	}
	got := n.Recent()
	if len(got) != 2 || got[0].Message != "b" || got[1].Message != "c" {
		t.Fatalf("unexpected items %+v", got)
	}
	if !n.Dismiss(got[0].ID) || n.Dismiss("missing") {
		t.Fatalf("dismiss mismatch")
	}
	if len(n.Recent()) != 1 {
		t.Fatalf("expected one left")
	}
}

func TestMulti_FansOut(t *testing.T) {
	a, b := NewMemoryNotifier(0), NewMemoryNotifier(0)
	Multi(a, nil, b).Publish(NewNotification(LevelError, "t", "m"))
	if len(a.Recent()) != 1 || len(b.Recent()) != 1 {
		t.Fatalf("expected both to receive")
	}
}
