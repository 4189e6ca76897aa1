package detach

import "testing"

func TestIsAttachedDetectsFlag(t *testing.T) {
	if IsAttached([]string{"run", "build"}) {
		t.Fatal("expected false without --attach")
	}
	if !IsAttached([]string{"run", "build", AttachFlag}) {
		t.Fatal("expected true with --attach present")
	}
}

func TestStripAttachRemovesEveryOccurrence(t *testing.T) {
	got := StripAttach([]string{"run", AttachFlag, "build", AttachFlag})
	want := []string{"run", "build"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
