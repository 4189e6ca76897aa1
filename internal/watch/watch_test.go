package watch

import "testing"

func TestIgnoredSkipsSwapFiles(t *testing.T) {
	if !ignored("/tmp/project/.main.go.swp") {
		t.Fatal("expected .swp files to be ignored")
	}
	if ignored("/tmp/project/main.go") {
		t.Fatal("expected .go files to not be ignored")
	}
}
