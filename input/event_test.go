package input

import "testing"

func TestKindRoundTrip(t *testing.T) {
	for k := Quit; k <= HostRestart; k++ {
		got, ok := ParseKind(k.String())
		if !ok || got != k {
			t.Fatalf("ParseKind(%q) = %v,%v want %v", k.String(), got, ok, k)
		}
	}
	if _, ok := ParseKind("nope"); ok {
		t.Fatalf("expected unknown kind to fail")
	}
}

func TestPrimaryHelpers(t *testing.T) {
	if !Down(1, 2).IsPrimaryDown() {
		t.Fatalf("Down should be primary down")
	}
	if !Up(1, 2).IsPrimaryUp() {
		t.Fatalf("Up should be primary up")
	}
	ev := Event{Kind: PointerUp, Button: ButtonSecondary}
	if ev.IsPrimaryUp() {
		t.Fatalf("secondary release should not count as primary")
	}
}
