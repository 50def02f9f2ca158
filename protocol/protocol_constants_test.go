package protocol

import "testing"

func TestMessageConstants(t *testing.T) {
	if MsgHello != "hello" {
		t.Fatalf("MsgHello = %q, want %q", MsgHello, "hello")
	}
	if MsgInput != "input" {
		t.Fatalf("MsgInput = %q, want %q", MsgInput, "input")
	}
	if MsgWelcome != "welcome" {
		t.Fatalf("MsgWelcome = %q, want %q", MsgWelcome, "welcome")
	}
	if MsgFrame != "frame" {
		t.Fatalf("MsgFrame = %q, want %q", MsgFrame, "frame")
	}
}

func TestTimingConstants(t *testing.T) {
	if SimTickHz != 30 {
		t.Fatalf("SimTickHz = %d, want %d", SimTickHz, 30)
	}
	if BroadcastHz != 15 {
		t.Fatalf("BroadcastHz = %d, want %d", BroadcastHz, 15)
	}
}

func TestTimingSanity(t *testing.T) {
	if SimTickHz <= 0 || ClientInputHz <= 0 || BroadcastHz <= 0 {
		t.Fatalf("timing constants must be > 0")
	}
	if SimTickHz%BroadcastHz != 0 {
		t.Fatalf("SimTickHz %% BroadcastHz != 0 (%d %% %d)", SimTickHz, BroadcastHz)
	}
}
