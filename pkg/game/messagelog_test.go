package game

import (
	"fmt"
	"testing"
)

func TestPausableTime(t *testing.T) {
	clock := NewPausableTime(5)
	if !clock.IsRunning() || clock.Tick() != 5 {
		t.Fatalf("new clock: running=%v tick=%d", clock.IsRunning(), clock.Tick())
	}
	if got := clock.Advance(2); got != 7 {
		t.Errorf("Advance(2) = %d, want 7", got)
	}
	clock.Toggle()
	if got := clock.Advance(3); got != 7 || !clock.IsPaused() {
		t.Errorf("paused clock advanced to %d", got)
	}
	clock.SetPaused(false)
	if got := clock.Advance(1); got != 8 {
		t.Errorf("Advance(1) = %d, want 8", got)
	}
}

func TestMessageLog_Lines(t *testing.T) {
	log := NewMessageLog(3, func() uint64 { return 0 })
	for i := 1; i <= 5; i++ {
		log.DisplayMessage(fmt.Sprintf("line %d", i))
	}

	all := log.Lines(0)
	if len(all) != 3 || all[0] != Bullet+"line 3" || all[2] != Bullet+"line 5" {
		t.Errorf("Lines(0) = %q", all)
	}
	last := log.Lines(1)
	if len(last) != 1 || last[0] != Bullet+"line 5" {
		t.Errorf("Lines(1) = %q", last)
	}
	if got := log.Lines(10); len(got) != 3 {
		t.Errorf("Lines(10) returned %d lines", len(got))
	}
	if log.Total() != 5 {
		t.Errorf("Total() = %d, want 5", log.Total())
	}
}

func TestMessageLog_Floating(t *testing.T) {
	var now uint64
	log := NewMessageLog(0, func() uint64 { return now })

	log.FloatMessage(1, "Halt!")
	now = 10
	log.FloatMessage(2, "Hello.")
	log.FloatMessage(1, "Who goes there?")

	floats := log.Floating()
	if len(floats) != 2 {
		t.Fatalf("floating = %+v", floats)
	}
	if floats[0].Object != 1 || floats[0].Text != "Who goes there?" || floats[0].Expires != 10+FloatTicks {
		t.Errorf("replaced float = %+v", floats[0])
	}

	now = 10 + FloatTicks
	if floats := log.Floating(); len(floats) != 0 {
		t.Errorf("expired floats kept: %+v", floats)
	}
}
