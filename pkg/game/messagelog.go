package game

import (
	"github.com/zurustar/scriptvm/pkg/world"
)

// Bullet prefixes every line in the message log.
const Bullet = "•"

const (
	// DefaultLogSize is how many lines the message log keeps.
	DefaultLogSize = 100
	// FloatTicks is how long a floating message stays up.
	FloatTicks = 30
)

// FloatingText is a message shown above an object.
type FloatingText struct {
	Object  world.Handle
	Text    string
	Expires uint64
}

// MessageLog is the UI scripts write to: the scrolling message panel and the
// text floating above objects.
type MessageLog struct {
	size   int
	lines  []string
	total  uint64
	floats []FloatingText
	now    func() uint64
}

// NewMessageLog creates a log keeping the last size lines. now reports the
// current tick and is used to expire floating text.
func NewMessageLog(size int, now func() uint64) *MessageLog {
	if size <= 0 {
		size = DefaultLogSize
	}
	return &MessageLog{size: size, now: now}
}

// DisplayMessage appends a line to the message panel.
func (l *MessageLog) DisplayMessage(text string) {
	l.lines = append(l.lines, Bullet+text)
	l.total++
	if over := len(l.lines) - l.size; over > 0 {
		l.lines = append(l.lines[:0], l.lines[over:]...)
	}
}

// FloatMessage shows text above obj, replacing what obj was saying.
func (l *MessageLog) FloatMessage(obj world.Handle, text string) {
	expires := l.now() + FloatTicks
	for i := range l.floats {
		if l.floats[i].Object == obj {
			l.floats[i].Text = text
			l.floats[i].Expires = expires
			return
		}
	}
	l.floats = append(l.floats, FloatingText{Object: obj, Text: text, Expires: expires})
}

// Lines returns the last n lines, oldest first. n <= 0 returns all of them.
func (l *MessageLog) Lines(n int) []string {
	if n <= 0 || n > len(l.lines) {
		n = len(l.lines)
	}
	return l.lines[len(l.lines)-n:]
}

// Total counts every line displayed so far, including those trimmed.
func (l *MessageLog) Total() uint64 { return l.total }

// Floating returns the floating messages that haven't expired.
func (l *MessageLog) Floating() []FloatingText {
	now := l.now()
	live := l.floats[:0]
	for _, f := range l.floats {
		if f.Expires > now {
			live = append(live, f)
		}
	}
	l.floats = live
	return live
}
