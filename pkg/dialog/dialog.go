// Package dialog holds the state of the conversation a script drives: the speaker,
// the current reply text and the selectable options. Presentation is up to the
// window layer.
package dialog

import (
	"fmt"

	"github.com/zurustar/scriptvm/pkg/world"
)

// NoProc marks an option that only closes the current set of options.
const NoProc = -1

// Option is one selectable answer.
type Option struct {
	Text string
	// Proc is the procedure to run when the option is picked, NoProc if none.
	Proc     int
	Reaction int
}

// Dialog is the conversation in progress. The zero value is inactive.
type Dialog struct {
	active  bool
	sid     uint32
	speaker world.Handle
	reply   string
	options []Option
	history []string
}

// New returns an inactive dialog.
func New() *Dialog {
	return &Dialog{}
}

// Start opens a conversation owned by script sid with speaker.
func (d *Dialog) Start(sid uint32, speaker world.Handle) {
	d.active = true
	d.sid = sid
	d.speaker = speaker
	d.reply = ""
	d.options = nil
	d.history = nil
}

// End closes the conversation.
func (d *Dialog) End() {
	d.active = false
	d.options = nil
}

// Active reports whether a conversation is open.
func (d *Dialog) Active() bool { return d.active }

// SID returns the script that owns the conversation.
func (d *Dialog) SID() uint32 { return d.sid }

// Speaker returns the object being talked to.
func (d *Dialog) Speaker() world.Handle { return d.speaker }

// SetReply replaces the speaker's current line.
func (d *Dialog) SetReply(text string) {
	d.reply = text
	d.history = append(d.history, text)
}

// Reply returns the speaker's current line.
func (d *Dialog) Reply() string { return d.reply }

// History returns every reply shown in this conversation.
func (d *Dialog) History() []string { return d.history }

// AddOption appends a selectable option.
func (d *Dialog) AddOption(opt Option) {
	d.options = append(d.options, opt)
}

// Options returns the current options.
func (d *Dialog) Options() []Option { return d.options }

// Option returns option i.
func (d *Dialog) Option(i int) (Option, error) {
	if i < 0 || i >= len(d.options) {
		return Option{}, fmt.Errorf("dialog option %d out of range (%d options)", i, len(d.options))
	}
	return d.options[i], nil
}

// ClearOptions removes all options.
func (d *Dialog) ClearOptions() {
	d.options = nil
}

// IsEmpty reports whether there is nothing left to pick.
func (d *Dialog) IsEmpty() bool {
	return len(d.options) == 0
}

// Messages resolves message ids to text. It is keyed by message list, then number.
type Messages map[int]map[int]string

// Lookup returns the text of message num in list.
func (m Messages) Lookup(list, num int) (string, bool) {
	if m == nil {
		return "", false
	}
	s, ok := m[list][num]
	return s, ok
}

// Set stores a message.
func (m Messages) Set(list, num int, text string) {
	if m[list] == nil {
		m[list] = make(map[int]string)
	}
	m[list][num] = text
}
