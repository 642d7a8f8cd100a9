package vm

import (
	"github.com/zurustar/scriptvm/pkg/dialog"
	"github.com/zurustar/scriptvm/pkg/world"
)

// missingMessage is shown in place of a message that cannot be found.
const missingMessage = "Error"

func (c *Context) dialog() (*dialog.Dialog, error) {
	if c.Env == nil || c.Env.Dialog == nil {
		return nil, newError(ErrorBadOperandType, "no dialog in context")
	}
	return c.Env.Dialog, nil
}

// messageText resolves a (list, message) pair. A string message is used as is.
func (c *Context) messageText(list, msg Value) (string, error) {
	if msg.Kind == KindString {
		return msg.Str, nil
	}
	l, err := asInt(list)
	if err != nil {
		return "", err
	}
	n, err := asInt(msg)
	if err != nil {
		return "", err
	}
	if c.Env != nil && c.Env.Messages != nil {
		if text, ok := c.Env.Messages.Lookup(int(l), int(n)); ok {
			return text, nil
		}
	}
	c.Log.Warn("Message not found", "list", l, "message", n)
	return missingMessage, nil
}

// optionProc resolves the procedure of a dialog option. Int 0 and negative values
// mean no procedure.
func (c *Context) optionProc(v Value) (int, error) {
	if v.Kind == KindInt && v.Int <= 0 {
		return dialog.NoProc, nil
	}
	id, _, err := c.resolveProc(v)
	return id, err
}

func messageStr(c *Context) (Status, error) {
	args, err := c.PopN(2)
	if err != nil {
		return Halt, err
	}
	text, err := c.messageText(args[0], args[1])
	if err != nil {
		return Halt, err
	}
	c.Push(String(text))
	return Continue, nil
}

// startGdialog(msgList, obj, mood, headID, backgroundID)
func startGdialog(c *Context) (Status, error) {
	args, err := c.PopN(5)
	if err != nil {
		return Halt, err
	}
	speaker, err := asObject(args[1])
	if err != nil {
		return Halt, err
	}
	d, err := c.dialog()
	if err != nil {
		return Halt, err
	}
	if speaker == 0 {
		speaker = c.Inst().Self
	}
	d.Start(c.Inst().ID, speaker)
	return Continue, nil
}

func gsayStart(c *Context) (Status, error) {
	d, err := c.dialog()
	if err != nil {
		return Halt, err
	}
	if !d.Active() {
		d.Start(c.Inst().ID, c.Inst().Self)
	}
	d.ClearOptions()
	return Continue, nil
}

// gsayReply(msgList, msg)
func gsayReply(c *Context) (Status, error) {
	args, err := c.PopN(2)
	if err != nil {
		return Halt, err
	}
	d, err := c.dialog()
	if err != nil {
		return Halt, err
	}
	text, err := c.messageText(args[0], args[1])
	if err != nil {
		return Halt, err
	}
	d.SetReply(text)
	return Continue, nil
}

// gsayMessage(msgList, msg, reaction) shows a line the player can only acknowledge.
func gsayMessage(c *Context) (Status, error) {
	args, err := c.PopN(3)
	if err != nil {
		return Halt, err
	}
	d, err := c.dialog()
	if err != nil {
		return Halt, err
	}
	text, err := c.messageText(args[0], args[1])
	if err != nil {
		return Halt, err
	}
	reaction, err := asInt(args[2])
	if err != nil {
		return Halt, err
	}
	d.SetReply(text)
	d.AddOption(dialog.Option{Text: "[Done]", Proc: dialog.NoProc, Reaction: int(reaction)})
	return Continue, nil
}

func addOption(c *Context, list, msg, proc, reaction Value) error {
	d, err := c.dialog()
	if err != nil {
		return err
	}
	text, err := c.messageText(list, msg)
	if err != nil {
		return err
	}
	id, err := c.optionProc(proc)
	if err != nil {
		return err
	}
	r, err := asInt(reaction)
	if err != nil {
		return err
	}
	d.AddOption(dialog.Option{Text: text, Proc: id, Reaction: int(r)})
	return nil
}

// gsayOption(msgList, msg, proc, reaction)
func gsayOption(c *Context) (Status, error) {
	args, err := c.PopN(4)
	if err != nil {
		return Halt, err
	}
	return Continue, addOption(c, args[0], args[1], args[2], args[3])
}

// giqOption(iqTest, msgList, msg, proc, reaction) adds the option only if the
// player's intelligence passes the test. A negative test is an upper bound.
func giqOption(c *Context) (Status, error) {
	args, err := c.PopN(5)
	if err != nil {
		return Halt, err
	}
	test, err := asInt(args[0])
	if err != nil {
		return Halt, err
	}
	w, err := c.world()
	if err != nil {
		return Halt, err
	}
	var iq int32
	if dude, ok := w.Get(w.Dude()); ok {
		iq = dude.Stat(world.StatIntelligence)
	}
	if (test >= 0 && iq < test) || (test < 0 && iq > -test) {
		return Continue, nil
	}
	return Continue, addOption(c, args[1], args[2], args[3], args[4])
}

// gsayEnd waits for the player to pick an option. With nothing to pick it
// completes immediately.
func gsayEnd(c *Context) (Status, error) {
	d, err := c.dialog()
	if err != nil {
		return Halt, err
	}
	if d.IsEmpty() {
		return Continue, nil
	}
	c.Log.Debug("Waiting for dialog option", "options", len(d.Options()))
	return Suspend, nil
}

func endDialogue(c *Context) (Status, error) {
	d, err := c.dialog()
	if err != nil {
		return Halt, err
	}
	d.End()
	return Continue, nil
}
