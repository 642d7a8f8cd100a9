package vm

import (
	"github.com/zurustar/scriptvm/pkg/action"
	"github.com/zurustar/scriptvm/pkg/sequence"
	"github.com/zurustar/scriptvm/pkg/world"
)

// reg_anim_func commands.
const (
	animBegin = 1
	animClear = 2
	animEnd   = 3
)

// animFrames is the length of one animation cycle.
const animFrames = 6

// regAnimFunc(command, arg) opens, clears or commits an animation batch.
func regAnimFunc(c *Context) (Status, error) {
	args, err := c.PopN(2)
	if err != nil {
		return Halt, err
	}
	cmd, err := asInt(args[0])
	if err != nil {
		return Halt, err
	}
	inst := c.Inst()
	switch cmd {
	case animBegin:
		inst.anim = newAnimBatch()
	case animClear:
		h, err := asObject(args[1])
		if err != nil {
			return Halt, err
		}
		seqr, err := c.sequencer()
		if err != nil {
			return Halt, err
		}
		seqr.Cancel(h)
	case animEnd:
		batch := inst.anim
		inst.anim = nil
		if batch == nil {
			c.Log.Warn("reg_anim_end without reg_anim_begin")
			return Continue, nil
		}
		seqr, err := c.sequencer()
		if err != nil {
			return Halt, err
		}
		for _, h := range batch.order {
			seqs := batch.seqs[h]
			seqr.Start(h, sequence.Seq(seqs[0], seqs[1:]...))
		}
	default:
		c.Log.Warn("Unknown reg_anim_func command", "command", cmd)
	}
	return Continue, nil
}

// register adds seq to the open batch, delayed by delay ticks.
func (c *Context) register(h world.Handle, delay int32, seq sequence.Sequence) {
	batch := c.Inst().anim
	if batch == nil {
		c.Log.Warn("Animation registered outside reg_anim_begin", "object", h)
		return
	}
	if delay > 0 {
		seq = sequence.Seq(action.NewDelay(int(delay)), seq)
	}
	batch.add(h, seq)
}

// regAnimMoveToTile(obj, tile, delay) queues a walk or run.
func regAnimMoveToTile(anim world.Anim) Handler {
	return func(c *Context) (Status, error) {
		args, err := c.PopN(3)
		if err != nil {
			return Halt, err
		}
		h, err := asObject(args[0])
		if err != nil {
			return Halt, err
		}
		tile, err := asInt(args[1])
		if err != nil {
			return Halt, err
		}
		delay, err := asInt(args[2])
		if err != nil {
			return Halt, err
		}
		w, err := c.world()
		if err != nil {
			return Halt, err
		}
		path := w.PathFor(h, int(tile))
		if len(path) == 0 {
			c.Log.Debug("No path", "object", h, "tile", tile)
			return Continue, nil
		}
		c.register(h, delay, action.NewMove(h, anim, path, action.DefaultTicksPerStep))
		return Continue, nil
	}
}

// regAnimAnimate(obj, anim, delay)
func regAnimAnimate(c *Context) (Status, error) {
	args, err := c.PopN(3)
	if err != nil {
		return Halt, err
	}
	h, err := asObject(args[0])
	if err != nil {
		return Halt, err
	}
	anim, err := asInt(args[1])
	if err != nil {
		return Halt, err
	}
	delay, err := asInt(args[2])
	if err != nil {
		return Halt, err
	}
	c.register(h, delay, action.NewAnimate(h, world.Anim(anim), animFrames))
	return Continue, nil
}

// regAnimAnimateForever(obj, anim)
func regAnimAnimateForever(c *Context) (Status, error) {
	args, err := c.PopN(2)
	if err != nil {
		return Halt, err
	}
	h, err := asObject(args[0])
	if err != nil {
		return Halt, err
	}
	anim, err := asInt(args[1])
	if err != nil {
		return Halt, err
	}
	c.register(h, 0, action.NewAnimateForever(h, world.Anim(anim), animFrames))
	return Continue, nil
}

func animBusy(c *Context) (Status, error) {
	h, err := c.PopObject()
	if err != nil {
		return Halt, err
	}
	seqr, err := c.sequencer()
	if err != nil {
		return Halt, err
	}
	c.Push(Bool(seqr.Has(h)))
	return Continue, nil
}
