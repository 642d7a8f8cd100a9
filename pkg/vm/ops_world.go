package vm

import (
	"github.com/zurustar/scriptvm/pkg/action"
	"github.com/zurustar/scriptvm/pkg/sequence"
	"github.com/zurustar/scriptvm/pkg/world"
)

// farAway is the distance reported when either end of a measurement is missing.
const farAway = 9999

func (c *Context) world() (*world.World, error) {
	if c.Env == nil || c.Env.World == nil {
		return nil, newError(ErrorBadOperandType, "no world in context")
	}
	return c.Env.World, nil
}

func (c *Context) sequencer() (*sequence.Sequencer, error) {
	if c.Env == nil || c.Env.Sequencer == nil {
		return nil, newError(ErrorBadOperandType, "no sequencer in context")
	}
	return c.Env.Sequencer, nil
}

func (c *Context) object(h world.Handle) (*world.Object, error) {
	w, err := c.world()
	if err != nil {
		return nil, err
	}
	obj, ok := w.Get(h)
	if !ok {
		return nil, newError(ErrorBadOperandType, "object %d does not exist", h)
	}
	return obj, nil
}

func (c *Context) popObjectRef() (*world.Object, error) {
	h, err := c.PopObject()
	if err != nil {
		return nil, err
	}
	return c.object(h)
}

// popInts pops n integer arguments and returns them in call order.
func (c *Context) popInts(n int) ([]int32, error) {
	vals, err := c.PopN(n)
	if err != nil {
		return nil, err
	}
	out := make([]int32, n)
	for i, v := range vals {
		if out[i], err = asInt(v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func pushHandle(c *Context, h world.Handle) (Status, error) {
	c.Push(Object(h))
	return Continue, nil
}

func selfObj(c *Context) (Status, error)   { return pushHandle(c, c.Inst().Self) }
func sourceObj(c *Context) (Status, error) { return pushHandle(c, c.Inst().Source) }
func targetObj(c *Context) (Status, error) { return pushHandle(c, c.Inst().Target) }

func dudeObj(c *Context) (Status, error) {
	w, err := c.world()
	if err != nil {
		return Halt, err
	}
	return pushHandle(c, w.Dude())
}

// objField pushes one attribute of the popped object.
func objField(get func(*world.Object) Value) Handler {
	return func(c *Context) (Status, error) {
		obj, err := c.popObjectRef()
		if err != nil {
			return Halt, err
		}
		c.Push(get(obj))
		return Continue, nil
	}
}

var (
	objPid    = objField(func(o *world.Object) Value { return Int(o.PID) })
	objName   = objField(func(o *world.Object) Value { return String(o.Name) })
	tileNum   = objField(func(o *world.Object) Value { return Int(int32(o.Tile)) })
	elevation = objField(func(o *world.Object) Value { return Int(int32(o.Elevation)) })

	objIsLocked = objField(func(o *world.Object) Value { return Bool(o.Locked) })
	objIsOpen   = objField(func(o *world.Object) Value { return Bool(o.Open) })
)

func objSetLocked(locked bool) Handler {
	return func(c *Context) (Status, error) {
		obj, err := c.popObjectRef()
		if err != nil {
			return Halt, err
		}
		obj.Locked = locked
		return Continue, nil
	}
}

func objSetOpen(open bool) Handler {
	return func(c *Context) (Status, error) {
		obj, err := c.popObjectRef()
		if err != nil {
			return Halt, err
		}
		obj.Open = open
		return Continue, nil
	}
}

// moveTo(obj, tile, elevation) places the object immediately, stopping whatever it
// was doing.
func moveTo(c *Context) (Status, error) {
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
	elev, err := asInt(args[2])
	if err != nil {
		return Halt, err
	}
	obj, err := c.object(h)
	if err != nil {
		return Halt, err
	}
	if !world.ValidTile(int(tile)) {
		c.Push(Int(-1))
		return Continue, nil
	}
	if c.Env.Sequencer != nil {
		c.Env.Sequencer.Cancel(h)
	}
	obj.Tile = int(tile)
	obj.Elevation = int(elev)
	c.Push(Int(0))
	return Continue, nil
}

func tileDistance(c *Context) (Status, error) {
	args, err := c.popInts(2)
	if err != nil {
		return Halt, err
	}
	a, b := int(args[0]), int(args[1])
	if !world.ValidTile(a) || !world.ValidTile(b) {
		c.Push(Int(farAway))
		return Continue, nil
	}
	c.Push(Int(int32(world.Distance(a, b))))
	return Continue, nil
}

func tileDistanceObjs(c *Context) (Status, error) {
	args, err := c.PopN(2)
	if err != nil {
		return Halt, err
	}
	w, err := c.world()
	if err != nil {
		return Halt, err
	}
	tiles := [2]int{}
	for i, v := range args {
		h, err := asObject(v)
		if err != nil {
			return Halt, err
		}
		obj, ok := w.Get(h)
		if !ok {
			c.Push(Int(farAway))
			return Continue, nil
		}
		tiles[i] = obj.Tile
	}
	c.Push(Int(int32(world.Distance(tiles[0], tiles[1]))))
	return Continue, nil
}

// tileNumInDirection(tile, direction, count)
func tileNumInDirection(c *Context) (Status, error) {
	args, err := c.popInts(3)
	if err != nil {
		return Halt, err
	}
	tile, dir, n := int(args[0]), world.Direction(args[1]), int(args[2])
	if !world.ValidTile(tile) || dir < 0 || dir >= world.DirectionCount {
		c.Push(Int(-1))
		return Continue, nil
	}
	c.Push(Int(int32(world.TileInDirection(tile, dir, n))))
	return Continue, nil
}

func rotationToTile(c *Context) (Status, error) {
	args, err := c.popInts(2)
	if err != nil {
		return Halt, err
	}
	c.Push(Int(int32(world.DirectionTo(int(args[0]), int(args[1])))))
	return Continue, nil
}

// tileInTileRect(upperLeft, upperRight, lowerLeft, lowerRight, tile)
func tileInTileRect(c *Context) (Status, error) {
	args, err := c.popInts(5)
	if err != nil {
		return Halt, err
	}
	c.Push(Bool(world.InRect(int(args[4]), int(args[0]), int(args[1]), int(args[2]), int(args[3]))))
	return Continue, nil
}

func getCritterStat(c *Context) (Status, error) {
	stat, err := c.PopInt()
	if err != nil {
		return Halt, err
	}
	obj, err := c.popObjectRef()
	if err != nil {
		return Halt, err
	}
	c.Push(Int(obj.Stat(world.Stat(stat))))
	return Continue, nil
}

// setCritterStat(obj, stat, value)
func setCritterStat(c *Context) (Status, error) {
	args, err := c.PopN(3)
	if err != nil {
		return Halt, err
	}
	h, err := asObject(args[0])
	if err != nil {
		return Halt, err
	}
	stat, err := asInt(args[1])
	if err != nil {
		return Halt, err
	}
	val, err := asInt(args[2])
	if err != nil {
		return Halt, err
	}
	obj, err := c.object(h)
	if err != nil {
		return Halt, err
	}
	if obj.Stats == nil {
		obj.Stats = make(map[world.Stat]int32)
	}
	obj.Stats[world.Stat(stat)] = val
	c.Push(Int(0))
	return Continue, nil
}

// setObjVisibility(obj, invisible)
func setObjVisibility(c *Context) (Status, error) {
	invisible, err := c.Pop()
	if err != nil {
		return Halt, err
	}
	obj, err := c.popObjectRef()
	if err != nil {
		return Halt, err
	}
	obj.Visible = !invisible.Truthy()
	return Continue, nil
}

func destroyObject(c *Context) (Status, error) {
	h, err := c.PopObject()
	if err != nil {
		return Halt, err
	}
	w, err := c.world()
	if err != nil {
		return Halt, err
	}
	if c.Env.Sequencer != nil {
		c.Env.Sequencer.Cancel(h)
	}
	if !w.Remove(h) {
		c.Log.Warn("destroy_object: no such object", "object", h)
	}
	return Continue, nil
}

// tileContainsPidObj(tile, elevation, pid) pushes the first matching object, or 0.
func tileContainsPidObj(c *Context) (Status, error) {
	args, err := c.popInts(3)
	if err != nil {
		return Halt, err
	}
	w, err := c.world()
	if err != nil {
		return Halt, err
	}
	for _, h := range w.ObjectsAt(int(args[0]), int(args[1])) {
		if obj, _ := w.Get(h); obj.PID == args[2] {
			c.Push(Object(h))
			return Continue, nil
		}
	}
	c.Push(Int(0))
	return Continue, nil
}

// createObjectSid(pid, tile, elevation, sid) creates a visible object. Loading
// the script for sid is left to the orchestrator, which watches Object.Script.
func createObjectSid(c *Context) (Status, error) {
	args, err := c.popInts(4)
	if err != nil {
		return Halt, err
	}
	w, err := c.world()
	if err != nil {
		return Halt, err
	}
	if !world.ValidTile(int(args[1])) {
		return Halt, newError(ErrorBadOperandType, "create_object_sid: tile %d out of grid", args[1])
	}
	var sid uint32
	if args[3] >= 0 {
		sid = uint32(args[3])
	}
	h := w.Insert(world.Object{
		PID:       args[0],
		Tile:      int(args[1]),
		Elevation: int(args[2]),
		Visible:   true,
		Script:    sid,
	})
	c.Push(Object(h))
	return Continue, nil
}

func curMapIndex(c *Context) (Status, error) {
	if c.Env == nil {
		return Halt, newError(ErrorBadOperandType, "no context")
	}
	c.Push(Int(c.Env.MapID))
	return Continue, nil
}

func random(c *Context) (Status, error) {
	args, err := c.popInts(2)
	if err != nil {
		return Halt, err
	}
	c.Push(Int(c.Env.random(args[0], args[1])))
	return Continue, nil
}

// Game time is kept in ticks, ten per second.
const ticksPerSecond = 10

func gameTime(c *Context) (Status, error) {
	w, err := c.world()
	if err != nil {
		return Halt, err
	}
	c.Push(Int(int32(w.GameTime)))
	return Continue, nil
}

func gameTimeInSeconds(c *Context) (Status, error) {
	w, err := c.world()
	if err != nil {
		return Halt, err
	}
	c.Push(Int(int32(w.GameTime / ticksPerSecond)))
	return Continue, nil
}

// gameTimeHour pushes the time of day as HHMM.
func gameTimeHour(c *Context) (Status, error) {
	w, err := c.world()
	if err != nil {
		return Halt, err
	}
	secs := w.GameTime / ticksPerSecond
	c.Push(Int(int32((secs/3600)%24*100 + (secs/60)%60)))
	return Continue, nil
}

// gameTicks converts seconds to ticks.
func gameTicks(c *Context) (Status, error) {
	secs, err := c.PopInt()
	if err != nil {
		return Halt, err
	}
	c.Push(Int(secs * ticksPerSecond))
	return Continue, nil
}

func fixedParam(c *Context) (Status, error) {
	c.Push(Int(c.Inst().FixedParam))
	return Continue, nil
}

func scriptOverrides(c *Context) (Status, error) {
	c.Inst().ScriptOverrides = true
	return Continue, nil
}

// addTimerEvent(obj, delay, param)
func addTimerEvent(c *Context) (Status, error) {
	args, err := c.PopN(3)
	if err != nil {
		return Halt, err
	}
	if _, err := asObject(args[0]); err != nil {
		return Halt, err
	}
	delay, err := asInt(args[1])
	if err != nil {
		return Halt, err
	}
	param, err := asInt(args[2])
	if err != nil {
		return Halt, err
	}
	if c.Env == nil || c.Env.Timers == nil {
		c.Log.Warn("add_timer_event ignored: no timer service")
		return Continue, nil
	}
	c.Env.Timers.AddTimer(c.Inst().ID, int(delay), param)
	return Continue, nil
}

func rmTimerEvent(c *Context) (Status, error) {
	if _, err := c.PopObject(); err != nil {
		return Halt, err
	}
	if c.Env == nil || c.Env.Timers == nil {
		return Continue, nil
	}
	c.Env.Timers.RemoveTimers(c.Inst().ID)
	return Continue, nil
}

func displayMsg(c *Context) (Status, error) {
	v, err := c.Pop()
	if err != nil {
		return Halt, err
	}
	if c.Env == nil || c.Env.UI == nil {
		c.Log.Info("display_msg", "text", v.String())
		return Continue, nil
	}
	c.Env.UI.DisplayMessage(v.String())
	return Continue, nil
}

// floatMsg(obj, text, color)
func floatMsg(c *Context) (Status, error) {
	args, err := c.PopN(3)
	if err != nil {
		return Halt, err
	}
	h, err := asObject(args[0])
	if err != nil {
		return Halt, err
	}
	if c.Env == nil || c.Env.UI == nil {
		c.Log.Info("float_msg", "object", h, "text", args[1].String())
		return Continue, nil
	}
	c.Env.UI.FloatMessage(h, args[1].String())
	return Continue, nil
}

func debugMsg(c *Context) (Status, error) {
	v, err := c.Pop()
	if err != nil {
		return Halt, err
	}
	c.Log.Info("debug_msg", "text", v.String())
	return Continue, nil
}

func animateStandObj(c *Context) (Status, error) {
	h, err := c.PopObject()
	if err != nil {
		return Halt, err
	}
	seqr, err := c.sequencer()
	if err != nil {
		return Halt, err
	}
	seqr.Start(h, action.NewStand(h))
	return Continue, nil
}

// animateMoveObjToTile(obj, tile, speed) starts walking, or running when speed
// is nonzero, right away.
func animateMoveObjToTile(c *Context) (Status, error) {
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
	anim := world.AnimWalk
	if args[2].Truthy() {
		anim = world.AnimRunning
	}
	w, err := c.world()
	if err != nil {
		return Halt, err
	}
	seqr, err := c.sequencer()
	if err != nil {
		return Halt, err
	}
	path := w.PathFor(h, int(tile))
	if len(path) == 0 {
		c.Log.Debug("No path", "object", h, "tile", tile)
		return Continue, nil
	}
	seqr.Start(h, sequence.Seq(action.NewMove(h, anim, path, action.DefaultTicksPerStep), action.NewStand(h)))
	return Continue, nil
}
