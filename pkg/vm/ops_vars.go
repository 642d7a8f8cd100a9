package vm

// Local variables live on the data stack, addressed relative to the frame base.

func (c *Context) localSlot(index int32) (int, error) {
	frame, err := c.State.Frame()
	if err != nil {
		return 0, err
	}
	size := len(c.State.Stack) - frame.Base
	if index < 0 || int(index) >= size {
		return 0, NewOutOfBoundsError("local", int(index), size)
	}
	return frame.Base + int(index), nil
}

func fetchLocal(c *Context) (Status, error) {
	index, err := c.PopInt()
	if err != nil {
		return Halt, err
	}
	slot, err := c.localSlot(index)
	if err != nil {
		return Halt, err
	}
	c.Push(c.State.Stack[slot])
	return Continue, nil
}

// storeLocal pops the index, then the value.
func storeLocal(c *Context) (Status, error) {
	index, err := c.PopInt()
	if err != nil {
		return Halt, err
	}
	v, err := c.Pop()
	if err != nil {
		return Halt, err
	}
	slot, err := c.localSlot(index)
	if err != nil {
		return Halt, err
	}
	c.State.Stack[slot] = v
	return Continue, nil
}

// External variables are resolved in the running instance first, then through the
// export registry.
func (c *Context) externalOwner(name string) (*Instance, error) {
	inst := c.Inst()
	if _, ok := inst.Exported[name]; ok {
		return inst, nil
	}
	if c.Env != nil && c.Env.Exports != nil {
		if owner, ok := c.Env.Exports.VarOwner(name); ok {
			return owner, nil
		}
	}
	return nil, newError(ErrorOutOfBoundsVariable, "external variable %q is not declared", name)
}

func fetchExternal(c *Context) (Status, error) {
	name, err := c.PopName()
	if err != nil {
		return Halt, err
	}
	owner, err := c.externalOwner(name)
	if err != nil {
		return Halt, err
	}
	c.Push(owner.Exported[name])
	return Continue, nil
}

// storeExternal pops the name, then the value.
func storeExternal(c *Context) (Status, error) {
	name, err := c.PopName()
	if err != nil {
		return Halt, err
	}
	v, err := c.Pop()
	if err != nil {
		return Halt, err
	}
	owner, err := c.externalOwner(name)
	if err != nil {
		return Halt, err
	}
	owner.Exported[name] = v
	return Continue, nil
}

func (c *Context) programVars() *Store {
	if c.Inst().ProgramVars == nil {
		return NewStore("program", 0)
	}
	return c.Inst().ProgramVars
}

func fetchProgramVar(c *Context) (Status, error) {
	return fetchFrom(c, c.programVars())
}

// storeProgramVar pops the index, then the value.
func storeProgramVar(c *Context) (Status, error) {
	index, err := c.PopInt()
	if err != nil {
		return Halt, err
	}
	v, err := c.Pop()
	if err != nil {
		return Halt, err
	}
	return Continue, c.programVars().Set(int(index), v)
}

func (c *Context) vars() (*Vars, error) {
	if c.Env == nil || c.Env.Vars == nil {
		return nil, newError(ErrorOutOfBoundsVariable, "no map or global variables available")
	}
	return c.Env.Vars, nil
}

func fetchFrom(c *Context, s *Store) (Status, error) {
	index, err := c.PopInt()
	if err != nil {
		return Halt, err
	}
	v, err := s.Get(int(index))
	if err != nil {
		return Halt, err
	}
	c.Push(v)
	return Continue, nil
}

// storeTo implements the setter functions, called as set_x(index, value).
func storeTo(c *Context, s *Store) (Status, error) {
	v, err := c.Pop()
	if err != nil {
		return Halt, err
	}
	index, err := c.PopInt()
	if err != nil {
		return Halt, err
	}
	return Continue, s.Set(int(index), v)
}

func mapVar(c *Context) (Status, error) {
	vars, err := c.vars()
	if err != nil {
		return Halt, err
	}
	return fetchFrom(c, vars.Map)
}

func setMapVar(c *Context) (Status, error) {
	vars, err := c.vars()
	if err != nil {
		return Halt, err
	}
	return storeTo(c, vars.Map)
}

func globalVar(c *Context) (Status, error) {
	vars, err := c.vars()
	if err != nil {
		return Halt, err
	}
	return fetchFrom(c, vars.Global)
}

func setGlobalVar(c *Context) (Status, error) {
	vars, err := c.vars()
	if err != nil {
		return Halt, err
	}
	return storeTo(c, vars.Global)
}

func localVar(c *Context) (Status, error) {
	return fetchFrom(c, c.Inst().LocalVars)
}

func setLocalVar(c *Context) (Status, error) {
	return storeTo(c, c.Inst().LocalVars)
}
