package compiler

// ---------------------------------------------------------------------------
// Value coercion
// ---------------------------------------------------------------------------

func (c *Compiler) emitSplatValue(s *SplatValue) {
	c.emitValue(s.Value, s)
	if _, ok := s.Value.(*ArrayLiteral); !ok {
		c.g.CastArray()
	}
}

// emitConcatArgs leaves array + rest as one array.
func (c *Compiler) emitConcatArgs(a *ConcatArgs) {
	if a.Array != nil {
		c.emit(a.Array)
		c.emitValue(a.Rest, a)
		c.g.CastArray()
		c.g.Send("+", 1, true)
		return
	}
	c.emitValue(a.Rest, a)
	c.g.CastArray()
}

func (c *Compiler) emitPushArgs(a *PushArgs) {
	c.emitValue(a.Arguments, a)
	c.emitValue(a.Value, a)
	c.g.MakeArray(1)
	c.g.Send("+", 1, true)
}

// emitSingleValue unwraps a splatted right-hand side that has exactly one
// element. Anything else is used as is.
func (c *Compiler) emitSingleValue(s *SingleValue) {
	c.emitValue(s.Value, s)
	if _, ok := s.Value.(*SplatValue); !ok {
		return
	}
	done := c.g.NewLabel()
	c.g.Dup()
	c.g.Send("size", 0, false)
	c.g.PushInt(1)
	c.g.Send(">", 1, false)
	c.g.GotoIfTrue(done)
	c.g.PushInt(0)
	c.g.Send("at", 1, false)
	c.g.SetLabel(done)
}

func (c *Compiler) emitToArray(t *ToArray) {
	c.emitValue(t.Value, t)
	c.g.CastMultiValue()
}

func (c *Compiler) emitToString(t *ToString) {
	c.emitValue(t.Value, t)
	c.g.MetaToS()
}
