package ownership

// snapshot captures the state of every visible variable.
func (c *Checker) snapshot() map[*Info]State {
	out := make(map[*Info]State)
	for _, f := range c.frames {
		for _, info := range f.order {
			out[info] = info.State.clone()
		}
	}
	return out
}

// restore puts back move state from snap. Borrow states are recomputed from
// the borrow table, which branches do not roll back.
func (c *Checker) restore(snap map[*Info]State) {
	for info, st := range snap {
		info.State = st.clone()
		c.syncBorrowState(info)
	}
}

// mergeInto folds src into dst keeping the worse state of each variable:
// moved beats partially moved, and partial moves union their fields.
func mergeInto(dst, src map[*Info]State) {
	for info, s := range src {
		d, ok := dst[info]
		if !ok {
			continue
		}
		dst[info] = worse(d, s)
	}
}

func worse(a, b State) State {
	switch {
	case a.Kind == Moved:
		return a
	case b.Kind == Moved:
		return b.clone()
	case a.Kind == PartiallyMoved && b.Kind == PartiallyMoved:
		for f, sp := range b.MovedFields {
			if prev, ok := a.MovedFields[f]; !ok || sp.Before(prev) {
				a.MovedFields[f] = sp
			}
		}
		return a
	case a.Kind == PartiallyMoved:
		return a
	case b.Kind == PartiallyMoved:
		return b.clone()
	default:
		return a
	}
}
