package orderbook

import "tradebook/infra/memory"

// priceTree is a red-black tree keyed by level price, ascending.
// The levels themselves are the nodes; memory.Nil is the black sentinel.
type priceTree struct {
	levels *memory.Pool[Level]
	root   memory.Handle
	size   int
}

func newPriceTree(levels *memory.Pool[Level]) priceTree {
	return priceTree{levels: levels}
}

func (t *priceTree) lv(h memory.Handle) *Level { return t.levels.At(h) }

func (t *priceTree) Size() int { return t.size }

func (t *priceTree) find(price uint64) memory.Handle {
	n := t.root
	for n != memory.Nil {
		l := t.lv(n)
		switch {
		case price < l.Price:
			n = l.left
		case price > l.Price:
			n = l.right
		default:
			return n
		}
	}
	return memory.Nil
}

// insert links z into the tree. z's price must not already be present.
func (t *priceTree) insert(z memory.Handle) {
	zl := t.lv(z)
	y := memory.Nil
	x := t.root
	for x != memory.Nil {
		y = x
		if zl.Price < t.lv(x).Price {
			x = t.lv(x).left
		} else {
			x = t.lv(x).right
		}
	}

	zl.parent = y
	zl.left = memory.Nil
	zl.right = memory.Nil
	zl.color = red

	if y == memory.Nil {
		t.root = z
	} else if zl.Price < t.lv(y).Price {
		t.lv(y).left = z
	} else {
		t.lv(y).right = z
	}
	t.insertFixup(z)
	t.size++
}

// delete unlinks z. Other nodes keep their handles.
func (t *priceTree) delete(z memory.Handle) {
	zl := t.lv(z)
	y := z
	yColor := zl.color
	var x memory.Handle

	if zl.left == memory.Nil {
		x = zl.right
		t.transplant(z, zl.right)
	} else if zl.right == memory.Nil {
		x = zl.left
		t.transplant(z, zl.left)
	} else {
		y = t.min(zl.right)
		yl := t.lv(y)
		yColor = yl.color
		x = yl.right
		if yl.parent == z {
			t.lv(x).parent = y
		} else {
			t.transplant(y, yl.right)
			yl.right = zl.right
			t.lv(yl.right).parent = y
		}
		t.transplant(z, y)
		yl.left = zl.left
		t.lv(yl.left).parent = y
		yl.color = zl.color
	}

	if yColor == black {
		t.deleteFixup(x)
	}

	// the sentinel's parent is scratch space during fixup
	t.lv(memory.Nil).parent = memory.Nil

	zl.left = memory.Nil
	zl.right = memory.Nil
	zl.parent = memory.Nil
	t.size--
}

func (t *priceTree) first() memory.Handle { return t.min(t.root) }

func (t *priceTree) last() memory.Handle { return t.max(t.root) }

func (t *priceTree) min(n memory.Handle) memory.Handle {
	if n == memory.Nil {
		return memory.Nil
	}
	for t.lv(n).left != memory.Nil {
		n = t.lv(n).left
	}
	return n
}

func (t *priceTree) max(n memory.Handle) memory.Handle {
	if n == memory.Nil {
		return memory.Nil
	}
	for t.lv(n).right != memory.Nil {
		n = t.lv(n).right
	}
	return n
}

// next returns the level with the next higher price.
func (t *priceTree) next(n memory.Handle) memory.Handle {
	if n == memory.Nil {
		return memory.Nil
	}
	if t.lv(n).right != memory.Nil {
		return t.min(t.lv(n).right)
	}
	p := t.lv(n).parent
	for p != memory.Nil && n == t.lv(p).right {
		n = p
		p = t.lv(p).parent
	}
	return p
}

// prev returns the level with the next lower price.
func (t *priceTree) prev(n memory.Handle) memory.Handle {
	if n == memory.Nil {
		return memory.Nil
	}
	if t.lv(n).left != memory.Nil {
		return t.max(t.lv(n).left)
	}
	p := t.lv(n).parent
	for p != memory.Nil && n == t.lv(p).left {
		n = p
		p = t.lv(p).parent
	}
	return p
}

func (t *priceTree) walkAsc(fn func(memory.Handle) bool) {
	for n := t.first(); n != memory.Nil; n = t.next(n) {
		if !fn(n) {
			return
		}
	}
}

func (t *priceTree) walkDesc(fn func(memory.Handle) bool) {
	for n := t.last(); n != memory.Nil; n = t.prev(n) {
		if !fn(n) {
			return
		}
	}
}

// ---- balancing ----

func (t *priceTree) rotateLeft(x memory.Handle) {
	xl := t.lv(x)
	y := xl.right
	yl := t.lv(y)

	xl.right = yl.left
	if yl.left != memory.Nil {
		t.lv(yl.left).parent = x
	}
	yl.parent = xl.parent
	if xl.parent == memory.Nil {
		t.root = y
	} else if x == t.lv(xl.parent).left {
		t.lv(xl.parent).left = y
	} else {
		t.lv(xl.parent).right = y
	}
	yl.left = x
	xl.parent = y
}

func (t *priceTree) rotateRight(y memory.Handle) {
	yl := t.lv(y)
	x := yl.left
	xl := t.lv(x)

	yl.left = xl.right
	if xl.right != memory.Nil {
		t.lv(xl.right).parent = y
	}
	xl.parent = yl.parent
	if yl.parent == memory.Nil {
		t.root = x
	} else if y == t.lv(yl.parent).right {
		t.lv(yl.parent).right = x
	} else {
		t.lv(yl.parent).left = x
	}
	xl.right = y
	yl.parent = x
}

func (t *priceTree) insertFixup(z memory.Handle) {
	for t.lv(t.lv(z).parent).color == red {
		p := t.lv(z).parent
		g := t.lv(p).parent
		if p == t.lv(g).left {
			u := t.lv(g).right
			if t.lv(u).color == red {
				t.lv(p).color = black
				t.lv(u).color = black
				t.lv(g).color = red
				z = g
				continue
			}
			if z == t.lv(p).right {
				z = p
				t.rotateLeft(z)
				p = t.lv(z).parent
				g = t.lv(p).parent
			}
			t.lv(p).color = black
			t.lv(g).color = red
			t.rotateRight(g)
		} else {
			u := t.lv(g).left
			if t.lv(u).color == red {
				t.lv(p).color = black
				t.lv(u).color = black
				t.lv(g).color = red
				z = g
				continue
			}
			if z == t.lv(p).left {
				z = p
				t.rotateRight(z)
				p = t.lv(z).parent
				g = t.lv(p).parent
			}
			t.lv(p).color = black
			t.lv(g).color = red
			t.rotateLeft(g)
		}
	}
	t.lv(t.root).color = black
}

func (t *priceTree) transplant(u, v memory.Handle) {
	up := t.lv(u).parent
	if up == memory.Nil {
		t.root = v
	} else if u == t.lv(up).left {
		t.lv(up).left = v
	} else {
		t.lv(up).right = v
	}
	t.lv(v).parent = up
}

func (t *priceTree) deleteFixup(x memory.Handle) {
	for x != t.root && t.lv(x).color == black {
		p := t.lv(x).parent
		if x == t.lv(p).left {
			w := t.lv(p).right
			if t.lv(w).color == red {
				t.lv(w).color = black
				t.lv(p).color = red
				t.rotateLeft(p)
				w = t.lv(p).right
			}
			if t.lv(t.lv(w).left).color == black && t.lv(t.lv(w).right).color == black {
				t.lv(w).color = red
				x = p
				continue
			}
			if t.lv(t.lv(w).right).color == black {
				t.lv(t.lv(w).left).color = black
				t.lv(w).color = red
				t.rotateRight(w)
				w = t.lv(p).right
			}
			t.lv(w).color = t.lv(p).color
			t.lv(p).color = black
			t.lv(t.lv(w).right).color = black
			t.rotateLeft(p)
			x = t.root
		} else {
			w := t.lv(p).left
			if t.lv(w).color == red {
				t.lv(w).color = black
				t.lv(p).color = red
				t.rotateRight(p)
				w = t.lv(p).left
			}
			if t.lv(t.lv(w).right).color == black && t.lv(t.lv(w).left).color == black {
				t.lv(w).color = red
				x = p
				continue
			}
			if t.lv(t.lv(w).left).color == black {
				t.lv(t.lv(w).right).color = black
				t.lv(w).color = red
				t.rotateLeft(w)
				w = t.lv(p).left
			}
			t.lv(w).color = t.lv(p).color
			t.lv(p).color = black
			t.lv(t.lv(w).left).color = black
			t.rotateRight(p)
			x = t.root
		}
	}
	t.lv(x).color = black
}
