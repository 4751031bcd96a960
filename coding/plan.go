// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

import "sync"

// A State is the state of a module in a Matrix.
type State byte

const (
	Unset    State = iota // not yet written
	Light                 // light module
	Dark                  // dark module
	Reserved              // reserved for format or version information
)

// Module flags.
const (
	modDark     = 1 << iota // module is dark
	modSet                  // module has a value
	modFunction             // module belongs to a function pattern
)

// A Matrix is a square grid of modules under construction.
type Matrix struct {
	Size int
	cell []byte
}

// NewMatrix returns an empty matrix with siz modules on a side.
func NewMatrix(siz int) *Matrix {
	return &Matrix{Size: siz, cell: make([]byte, siz*siz)}
}

// Clone returns a copy of m.
func (m *Matrix) Clone() *Matrix {
	return &Matrix{Size: m.Size, cell: append([]byte(nil), m.cell...)}
}

// State returns the state of the module at (x, y).
func (m *Matrix) State(x, y int) State {
	c := m.cell[y*m.Size+x]
	switch {
	case c&modSet == 0 && c&modFunction != 0:
		return Reserved
	case c&modSet == 0:
		return Unset
	case c&modDark != 0:
		return Dark
	}
	return Light
}

// Dark reports whether the module at (x, y) is dark.
func (m *Matrix) Dark(x, y int) bool { return m.cell[y*m.Size+x]&modDark != 0 }

// IsFunction reports whether the module at (x, y) belongs to a function
// pattern or a reserved area.
func (m *Matrix) IsFunction(x, y int) bool {
	return m.cell[y*m.Size+x]&modFunction != 0
}

// setFunction sets a function pattern module.
func (m *Matrix) setFunction(x, y int, dark bool) {
	c := byte(modSet | modFunction)
	if dark {
		c |= modDark
	}
	m.cell[y*m.Size+x] = c
}

// reserve marks a module as reserved without writing it.
func (m *Matrix) reserve(x, y int, _ bool) {
	m.cell[y*m.Size+x] = modFunction
}

// set writes a data module.
func (m *Matrix) set(x, y int, dark bool) {
	c := byte(modSet)
	if dark {
		c |= modDark
	}
	m.cell[y*m.Size+x] = c
}

// NewPlan returns a matrix for version v with the function patterns
// placed: finder patterns with separators, timing patterns, alignment
// patterns and the dark module.  Format and version information areas
// are reserved.  All other modules are Unset.
func NewPlan(v Version) *Matrix {
	if !v.IsValid() {
		panic(ErrVersion)
	}
	p := &plans[v]
	p.once.Do(func() { p.m = vplan(v) })
	return p.m.Clone()
}

// Plans are built once per version and cloned for each code.
var plans [MaxVersion + 1]struct {
	once sync.Once
	m    *Matrix
}

// vplan creates a plan for the given version.
func vplan(v Version) *Matrix {
	siz := v.Size()
	m := NewMatrix(siz)

	// Position boxes with separators, 9x9 at top left, 8x9 at top
	// right, 9x8 at bottom left, clipped at the edges.
	for _, c := range [3][2]int{{3, 3}, {siz - 4, 3}, {3, siz - 4}} {
		for dy := -4; dy <= 4; dy++ {
			for dx := -4; dx <= 4; dx++ {
				x, y := c[0]+dx, c[1]+dy
				if x < 0 || x >= siz || y < 0 || y >= siz {
					continue
				}
				d := max(abs(dx), abs(dy))
				m.setFunction(x, y, d != 2 && d != 4)
			}
		}
	}

	// Timing markers between the position boxes.
	for i := 8; i < siz-8; i++ {
		m.setFunction(6, i, i&1 == 0)
		m.setFunction(i, 6, i&1 == 0)
	}

	// Alignment boxes, except where they overlap position boxes.
	pos := v.Alignment()
	last := len(pos) - 1
	for i, y := range pos {
		for j, x := range pos {
			if i == 0 && (j == 0 || j == last) || i == last && j == 0 {
				continue
			}
			for dy := -2; dy <= 2; dy++ {
				for dx := -2; dx <= 2; dx++ {
					m.setFunction(x+dx, y+dy, max(abs(dx), abs(dy)) != 1)
				}
			}
		}
	}

	// Format and version information areas.
	m.formatInfo(0, m.reserve)
	if v >= 7 {
		m.versionInfo(0, m.reserve)
	}

	// One lonely black pixel
	m.setFunction(8, siz-8, true)
	return m
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// formatInfo calls put for both copies of the 15 format information
// bits, least significant bit first.
func (m *Matrix) formatInfo(fb uint16, put func(x, y int, dark bool)) {
	siz := m.Size
	bit := func(i int) bool { return fb>>i&1 != 0 }
	// Around the top left position box.
	for i := 0; i < 6; i++ {
		put(8, i, bit(i))
	}
	put(8, 7, bit(6))
	put(8, 8, bit(7))
	put(7, 8, bit(8))
	for i := 9; i < 15; i++ {
		put(14-i, 8, bit(i))
	}
	// Split between the top right and bottom left position boxes.
	for i := 0; i < 8; i++ {
		put(siz-1-i, 8, bit(i))
	}
	for i := 8; i < 15; i++ {
		put(8, siz-15+i, bit(i))
	}
}

// versionInfo calls put for both copies of the 18 version information
// bits: 6x3 above the bottom left position box and 3x6 left of the top
// right one.
func (m *Matrix) versionInfo(vb uint32, put func(x, y int, dark bool)) {
	for i := 0; i < 18; i++ {
		dark := vb>>i&1 != 0
		a, b := m.Size-11+i%3, i/3
		put(a, b, dark)
		put(b, a, dark)
	}
}

// Serialise writes the bits of data, most significant bit first, to
// the modules not occupied by function patterns in zigzag scan order:
// two columns at a time from the right, alternately upwards and
// downwards, skipping the vertical timing pattern.  Modules left over
// after data is exhausted are set light.  Serialise returns the
// number of modules written.
func (m *Matrix) Serialise(data []byte) int {
	siz := m.Size
	n := 0
	for right := siz - 1; right >= 1; right -= 2 {
		if right == 6 { // vertical timing strip
			right--
		}
		up := (right+1)&2 == 0
		for vert := 0; vert < siz; vert++ {
			y := vert
			if up {
				y = siz - 1 - vert
			}
			for x := right; x > right-2; x-- {
				if m.IsFunction(x, y) {
					continue
				}
				dark := false
				if i := n >> 3; i < len(data) {
					dark = data[i]>>(7&^n)&1 != 0
				}
				m.set(x, y, dark)
				n++
			}
		}
	}
	return n
}
