// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

// Mask patterns, as functions of column x and row y.  A data module is
// inverted where the function returns true.
//
//	0: ▄▀▄▀▄▀▄▀▄▀▄▀  1: ▄▄▄▄▄▄▄▄▄▄▄▄  2:  ██ ██ ██ ██  3: ▄█▀▄█▀▄█▀▄█▀
//	   ▄▀▄▀▄▀▄▀▄▀▄▀     ▄▄▄▄▄▄▄▄▄▄▄▄      ██ ██ ██ ██     ▀▄█▀▄█▀▄█▀▄█
//	   ▄▀▄▀▄▀▄▀▄▀▄▀     ▄▄▄▄▄▄▄▄▄▄▄▄      ██ ██ ██ ██     █▀▄█▀▄█▀▄█▀▄
//
//	4:    ███   ███  5:  ▄▄▄▄▄ ▄▄▄▄▄  6:    ▄▄▄   ▄▄▄  7: ▄█▄▀ ▀▄█▄▀ ▀
//	   ███   ███         █▀▄▀█ █▀▄▀█      ▄▀▄ █ ▄▀▄ █     ▄▀█▀▄ ▄▀█▀▄
//	      ███   ███      ██▄██ ██▄██      █▄▄▀  █▄▄▀      ▄  ▀██▄  ▀██
var maskPat = [8]func(x, y int) bool{
	func(x, y int) bool { return (x+y)%2 == 0 },
	func(x, y int) bool { return y%2 == 0 },
	func(x, y int) bool { return x%3 == 0 },
	func(x, y int) bool { return (x+y)%3 == 0 },
	func(x, y int) bool { return (y/2+x/3)%2 == 0 },
	func(x, y int) bool { return x*y%2+x*y%3 == 0 },
	func(x, y int) bool { return (x*y%2+x*y%3)%2 == 0 },
	func(x, y int) bool { return ((x+y)%2+x*y%3)%2 == 0 },
}

// Masks is the number of mask patterns.
const Masks = len(maskPat)

// MaskBit reports whether mask inverts the module at (x, y).
func MaskBit(mask, x, y int) bool { return maskPat[mask](x, y) }

// ApplyMask inverts the data modules of m selected by mask.
// Function pattern modules are left alone.  Applying the same mask
// twice restores the original.
func (m *Matrix) ApplyMask(mask int) {
	f := maskPat[mask]
	siz := m.Size
	for y := 0; y < siz; y++ {
		for x := 0; x < siz; x++ {
			if !m.IsFunction(x, y) && f(x, y) {
				m.cell[y*siz+x] ^= modDark
			}
		}
	}
}

// FormatBits returns the 15 bit format information for level l and
// mask: 2 level bits (L=01, M=00, Q=11, H=10) and 3 mask bits protected
// by a (15,5) BCH code and XORed with 101010000010010.
func FormatBits(l Level, mask int) uint16 {
	const formatPoly = 0x537
	d := uint32(l^1)<<3 | uint32(mask)
	rem := d
	for i := 0; i < 10; i++ {
		rem = rem<<1 ^ rem>>9*formatPoly
	}
	return uint16(d<<10|rem) ^ 0x5412
}

// VersionBits returns the 18 bit version information for version v:
// 6 version bits protected by an (18,6) Golay code.  Only versions 7
// and up carry version information.
func VersionBits(v Version) uint32 {
	const versionPoly = 0x1f25
	rem := uint32(v)
	for i := 0; i < 12; i++ {
		rem = rem<<1 ^ rem>>11*versionPoly
	}
	return uint32(v)<<12 | rem
}

// WriteInfo writes the format information for level l and mask and,
// for versions 7 and up, the version information into the reserved
// areas of m.
func (m *Matrix) WriteInfo(v Version, l Level, mask int) {
	m.formatInfo(FormatBits(l, mask), m.setFunction)
	if v >= 7 {
		m.versionInfo(VersionBits(v), m.setFunction)
	}
}

// ChooseMask applies each mask to a copy of m, writes format and
// version information and scores the result.  The mask with the
// smallest penalty wins, the lowest numbered on a tie.  m is replaced
// by the winning candidate and the mask is returned.
func (m *Matrix) ChooseMask(l Level) int {
	v := Version((m.Size - 17) / 4)
	best, pen := 0, -1
	var bestm *Matrix
	c := m.Clone()
	for mask := 0; mask < Masks; mask++ {
		copy(c.cell, m.cell)
		c.ApplyMask(mask)
		c.WriteInfo(v, l, mask)
		if p := c.Penalty(); pen < 0 || p < pen {
			best, pen = mask, p
			bestm, c = c, m.Clone()
		}
	}
	copy(m.cell, bestm.cell)
	return best
}

// Penalty returns the penalty value of m.  The value is used for
// choosing the mask.
func (m *Matrix) Penalty() int {
	// Total penalty is the sum of penalties for runs and boxes
	// of same-colour pixels, finder patterns and colour balance.
	//
	//   - RunP: for non-overlapping runs of n pixels, n>=5 -> n-2
	//   - BoxP: for possibly overlapping 2x2 boxes -> 3
	//   - FindP: for possibly overlapping finder patterns -> 40
	//     The pattern is 1011101 with 0000 on either side;
	//     may extend into the quiet zone
	//   - BalP: for n% of black pixels -> 10*floor(abs(n-50)/5)
	const (
		MinRun    = 5  // RunP:  miniumum run length
		RunPDelta = -2 // RunP:  add to run length
		BoxPP     = 3  // BoxP:  points per box
		FindPP    = 40 // FindP: points per pattern
		BalPP     = 10 // BalP:  points per 5% deviation
	)

	siz := m.Size
	p := 0
	dark := 0
	row := make([]bool, siz)
	col := make([]bool, siz)
	for i := 0; i < siz; i++ {
		for j := 0; j < siz; j++ {
			row[j] = m.Dark(j, i)
			col[j] = m.Dark(i, j)
			if row[j] {
				dark++
			}
		}
		for _, line := range [2][]bool{row, col} {
			// RunP
			r := 1
			for j := 1; j < siz; j++ {
				if line[j] == line[j-1] {
					r++
					continue
				}
				if r >= MinRun {
					p += r + RunPDelta
				}
				r = 1
			}
			if r >= MinRun {
				p += r + RunPDelta
			}
			// FindP
			for j := 0; j+7 <= siz; j++ {
				if isFinder(line[j:j+7]) &&
					(lightRun(line, j-4, j) || lightRun(line, j+7, j+11)) {
					p += FindPP
				}
			}
		}
	}

	// BoxP
	for y := 0; y+1 < siz; y++ {
		for x := 0; x+1 < siz; x++ {
			c := m.Dark(x, y)
			if c == m.Dark(x+1, y) && c == m.Dark(x, y+1) &&
				c == m.Dark(x+1, y+1) {
				p += BoxPP
			}
		}
	}

	// BalP
	total := siz * siz
	k := dark*20 - total*10
	if k < 0 {
		k = -k
	}
	p += k / total * BalPP
	return p
}

// isFinder reports whether line matches dark-light-dark×3-light-dark.
func isFinder(line []bool) bool {
	return line[0] && !line[1] && line[2] && line[3] && line[4] &&
		!line[5] && line[6]
}

// lightRun reports whether modules from start to end are light.
// Modules outside the line are light.
func lightRun(line []bool, start, end int) bool {
	for i := max(start, 0); i < min(end, len(line)); i++ {
		if line[i] {
			return false
		}
	}
	return true
}
