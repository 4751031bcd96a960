// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package coding implements low-level QR coding details.
package coding // import "github.com/unixdj/qrtrack/coding"

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/unixdj/qrtrack/gf256"
)

var (
	ErrLevel   = errors.New("qr: invalid level")
	ErrVersion = errors.New("qr: invalid version")
)

// Field is the field for QR error correction.
var Field = gf256.NewField(0x11d, 2)

// A Version represents a QR version.
// The version specifies the size of the QR code:
// a QR code with version v has 4v+17 pixels on a side.
// Versions run from 1 to 40: the larger the version,
// the more information the code can store.
type Version int

const (
	MinVersion Version = 1  // Minimum QR version
	MaxVersion Version = 40 // Maximum QR version
)

func (v Version) String() string { return strconv.Itoa(int(v)) }

// IsValid reports whether v is a QR version.
func (v Version) IsValid() bool { return MinVersion <= v && v <= MaxVersion }

// Size returns the number of modules on a side of a code of version v.
func (v Version) Size() int { return int(v)*4 + 17 }

// QR version size classes.  The size class determines the length of
// the character count field.
const (
	Class0 = iota // QR versions 1 to 9
	Class1        // QR versions 10 to 26
	Class2        // QR versions 27 to 40
)

// SizeClass returns the size class of v, as documented under Class0.
func (v Version) SizeClass() int {
	if v <= 9 {
		return Class0
	}
	if v <= 26 {
		return Class1
	}
	return Class2
}

// TotalBytes returns the total number of codewords,
// data and check, in a code of version v.
func (v Version) TotalBytes() int { return vtab[v].bytes }

// RemainderBits returns the number of modules left over after all
// codewords are placed in a code of version v.
func (v Version) RemainderBits() int { return vtab[v].remainder }

// Blocks returns the number of error correction blocks and the number
// of check bytes per block for version v and level l.
func (v Version) Blocks(l Level) (nblock, check int) {
	lev := vtab[v].level[l]
	return lev.nblock, lev.check
}

// DataBytes returns the number of data bytes that can be
// stored in a QR code with the given version and level.
func (v Version) DataBytes(l Level) int {
	vt := &vtab[v]
	lev := vt.level[l]
	return vt.bytes - lev.nblock*lev.check
}

// DataBits returns the number of data bits that can be
// stored in a QR code with the given version and level.
func (v Version) DataBits(l Level) int { return v.DataBytes(l) * 8 }

// Alignment returns the row and column coordinates of alignment
// pattern centres for version v, nil for version 1.
func (v Version) Alignment() []int {
	vt := &vtab[v]
	if vt.apos == 0 {
		return nil
	}
	last := v.Size() - 7
	pos := []int{6, vt.apos}
	if vt.astride != 0 {
		for p := vt.apos + vt.astride; p <= last; p += vt.astride {
			pos = append(pos, p)
		}
	}
	return pos
}

// A version describes metadata associated with a version.
type version struct {
	bytes     int
	remainder int
	apos      int
	astride   int
	level     [4]level
}

type level struct {
	nblock int
	check  int
}

// A Level represents a QR error correction level.
// From least to most tolerant of errors, they are L, M, Q, H.
type Level int

const (
	L Level = iota // 20% redundant
	M              // 38% redundant
	Q              // 55% redundant
	H              // 65% redundant
)

func (l Level) String() string {
	if l.IsValid() {
		return "LMQH"[l : l+1]
	}
	return strconv.Itoa(int(l))
}

// IsValid reports whether l is a QR error correction level.
func (l Level) IsValid() bool { return L <= l && l <= H }

// ParseLevel parses a level name, case insensitively.
func ParseLevel(s string) (Level, error) {
	if len(s) == 1 {
		switch s[0] | 0x20 {
		case 'l':
			return L, nil
		case 'm':
			return M, nil
		case 'q':
			return Q, nil
		case 'h':
			return H, nil
		}
	}
	return 0, ErrLevel
}

// CapacityError reports data that does not fit into a code.
type CapacityError struct {
	Version
	Level
	Bits    int // encoded data length
	MaxBits int // data capacity
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("qr: cannot encode %d bits into %d-bit code %s-%s",
		e.Bits, e.MaxBits, e.Version, e.Level)
}

// A Code is a square pixel grid.
type Code struct {
	Bitmap []byte // 1 is black, 0 is white
	Size   int    // number of pixels on a side
	Stride int    // number of bytes per row

	Version Version // QR version
	Level   Level   // error correction level
	Mask    int     // mask pattern
}

// Black reports whether the pixel at (x, y) is black.
// Pixels outside the code are white.
func (c *Code) Black(x, y int) bool {
	return 0 <= x && x < c.Size && 0 <= y && y < c.Size &&
		c.Bitmap[y*c.Stride+x/8]&(1<<uint(7&^x)) != 0
}

// pack returns the Code for a finished matrix.
func pack(m *Matrix, v Version, l Level, mask int) *Code {
	siz := m.Size
	stride := (siz + 7) >> 3
	c := &Code{
		Bitmap:  make([]byte, siz*stride),
		Size:    siz,
		Stride:  stride,
		Version: v,
		Level:   l,
		Mask:    mask,
	}
	for y := 0; y < siz; y++ {
		row := c.Bitmap[y*stride:]
		for x := 0; x < siz; x++ {
			if m.Dark(x, y) {
				row[x>>3] |= 0x80 >> (x & 7)
			}
		}
	}
	return c
}

// Encode returns a QR code of the given version and level containing
// the segments.
func Encode(v Version, l Level, text ...Segment) (*Code, error) {
	if !v.IsValid() {
		return nil, ErrVersion
	}
	if !l.IsValid() {
		return nil, ErrLevel
	}
	b := NewBits(v, l)
	for _, t := range text {
		if err := t.Encode(b, v); err != nil {
			return nil, err
		}
	}
	nb := v.DataBits(l)
	if b.Bits() > nb {
		return nil, &CapacityError{v, l, b.Bits(), nb}
	}
	b.PadTo(nb)
	cw, err := Codewords(b.Bytes(), v, l)
	if err != nil {
		return nil, err
	}

	// Now we have the checksum bytes and the data bytes.
	// Place them around the function patterns.
	m := NewPlan(v)
	if n := m.Serialise(cw); n != len(cw)*8+v.RemainderBits() {
		panic("qr: internal error: placed " + strconv.Itoa(n) + " bits")
	}
	mask := m.ChooseMask(l)
	return pack(m, v, l, mask), nil
}
