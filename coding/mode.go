// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

import (
	"fmt"
	"strconv"
)

// A Mode is a QR segment encoding mode.
type Mode int

// Encoding modes.
const (
	Numeric      Mode = iota // numeric mode, digits
	Alphanumeric             // alphanumeric mode, digits, capitals and " $%*+-./:"
	Byte                     // byte mode, any data
)

const alphamask uint64 = 0x07fffffe_07ffec31 // SPACE $% *+ -./ [0-9] : [A-Z]

// Alphanumeric encoding table.  Used after validation.
// "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ $%*+-./:"
var alpha = [64]byte{
	00, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24, // 0x40
	25, 26, 27, 28, 29, 30, 31, 32, 33, 34, 35, 00, 00, 00, 00, 00, // 0x50
	36, 00, 00, 00, 37, 38, 00, 00, 00, 00, 39, 40, 00, 41, 42, 43, // 0x20
	00, 01, 02, 03, 04, 05, 06, 07, 010, 9, 44, 00, 00, 00, 00, 00, // 0x30
}

var modes = [...]struct {
	name      string
	indicator uint32
	count     [3]int // character count field length per size class
}{
	Numeric:      {"numeric", 1, [3]int{10, 12, 14}},
	Alphanumeric: {"alphanumeric", 2, [3]int{9, 11, 13}},
	Byte:         {"byte", 4, [3]int{8, 16, 16}},
}

func (m Mode) String() string {
	if m.IsValid() {
		return modes[m].name
	}
	return strconv.Itoa(int(m))
}

// IsValid reports whether m is a known mode.
func (m Mode) IsValid() bool { return Numeric <= m && m <= Byte }

// Indicator returns the 4 bit mode indicator.
func (m Mode) Indicator() uint32 { return modes[m].indicator }

// CountLength returns the length in bits of the character count field
// at QR version v.
func (m Mode) CountLength(v Version) int { return modes[m].count[v.SizeClass()] }

// Accepts reports whether the byte c is encodable in mode m.
func (m Mode) Accepts(c byte) bool {
	switch m {
	case Numeric:
		return c-'0' < 10
	case Alphanumeric:
		return c >= ' ' && c < 0x60 && alphamask>>(c-' ')&1 != 0
	}
	return m == Byte
}

// Length returns the length in bits of a string of n bytes encoded in
// mode m at QR version v, including the header.
func (m Mode) Length(n int, v Version) int {
	l := 4 + m.CountLength(v)
	switch m {
	case Numeric:
		l += (10*n + 2) / 3
	case Alphanumeric:
		l += (11*n + 1) / 2
	default:
		l += 8 * n
	}
	return l
}

// A Segment describes a QR code segment.
type Segment struct {
	Text string // data to encode
	Mode Mode   // encoding mode
}

// SegmentError represents an invalid Segment.
type SegmentError Segment

func (e SegmentError) Error() string {
	if e.Mode.IsValid() {
		return fmt.Sprintf("qr: non-%s string %#q", e.Mode, e.Text)
	}
	return fmt.Sprintf("qr: invalid mode %d", e.Mode)
}

// IsValid reports whether seg is encodable.
func (seg Segment) IsValid() bool {
	if !seg.Mode.IsValid() {
		return false
	}
	if seg.Mode == Byte {
		return true
	}
	for i := 0; i < len(seg.Text); i++ {
		if !seg.Mode.Accepts(seg.Text[i]) {
			return false
		}
	}
	return true
}

// EncodedLength returns the encoded length in bits of seg at QR
// version v.  The segment is not validated.
func (seg Segment) EncodedLength(v Version) int {
	return seg.Mode.Length(len(seg.Text), v)
}

// Encode writes seg encoded for QR version v to b: the mode indicator,
// the character count and the packed data.
func (seg Segment) Encode(b *Bits, v Version) error {
	if !seg.IsValid() {
		return SegmentError(seg)
	}
	s := seg.Text
	n := seg.Mode.CountLength(v)
	if len(s) >= 1<<n {
		return SegmentError(seg)
	}
	b.Write(seg.Mode.Indicator(), 4)
	b.Write(uint32(len(s)), n)
	switch seg.Mode {
	case Numeric:
		for ; len(s) >= 3; s = s[3:] {
			b.Write(uint32(s[0]-'0')*100+uint32(s[1]-'0')*10+
				uint32(s[2]-'0'), 10)
		}
		switch len(s) {
		case 2:
			b.Write(uint32(s[0]-'0')*10+uint32(s[1]-'0'), 7)
		case 1:
			b.Write(uint32(s[0]-'0'), 4)
		}
	case Alphanumeric:
		for ; len(s) >= 2; s = s[2:] {
			b.Write(uint32(alpha[s[0]&0x3f])*45+
				uint32(alpha[s[1]&0x3f]), 11)
		}
		if len(s) == 1 {
			b.Write(uint32(alpha[s[0]&0x3f]), 6)
		}
	default:
		b.WriteString(s)
	}
	return nil
}
