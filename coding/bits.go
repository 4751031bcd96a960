// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

import "github.com/unixdj/qrtrack/gf256"

// Bits is an append-only bit stream, filled most significant bit
// first.
type Bits struct {
	b    []byte
	nbit int
}

// NewBits returns Bits with enough capacity for a QR code of the
// given version and level.
func NewBits(v Version, l Level) *Bits {
	return &Bits{b: make([]byte, 0, v.DataBytes(l))}
}

// Bits returns the number of bits written.
func (b *Bits) Bits() int { return b.nbit }

// Bytes returns the bytes written.  It panics unless the number of
// bits written is a multiple of 8.
func (b *Bits) Bytes() []byte {
	if b.nbit%8 != 0 {
		panic("qr: fractional byte")
	}
	return b.b
}

// Write appends the nbit low bits of v, nbit <= 32.
func (b *Bits) Write(v uint32, nbit int) {
	if nbit == 0 {
		return
	}
	v <<= 32 - nbit
	if rem := -b.nbit & 7; rem != 0 {
		b.b[len(b.b)-1] |= byte(v >> (32 - rem))
		if rem >= nbit {
			b.nbit += nbit
			return
		}
		b.nbit += rem
		nbit -= rem
		v <<= rem
	}
	for n := nbit; n > 0; n -= 8 {
		b.b = append(b.b, byte(v>>24))
		v <<= 8
	}
	b.nbit += nbit
}

// WriteString appends the bytes of s.
func (b *Bits) WriteString(s string) {
	if b.nbit&7 == 0 {
		b.b = append(b.b, s...)
		b.nbit += len(s) * 8
		return
	}
	for i := 0; i < len(s); i++ {
		b.Write(uint32(s[i]), 8)
	}
}

// PadTo pads b to n bits, n a multiple of 8: it adds a terminator of
// up to 4 zero bits, zero bits up to a byte boundary and then
// alternating 0xec and 0x11 pad bytes.
func (b *Bits) PadTo(n int) {
	b.nbit = min(b.nbit+4, n)
	b.nbit = (b.nbit + 7) &^ 7
	for len(b.b)*8 < b.nbit {
		b.b = append(b.b, 0)
	}
	for pad := byte(0xec); len(b.b)*8 < n; pad ^= 0xec ^ 0x11 {
		b.b = append(b.b, pad)
	}
	b.nbit = len(b.b) * 8
}

// Codewords splits data into error correction blocks for version v
// and level l, computes the check bytes for each block and returns
// data and check bytes interleaved in placement order.
//
// The blocks come in two groups: blocks in the second group hold one
// data byte more than blocks in the first.  All blocks have the same
// number of check bytes.
func Codewords(data []byte, v Version, l Level) ([]byte, error) {
	nd := v.DataBytes(l)
	if len(data) != nd {
		return nil, gf256.ErrInvalidInput
	}
	nblock, check := v.Blocks(l)
	db := nd / nblock           // data bytes in a short block
	short := nblock - nd%nblock // number of short blocks
	rs := gf256.NewRSEncoder(Field, check)

	out := make([]byte, v.TotalBytes())
	ecc := out[nd:]
	for i, off := 0, 0; i < nblock; i++ {
		n := db
		if i >= short {
			n++
		}
		blk := data[off : off+n]
		off += n
		// Data byte j of block i.  The extra byte of long blocks
		// comes after byte db of every block.
		for j, c := range blk[:db] {
			out[j*nblock+i] = c
		}
		if n > db {
			out[db*nblock+i-short] = blk[db]
		}
		chk, err := rs.Encode(blk)
		if err != nil {
			return nil, err
		}
		for j, c := range chk {
			ecc[j*nblock+i] = c
		}
	}
	return out, nil
}
