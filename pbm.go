// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qr

import (
	"bufio"
	"io"
	"strconv"
)

// EncodePBM writes a Portable Bit Map image displaying the code to w,
// for use with netpbm, at c.Scale image pixels per QR pixel with a
// c.Border QR pixel quiet zone.
func (c *Code) EncodePBM(w io.Writer) error {
	if !c.isValid() {
		return ErrArgs
	}
	b := bufio.NewWriter(w)
	scale := c.Scale
	bord := c.Border
	length := scale * (c.Size + bord*2)
	ls := strconv.Itoa(length)
	if _, err := b.WriteString("P4\n" + ls + " " + ls + "\n"); err != nil {
		return err
	}
	// In PBM 1 is black, as in the bitmap.  Rows are padded to a
	// whole byte.
	row := make([]byte, (length+7)/8)
	for y := -bord; y < c.Size+bord; y++ {
		clear(row)
		for x := -bord; x < c.Size+bord; x++ {
			if !c.Black(x, y) {
				continue
			}
			for i := (x + bord) * scale; i < (x+bord+1)*scale; i++ {
				row[i>>3] |= 0x80 >> (i & 7)
			}
		}
		for i := 0; i < scale; i++ {
			if _, err := b.Write(row); err != nil {
				return err
			}
		}
	}
	return b.Flush()
}
