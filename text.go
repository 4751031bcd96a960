// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qr

import "strings"

// String returns the code as text for a terminal with a dark
// background: every character cell holds two QR pixels stacked
// vertically, light pixels drawn with block elements.  The quiet zone
// is c.Border QR pixels wide.
func (c *Code) String() string {
	if c == nil || c.Size <= 0 {
		return ""
	}
	// glyph[upper light][lower light]
	var glyph = [2][2]string{
		{" ", "▄"}, // upper dark
		{"▀", "█"}, // upper light
	}
	bord := max(c.Border, 0)
	var b strings.Builder
	for y := -bord; y < c.Size+bord; y += 2 {
		for x := -bord; x < c.Size+bord; x++ {
			up, down := 1, 1
			if c.Black(x, y) {
				up = 0
			}
			if c.Black(x, y+1) || y+1 >= c.Size+bord {
				down = 0
			}
			b.WriteString(glyph[up][down])
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// ASCII returns the code as text with two characters per QR pixel,
// "##" for black and two spaces for white, with a quiet zone of
// c.Border QR pixels.
func (c *Code) ASCII() string {
	if c == nil || c.Size <= 0 {
		return ""
	}
	bord := max(c.Border, 0)
	pix := c.Size + 2*bord
	b := make([]byte, (pix*2+1)*pix)
	i := 0
	for y := -bord; y < c.Size+bord; y++ {
		for x := -bord; x < c.Size+bord; x++ {
			var p byte = ' '
			if c.Black(x, y) {
				p = '#'
			}
			b[i], b[i+1] = p, p
			i += 2
		}
		b[i] = '\n'
		i++
	}
	return string(b)
}
