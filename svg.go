// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qr

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
)

// Options control SVG rendering.
type Options struct {
	Size       int    // width and height in pixels
	Margin     int    // quiet zone in modules
	Level      Level  // error correction level
	Foreground string // dark module colour, #rgb or #rrggbb
	Background string // light module colour, #rgb or #rrggbb
}

// Default rendering options.
const (
	DefaultSize       = 400
	DefaultMargin     = 2
	DefaultLevel      = M
	DefaultForeground = "#000000"
	DefaultBackground = "#ffffff"
)

// DefaultOptions returns the default rendering options.
func DefaultOptions() Options {
	return Options{
		Size:       DefaultSize,
		Margin:     DefaultMargin,
		Level:      DefaultLevel,
		Foreground: DefaultForeground,
		Background: DefaultBackground,
	}
}

// isColour reports whether s is #rgb or #rrggbb.
func isColour(s string) bool {
	if len(s) != 4 && len(s) != 7 || s[0] != '#' {
		return false
	}
	_, err := strconv.ParseUint(s[1:], 16, 32)
	return err == nil
}

// Validate reports ErrArgs if o cannot be rendered.
func (o Options) Validate() error {
	switch {
	case o.Size <= 0, o.Margin < 0, !o.Level.IsValid():
	case !isColour(o.Foreground), !isColour(o.Background):
	default:
		return nil
	}
	return ErrArgs
}

// WriteSVG writes an SVG image displaying the code to w.  Dark modules
// form a single path of unit squares over a background rectangle;
// the view box spans the code and a quiet zone of o.Margin modules on
// every side, scaled to o.Size pixels.  o.Level is ignored.
func (c *Code) WriteSVG(w io.Writer, o Options) error {
	if err := o.Validate(); err != nil {
		return err
	}
	if c == nil || c.Size <= 0 || c.Stride != (c.Size+7)/8 ||
		len(c.Bitmap) != c.Size*c.Stride {
		return ErrArgs
	}
	var b bytes.Buffer
	vb := c.Size + 2*o.Margin
	fmt.Fprintf(&b, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" version="1.1" width="%d" height="%d" viewBox="0 0 %d %d" shape-rendering="crispEdges">
<rect width="100%%" height="100%%" fill="%s"/>
`, o.Size, o.Size, vb, vb, o.Background)
	b.WriteString(`<path d="`)
	for y := 0; y < c.Size; y++ {
		for x := 0; x < c.Size; x++ {
			if c.Black(x, y) {
				fmt.Fprintf(&b, "M%d,%dh1v1h-1z", x+o.Margin, y+o.Margin)
			}
		}
	}
	fmt.Fprintf(&b, "\" fill=\"%s\"/>\n</svg>\n", o.Foreground)
	_, err := w.Write(b.Bytes())
	return err
}

// SVG returns an SVG image displaying the code.
func (c *Code) SVG(o Options) ([]byte, error) {
	var b bytes.Buffer
	if err := c.WriteSVG(&b, o); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// EncodeSVG encodes text at o.Level and returns it as an SVG image.
// Invalid options return ErrArgs and oversized text a *TooLargeError.
func EncodeSVG(text string, o Options) ([]byte, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	c, err := encode(text, o.Level)
	if err != nil {
		return nil, err
	}
	return c.SVG(o)
}

// encode is replaced in tests.
var encode = Encode

// SVG encodes text as EncodeSVG does, but never fails: on any error,
// including a panic inside the encoder, it returns ErrorSVG.  It is
// meant for page rendering paths where a broken image is preferable
// to a broken page.
func SVG(text string, o Options) (svg []byte) {
	defer func() {
		if recover() != nil {
			svg = ErrorSVG(o.Size)
		}
	}()
	svg, err := EncodeSVG(text, o)
	if err != nil {
		return ErrorSVG(o.Size)
	}
	return svg
}

// ErrorSVG returns a placeholder image of the given size, or of
// DefaultSize if size is not positive, marked "QR Generation Error".
func ErrorSVG(size int) []byte {
	if size <= 0 {
		size = DefaultSize
	}
	return []byte(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d">
<rect width="100%%" height="100%%" fill="#f0f0f0"/>
<text x="50%%" y="50%%" text-anchor="middle" fill="#666" font-size="14">QR Generation Error</text>
</svg>
`, size, size))
}
