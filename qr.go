// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package qr encodes QR codes and renders them as SVG, PNG, PBM or text.

Encode picks the encoding mode for the whole text, numeric,
alphanumeric or byte, and the smallest version that holds it at the
requested error correction level:

	c, err := qr.Encode("https://example.com/qr/demo/", qr.M)
	if err != nil {
		return err
	}
	svg, err := c.SVG(qr.DefaultOptions())

SVG is the fail-soft variant for page rendering paths: it never returns
an error, replacing the code with a placeholder image on failure.
*/
package qr // import "github.com/unixdj/qrtrack"

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/unixdj/qrtrack/coding"
)

type (
	// A Level denotes a QR error correction level.
	// From least to most tolerant of errors, they are L, M, Q, H.
	Level = coding.Level

	// A Mode is a QR encoding mode.
	Mode = coding.Mode

	// A Version is a QR version, 1 to 40.
	Version = coding.Version
)

// QR error correction levels.
const (
	L = coding.L // 20% redundant
	M = coding.M // 38% redundant
	Q = coding.Q // 55% redundant
	H = coding.H // 65% redundant
)

// Encoding modes.
const (
	Numeric      = coding.Numeric
	Alphanumeric = coding.Alphanumeric
	Byte         = coding.Byte
)

var (
	ErrArgs          = errors.New("qr: invalid arguments")
	ErrInputTooLarge = errors.New("qr: input too large")
)

// TooLargeError reports text that does not fit into a version 40 code.
// It matches ErrInputTooLarge.
type TooLargeError struct {
	Mode    Mode  // encoding mode
	Level   Level // error correction level
	Bits    int   // encoded length at version 40
	MaxBits int   // data capacity of version 40 at Level
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("qr: input too large: %d bits in %s mode, "+
		"version 40-%s holds %d", e.Bits, e.Mode, e.Level, e.MaxBits)
}

func (e *TooLargeError) Is(target error) bool { return target == ErrInputTooLarge }

// ParseLevel parses an error correction level name: L, M, Q or H in
// either case.
func ParseLevel(s string) (Level, error) { return coding.ParseLevel(s) }

// Classify returns the most compact mode able to encode all of text:
// Numeric for digits only, Alphanumeric for digits, capital letters
// and " $%*+-./:", Byte otherwise.  Empty text is Byte.
func Classify(text string) Mode {
	if text == "" {
		return Byte
	}
	// Each mode accepts every byte the previous one does, and Byte
	// accepts all.
	m := Numeric
	for i := 0; i < len(text); i++ {
		for !m.Accepts(text[i]) {
			m++
		}
	}
	return m
}

var sizeClass = [3]struct {
	min, max Version
}{
	{1, 9}, {10, 26}, {27, 40},
}

// chooseVersion returns the smallest version holding seg at level l.
func chooseVersion(seg coding.Segment, l Level) (Version, error) {
	var bits int
	for _, sc := range sizeClass {
		bits = seg.EncodedLength(sc.max)
		if bits > sc.max.DataBits(l) {
			continue
		}
		// Binary search within the size class.
		v, max := sc.min, sc.max
		for v < max {
			if mid := (v + max) / 2; mid.DataBits(l) < bits {
				v = mid + 1
			} else {
				max = mid
			}
		}
		return v, nil
	}
	return 0, &TooLargeError{seg.Mode, l, bits, coding.MaxVersion.DataBits(l)}
}

// Encode returns an encoding of text at the given error correction
// level, using the smallest version that fits.
func Encode(text string, level Level) (*Code, error) {
	if !level.IsValid() {
		return nil, coding.ErrLevel
	}
	seg := coding.Segment{Text: text, Mode: Classify(text)}
	v, err := chooseVersion(seg, level)
	if err != nil {
		return nil, err
	}
	cc, err := coding.Encode(v, level, seg)
	if err != nil {
		return nil, err
	}
	return &Code{
		Bitmap:  cc.Bitmap,
		Size:    cc.Size,
		Stride:  cc.Stride,
		Version: cc.Version,
		Level:   cc.Level,
		Mode:    seg.Mode,
		Mask:    cc.Mask,
		Scale:   8,
		Border:  4,
	}, nil
}

// A Code is a square pixel grid.
// It implements image.Image through Image.
type Code struct {
	Bitmap []byte // 1 is black, 0 is white
	Size   int    // number of pixels on a side
	Stride int    // number of bytes per row

	Version Version // QR version
	Level   Level   // error correction level
	Mode    Mode    // encoding mode
	Mask    int     // mask pattern

	Scale  int // image pixels per QR pixel, for Image and EncodePBM
	Border int // quiet zone in QR pixels, for Image and EncodePBM
}

// Black reports whether the pixel at (x, y) is black.
// Pixels outside the code are white.
func (c *Code) Black(x, y int) bool {
	return 0 <= x && x < c.Size && 0 <= y && y < c.Size &&
		c.Bitmap[y*c.Stride+x/8]&(1<<uint(7-x&7)) != 0
}

// isValid reports whether c can be rendered.
func (c *Code) isValid() bool {
	return c != nil && c.Size > 0 && c.Stride == (c.Size+7)/8 &&
		len(c.Bitmap) == c.Size*c.Stride && c.Scale > 0 && c.Border >= 0
}

// Image returns an Image displaying the code at c.Scale pixels per QR
// pixel with a quiet zone of c.Border QR pixels.
func (c *Code) Image() image.Image {
	return &codeImage{c}
}

// codeImage implements image.Image
type codeImage struct {
	*Code
}

var (
	whiteColor color.Color = color.Gray{0xFF}
	blackColor color.Color = color.Gray{0x00}
)

func (c *codeImage) Bounds() image.Rectangle {
	d := (c.Size + 2*c.Border) * c.Scale
	return image.Rect(0, 0, d, d)
}

func (c *codeImage) At(x, y int) color.Color {
	if c.Black(x/c.Scale-c.Border, y/c.Scale-c.Border) {
		return blackColor
	}
	return whiteColor
}

func (c *codeImage) ColorModel() color.Model {
	return color.GrayModel
}
