// Copyright 2010 The Go Authors.  All rights reserved.
// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gf256 implements arithmetic over the Galois Field GF(256)
// and Reed-Solomon error correction coding.
package gf256 // import "github.com/unixdj/qrtrack/gf256"

import (
	"errors"
	"strconv"
	"sync"
)

var (
	ErrDivisionByZero = errors.New("gf256: division by zero")
	ErrInvalidInput   = errors.New("gf256: invalid input")
)

// A Field represents an instance of GF(256) defined by a specific
// polynomial.  A Field is immutable after NewField returns, apart from
// the lazily built generator polynomial cache, and is safe for
// concurrent use.
type Field struct {
	log [256]byte // log[0] is unused
	exp [510]byte // exp[i+255] == exp[i]

	gen [256]struct {
		once sync.Once
		p    []byte
	}
}

// NewField returns a new field corresponding to the polynomial poly
// and generator α.  The QR standard uses poly = 0x11d (x⁸+x⁴+x³+x²+1)
// and α = 2.  NewField panics if α does not generate the field.
func NewField(poly, α int) *Field {
	if poly < 0x100 || poly >= 0x200 {
		panic("gf256: invalid polynomial: " + strconv.Itoa(poly))
	}
	f := new(Field)
	x := 1
	for i := 0; i < 255; i++ {
		if x == 1 && i != 0 {
			panic("gf256: invalid generator " + strconv.Itoa(α) +
				" for polynomial " + strconv.Itoa(poly))
		}
		f.exp[i] = byte(x)
		f.exp[i+255] = byte(x)
		f.log[x] = byte(i)
		x = mul(x, α, poly)
	}
	f.log[0] = 255
	return f
}

// mul returns the product x*y mod poly, a GF(256) multiplication
// without tables.
func mul(x, y, poly int) int {
	z := 0
	for x > 0 {
		if x&1 != 0 {
			z ^= y
		}
		x >>= 1
		y <<= 1
		if y&0x100 != 0 {
			y ^= poly
		}
	}
	return z
}

// Add returns the sum of x and y in the field.
func (f *Field) Add(x, y byte) byte { return x ^ y }

// Exp returns the base-α exponential of e in the field.
// If e < 0, Exp returns 0.
func (f *Field) Exp(e int) byte {
	if e < 0 {
		return 0
	}
	return f.exp[e%255]
}

// Log returns the base-α logarithm of x in the field.
// If x == 0, Log returns -1.
func (f *Field) Log(x byte) int {
	if x == 0 {
		return -1
	}
	return int(f.log[x])
}

// Mul returns the product of x and y in the field.
func (f *Field) Mul(x, y byte) byte {
	if x == 0 || y == 0 {
		return 0
	}
	return f.exp[int(f.log[x])+int(f.log[y])]
}

// Div returns x divided by y in the field.
func (f *Field) Div(x, y byte) (byte, error) {
	if y == 0 {
		return 0, ErrDivisionByZero
	}
	if x == 0 {
		return 0, nil
	}
	return f.exp[int(f.log[x])+255-int(f.log[y])], nil
}

// Inv returns the multiplicative inverse of x in the field.
func (f *Field) Inv(x byte) (byte, error) { return f.Div(1, x) }

// Gen returns the generator polynomial of degree e,
// the product of (x - α^i) for i in [0, e).
// Coefficients are listed from the highest degree; the first is 1.
// The returned slice must not be modified.
func (f *Field) Gen(e int) []byte {
	if e < 1 || e >= len(f.gen) {
		panic("gf256: invalid generator degree: " + strconv.Itoa(e))
	}
	g := &f.gen[e]
	g.once.Do(func() {
		p := make([]byte, 1, e+1)
		p[0] = 1
		for i := 0; i < e; i++ {
			r := f.exp[i]
			p = append(p, 0)
			for j := len(p) - 1; j > 0; j-- {
				p[j] ^= f.Mul(r, p[j-1])
			}
		}
		g.p = p
	})
	return g.p
}

// An RSEncoder computes Reed-Solomon check bytes for a given number of
// check bytes.  An RSEncoder holds no mutable state and may be shared.
type RSEncoder struct {
	f   *Field
	c   int
	gen []byte // generator polynomial, without the leading 1
}

// NewRSEncoder returns a new Reed-Solomon encoder over the given field
// and number of check bytes.
func NewRSEncoder(f *Field, c int) *RSEncoder {
	return &RSEncoder{f: f, c: c, gen: f.Gen(c)[1:]}
}

// Check returns the number of check bytes computed by rs.
func (rs *RSEncoder) Check() int { return rs.c }

// ECC writes to check the check bytes for data: the remainder of the
// division of data, shifted by rs.Check() zero bytes, by the generator
// polynomial.  check must have room for rs.Check() bytes.
func (rs *RSEncoder) ECC(data, check []byte) error {
	if len(data) == 0 || len(check) < rs.c {
		return ErrInvalidInput
	}
	check = check[:rs.c]
	clear(check)
	f := rs.f
	for _, d := range data {
		coef := d ^ check[0]
		copy(check, check[1:])
		check[len(check)-1] = 0
		if coef == 0 {
			continue
		}
		lc := int(f.log[coef])
		for i, g := range rs.gen {
			if g != 0 {
				check[i] ^= f.exp[lc+int(f.log[g])]
			}
		}
	}
	return nil
}

// Encode returns the check bytes for data.
func (rs *RSEncoder) Encode(data []byte) ([]byte, error) {
	check := make([]byte, rs.c)
	if err := rs.ECC(data, check); err != nil {
		return nil, err
	}
	return check, nil
}
