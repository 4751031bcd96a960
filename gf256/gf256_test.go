// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gf256

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

var qrField = NewField(0x11d, 2)

func TestFieldTables(t *testing.T) {
	f := qrField
	seen := make(map[byte]bool)
	for i := 0; i < 255; i++ {
		x := f.Exp(i)
		require.NotZero(t, x)
		require.False(t, seen[x], "α^%d repeats", i)
		seen[x] = true
		require.Equal(t, i, f.Log(x))
	}
	require.Equal(t, byte(1), f.Exp(0))
	require.Equal(t, byte(2), f.Exp(1))
	require.Equal(t, byte(0x1d), f.Exp(8)) // x⁸ = x⁴+x³+x²+1
	require.Equal(t, f.Exp(3), f.Exp(258))
	require.Equal(t, -1, f.Log(0))
}

func TestMulMatchesSlowMul(t *testing.T) {
	f := qrField
	for x := 0; x < 256; x++ {
		for y := 0; y < 256; y++ {
			require.Equal(t, byte(mul(x, y, 0x11d)), f.Mul(byte(x), byte(y)))
		}
	}
}

func TestDiv(t *testing.T) {
	f := qrField
	for x := 0; x < 256; x++ {
		for y := 1; y < 256; y++ {
			q, err := f.Div(byte(x), byte(y))
			require.NoError(t, err)
			require.Equal(t, byte(x), f.Mul(q, byte(y)))
		}
		_, err := f.Div(byte(x), 0)
		require.ErrorIs(t, err, ErrDivisionByZero)
	}
	inv, err := f.Inv(0x53)
	require.NoError(t, err)
	require.Equal(t, byte(1), f.Mul(inv, 0x53))
}

func TestBadGenerator(t *testing.T) {
	// 1 generates nothing
	require.Panics(t, func() { NewField(0x11d, 1) })
	require.Panics(t, func() { NewField(0x1d, 2) })
}

// eval evaluates the polynomial p, highest degree first, at x.
func eval(f *Field, p []byte, x byte) byte {
	var y byte
	for _, c := range p {
		y = f.Mul(y, x) ^ c
	}
	return y
}

func TestGenRoots(t *testing.T) {
	f := qrField
	for _, e := range []int{2, 7, 10, 13, 17, 22, 30, 68} {
		g := f.Gen(e)
		require.Len(t, g, e+1)
		require.Equal(t, byte(1), g[0])
		for i := 0; i < e; i++ {
			require.Zero(t, eval(f, g, f.Exp(i)), "degree %d root α^%d", e, i)
		}
	}
	// Degree 7 generator from ISO/IEC 18004 Annex A, as exponents
	// of α: 0, 87, 229, 146, 149, 238, 102, 21.
	want := []int{0, 87, 229, 146, 149, 238, 102, 21}
	for i, c := range f.Gen(7) {
		require.Equal(t, want[i], f.Log(c))
	}
}

func TestECCKnownAnswer(t *testing.T) {
	// "HELLO WORLD" at version 1-M.
	data := []byte{32, 91, 11, 120, 209, 114, 220, 77, 67, 64, 236, 17, 236, 17, 236, 17}
	want := []byte{196, 35, 39, 119, 235, 215, 231, 226, 93, 23}
	got, err := NewRSEncoder(qrField, 10).Encode(data)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestECCDivides(t *testing.T) {
	f := qrField
	rnd := rand.New(rand.NewSource(1))
	for _, c := range []int{7, 10, 18, 26, 30} {
		rs := NewRSEncoder(f, c)
		require.Equal(t, c, rs.Check())
		for n := 1; n < 120; n += 17 {
			data := make([]byte, n)
			rnd.Read(data)
			check, err := rs.Encode(data)
			require.NoError(t, err)
			msg := append(append([]byte(nil), data...), check...)
			for i := 0; i < c; i++ {
				require.Zero(t, eval(f, msg, f.Exp(i)))
			}
		}
	}
}

func TestECCInvalidInput(t *testing.T) {
	rs := NewRSEncoder(qrField, 10)
	_, err := rs.Encode(nil)
	require.ErrorIs(t, err, ErrInvalidInput)
	require.ErrorIs(t, rs.ECC([]byte{1, 2, 3}, make([]byte, 9)), ErrInvalidInput)
}

func TestConcurrentGen(t *testing.T) {
	f := NewField(0x11d, 2)
	var wg sync.WaitGroup
	res := make([][]byte, 8)
	for i := range res {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res[i] = f.Gen(26)
		}(i)
	}
	wg.Wait()
	for _, r := range res[1:] {
		require.Equal(t, res[0], r)
	}
}
