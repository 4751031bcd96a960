// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command qr encodes text as a QR code.
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/pborman/getopt/v2"

	"github.com/unixdj/qrtrack"
)

var g = struct {
	opts   qr.Options // SVG options
	border int        // quiet zone, -1 for the format's default
	fn     string     // output file
	format string     // output format
}{
	opts: qr.DefaultOptions(),
}

func printUsage(w io.Writer) {
	cl := getopt.CommandLine
	fmt.Fprint(w, "QR code generator\nUsage: ", cl.Program(), " ",
		cl.UsageLine(), ` [string ...]
If no string is given, data is read from standard input and the final
newline is stripped.

`)
	cl.PrintOptions(w)
}

type opt func()

func (opt) String() string                    { return "" }
func (o opt) Set(string, getopt.Option) error { o(); return nil }

func usage() {
	printUsage(os.Stderr)
	os.Exit(2)
}

func help() {
	printUsage(os.Stdout)
	os.Exit(0)
}

func version() {
	fmt.Println(`qr version 1.0.0
Copyright (c) 2011 The Go Authors
Copyright (c) 2025 Vadim Vygonets`)
	os.Exit(0)
}

var formats = []string{"svg", "png", "pbm", "utf8", "ascii"}

var encoders = map[string]func(*qr.Code, io.Writer) error{
	"svg": func(c *qr.Code, w io.Writer) error {
		o := g.opts
		o.Margin = c.Border
		return c.WriteSVG(w, o)
	},
	"png": (*qr.Code).EncodePNG,
	"pbm": (*qr.Code).EncodePBM,
	"utf8": func(c *qr.Code, w io.Writer) error {
		_, err := io.WriteString(w, c.String())
		return err
	},
	"ascii": func(c *qr.Code, w io.Writer) error {
		_, err := io.WriteString(w, c.ASCII())
		return err
	},
}

func parseFlags() {
	getopt.SetUsage(usage)
	getopt.Flag(opt(help), 'h', "show this help").SetFlag()
	getopt.Flag(opt(version), 'V', "print version and copyright").SetFlag()
	getopt.FlagLong(&g.opts.Background, "background", 'B',
		"background colour as #rgb or #rrggbb; svg only", "colour")
	getopt.FlagLong(&g.opts.Foreground, "foreground", 'F',
		"foreground colour; see -B", "colour")
	getopt.Flag(&g.border, 'm', `quiet zone in modules `+
		`[2 for svg, 4 otherwise]`, "margin")
	fno := getopt.Flag(&g.fn, 'o', `output file, or "-" for `+
		`standard output`, "file")
	lev := getopt.Enum('l',
		[]string{"l", "m", "q", "h", "L", "M", "Q", "H"}, "m",
		"error correction level, lowest to highest", "l|m|q|h")
	size := getopt.Unsigned('s', qr.DefaultSize,
		&getopt.UnsignedLimit{Base: 0, Bits: 16, Min: 1, Max: 1 << 16},
		`image width in pixels; png and pbm round it down `+
			`to a multiple of the code width`, "size")
	ff := getopt.Enum('t', formats, "", `output format, one of: `+
		strings.Join(formats, ", ")+`; `+
		`if no -o is given and standard output is a TTY, `+
		`default is utf8, otherwise svg`, "type")

	getopt.Parse()
	if !getopt.IsSet('m') {
		g.border = -1
	}
	g.opts.Size = int(*size)
	g.opts.Level, _ = qr.ParseLevel(*lev)
	if err := g.opts.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "bad colour")
		usage()
	}
	if *ff == "" {
		if !fno.Seen() && isatty.IsTerminal(uintptr(syscall.Stdout)) {
			*ff = "utf8"
		} else {
			*ff = "svg"
		}
	}
	g.format = *ff
	if g.fn == "-" {
		g.fn = ""
	}
}

func main() {
	log.SetFlags(0)
	parseFlags()

	var s string
	if args := getopt.Args(); len(args) != 0 {
		s = strings.Join(args, " ")
	} else {
		var b strings.Builder
		if _, err := io.Copy(&b, os.Stdin); err != nil {
			log.Fatalln(err)
		}
		s, _ = strings.CutSuffix(
			strings.ReplaceAll(b.String(), "\r\n", "\n"), "\n")
	}

	c, err := qr.Encode(s, g.opts.Level)
	if err != nil {
		log.Fatalln(err)
	}
	if err := output(c); err != nil {
		log.Fatalln(err)
	}
}

// output writes c to the output file or standard output.
func output(c *qr.Code) error {
	if g.fn == "" {
		return write(os.Stdout, c)
	}
	f, err := os.OpenFile(g.fn, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		return err
	}
	err = write(f, c)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// write sets the quiet zone and scale of c and writes it to w in the
// selected format.
func write(w io.Writer, c *qr.Code) error {
	switch {
	case g.border >= 0:
		c.Border = g.border
	case g.format == "svg":
		c.Border = qr.DefaultMargin
	}
	c.Scale = max(g.opts.Size/(c.Size+2*c.Border), 1)
	return encoders[g.format](c, w)
}
