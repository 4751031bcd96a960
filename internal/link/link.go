// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package link defines tracked QR links: slug normalisation,
// validation and the tracking URL encoded in a link's QR code.
package link

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// A Link maps a slug to a destination URL.
type Link struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Slug           string    `json:"slug"`
	DestinationURL string    `json:"destination_url"`
	Description    string    `json:"description,omitempty"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

var ErrInvalid = errors.New("link: invalid")

// ValidationError describes an invalid Link field.  It matches
// ErrInvalid.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "link: invalid " + e.Field + ": " + e.Reason
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalid }

// stripMarks decomposes text, drops combining marks and recomposes.
func stripMarks() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// Slugify returns s as a URL slug: accents removed, lower case,
// spaces, underscores and hyphens collapsed into single hyphens, any
// other character outside [a-z0-9] dropped, no leading or trailing
// hyphens.
func Slugify(s string) string {
	if t, _, err := transform.String(stripMarks(), s); err == nil {
		s = t
	}
	var b strings.Builder
	hyphen := false
	for _, r := range strings.ToLower(s) {
		switch {
		case 'a' <= r && r <= 'z', '0' <= r && r <= '9':
			if hyphen && b.Len() != 0 {
				b.WriteByte('-')
			}
			hyphen = false
			b.WriteRune(r)
		case r == '-', r == '_', unicode.IsSpace(r):
			hyphen = true
		}
	}
	return b.String()
}

// Normalize trims the text fields of l and normalises its slug.
func (l *Link) Normalize() {
	l.Name = strings.TrimSpace(l.Name)
	l.Slug = Slugify(l.Slug)
	l.DestinationURL = strings.TrimSpace(l.DestinationURL)
	l.Description = strings.TrimSpace(l.Description)
}

// Validate reports the first invalid field of l as a *ValidationError.
// The slug must already be normalised.
func (l *Link) Validate() error {
	switch {
	case l.Name == "":
		return &ValidationError{"name", "required"}
	case l.Slug == "":
		return &ValidationError{"slug", "required"}
	case l.Slug != Slugify(l.Slug):
		return &ValidationError{"slug", fmt.Sprintf("%q is not a slug", l.Slug)}
	case l.DestinationURL == "":
		return &ValidationError{"destination_url", "required"}
	}
	u, err := url.Parse(l.DestinationURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ValidationError{"destination_url", "not an absolute http(s) URL"}
	}
	return nil
}

// QRURL returns the tracking URL for slug under base, the text encoded
// in the link's QR code.
func QRURL(base, slug string) string {
	return strings.TrimRight(base, "/") + "/qr/" + slug + "/"
}
