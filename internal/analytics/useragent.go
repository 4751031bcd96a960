// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package analytics

import (
	"regexp"
	"strings"
)

// Values returned for an empty or unrecognised User-Agent.
const (
	Unknown = "unknown"
	Other   = "other"
)

// Device types.
const (
	Mobile  = "mobile"
	Tablet  = "tablet"
	Desktop = "desktop"
)

var (
	mobileWords = []string{
		"mobile", "android", "iphone", "ipod", "blackberry",
		"windows phone", "opera mini", "opera mobi", "iemobile",
	}
	tabletWords = []string{"ipad", "tablet", "kindle", "playbook"}
)

type pattern struct {
	name string
	re   *regexp.Regexp
}

// Checked in order, first match wins.
var (
	browsers = []pattern{
		{"Edge", regexp.MustCompile(`(?i)edge|edg`)},
		{"Opera", regexp.MustCompile(`(?i)opera|opr`)},
		{"Chrome", regexp.MustCompile(`(?i)chrome`)},
		{"Safari", regexp.MustCompile(`(?i)safari`)},
		{"Firefox", regexp.MustCompile(`(?i)firefox`)},
		{"IE", regexp.MustCompile(`(?i)msie|trident`)},
	}
	systems = []pattern{
		{"Windows 11", regexp.MustCompile(`(?i)windows nt 10.*build.*(22|23)`)},
		{"Windows 10", regexp.MustCompile(`(?i)windows nt 10`)},
		{"Windows 8.1", regexp.MustCompile(`(?i)windows nt 6\.3`)},
		{"Windows 8", regexp.MustCompile(`(?i)windows nt 6\.2`)},
		{"Windows 7", regexp.MustCompile(`(?i)windows nt 6\.1`)},
		{"Windows Vista", regexp.MustCompile(`(?i)windows nt 6\.0`)},
		{"Windows XP", regexp.MustCompile(`(?i)windows nt 5\.1`)},
		{"macOS", regexp.MustCompile(`(?i)macintosh|mac os x`)},
		{"iOS", regexp.MustCompile(`(?i)iphone|ipad|ipod`)},
		{"Android", regexp.MustCompile(`(?i)android`)},
		{"Linux", regexp.MustCompile(`(?i)linux`)},
		{"Chrome OS", regexp.MustCompile(`(?i)cros`)},
	}
)

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func match(ua string, pp []pattern) string {
	if ua == "" {
		return Unknown
	}
	for _, p := range pp {
		if p.re.MatchString(ua) {
			return p.name
		}
	}
	return Other
}

// DeviceType classifies ua as Mobile, Tablet or Desktop, or Unknown if
// empty.  Phone keywords are checked before tablet ones.
func DeviceType(ua string) string {
	if ua == "" {
		return Unknown
	}
	ua = strings.ToLower(ua)
	switch {
	case containsAny(ua, mobileWords):
		return Mobile
	case containsAny(ua, tabletWords):
		return Tablet
	}
	return Desktop
}

// Browser returns the browser family of ua.
func Browser(ua string) string { return match(ua, browsers) }

// OS returns the operating system of ua.  Apple mobile agents that
// mention Mac OS X report macOS.
func OS(ua string) string { return match(ua, systems) }

// Agent is a classified User-Agent.
type Agent struct {
	Device  string `json:"device"`
	Browser string `json:"browser"`
	OS      string `json:"os"`
}

// ParseUserAgent classifies ua.
func ParseUserAgent(ua string) Agent {
	return Agent{DeviceType(ua), Browser(ua), OS(ua)}
}
