// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package analytics

import (
	"encoding/hex"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"
)

// Headers carrying the client address, most trusted first.
// RemoteAddr is consulted last.
var ipHeaders = []string{
	"CF-Connecting-IP",
	"Client-IP",
	"X-Forwarded-For",
	"X-Forwarded",
	"X-Cluster-Client-IP",
	"Forwarded-For",
	"Forwarded",
}

// NoIP is returned when no valid client address is found.
const NoIP = "0.0.0.0"

// firstIP returns the first entry of a comma separated list if it is
// an IP address.
func firstIP(s string) string {
	s, _, _ = strings.Cut(s, ",")
	s = strings.TrimSpace(s)
	if net.ParseIP(s) == nil {
		return ""
	}
	return s
}

// ClientIP returns the address of the client that sent r.
func ClientIP(r *http.Request) string {
	for _, h := range ipHeaders {
		if ip := firstIP(r.Header.Get(h)); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if ip := firstIP(host); ip != "" {
		return ip
	}
	return NoIP
}

// Country returns the country code set by a Cloudflare proxy, or "".
func Country(r *http.Request) string {
	c := strings.ToUpper(strings.TrimSpace(r.Header.Get("CF-IPCountry")))
	if c == "XX" || c == "T1" {
		return ""
	}
	return c
}

// A Hasher derives visitor identifiers: a keyed BLAKE2b-128 hash of
// the client address and User-Agent.  Reports count unique visitors
// without comparing raw addresses.
type Hasher struct {
	key []byte
}

// NewHasher returns a Hasher keyed with key, truncated to 64 bytes.
// An empty key gives unkeyed hashes.
func NewHasher(key string) *Hasher {
	k := []byte(key)
	if len(k) > blake2b.Size {
		k = k[:blake2b.Size]
	}
	return &Hasher{key: k}
}

// Visitor returns the visitor identifier for ip and ua.
func (h *Hasher) Visitor(ip, ua string) string {
	d, err := blake2b.New(16, h.key)
	if err != nil {
		// Key length is checked in NewHasher.
		panic(err)
	}
	d.Write([]byte(ip))
	d.Write([]byte{0})
	d.Write([]byte(ua))
	return hex.EncodeToString(d.Sum(nil))
}

// NewClick returns a click on link id made by r at time at.  ID is
// left for the store to assign.
func (h *Hasher) NewClick(r *http.Request, id int64, at time.Time) Click {
	ua := r.UserAgent()
	ip := ClientIP(r)
	a := ParseUserAgent(ua)
	return Click{
		LinkID:    id,
		At:        at,
		IP:        ip,
		UserAgent: ua,
		Referer:   r.Referer(),
		Country:   Country(r),
		Device:    a.Device,
		Browser:   a.Browser,
		OS:        a.OS,
		Visitor:   h.Visitor(ip, ua),
	}
}
