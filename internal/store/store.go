// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package store keeps links in a JSON file and their clicks in an
// append-only JSON lines file next to it.
package store

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/unixdj/qrtrack/internal/analytics"
	"github.com/unixdj/qrtrack/internal/link"
)

var (
	ErrNotFound   = errors.New("store: not found")
	ErrSlugExists = errors.New("store: slug already exists")
)

// DefaultLimit is the page size used by List for a non-positive limit.
const DefaultLimit = 50

// links is the links file format.
type links struct {
	NextID int64       `json:"next_id"`
	Links  []link.Link `json:"links"`
}

func (d *links) clone() *links {
	return &links{NextID: d.NextID, Links: slices.Clone(d.Links)}
}

func (d *links) index(id int64) int {
	for i := range d.Links {
		if d.Links[i].ID == id {
			return i
		}
	}
	return -1
}

func (d *links) slugTaken(slug string, except int64) bool {
	for i := range d.Links {
		if d.Links[i].Slug == slug && d.Links[i].ID != except {
			return true
		}
	}
	return false
}

// ClicksPath returns the click log path for the links file at path:
// the extension replaced by ".clicks.jsonl".
func ClicksPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".clicks.jsonl"
}

// Store is a link and click store.  Link changes rewrite the links
// file before they become visible; clicks are appended to the click
// log one line each.  A Store is safe for concurrent use.
type Store struct {
	path string
	mu   sync.RWMutex // guards d; taken before cmu
	d    *links

	cmu    sync.RWMutex // guards clicks and log
	clicks []analytics.Click
	log    *os.File

	// Now returns the current time.  Replaced in tests.
	Now func() time.Time
}

// Open returns a store backed by the links file at path and its click
// log, reading them if they exist.  An empty path gives a store kept
// in memory only.  Clicks on links missing from the links file are
// dropped.
func Open(path string) (*Store, error) {
	s := &Store{path: path, d: &links{NextID: 1}, Now: time.Now}
	if path == "" {
		return s, nil
	}
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("store: %w", err)
	default:
		if err := json.Unmarshal(b, s.d); err != nil {
			return nil, fmt.Errorf("store: %s: %w", path, err)
		}
	}
	for _, l := range s.d.Links {
		if l.ID >= s.d.NextID {
			s.d.NextID = l.ID + 1
		}
	}
	if err := s.readClicks(); err != nil {
		return nil, err
	}
	s.log, err = os.OpenFile(ClicksPath(path),
		os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	return s, nil
}

// readClicks loads the click log.  An unterminated last line is the
// remains of an interrupted append and is cut off.
func (s *Store) readClicks() error {
	fn := ClicksPath(s.path)
	f, err := os.Open(fn)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	} else if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer f.Close()
	var (
		r    = bufio.NewReader(f)
		good int64
	)
	for n := 1; ; n++ {
		line, err := r.ReadBytes('\n')
		if err == io.EOF {
			if len(line) == 0 {
				return nil
			}
			if err := os.Truncate(fn, good); err != nil {
				return fmt.Errorf("store: %w", err)
			}
			return nil
		} else if err != nil {
			return fmt.Errorf("store: %s: %w", fn, err)
		}
		good += int64(len(line))
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var c analytics.Click
		if err := json.Unmarshal(line, &c); err != nil {
			return fmt.Errorf("store: %s:%d: %w", fn, n, err)
		}
		if s.d.index(c.LinkID) >= 0 {
			s.clicks = append(s.clicks, c)
		}
	}
}

// Close closes the click log.
func (s *Store) Close() error {
	s.cmu.Lock()
	defer s.cmu.Unlock()
	if s.log == nil {
		return nil
	}
	err := s.log.Close()
	s.log = nil
	return err
}

// writeFile replaces the file at path with the output of write,
// through a temporary file in the same directory, so readers never see
// a partial file.
func writeFile(path string, write func(w io.Writer) error) error {
	f, err := os.CreateTemp(filepath.Dir(path), ".qrtrack-*.tmp")
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	tmp := f.Name()
	w := bufio.NewWriter(f)
	if err = write(w); err == nil {
		err = w.Flush()
	}
	if err == nil {
		err = f.Chmod(0644)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp, path)
	}
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("store: %w", err)
	}
	return nil
}

// update applies fn to a copy of the links and makes the copy current
// once saved.  The caller holds s.mu.
func (s *Store) update(fn func(d *links) error) error {
	d := s.d.clone()
	if err := fn(d); err != nil {
		return err
	}
	if s.path != "" {
		err := writeFile(s.path, func(w io.Writer) error {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(d)
		})
		if err != nil {
			return err
		}
	}
	s.d = d
	return nil
}

// Create normalises and validates l, assigns its ID and timestamps and
// stores it.  l is changed only on success.
func (s *Store) Create(l *link.Link) error {
	n := *l
	n.Normalize()
	if err := n.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.update(func(d *links) error {
		if d.slugTaken(n.Slug, 0) {
			return fmt.Errorf("%w: %q", ErrSlugExists, n.Slug)
		}
		n.ID = d.NextID
		d.NextID++
		n.CreatedAt = s.Now()
		n.UpdatedAt = n.CreatedAt
		d.Links = append(d.Links, n)
		return nil
	})
	if err != nil {
		return err
	}
	*l = n
	return nil
}

// Update replaces the stored link with l's ID.  ID and CreatedAt are
// kept; UpdatedAt is set.  l is changed only on success.
func (s *Store) Update(l *link.Link) error {
	n := *l
	n.Normalize()
	if err := n.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.update(func(d *links) error {
		i := d.index(n.ID)
		if i < 0 {
			return ErrNotFound
		}
		if d.slugTaken(n.Slug, n.ID) {
			return fmt.Errorf("%w: %q", ErrSlugExists, n.Slug)
		}
		n.CreatedAt = d.Links[i].CreatedAt
		n.UpdatedAt = s.Now()
		d.Links[i] = n
		return nil
	})
	if err != nil {
		return err
	}
	*l = n
	return nil
}

// Delete removes the link with the given ID and its clicks.  The
// click log is rewritten after the links file; should that fail, the
// orphaned clicks are dropped on the next Open.
func (s *Store) Delete(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.update(func(d *links) error {
		i := d.index(id)
		if i < 0 {
			return ErrNotFound
		}
		d.Links = slices.Delete(d.Links, i, i+1)
		return nil
	})
	if err != nil {
		return err
	}
	s.cmu.Lock()
	defer s.cmu.Unlock()
	s.clicks = slices.DeleteFunc(s.clicks, func(c analytics.Click) bool {
		return c.LinkID == id
	})
	return s.compact()
}

// compact rewrites the click log from memory and reopens it for
// appending.  The caller holds s.cmu.
func (s *Store) compact() error {
	if s.log == nil {
		return nil
	}
	fn := ClicksPath(s.path)
	err := writeFile(fn, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		for i := range s.clicks {
			if err := enc.Encode(&s.clicks[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	f, err := os.OpenFile(fn, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	s.log.Close()
	s.log = f
	return nil
}

// Get returns the link with the given ID.
func (s *Store) Get(id int64) (link.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.d.index(id); i >= 0 {
		return s.d.Links[i], nil
	}
	return link.Link{}, ErrNotFound
}

// FindBySlug returns the active link with the given slug.
func (s *Store) FindBySlug(slug string) (link.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.d.Links {
		if l.Slug == slug && l.Active {
			return l, nil
		}
	}
	return link.Link{}, ErrNotFound
}

// Links returns all links in creation order.
func (s *Store) Links() []link.Link {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.d.Links)
}

// List returns up to limit links, newest first, skipping offset.
func (s *Store) List(limit, offset int) []link.Link {
	if limit <= 0 {
		limit = DefaultLimit
	}
	ll := s.Links()
	sort.SliceStable(ll, func(i, j int) bool {
		if !ll[i].CreatedAt.Equal(ll[j].CreatedAt) {
			return ll[i].CreatedAt.After(ll[j].CreatedAt)
		}
		return ll[i].ID > ll[j].ID
	})
	if offset < 0 || offset >= len(ll) {
		return []link.Link{}
	}
	ll = ll[offset:]
	if len(ll) > limit {
		ll = ll[:limit]
	}
	return ll
}

// RecordClick appends c to the click log with a new ID, and the
// current time if c.At is zero, and returns it.  The links file is
// left alone.
func (s *Store) RecordClick(c analytics.Click) (analytics.Click, error) {
	c.ID = uuid.NewString()
	if c.At.IsZero() {
		c.At = s.Now()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.d.index(c.LinkID) < 0 {
		return analytics.Click{}, ErrNotFound
	}
	s.cmu.Lock()
	defer s.cmu.Unlock()
	if s.log != nil {
		// One Write per record.
		if err := json.NewEncoder(s.log).Encode(&c); err != nil {
			return analytics.Click{}, fmt.Errorf("store: %w", err)
		}
	} else if s.path != "" {
		return analytics.Click{}, errors.New("store: closed")
	}
	s.clicks = append(s.clicks, c)
	return c, nil
}

// Clicks returns the clicks selected by f, oldest first.
func (s *Store) Clicks(f analytics.Filter) []analytics.Click {
	s.cmu.RLock()
	out := []analytics.Click{}
	for i := range s.clicks {
		if f.Match(&s.clicks[i]) {
			out = append(out, s.clicks[i])
		}
	}
	s.cmu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out
}
