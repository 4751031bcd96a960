// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/unixdj/qrtrack"
	"github.com/unixdj/qrtrack/internal/analytics"
	"github.com/unixdj/qrtrack/internal/link"
)

// redirect sends a scanned code to its destination and records the
// click.  Unknown and inactive slugs go to the base URL.
func (s *Server) redirect(w http.ResponseWriter, r *http.Request) {
	slug := link.Slugify(mux.Vars(r)["slug"])
	l, err := s.store.FindBySlug(slug)
	if err != nil {
		s.log.Debugf("redirect %q: %v", slug, err)
		http.Redirect(w, r, s.cfg.BaseURL, http.StatusMovedPermanently)
		return
	}
	c := s.hasher.NewClick(r, l.ID, s.now())
	if _, err := s.store.RecordClick(c); err != nil {
		s.log.Errorf("record click on %q: %v", slug, err)
	}
	http.Redirect(w, r, l.DestinationURL, http.StatusFound)
}

// linkView is a link as shown by the API.
type linkView struct {
	link.Link
	QRURL string `json:"qr_url"`
}

func (s *Server) view(l link.Link) linkView {
	return linkView{l, link.QRURL(s.cfg.BaseURL, l.Slug)}
}

func (s *Server) listLinks(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := intParam(r, "offset", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ll := s.store.List(limit, offset)
	out := make([]linkView, len(ll))
	for i, l := range ll {
		out[i] = s.view(l)
	}
	writeJSON(w, http.StatusOK, out)
}

// decodeLink decodes the request body over l.
func decodeLink(w http.ResponseWriter, r *http.Request, l *link.Link) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	if err := dec.Decode(l); err != nil {
		return fmt.Errorf("%w: body: %v", link.ErrInvalid, err)
	}
	return nil
}

func (s *Server) createLink(w http.ResponseWriter, r *http.Request) {
	l := link.Link{Active: true}
	if err := decodeLink(w, r, &l); err != nil {
		s.fail(w, err)
		return
	}
	l.ID = 0
	if err := s.store.Create(&l); err != nil {
		s.fail(w, err)
		return
	}
	s.log.Infof("created link %d %q", l.ID, l.Slug)
	writeJSON(w, http.StatusCreated, s.view(l))
}

func (s *Server) getLink(w http.ResponseWriter, r *http.Request) {
	l, err := s.store.Get(pathID(r))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(l))
}

// updateLink applies the fields present in the body to the link.
func (s *Server) updateLink(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	l, err := s.store.Get(id)
	if err != nil {
		s.fail(w, err)
		return
	}
	if err := decodeLink(w, r, &l); err != nil {
		s.fail(w, err)
		return
	}
	l.ID = id
	if err := s.store.Update(&l); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(l))
}

func (s *Server) deleteLink(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	if err := s.store.Delete(id); err != nil {
		s.fail(w, err)
		return
	}
	s.log.Infof("deleted link %d", id)
	w.WriteHeader(http.StatusNoContent)
}

// downloadQR serves the link's code as an SVG attachment.
func (s *Server) downloadQR(w http.ResponseWriter, r *http.Request) {
	l, err := s.store.Get(pathID(r))
	if err != nil {
		s.fail(w, err)
		return
	}
	o := s.cfg.DownloadOptions()
	if o.Size, err = intParam(r, "size", o.Size); err != nil || o.Size <= 0 || o.Size > 4000 {
		writeError(w, http.StatusBadRequest, "invalid size")
		return
	}
	svg, err := qr.EncodeSVG(link.QRURL(s.cfg.BaseURL, l.Slug), o)
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="qr-%s.svg"`, l.Slug))
	w.Write(svg)
}

// preview renders the code a slug would get.  Rendering failures
// yield the placeholder image.
func (s *Server) preview(w http.ResponseWriter, r *http.Request) {
	slug := link.Slugify(r.URL.Query().Get("slug"))
	if slug == "" {
		writeError(w, http.StatusBadRequest, "slug required")
		return
	}
	url := link.QRURL(s.cfg.BaseURL, slug)
	writeJSON(w, http.StatusOK, map[string]string{
		"svg": string(qr.SVG(url, s.cfg.PreviewOptions())),
		"url": url,
	})
}

// analyticsDays is the report period when no start date is given.
const analyticsDays = 30

// report reports on clicks for one link or all links over a range
// of days, start and end in YYYY-MM-DD, both inclusive.
func (s *Server) report(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id, err := intParam(r, "link", 0)
	if err != nil || id < 0 {
		writeError(w, http.StatusBadRequest, "invalid link")
		return
	}
	end := s.now().UTC()
	if v := q.Get("end"); v != "" {
		if end, err = time.Parse(time.DateOnly, v); err != nil {
			writeError(w, http.StatusBadRequest, "invalid end")
			return
		}
	}
	start := end.AddDate(0, 0, -analyticsDays)
	if v := q.Get("start"); v != "" {
		if start, err = time.Parse(time.DateOnly, v); err != nil {
			writeError(w, http.StatusBadRequest, "invalid start")
			return
		}
	}
	if start.After(end) {
		writeError(w, http.StatusBadRequest, "start after end")
		return
	}
	links := s.store.Links()
	if id != 0 {
		l, err := s.store.Get(int64(id))
		if err != nil {
			s.fail(w, err)
			return
		}
		links = []link.Link{l}
	}
	f := analytics.DayRange(int64(id), start, end)
	writeJSON(w, http.StatusOK, analytics.NewReport(f, links, s.store.Clicks(f)))
}

func (s *Server) top(w http.ResponseWriter, r *http.Request) {
	n, err := intParam(r, "limit", 10)
	if err != nil || n <= 0 || n > 100 {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	writeJSON(w, http.StatusOK,
		analytics.Top(s.store.Links(), s.store.Clicks(analytics.Filter{}), n))
}
