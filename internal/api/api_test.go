// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/unixdj/qrtrack/internal/analytics"
	"github.com/unixdj/qrtrack/internal/config"
	"github.com/unixdj/qrtrack/internal/link"
	"github.com/unixdj/qrtrack/internal/logger"
	"github.com/unixdj/qrtrack/internal/store"
)

var now = time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

func newServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	st, err := store.Open("")
	require.NoError(t, err)
	cfg := config.Default()
	cfg.BaseURL = "https://example.com/"
	s := New(cfg, st, logger.Discard())
	s.now = func() time.Time { return now }
	return s, st
}

func do(s http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	var rd *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	r := httptest.NewRequest(method, target, rd)
	r.Header.Set("User-Agent", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) Mobile Safari/604.1")
	w := httptest.NewRecorder()
	s.ServeHTTP(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func create(t *testing.T, s http.Handler, slug string, active bool) linkView {
	t.Helper()
	w := do(s, "POST", "/api/links", map[string]any{
		"name":            "Link " + slug,
		"slug":            slug,
		"destination_url": "https://dest.example.org/" + slug,
		"active":          active,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[linkView](t, w)
}

func TestHealth(t *testing.T) {
	s, _ := newServer(t)
	w := do(s, "GET", "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	_, err := uuid.Parse(w.Header().Get(RequestIDHeader))
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/health", nil)
	r.Header.Set(RequestIDHeader, "abc")
	w = httptest.NewRecorder()
	s.ServeHTTP(w, r)
	require.Equal(t, "abc", w.Header().Get(RequestIDHeader))
}

func TestRedirect(t *testing.T) {
	s, st := newServer(t)
	l := create(t, s, "demo", true)
	create(t, s, "off", false)

	for _, path := range []string{"/qr/demo/", "/qr/demo"} {
		w := do(s, "GET", path, nil)
		require.Equal(t, http.StatusFound, w.Code, path)
		require.Equal(t, "https://dest.example.org/demo", w.Header().Get("Location"))
	}
	clicks := st.Clicks(analytics.Filter{LinkID: l.ID})
	require.Len(t, clicks, 2)
	require.Equal(t, now, clicks[0].At)
	require.Equal(t, analytics.Mobile, clicks[0].Device)
	require.Equal(t, "192.0.2.1", clicks[0].IP)
	require.NotEmpty(t, clicks[0].Visitor)

	for _, path := range []string{"/qr/off/", "/qr/nope/"} {
		w := do(s, "GET", path, nil)
		require.Equal(t, http.StatusMovedPermanently, w.Code, path)
		require.Equal(t, "https://example.com/", w.Header().Get("Location"))
	}
	require.Len(t, st.Clicks(analytics.Filter{}), 2)
}

// failingStore fails to record clicks.
type failingStore struct {
	*store.Store
}

func (failingStore) RecordClick(analytics.Click) (analytics.Click, error) {
	return analytics.Click{}, errors.New("disk full")
}

func TestRedirectRecordFailure(t *testing.T) {
	st, err := store.Open("")
	require.NoError(t, err)
	require.NoError(t, st.Create(&link.Link{Name: "D", Slug: "demo",
		DestinationURL: "https://dest.example.org/", Active: true}))
	var logs bytes.Buffer
	s := New(config.Default(), failingStore{st}, logger.New(&logs, logger.Info))
	w := do(s, "GET", "/qr/demo/", nil)
	require.Equal(t, http.StatusFound, w.Code)
	require.Contains(t, logs.String(), "disk full")
}

func TestLinkCRUD(t *testing.T) {
	s, _ := newServer(t)
	l := create(t, s, "Summer Sale", true)
	require.Equal(t, "summer-sale", l.Slug)
	require.Equal(t, "https://example.com/qr/summer-sale/", l.QRURL)
	require.True(t, l.Active)

	// Active defaults to true.
	w := do(s, "POST", "/api/links", map[string]any{
		"name": "B", "slug": "b", "destination_url": "https://x.example/"})
	require.Equal(t, http.StatusCreated, w.Code)
	require.True(t, decode[linkView](t, w).Active)

	w = do(s, "POST", "/api/links", map[string]any{
		"name": "Dup", "slug": "summer_sale", "destination_url": "https://x.example/"})
	require.Equal(t, http.StatusConflict, w.Code)
	require.Contains(t, decode[map[string]string](t, w)["error"], "slug")

	w = do(s, "POST", "/api/links", map[string]any{"name": "No URL", "slug": "c"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	w = do(s, "POST", "/api/links", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = do(s, "GET", "/api/links", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, decode[[]linkView](t, w), 2)
	w = do(s, "GET", "/api/links?limit=1", nil)
	require.Len(t, decode[[]linkView](t, w), 1)
	w = do(s, "GET", "/api/links?limit=x", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	path := "/api/links/" + itoa(l.ID)
	w = do(s, "GET", path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, l.Slug, decode[linkView](t, w).Slug)

	w = do(s, "PUT", path, map[string]any{"active": false, "name": "Winter"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	u := decode[linkView](t, w)
	require.False(t, u.Active)
	require.Equal(t, "Winter", u.Name)
	require.Equal(t, l.DestinationURL, u.DestinationURL)
	require.Equal(t, l.ID, u.ID)

	w = do(s, "PUT", path, map[string]any{"slug": "b"})
	require.Equal(t, http.StatusConflict, w.Code)

	w = do(s, "DELETE", path, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	w = do(s, "GET", path, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.JSONEq(t, `{"error":"not found"}`, w.Body.String())
	w = do(s, "DELETE", path, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	w = do(s, "GET", "/api/nothing", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func itoa(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}

func TestDownloadQR(t *testing.T) {
	s, _ := newServer(t)
	l := create(t, s, "demo", true)
	path := "/api/links/" + itoa(l.ID) + "/qr.svg"

	w := do(s, "GET", path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))
	require.Equal(t, `attachment; filename="qr-demo.svg"`,
		w.Header().Get("Content-Disposition"))
	body := w.Body.String()
	require.Contains(t, body, `width="1000"`)
	// https://example.com/qr/demo/ is version 3, 29 modules, margin 4.
	require.Contains(t, body, `viewBox="0 0 37 37"`)

	w = do(s, "GET", path+"?size=300", nil)
	require.Contains(t, w.Body.String(), `width="300"`)
	for _, q := range []string{"?size=0", "?size=-5", "?size=big", "?size=100000"} {
		w = do(s, "GET", path+q, nil)
		require.Equal(t, http.StatusBadRequest, w.Code, q)
	}
	w = do(s, "GET", "/api/links/999/qr.svg", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestPreview(t *testing.T) {
	s, _ := newServer(t)
	w := do(s, "GET", "/api/preview?slug=Spring+Promo", nil)
	require.Equal(t, http.StatusOK, w.Code)
	v := decode[map[string]string](t, w)
	require.Equal(t, "https://example.com/qr/spring-promo/", v["url"])
	require.True(t, strings.HasPrefix(v["svg"], "<?xml"))
	require.Contains(t, v["svg"], `width="400"`)
	require.NotContains(t, v["svg"], "QR Generation Error")

	w = do(s, "GET", "/api/preview?slug=!!!", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalytics(t *testing.T) {
	s, st := newServer(t)
	a := create(t, s, "a", true)
	b := create(t, s, "b", true)
	for _, c := range []analytics.Click{
		{LinkID: a.ID, At: now.AddDate(0, 0, -1), Device: analytics.Mobile, Visitor: "1"},
		{LinkID: a.ID, At: now, Device: analytics.Desktop, Country: "DE", Visitor: "2"},
		{LinkID: a.ID, At: now.AddDate(0, 0, -40), Device: analytics.Mobile, Visitor: "1"},
		{LinkID: b.ID, At: now, Device: analytics.Tablet, Visitor: "3"},
	} {
		_, err := st.RecordClick(c)
		require.NoError(t, err)
	}

	w := do(s, "GET", "/api/analytics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	rep := decode[analytics.Report](t, w)
	require.Equal(t, analytics.Totals{Codes: 2, Active: 2, Clicks: 3, Visitors: 3}, rep.Totals)
	require.Equal(t, []analytics.Count{{Key: "2025-03-09", Clicks: 1}, {Key: "2025-03-10", Clicks: 2}}, rep.ByDay)

	w = do(s, "GET", "/api/analytics?link="+itoa(a.ID)+"&start=2025-01-01&end=2025-03-09", nil)
	require.Equal(t, http.StatusOK, w.Code)
	rep = decode[analytics.Report](t, w)
	require.Equal(t, a.ID, rep.LinkID)
	require.Equal(t, analytics.Totals{Codes: 1, Active: 1, Clicks: 2, Visitors: 1}, rep.Totals)
	require.Equal(t, []analytics.Count{{Key: analytics.Mobile, Clicks: 2}}, rep.ByDevice)

	for _, q := range []string{"?link=x", "?start=03/01/2025", "?end=yesterday",
		"?start=2025-03-10&end=2025-03-01"} {
		w = do(s, "GET", "/api/analytics"+q, nil)
		require.Equal(t, http.StatusBadRequest, w.Code, q)
	}
	w = do(s, "GET", "/api/analytics?link=77", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = do(s, "GET", "/api/stats/top?limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	top := decode[[]analytics.LinkCount](t, w)
	require.Len(t, top, 1)
	require.Equal(t, a.ID, top[0].ID)
	require.Equal(t, 3, top[0].Clicks)
	w = do(s, "GET", "/api/stats/top?limit=0", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
