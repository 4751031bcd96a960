// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package api serves tracking redirects, QR images and the admin JSON
// API.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/unixdj/qrtrack/internal/analytics"
	"github.com/unixdj/qrtrack/internal/config"
	"github.com/unixdj/qrtrack/internal/link"
	"github.com/unixdj/qrtrack/internal/logger"
	"github.com/unixdj/qrtrack/internal/store"
)

// Store persists links and clicks.  *store.Store implements it.
type Store interface {
	Create(l *link.Link) error
	Update(l *link.Link) error
	Delete(id int64) error
	Get(id int64) (link.Link, error)
	FindBySlug(slug string) (link.Link, error)
	List(limit, offset int) []link.Link
	Links() []link.Link
	RecordClick(c analytics.Click) (analytics.Click, error)
	Clicks(f analytics.Filter) []analytics.Click
}

// Server handles HTTP requests.
type Server struct {
	cfg    config.Config
	store  Store
	log    *logger.Logger
	hasher *analytics.Hasher
	router *mux.Router

	now func() time.Time
}

// New returns a server for cfg, keeping data in st.
func New(cfg config.Config, st Store, log *logger.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		store:  st,
		log:    log,
		hasher: analytics.NewHasher(cfg.VisitorKey),
		router: mux.NewRouter(),
		now:    time.Now,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(requestID, s.accessLog)
	r.HandleFunc("/health", s.health).Methods("GET")
	r.HandleFunc("/qr/{slug}", s.redirect).Methods("GET")
	r.HandleFunc("/qr/{slug}/", s.redirect).Methods("GET")

	a := r.PathPrefix("/api").Subrouter()
	a.HandleFunc("/links", s.listLinks).Methods("GET")
	a.HandleFunc("/links", s.createLink).Methods("POST")
	a.HandleFunc("/links/{id:[0-9]+}", s.getLink).Methods("GET")
	a.HandleFunc("/links/{id:[0-9]+}", s.updateLink).Methods("PUT")
	a.HandleFunc("/links/{id:[0-9]+}", s.deleteLink).Methods("DELETE")
	a.HandleFunc("/links/{id:[0-9]+}/qr.svg", s.downloadQR).Methods("GET")
	a.HandleFunc("/preview", s.preview).Methods("GET")
	a.HandleFunc("/analytics", s.report).Methods("GET")
	a.HandleFunc("/stats/top", s.top).Methods("GET")
	a.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// fail writes err with a status derived from it.  Unexpected errors
// are logged and reported without detail.
func (s *Server) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrSlugExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, link.ErrInvalid):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.log.Errorf("%v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// intParam returns the integer query parameter name, or def if absent.
func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New("invalid " + name)
	}
	return n, nil
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
