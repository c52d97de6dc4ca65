// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

// Package api serves the stored device data over HTTP.
//
//     GET  /data/{system}   the last receptions of a system, by data id
//     POST /data/{system}   queue data to be sent to a system
package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/cors"

	"go.e43.eu/m3da/internal/observability"
	"go.e43.eu/m3da/internal/store"
)

const dataPrefix = "/data/"

var json = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

type API struct {
	store   store.Store
	logger  kitlog.Logger
	metrics *observability.Metrics
}

// New returns an API over st. A nil metrics gets a private instance.
func New(st store.Store, logger kitlog.Logger, metrics *observability.Metrics) *API {
	if metrics == nil {
		metrics = observability.NewMetrics()
	}
	return &API{
		store:   st,
		logger:  observability.Component(logger, "api"),
		metrics: metrics,
	}
}

// Handler returns the HTTP handler, which accepts cross origin requests
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(dataPrefix, a.serveData)

	c := cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(a.instrument(mux))
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func (a *API) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)

		code := strconv.Itoa(rec.code)
		a.metrics.Requests.With("method", r.Method, "code", code).Add(1)

		logger := level.Info(a.logger)
		if rec.code >= http.StatusInternalServerError {
			logger = level.Error(a.logger)
		}
		logger.Log("event", "request",
			"method", r.Method,
			"path", r.URL.Path,
			"code", code,
			"duration", time.Since(start))
	})
}

func (a *API) serveData(w http.ResponseWriter, r *http.Request) {
	system := strings.TrimPrefix(r.URL.Path, dataPrefix)
	if system == "" {
		http.Error(w, "no system id in the path", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.getData(w, system)
	case http.MethodPost:
		a.postData(w, r, system)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (a *API) getData(w http.ResponseWriter, system string) {
	data, err := a.store.LastReceived(system)
	if err != nil {
		level.Error(a.logger).Log("event", "read failed", "system", system, "err", err)
		http.Error(w, "store unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(MapReceived(data)); err != nil {
		level.Warn(a.logger).Log("event", "write failed", "system", system, "err", err)
	}
}

func (a *API) postData(w http.ResponseWriter, r *http.Request, system string) {
	var body interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	msgs, err := ParseMessages(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := a.store.EnqueueToSend(system, msgs); err != nil {
		level.Error(a.logger).Log("event", "enqueue failed", "system", system, "err", err)
		http.Error(w, "store unavailable", http.StatusInternalServerError)
		return
	}

	level.Info(a.logger).Log("event", "queued", "system", system, "messages", len(msgs))
	w.WriteHeader(http.StatusAccepted)
}
