// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

// Package server exposes a message registry over HTTP: schema listing and
// introspection, and conversion of CDR-serialized messages into Arrow IPC
// streams.
package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/istvan-fodor/r2a/r2a"
	"github.com/istvan-fodor/r2a/sink"
	"github.com/istvan-fodor/r2a/transport"
)

const (
	arrowContentType = "application/vnd.apache.arrow.stream"
	defaultPrefix    = "/r2a"
	defaultMaxBody   = 64 << 20
)

// RejectedHeader carries the number of frames skipped by a convert request
// with skip_invalid set.
const RejectedHeader = "X-R2A-Rejected"

// Option configures a Server.
type Option func(*Server)

// WithPrefix sets the URL prefix of every route except /metrics.
func WithPrefix(prefix string) Option {
	return func(s *Server) { s.prefix = strings.TrimSuffix(prefix, "/") }
}

// WithLogger sets the logger used for request and error logging.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMaxBodySize bounds the size of a convert request body.
func WithMaxBodySize(n int64) Option {
	return func(s *Server) { s.maxBody = n }
}

// WithMetrics replaces the server's metrics.
func WithMetrics(m *Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// Server serves a registry over HTTP.
type Server struct {
	registry *r2a.Registry
	prefix   string
	maxBody  int64
	logger   *zap.Logger
	metrics  *Metrics
	mux      *http.ServeMux

	landingHTML  []byte
	notFoundHTML []byte
}

// New creates a server for reg.
func New(reg *r2a.Registry, opts ...Option) *Server {
	s := &Server{
		registry: reg,
		prefix:   defaultPrefix,
		maxBody:  defaultMaxBody,
	}
	for _, o := range opts {
		o(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.metrics == nil {
		s.metrics = NewMetrics("r2a")
	}

	m := s.metrics
	s.mux = http.NewServeMux()
	s.mux.HandleFunc(fmt.Sprintf("GET %s/schemas", s.prefix), m.instrument("schemas", s.handleSchemas))
	s.mux.HandleFunc(fmt.Sprintf("GET %s/schemas/{type...}", s.prefix), m.instrument("schema", s.handleSchema))
	s.mux.HandleFunc(fmt.Sprintf("GET %s/__describe__", s.prefix), m.instrument("describe", s.handleDescribe))
	s.mux.HandleFunc(fmt.Sprintf("GET %s/describe", s.prefix), m.instrument("describe_page", s.handleDescribePage))
	s.mux.HandleFunc(fmt.Sprintf("POST %s/{pkg}/{ns}/{name}/convert", s.prefix), m.instrument("convert", s.handleConvert))
	s.mux.HandleFunc(fmt.Sprintf("GET %s/{$}", s.prefix), m.instrument("landing", s.handleLandingPage))
	s.mux.Handle("GET /metrics", m.Handler())
	s.mux.HandleFunc("/", s.handleNotFound)

	s.landingHTML = buildLandingHTML(s.prefix)
	s.notFoundHTML = buildNotFoundHTML(s.prefix)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Metrics returns the server's metrics.
func (s *Server) Metrics() *Metrics { return s.metrics }

func (s *Server) handleSchemas(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.registry.SupportedSchemas())
}

// handleSchema returns the Arrow schema of one type as an IPC stream, or
// its description when JSON is requested.
func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("type")
	schema, err := s.registry.SchemaFor(name)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		s.writeJSON(w, http.StatusOK, Describe(schema))
		return
	}
	s.writeArrow(w, http.StatusOK, SerializeSchema(schema.ArrowSchema(r.URL.Query().Get("message_struct") == "true")))
}

func (s *Server) handleDescribe(w http.ResponseWriter, r *http.Request) {
	batch, err := DescribeBatch(s.registry, s.registry.SupportedSchemas())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	defer batch.Release()

	var buf bytes.Buffer
	iw, err := sink.NewIPCWriter(&buf, batch.Schema(), sink.CompressionNone)
	if err == nil {
		err = iw.WriteBatch(r.Context(), batch)
		if cerr := iw.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeArrow(w, http.StatusOK, buf.Bytes())
}

// handleConvert reads length-prefixed CDR frames and answers with one
// record batch holding a row per frame.
//
// Query parameters:
//
//	fields=a,b.c      bound columns (default: every top-level field)
//	flat=true         bind every leaf path instead
//	skip_invalid=true skip frames that fail to convert instead of failing
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	typeName := r.PathValue("pkg") + "/" + r.PathValue("ns") + "/" + r.PathValue("name")
	sup, err := s.registry.Support(typeName)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}

	q := r.URL.Query()
	var rb *r2a.RowBuilder
	if q.Get("flat") == "true" {
		rb, err = sup.NewFlatRowBuilder()
	} else {
		rb, err = sup.NewRowBuilder(splitFields(q.Get("fields"))...)
	}
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	defer rb.Release()
	skipInvalid := q.Get("skip_invalid") == "true"

	frames := transport.NewFrameReader(http.MaxBytesReader(w, r.Body, s.maxBody), "")
	rejected := 0
	for n := 0; ; n++ {
		frame, err := frames.Receive(r.Context())
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			code := http.StatusBadRequest
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				code = http.StatusRequestEntityTooLarge
			}
			s.writeError(w, code, fmt.Errorf("reading frame %d: %w", n, err))
			return
		}
		if err := rb.AppendRaw(frame.Payload); err != nil {
			s.metrics.FramesRejected.WithLabelValues(typeName).Inc()
			if !skipInvalid {
				s.writeError(w, statusFor(err), fmt.Errorf("frame %d: %w", n, err))
				return
			}
			rejected++
			s.logger.Debug("skipped frame", zap.String("type", typeName), zap.Int("frame", n), zap.Error(err))
		}
	}

	schema := rb.Schema()
	cols, err := rb.Finalize()
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	defer r2a.ReleaseColumns(cols)
	md := schema.Metadata()
	batch := r2a.NewRecordBatch(cols, &md)
	defer batch.Release()

	var buf bytes.Buffer
	iw, err := sink.NewIPCWriter(&buf, schema, sink.CompressionNone)
	if err == nil {
		err = iw.WriteBatch(r.Context(), batch)
		if cerr := iw.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.metrics.RowsConverted.WithLabelValues(typeName).Add(float64(batch.NumRows()))
	w.Header().Set(RejectedHeader, strconv.Itoa(rejected))
	s.writeArrow(w, http.StatusOK, buf.Bytes())
}

func splitFields(v string) []string {
	var out []string
	for _, f := range strings.Split(v, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// statusFor maps an error kind to an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, r2a.ErrConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, r2a.ErrSchemaMismatch), errors.Is(err, r2a.ErrConversion):
		return http.StatusUnprocessableEntity
	case errors.Is(err, r2a.ErrUnsupportedType):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// --- Helpers ---

func (s *Server) writeError(w http.ResponseWriter, statusCode int, err error) {
	if statusCode >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(statusCode)
	_, _ = io.WriteString(w, err.Error()+"\n")
}

func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, _ = w.Write(data)
}

func (s *Server) writeArrow(w http.ResponseWriter, statusCode int, data []byte) {
	w.Header().Set("Content-Type", arrowContentType)
	w.WriteHeader(statusCode)
	_, _ = w.Write(data)
}
