// Package api exposes the mold generation pipeline and image operations
// over HTTP.
package api

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/candlr-app/candlr/internal/db"
	"github.com/candlr-app/candlr/internal/genai"
	"github.com/candlr-app/candlr/internal/imagelog"
	"github.com/candlr-app/candlr/internal/mold"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	gen    *mold.Generator
	ai     *genai.Service
	db     *db.DB
	images *imagelog.Logger
}

// NewServer wires the pipeline, image service, history database and
// optional image logger (nil disables capture) into one handler set.
func NewServer(gen *mold.Generator, ai *genai.Service, database *db.DB, images *imagelog.Logger) *Server {
	return &Server{
		gen:    gen,
		ai:     ai,
		db:     database,
		images: images,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/generate-mold", s.generateMold)
	mux.HandleFunc("/api/create-depth-map", s.createDepthMap)
	mux.HandleFunc("/api/extract-subject", s.extractSubject)
	mux.HandleFunc("/api/generate-image", s.generateImage)
	mux.HandleFunc("/api/prompts", s.listPrompts)
	mux.HandleFunc("/api/generations", s.listGenerations)
	mux.HandleFunc("/debug/heightfield", s.debugHeightfield)
	mux.HandleFunc("/health", s.health)
	return mux
}
