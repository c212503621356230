// Package api exposes the operational HTTP surface: performance stats,
// live sessions and recent journal entries.
package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/fieldmark/framebot/internal/journal"
	"github.com/fieldmark/framebot/internal/monitoring"
	"github.com/fieldmark/framebot/internal/server"
)

// ANSI escape codes for request log colouring
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// JournalReader is the read side of the journal used by the API.
type JournalReader interface {
	Recent(clientID uuid.UUID, limit int) ([]*journal.Entry, error)
	CountForClient(clientID uuid.UUID) (int, error)
}

type Server struct {
	monitor *monitoring.PerformanceMonitor
	intake  *server.Server
	journal JournalReader
}

func NewServer(monitor *monitoring.PerformanceMonitor, intake *server.Server, journal JournalReader) *Server {
	return &Server{
		monitor: monitor,
		intake:  intake,
		journal: journal,
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

// LoggingMiddleware logs method, path, status, and duration
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
	mux.HandleFunc("/api/stats", s.showStats)
	mux.HandleFunc("/api/sessions", s.listSessions)
	mux.HandleFunc("/api/journal/recent", s.listRecentJournal)
	return mux
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) showStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	out := map[string]interface{}{
		"performance": s.monitor.Snapshot(),
	}
	if s.intake != nil {
		out["sessions"] = len(s.intake.Sessions())
	}

	if err := json.NewEncoder(w).Encode(out); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write stats")
		return
	}
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	sessions := s.intake.Sessions()
	infos := make([]server.Info, len(sessions))
	for i, sess := range sessions {
		infos[i] = sess.Snapshot()
	}

	if err := json.NewEncoder(w).Encode(infos); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write sessions")
		return
	}
}

func (s *Server) listRecentJournal(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	clientID, err := uuid.Parse(r.URL.Query().Get("client"))
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "Invalid 'client' parameter")
		return
	}

	limit := 50 // default value
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid 'limit' parameter")
			return
		}
		limit = parsed
	}

	entries, err := s.journal.Recent(clientID, limit)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to retrieve journal entries: %v", err))
		return
	}

	if err := json.NewEncoder(w).Encode(entries); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write journal entries")
		return
	}
}
