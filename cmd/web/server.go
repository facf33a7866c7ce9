package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"lixi-studio/internal/envelope"
	"lixi-studio/internal/session"
	"lixi-studio/internal/studio"
)

const (
	sessionCookie  = "lixi_session"
	maxUploadBytes = 25 << 20
)

type server struct {
	studio         *studio.Service
	logger         *slog.Logger
	requestTimeout time.Duration
	static         fs.FS
}

type apiError struct {
	Error string `json:"error"`
}

type catalogResponse struct {
	Concepts     []envelope.Concept         `json:"concepts"`
	Characters   []envelope.SelectionOption `json:"characters"`
	Vectors      []envelope.SelectionOption `json:"vectors"`
	Typographies []envelope.SelectionOption `json:"typographies"`
	Wishes       []string                   `json:"wishes"`
	Brand        envelope.Brand             `json:"brand"`
	CustomID     string                     `json:"customCharacterId"`
}

// stateView is the wire form of a session: images travel as data URLs.
type stateView struct {
	ActiveConcept      string                              `json:"activeConcept"`
	Side               envelope.Side                       `json:"side"`
	SelectedCharacters []string                            `json:"selectedCharacters"`
	SelectedVectors    []string                            `json:"selectedVectors"`
	SelectedTypography string                              `json:"selectedTypography"`
	GreetingText       string                              `json:"greetingText"`
	Logo               string                              `json:"logo,omitempty"`
	PersonalPhoto      string                              `json:"personalPhoto,omitempty"`
	Results            map[string]map[envelope.Side]string `json:"results"`
	Preview            string                              `json:"preview,omitempty"`
	Generating         map[envelope.Side]bool              `json:"generating"`
	Error              string                              `json:"error,omitempty"`
	DownloadName       string                              `json:"downloadName,omitempty"`
}

type idRequest struct {
	ID string `json:"id"`
}

type textRequest struct {
	Text string `json:"text"`
}

type wishRequest struct {
	Index int `json:"index"`
}

type sideRequest struct {
	Side string `json:"side"`
}

type promptResponse struct {
	Side   envelope.Side `json:"side"`
	Prompt string        `json:"prompt"`
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/catalog", s.handleCatalog)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("POST /api/concept", s.handleConcept)
	mux.HandleFunc("POST /api/characters/toggle", s.handleToggleCharacter)
	mux.HandleFunc("POST /api/vectors/toggle", s.handleToggleVector)
	mux.HandleFunc("POST /api/typography", s.handleTypography)
	mux.HandleFunc("POST /api/greeting", s.handleGreeting)
	mux.HandleFunc("POST /api/wish", s.handleWish)
	mux.HandleFunc("POST /api/side", s.handleSide)
	mux.HandleFunc("POST /api/logo", s.handleUploadLogo)
	mux.HandleFunc("DELETE /api/logo", s.handleClearLogo)
	mux.HandleFunc("POST /api/photo", s.handleUploadPhoto)
	mux.HandleFunc("DELETE /api/photo", s.handleClearPhoto)
	mux.HandleFunc("POST /api/generate", s.handleGenerate)
	mux.HandleFunc("GET /api/prompt", s.handlePrompt)
	mux.HandleFunc("GET /api/download", s.handleDownload)
	mux.HandleFunc("POST /api/reset", s.handleReset)

	if s.static != nil {
		mux.Handle("/", http.FileServer(http.FS(s.static)))
	}

	return withLogging(mux, s.logger)
}

func (s *server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	cat := s.studio.Catalog()
	writeJSON(w, http.StatusOK, catalogResponse{
		Concepts:     cat.Concepts(),
		Characters:   cat.Characters(),
		Vectors:      cat.Vectors(),
		Typographies: cat.Typographies(),
		Wishes:       cat.Wishes(),
		Brand:        s.studio.Brand(),
		CustomID:     envelope.CustomCharacterID,
	})
}

func (s *server) handleState(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(w, r)
	writeJSON(w, http.StatusOK, s.view(s.studio.Session(id)))
}

func (s *server) handleConcept(w http.ResponseWriter, r *http.Request) {
	var req idRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.apply(w, r, func(st *envelope.State, cat *envelope.Catalog) { st.SelectConcept(cat, req.ID) })
}

func (s *server) handleToggleCharacter(w http.ResponseWriter, r *http.Request) {
	var req idRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.apply(w, r, func(st *envelope.State, cat *envelope.Catalog) { st.ToggleCharacter(cat, req.ID) })
}

func (s *server) handleToggleVector(w http.ResponseWriter, r *http.Request) {
	var req idRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.apply(w, r, func(st *envelope.State, cat *envelope.Catalog) { st.ToggleVector(cat, req.ID) })
}

func (s *server) handleTypography(w http.ResponseWriter, r *http.Request) {
	var req idRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.apply(w, r, func(st *envelope.State, cat *envelope.Catalog) { st.SelectTypography(cat, req.ID) })
}

func (s *server) handleGreeting(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.apply(w, r, func(st *envelope.State, _ *envelope.Catalog) { st.SetGreeting(req.Text) })
}

func (s *server) handleWish(w http.ResponseWriter, r *http.Request) {
	var req wishRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.apply(w, r, func(st *envelope.State, cat *envelope.Catalog) { st.SelectWish(cat, req.Index) })
}

func (s *server) handleSide(w http.ResponseWriter, r *http.Request) {
	var req sideRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	side, err := envelope.ParseSide(req.Side)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}
	s.apply(w, r, func(st *envelope.State, _ *envelope.Catalog) { st.SetSide(side) })
}

func (s *server) handleUploadLogo(w http.ResponseWriter, r *http.Request) {
	s.upload(w, r, s.studio.UploadLogo)
}

func (s *server) handleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	s.upload(w, r, s.studio.UploadPhoto)
}

func (s *server) handleClearLogo(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(w, r)
	writeJSON(w, http.StatusOK, s.view(s.studio.ClearLogo(id)))
}

func (s *server) handleClearPhoto(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(w, r)
	writeJSON(w, http.StatusOK, s.view(s.studio.ClearPhoto(id)))
}

func (s *server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(w, r)

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	var err error
	switch raw := strings.TrimSpace(r.URL.Query().Get("side")); raw {
	case "both":
		err = s.studio.GenerateBoth(ctx, id)
	default:
		side := s.studio.Session(id).State.Side
		if raw != "" {
			if side, err = envelope.ParseSide(raw); err != nil {
				writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
				return
			}
		}
		_, err = s.studio.Generate(ctx, id, side)
	}

	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, session.ErrGenerationInFlight) {
			status = http.StatusConflict
		}
		writeJSON(w, status, apiError{Error: studio.UserMessage(err)})
		return
	}

	writeJSON(w, http.StatusOK, s.view(s.studio.Session(id)))
}

func (s *server) handlePrompt(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(w, r)

	side := s.studio.Session(id).State.Side
	if raw := strings.TrimSpace(r.URL.Query().Get("side")); raw != "" {
		parsed, err := envelope.ParseSide(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
			return
		}
		side = parsed
	}

	writeJSON(w, http.StatusOK, promptResponse{Side: side, Prompt: s.studio.Prompt(id, side)})
}

func (s *server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(w, r)

	name, img, err := s.studio.Download(id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, apiError{Error: "no preview to download"})
		return
	}

	w.Header().Set("content-type", img.MimeType)
	w.Header().Set("content-disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("content-length", strconv.Itoa(len(img.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img.Data)
}

func (s *server) handleReset(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(w, r)
	writeJSON(w, http.StatusOK, s.view(s.studio.Reset(id)))
}

func (s *server) apply(w http.ResponseWriter, r *http.Request, fn func(*envelope.State, *envelope.Catalog)) {
	id := s.sessionID(w, r)
	writeJSON(w, http.StatusOK, s.view(s.studio.Apply(id, fn)))
}

func (s *server) upload(w http.ResponseWriter, r *http.Request, store func(string, io.Reader, string) (session.Session, error)) {
	id := s.sessionID(w, r)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid multipart form"})
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "missing image"})
		return
	}
	defer file.Close()

	sess, err := store(id, file, header.Header.Get("Content-Type"))
	if err != nil {
		s.logger.Warn("upload rejected", "session", id, "path", r.URL.Path, "err", err)
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, s.view(sess))
}

// sessionID returns the caller's session, issuing a cookie on first visit.
func (s *server) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func (s *server) view(sess session.Session) stateView {
	st := sess.State
	v := stateView{
		ActiveConcept:      st.ActiveConcept,
		Side:               st.Side,
		SelectedCharacters: st.SelectedCharacters,
		SelectedVectors:    st.SelectedVectors,
		SelectedTypography: st.SelectedTypography,
		GreetingText:       st.GreetingText,
		Results:            make(map[string]map[envelope.Side]string, len(st.Results)),
		Generating:         sess.Generating,
		Error:              sess.Error,
	}
	if st.Logo != nil {
		v.Logo = st.Logo.DataURL()
	}
	if st.PersonalPhoto != nil {
		v.PersonalPhoto = st.PersonalPhoto.DataURL()
	}
	for concept, bySide := range st.Results {
		m := make(map[envelope.Side]string, len(bySide))
		for side, img := range bySide {
			m[side] = img.DataURL()
		}
		v.Results[concept] = m
	}
	if img, ok := st.Preview(); ok {
		v.Preview = img.DataURL()
		v.DownloadName = envelope.DownloadName(s.studio.Brand(), st.ActiveConcept, st.Side)
	}
	return v
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid json body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func withLogging(next http.Handler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("http",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"dur_ms", time.Since(start).Milliseconds(),
		)
	})
}
