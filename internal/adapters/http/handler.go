package httpadapter

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Shaesh-Kuiper/PrivGPT-Studio/internal/app/chat"
	"github.com/Shaesh-Kuiper/PrivGPT-Studio/internal/domain"
	"github.com/Shaesh-Kuiper/PrivGPT-Studio/internal/observability"
)

const maxUploadBytes = 32 << 20

type Server struct {
	svc    *chat.Service
	store  domain.SessionStore
	models domain.ModelLister
}

func NewServer(svc *chat.Service, store domain.SessionStore, models domain.ModelLister) http.Handler {
	s := &Server{svc: svc, store: store, models: models}
	mux := http.NewServeMux()

	// /chat           → POST: non-streaming exchange
	mux.HandleFunc("/chat", s.handleChat)

	// /chat/stream    → POST: SSE exchange
	// /chat/history   → POST: bulk session fetch
	// /chat/rename    → POST: rename session
	// /chat/delete/{id} → DELETE
	// /chat/{id}      → GET: full session document
	mux.HandleFunc("/chat/", s.handleChatSubpath)

	mux.HandleFunc("/clear", s.handleClear)
	mux.HandleFunc("/models", s.handleModels)
	mux.HandleFunc("/healthz", s.handleHealthz)

	return chainMiddlewares(mux, withCORS, withLogging, withRequestID)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type exchangeResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
	Timestamp string `json:"timestamp"`
	Latency   int64  `json:"latency"`
}

type messageResponse struct {
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	Timestamp string           `json:"timestamp"`
	ModelName string           `json:"model_name,omitempty"`
	File      *domain.FileInfo `json:"uploaded_file,omitempty"`
}

type sessionResponse struct {
	SessionID   string            `json:"session_id"`
	SessionName string            `json:"session_name"`
	Messages    []messageResponse `json:"messages"`
	CreatedAt   string            `json:"created_at"`
}

type historyRequest struct {
	SessionIDs []string `json:"session_ids"`
}

type renameRequest struct {
	SessionID string `json:"session_id"`
	NewName   string `json:"new_name"`
}

type clearRequest struct {
	SessionID string `json:"session_id"`
}

type modelsResponse struct {
	LocalModels []string `json:"local_models"`
	CloudModels []string `json:"cloud_models"`
}

// ─────────────────────────────────────────────
// Routing
// ─────────────────────────────────────────────

func (s *Server) handleChatSubpath(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/chat/")
	if path == "" {
		http.NotFound(w, r)
		return
	}

	parts := strings.Split(path, "/")

	switch {
	case len(parts) == 1 && parts[0] == "stream":
		requireMethod(w, r, http.MethodPost, s.handleChatStream)
	case len(parts) == 1 && parts[0] == "history":
		requireMethod(w, r, http.MethodPost, s.handleHistory)
	case len(parts) == 1 && parts[0] == "rename":
		requireMethod(w, r, http.MethodPost, s.handleRename)
	case len(parts) == 2 && parts[0] == "delete":
		if r.Method != http.MethodDelete {
			methodNotAllowed(w)
			return
		}
		s.handleDelete(w, r, parts[1])
	case len(parts) == 1:
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		s.handleGetSession(w, r, parts[0])
	default:
		http.NotFound(w, r)
	}
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string, h http.HandlerFunc) {
	if r.Method != method {
		methodNotAllowed(w)
		return
	}
	h(w, r)
}

// ─────────────────────────────────────────────
// Exchange handlers
// ─────────────────────────────────────────────

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	in, err := parseExchangeForm(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	prep, err := s.svc.PrepareExchange(r.Context(), in)
	if err != nil {
		writeExchangeError(w, err)
		return
	}

	out, err := s.svc.RunExchange(r.Context(), prep)
	if err != nil {
		writeExchangeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, exchangeResponse{
		Response:  out.Response,
		SessionID: string(out.SessionID),
		Timestamp: out.Timestamp.Format(time.RFC3339Nano),
		Latency:   out.Latency,
	})
}

func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	in, err := parseExchangeForm(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	prep, err := s.svc.PrepareExchange(r.Context(), in)
	if err != nil {
		writeExchangeError(w, err)
		return
	}

	// Media attachments are always a single non-streaming cloud call:
	// the reply comes back as plain JSON even on the stream route.
	if prep.Media() {
		out, err := s.svc.RunExchange(r.Context(), prep)
		if err != nil {
			writeExchangeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, exchangeResponse{
			Response:  out.Response,
			SessionID: string(out.SessionID),
			Timestamp: out.Timestamp.Format(time.RFC3339Nano),
			Latency:   out.Latency,
		})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		internalError(w, errors.New("streaming unsupported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	emit := func(ev chat.Event) error {
		data, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		if _, err := w.Write([]byte("data: " + string(data) + "\n\n")); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	if err := s.svc.StreamExchange(r.Context(), prep, emit); err != nil {
		observability.LoggerFromContext(r.Context()).Error("stream exchange failed", "error", err)
	}
}

// writeExchangeError maps service errors to the right terminal status.
func writeExchangeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chat.ErrUnsupportedFileType),
		errors.Is(err, chat.ErrEmptyFilename),
		errors.Is(err, chat.ErrLocalFileUnsupported):
		badRequest(w, err.Error())
	case errors.Is(err, domain.ErrSessionNotFound):
		notFound(w, "Session not found")
	default:
		internalError(w, err)
	}
}

// parseExchangeForm reads the multipart (or url-encoded) exchange form.
func parseExchangeForm(r *http.Request) (chat.ExchangeInput, error) {
	var in chat.ExchangeInput

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return in, err
	}

	sessionID := r.PostFormValue("session_id")
	if sessionID == "" {
		sessionID = string(domain.SentinelSessionID)
	}

	in = chat.ExchangeInput{
		Message:     r.PostFormValue("message"),
		ModelType:   domain.ModelType(r.PostFormValue("model_type")),
		ModelName:   r.PostFormValue("model_name"),
		SessionID:   domain.SessionID(sessionID),
		SessionName: r.PostFormValue("session_name"),
		MentionIDs:  r.PostForm["mention_session_ids[]"],
	}

	if r.MultipartForm != nil {
		if fhs := r.MultipartForm.File["uploaded_file"]; len(fhs) > 0 {
			fh := fhs[0]
			f, err := fh.Open()
			if err != nil {
				return in, err
			}
			defer f.Close()

			data, err := io.ReadAll(f)
			if err != nil {
				return in, err
			}

			in.Attachment = &domain.Attachment{
				Filename: fh.Filename,
				MIME:     fh.Header.Get("Content-Type"),
				Data:     data,
			}
		}
	}

	return in, nil
}

// ─────────────────────────────────────────────
// Session handlers
// ─────────────────────────────────────────────

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	var req historyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	ids := make([]domain.SessionID, 0, len(req.SessionIDs))
	for _, id := range req.SessionIDs {
		if uuid.Validate(id) != nil {
			badRequest(w, "Invalid session ID format")
			return
		}
		ids = append(ids, domain.SessionID(id))
	}

	sessions, err := s.store.Sessions(r.Context(), ids)
	if err != nil {
		internalError(w, err)
		return
	}

	out := make([]sessionResponse, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, toSessionResponse(sess))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request, id string) {
	if uuid.Validate(id) != nil {
		badRequest(w, "Invalid session ID")
		return
	}

	sessions, err := s.store.Sessions(r.Context(), []domain.SessionID{domain.SessionID(id)})
	if err != nil {
		internalError(w, err)
		return
	}
	if len(sessions) == 0 {
		notFound(w, "Session not found")
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(sessions[0]))
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if req.SessionID == "" || req.NewName == "" {
		badRequest(w, "Missing session_id or new_name")
		return
	}
	if uuid.Validate(req.SessionID) != nil {
		badRequest(w, "Invalid session ID")
		return
	}

	err := s.store.Rename(r.Context(), domain.SessionID(req.SessionID), req.NewName)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			notFound(w, "Session not found")
			return
		}
		internalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Session renamed successfully",
	})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req clearRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if req.SessionID == "" {
		badRequest(w, "Missing session_id")
		return
	}
	if uuid.Validate(req.SessionID) != nil {
		badRequest(w, "Invalid session ID")
		return
	}

	err := s.store.Clear(r.Context(), domain.SessionID(req.SessionID))
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			notFound(w, "Session not found")
			return
		}
		internalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":     "cleared",
		"session_id": req.SessionID,
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request, id string) {
	if uuid.Validate(id) != nil {
		badRequest(w, "Invalid session_id")
		return
	}

	err := s.store.Delete(r.Context(), domain.SessionID(id))
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			notFound(w, "Chat session not found")
			return
		}
		internalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Chat deleted successfully",
	})
}

// ─────────────────────────────────────────────
// Discovery and health
// ─────────────────────────────────────────────

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	// Local discovery failure yields an empty list, never an error.
	local, err := s.models.ListModels(r.Context())
	if err != nil {
		observability.LoggerFromContext(r.Context()).Warn("local model discovery failed", "error", err)
		local = nil
	}
	if local == nil {
		local = []string{}
	}

	writeJSON(w, http.StatusOK, modelsResponse{
		LocalModels: local,
		CloudModels: []string{chat.CloudModelName},
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.Count(r.Context())
	if err != nil {
		internalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": count,
	})
}

// ─────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────

func toSessionResponse(sess *domain.Session) sessionResponse {
	msgs := make([]messageResponse, 0, len(sess.Messages))
	for _, m := range sess.Messages {
		msgs = append(msgs, messageResponse{
			Role:      string(m.Role),
			Content:   m.Content,
			Timestamp: m.CreatedAt.Format(time.RFC3339Nano),
			ModelName: m.ModelName,
			File:      m.File,
		})
	}
	return sessionResponse{
		SessionID:   string(sess.ID),
		SessionName: sess.Name,
		Messages:    msgs,
		CreatedAt:   sess.CreatedAt.Format(time.RFC3339Nano),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

func notFound(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusNotFound, map[string]string{"error": msg})
}

func internalError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
}
