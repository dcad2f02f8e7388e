package main

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"mediscribe/auth"
	"mediscribe/domain"
	apperrors "mediscribe/errors"
	"mediscribe/services"
)

// apiServer is a thin reference adapter: it translates the inbound intent
// surface onto the consultation service and nothing more. The production
// web API lives outside this repository and is expected to do the same.
type apiServer struct {
	service     services.IConsultationService
	attribution *auth.Attribution
	log         *slog.Logger
}

func newAPIServer(service services.IConsultationService, attribution *auth.Attribution, log *slog.Logger) *apiServer {
	return &apiServer{service: service, attribution: attribution, log: log}
}

func (s *apiServer) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /consultations", s.withActor(s.handleStart))
	mux.HandleFunc("POST /consultations/{id}/audio", s.withActor(s.handleAttachAudio))
	mux.HandleFunc("PUT /consultations/{id}/sections/{section}", s.withActor(s.handleUpdateSection))
	mux.HandleFunc("POST /consultations/{id}/amendments", s.withActor(s.handleAmendSection))
	mux.HandleFunc("POST /consultations/{id}/finalize", s.withActor(s.handleFinalize))
	mux.HandleFunc("GET /consultations/{id}/note", s.handleNote)
	mux.HandleFunc("GET /consultations/{id}/verify", s.handleVerify)
	mux.HandleFunc("GET /consultations/{id}/export", s.handleExport)
	mux.HandleFunc("GET /search", s.handleSearch)
	return mux
}

type actorHandler func(w http.ResponseWriter, r *http.Request, actorID string)

// withActor resolves the bearer token into an actor id so every appended
// event is attributed. No roles-based authorization happens here.
func (s *apiServer) withActor(next actorHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			writeError(w, http.StatusUnauthorized, apperrors.ErrInvalidActorToken)
			return
		}

		claims, err := s.attribution.ParseActorToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err)
			return
		}
		next(w, r, claims.ActorID)
	}
}

func (s *apiServer) handleStart(w http.ResponseWriter, r *http.Request, actorID string) {
	var body struct {
		ConsultationID string `json:"consultation_id"`
		PatientRef     string `json:"patient_ref"`
		ClinicianID    string `json:"clinician_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	stored, err := s.service.Start(r.Context(), domain.StartConsultation{
		ConsultationID: domain.ConsultationID(body.ConsultationID),
		ActorID:        actorID,
		PatientRef:     body.PatientRef,
		ClinicianID:    body.ClinicianID,
	})
	s.respond(w, stored, err, http.StatusCreated)
}

func (s *apiServer) handleAttachAudio(w http.ResponseWriter, r *http.Request, actorID string) {
	var body struct {
		AudioRef string `json:"audio_ref"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	stored, err := s.service.AttachAudio(r.Context(), domain.AttachAudio{
		ConsultationID: domain.ConsultationID(r.PathValue("id")),
		ActorID:        actorID,
		AudioRef:       domain.AudioRef(body.AudioRef),
	})
	s.respond(w, stored, err, http.StatusAccepted)
}

func (s *apiServer) handleUpdateSection(w http.ResponseWriter, r *http.Request, actorID string) {
	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	stored, err := s.service.UpdateSection(r.Context(), domain.UpdateSection{
		ConsultationID: domain.ConsultationID(r.PathValue("id")),
		ActorID:        actorID,
		Section:        domain.Section(r.PathValue("section")),
		Content:        body.Content,
	})
	s.respond(w, stored, err, http.StatusOK)
}

func (s *apiServer) handleAmendSection(w http.ResponseWriter, r *http.Request, actorID string) {
	var body struct {
		Section string `json:"section"`
		Content string `json:"content"`
		Reason  string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	stored, err := s.service.AmendSection(r.Context(), domain.AmendSection{
		ConsultationID: domain.ConsultationID(r.PathValue("id")),
		ActorID:        actorID,
		Section:        domain.Section(body.Section),
		Content:        body.Content,
		Reason:         body.Reason,
	})
	s.respond(w, stored, err, http.StatusCreated)
}

func (s *apiServer) handleFinalize(w http.ResponseWriter, r *http.Request, actorID string) {
	stored, err := s.service.Finalize(r.Context(), domain.Finalize{
		ConsultationID: domain.ConsultationID(r.PathValue("id")),
		ActorID:        actorID,
	})
	s.respond(w, stored, err, http.StatusOK)
}

func (s *apiServer) handleNote(w http.ResponseWriter, r *http.Request) {
	note, err := s.service.Note(r.Context(), domain.ConsultationID(r.PathValue("id")))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (s *apiServer) handleVerify(w http.ResponseWriter, r *http.Request) {
	err := s.service.Verify(r.Context(), domain.ConsultationID(r.PathValue("id")))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *apiServer) handleExport(w http.ResponseWriter, r *http.Request) {
	cid := domain.ConsultationID(r.PathValue("id"))

	if r.URL.Query().Get("format") == "pdf" {
		pdf, err := s.service.ExportPDF(r.Context(), cid)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		if _, err := w.Write(pdf); err != nil {
			s.log.Warn("Failed to write pdf response", "error", err)
		}
		return
	}

	bundle, err := s.service.Export(r.Context(), cid)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, bundle)
}

func (s *apiServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	hits, err := s.service.SearchTranscripts(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, hits)
}

func (s *apiServer) respond(w http.ResponseWriter, payload any, err error, okStatus int) {
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, okStatus, payload)
}

// statusFor maps the error taxonomy onto HTTP statuses: business-rule
// rejections are client errors, races are retryable conflicts, integrity
// failures are server-side faults for the operator.
func statusFor(err error) int {
	switch {
	case stderrors.Is(err, apperrors.ErrValidation),
		stderrors.Is(err, apperrors.ErrUnsupportedAudio):
		return http.StatusBadRequest
	case stderrors.Is(err, apperrors.ErrConsultationNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, apperrors.ErrAlreadyStarted),
		stderrors.Is(err, apperrors.ErrSequenceConflict):
		return http.StatusConflict
	case stderrors.Is(err, apperrors.ErrConsultationClosed),
		stderrors.Is(err, apperrors.ErrPendingAudio),
		stderrors.Is(err, apperrors.ErrNotFinalized):
		return http.StatusUnprocessableEntity
	case stderrors.Is(err, apperrors.ErrChainBroken),
		stderrors.Is(err, apperrors.ErrSequenceGap),
		stderrors.Is(err, apperrors.ErrMissingGenesis):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
