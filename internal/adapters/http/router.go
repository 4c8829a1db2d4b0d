package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/vmoroz/petition-assistant/internal/core/domain"
	"github.com/vmoroz/petition-assistant/internal/core/ports"
	"github.com/vmoroz/petition-assistant/internal/core/tracker"
)

type Config struct {
	ServiceName    string
	APIToken       string
	RateLimitRPS   int
	RateLimitBurst int
}

type Router struct {
	cases    ports.CaseService
	ingest   ports.DocumentIngestor
	docs     ports.DocumentService
	submit   ports.PetitionSubmitter
	sessions ports.SessionCache
	matcher  ports.LawyerMatcher
	statuses tracker.StatusSource
	tracker  *tracker.Tracker

	validator *RequestValidator
	metrics   TrackerMetrics
	logger    *slog.Logger
	cfg       Config
}

// TrackerMetrics records the lifecycle of status stream subscriptions.
type TrackerMetrics interface {
	SubscriptionStarted()
	SubscriptionFinished(service, reason string)
}

func NewRouter(
	cases ports.CaseService,
	ingest ports.DocumentIngestor,
	docs ports.DocumentService,
	submit ports.PetitionSubmitter,
	sessions ports.SessionCache,
	matcher ports.LawyerMatcher,
	statuses tracker.StatusSource,
	statusTracker *tracker.Tracker,
	validator *RequestValidator,
	logger *slog.Logger,
	cfg Config,
) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		cases:     cases,
		ingest:    ingest,
		docs:      docs,
		submit:    submit,
		sessions:  sessions,
		matcher:   matcher,
		statuses:  statuses,
		tracker:   statusTracker,
		validator: validator,
		logger:    logger,
		cfg:       cfg,
	}
}

// WithMetrics attaches subscription metrics to the status stream.
func (rt *Router) WithMetrics(m TrackerMetrics) *Router {
	rt.metrics = m
	return rt
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)

	mux.HandleFunc("POST /v1/cases", rt.openCase)
	mux.HandleFunc("GET /v1/cases/{case_id}", rt.getCase)
	mux.HandleFunc("GET /v1/cases/{case_id}/status", rt.getStatus)
	mux.HandleFunc("GET /v1/cases/{case_id}/status/stream", rt.streamStatus)
	mux.HandleFunc("POST /v1/cases/{case_id}/submit", rt.submitPetition)
	mux.HandleFunc("GET /v1/cases/{case_id}/summaries", rt.getSummaries)
	mux.HandleFunc("GET /v1/cases/{case_id}/result", rt.getResult)
	mux.HandleFunc("GET /v1/cases/{case_id}/report.xlsx", rt.getFieldStatsReport)
	mux.HandleFunc("GET /v1/cases/{case_id}/documents", rt.listCaseDocuments)

	mux.HandleFunc("POST /v1/documents", rt.uploadDocument)
	mux.HandleFunc("GET /v1/documents/{document_id}", rt.getDocumentByID)
	mux.HandleFunc("DELETE /v1/documents/{document_id}", rt.deleteDocument)

	mux.HandleFunc("GET /v1/lawyers/match", rt.matchLawyers)

	var handler http.Handler = mux
	handler = bearerAuthMiddleware(handler, rt.cfg.APIToken)
	handler = rateLimitMiddleware(handler, rt.cfg.RateLimitRPS, rt.cfg.RateLimitBurst)
	handler = accessLogMiddleware(handler, rt.logger)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) openCase(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID          string `json:"user_id"`
		BeneficiaryName string `json:"beneficiary_name"`
		FieldOfEndeavor string `json:"field_of_endeavor"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	c, err := rt.cases.Open(r.Context(), req.UserID, req.BeneficiaryName, req.FieldOfEndeavor)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (rt *Router) getCase(w http.ResponseWriter, r *http.Request) {
	c, err := rt.cases.GetByID(r.Context(), r.PathValue("case_id"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (rt *Router) submitPetition(w http.ResponseWriter, r *http.Request) {
	if rt.validator != nil {
		if err := rt.validator.ValidateRequest(r); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
	}

	var payload domain.PetitionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	decision, err := rt.submit.Submit(r.Context(), r.PathValue("case_id"), payload)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	status := http.StatusAccepted
	if !decision.CanProceed {
		status = http.StatusOK
	}
	writeJSON(w, status, decision)
}

func (rt *Router) getSummaries(w http.ResponseWriter, r *http.Request) {
	caseID := r.PathValue("case_id")
	if _, err := rt.cases.GetByID(r.Context(), caseID); err != nil {
		rt.writeError(w, r, err)
		return
	}
	summaries, err := rt.sessions.Summaries(r.Context(), caseID)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if summaries == nil {
		summaries = map[string]string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"case_id":   caseID,
		"summaries": summaries,
	})
}

func (rt *Router) getResult(w http.ResponseWriter, r *http.Request) {
	caseID := r.PathValue("case_id")
	result, err := rt.sessions.Result(r.Context(), caseID)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if result == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "petition result is not ready"})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) listCaseDocuments(w http.ResponseWriter, r *http.Request) {
	caseID := r.PathValue("case_id")
	if _, err := rt.cases.GetByID(r.Context(), caseID); err != nil {
		rt.writeError(w, r, err)
		return
	}
	docs, err := rt.docs.ListByCase(r.Context(), caseID)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	writeJSON(w, http.StatusOK, docs)
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	doc, err := rt.ingest.Upload(
		r.Context(),
		r.FormValue("case_id"),
		r.FormValue("doctype"),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) getDocumentByID(w http.ResponseWriter, r *http.Request) {
	doc, err := rt.docs.GetByID(r.Context(), r.PathValue("document_id"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) deleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := rt.docs.Delete(r.Context(), r.PathValue("document_id")); err != nil {
		rt.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) matchLawyers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))

	matches, err := rt.matcher.MatchLawyers(r.Context(), domain.MatchCriteria{
		Field:    strings.TrimSpace(query.Get("field")),
		VisaType: strings.TrimSpace(query.Get("visa_type")),
		State:    strings.TrimSpace(query.Get("state")),
		Limit:    limit,
	})
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if matches == nil {
		matches = []domain.LawyerMatch{}
	}
	writeJSON(w, http.StatusOK, matches)
}

func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= 500 {
		rt.logger.Error("request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
