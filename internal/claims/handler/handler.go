// Package handler exposes the claim workflow over HTTP. Routes are mounted in
// two groups: account routes behind bearer-token auth and admin routes behind
// the shared admin token.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"wasmember/internal/audit"
	"wasmember/internal/claims/models"
	"wasmember/internal/claims/service"
	"wasmember/internal/documents"
	"wasmember/internal/platform/metrics"
	"wasmember/internal/platform/middleware"
	platformredis "wasmember/internal/platform/redis"
	id "wasmember/pkg/domain"
	dErrors "wasmember/pkg/domain-errors"
	"wasmember/pkg/platform/httputil"
	"wasmember/pkg/platform/sentinel"
)

const requestTimeout = 30 * time.Second

// Service defines the claim operations the transport layer needs.
type Service interface {
	SearchMembers(ctx context.Context, term string) ([]service.MemberCandidate, error)
	CheckCode(ctx context.Context, rawCode string) (service.CodeAvailability, error)
	NonSelectableCodes(ctx context.Context) (map[id.MemberCode]models.ClaimStatus, error)
	SubmitBatch(ctx context.Context, accountID id.AccountID, req models.SubmitBatchRequest) (*models.BatchResult, error)
	ListForAccount(ctx context.Context, filters models.ListFilters, page int) ([]*models.Claim, error)
	Get(ctx context.Context, claimID id.ClaimID) (*models.Claim, error)
	EditAndResubmit(ctx context.Context, claimID id.ClaimID, req models.ResubmitRequest) (*models.Claim, error)
	Delete(ctx context.Context, claimID id.ClaimID) error
	Approve(ctx context.Context, claimID id.ClaimID) (*models.Claim, error)
	Reject(ctx context.Context, claimID id.ClaimID, reason string) (*models.Claim, error)
	DecisionLog(ctx context.Context, claimID id.ClaimID) ([]audit.Decision, error)
}

// Handler handles claim workflow endpoints.
type Handler struct {
	claims         Service
	documents      documents.Store
	logger         *slog.Logger
	metrics        *metrics.Metrics
	jwtValidator   middleware.TokenValidator
	adminTokenHash string
	redis          *platformredis.Client
	submitPerMin   int
}

// New creates a claim Handler.
func New(
	claims Service,
	docs documents.Store,
	logger *slog.Logger,
	m *metrics.Metrics,
	jwtValidator middleware.TokenValidator,
	adminTokenHash string,
	redis *platformredis.Client,
	submitPerMin int,
) *Handler {
	return &Handler{
		claims:         claims,
		documents:      docs,
		logger:         logger,
		metrics:        m,
		jwtValidator:   jwtValidator,
		adminTokenHash: adminTokenHash,
		redis:          redis,
		submitPerMin:   submitPerMin,
	}
}

// Register mounts the claim routes on the chi router.
func (h *Handler) Register(r chi.Router) {
	account := chi.NewRouter()
	account.Use(middleware.Recovery(h.logger))
	account.Use(middleware.RequestID)
	account.Use(middleware.Logger(h.logger))
	account.Use(middleware.Timeout(requestTimeout))
	account.Use(h.metrics.Latency)
	account.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

	account.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)

		r.Get("/members/search", h.handleSearchMembers)
		r.Get("/members/codes/{memberCode}", h.handleCheckCode)
		r.Get("/claims/unavailable", h.handleNonSelectableCodes)
		r.With(middleware.SubmitRateLimit(h.redis, h.submitPerMin, h.logger)).
			Post("/claims/batch", h.handleSubmitBatch)
		r.Get("/claims", h.handleListClaims)
		r.Get("/claims/{claimID}", h.handleGetClaim)
		r.Put("/claims/{claimID}", h.handleResubmitClaim)
		r.Delete("/claims/{claimID}", h.handleDeleteClaim)
	})

	// Uploads carry the document body itself, so the JSON content-type guard
	// does not apply here.
	account.Post("/documents", h.handleUploadDocument)

	admin := chi.NewRouter()
	admin.Use(middleware.Recovery(h.logger))
	admin.Use(middleware.RequestID)
	admin.Use(middleware.Logger(h.logger))
	admin.Use(middleware.Timeout(requestTimeout))
	admin.Use(middleware.ContentTypeJSON)
	admin.Use(h.metrics.Latency)
	admin.Use(middleware.RequireAdminToken(h.adminTokenHash, h.logger))

	admin.Post("/claims/{claimID}/approve", h.handleApproveClaim)
	admin.Post("/claims/{claimID}/reject", h.handleRejectClaim)
	admin.Get("/claims/{claimID}/audit", h.handleDecisionLog)

	r.Mount("/", account)
	r.Mount("/admin", admin)
}

func (h *Handler) handleSearchMembers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	results, err := h.claims.SearchMembers(ctx, r.URL.Query().Get("q"))
	if err != nil {
		h.writeServiceError(w, r, "member search failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, searchResponse{Candidates: results})
}

func (h *Handler) handleCheckCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	avail, err := h.claims.CheckCode(ctx, chi.URLParam(r, "memberCode"))
	if err != nil {
		h.writeServiceError(w, r, "code check failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, avail)
}

func (h *Handler) handleNonSelectableCodes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	locked, err := h.claims.NonSelectableCodes(ctx)
	if err != nil {
		h.writeServiceError(w, r, "listing non-selectable codes failed", err)
		return
	}
	resp := nonSelectableResponse{Codes: make(map[string]string, len(locked))}
	for code, status := range locked {
		resp.Codes[code.String()] = string(status)
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	up := documents.Upload{
		Name:        r.URL.Query().Get("name"),
		Size:        r.ContentLength,
		ContentType: r.Header.Get("Content-Type"),
		Body:        http.MaxBytesReader(w, r.Body, documents.MaxSize),
	}
	ref, err := h.documents.Put(ctx, up)
	if err != nil {
		if errors.Is(err, sentinel.ErrUnavailable) {
			err = dErrors.Wrap(err, dErrors.CodeUnavailable, "document store is unavailable")
		}
		h.writeServiceError(w, r, "document upload failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, ref)
}

func (h *Handler) handleSubmitBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.SubmitBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warnBadBody(ctx, "submit batch", err)
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}

	result, err := h.claims.SubmitBatch(ctx, middleware.GetAccountID(ctx), req)
	if err != nil {
		h.writeServiceError(w, r, "batch submission failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleListClaims(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	filters := models.ListFilters{
		Status:         models.ClaimStatus(q.Get("status")),
		MemberTypeCode: q.Get("member_type"),
		SearchTerm:     q.Get("q"),
	}
	claims, err := h.claims.ListForAccount(ctx, filters, page)
	if err != nil {
		h.writeServiceError(w, r, "listing claims failed", err)
		return
	}
	if page < 1 {
		page = 1
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Claims: claims, Page: page, PageSize: models.PageSize})
}

func (h *Handler) handleGetClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claimID, err := id.ParseClaimID(chi.URLParam(r, "claimID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	claim, err := h.claims.Get(ctx, claimID)
	if err != nil {
		h.writeServiceError(w, r, "loading claim failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, claim)
}

func (h *Handler) handleResubmitClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claimID, err := id.ParseClaimID(chi.URLParam(r, "claimID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req models.ResubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warnBadBody(ctx, "resubmit claim", err)
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	claim, err := h.claims.EditAndResubmit(ctx, claimID, req)
	if err != nil {
		h.writeServiceError(w, r, "resubmission failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, claim)
}

func (h *Handler) handleDeleteClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claimID, err := id.ParseClaimID(chi.URLParam(r, "claimID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.claims.Delete(ctx, claimID); err != nil {
		h.writeServiceError(w, r, "claim deletion failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleApproveClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claimID, err := id.ParseClaimID(chi.URLParam(r, "claimID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	claim, err := h.claims.Approve(ctx, claimID)
	if err != nil {
		h.writeServiceError(w, r, "approval failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, claim)
}

func (h *Handler) handleRejectClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claimID, err := id.ParseClaimID(chi.URLParam(r, "claimID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req rejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warnBadBody(ctx, "reject claim", err)
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	claim, err := h.claims.Reject(ctx, claimID, req.Reason)
	if err != nil {
		h.writeServiceError(w, r, "rejection failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, claim)
}

func (h *Handler) handleDecisionLog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claimID, err := id.ParseClaimID(chi.URLParam(r, "claimID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	decisions, err := h.claims.DecisionLog(ctx, claimID)
	if err != nil {
		h.writeServiceError(w, r, "loading decision log failed", err)
		return
	}
	resp := decisionLogResponse{Decisions: make([]decisionEntry, 0, len(decisions))}
	for _, d := range decisions {
		resp.Decisions = append(resp.Decisions, newDecisionEntry(d))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// writeServiceError logs according to severity and writes the coded envelope.
// Uncoded errors fall through as internal without leaking detail.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	code := dErrors.GetCode(err)
	switch code {
	case dErrors.CodeInternal, dErrors.CodeUnavailable:
		h.logger.ErrorContext(ctx, msg,
			"error", err.Error(),
			"request_id", middleware.GetRequestID(ctx),
		)
	default:
		h.logger.WarnContext(ctx, msg,
			"error", err.Error(),
			"request_id", middleware.GetRequestID(ctx),
		)
	}
	httputil.WriteError(w, err)
}

func (h *Handler) warnBadBody(ctx context.Context, op string, err error) {
	h.logger.WarnContext(ctx, "invalid request body",
		"op", op,
		"error", err.Error(),
		"request_id", middleware.GetRequestID(ctx),
	)
}
