// Package handler exposes the wizard engine over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"onboard/internal/platform/metrics"
	"onboard/internal/platform/middleware"
	"onboard/internal/transport/http/shared"
	"onboard/internal/wizard/models"
	"onboard/internal/wizard/nav"
	"onboard/internal/wizard/service"
	dErrors "onboard/pkg/domain-errors"
	"onboard/pkg/requestcontext"
)

// Service defines the engine operations the HTTP layer needs.
type Service interface {
	Steps(ctx context.Context, employeeID string) (service.Overview, error)
	LoadStep(ctx context.Context, employeeID string, stepID models.StepID) (*service.StepView, error)
	SaveStep(ctx context.Context, employeeID string, stepID models.StepID, payload models.StepPayload) error
	Flush(ctx context.Context, employeeID string, stepID models.StepID) error
	CompleteStep(ctx context.Context, employeeID string, stepID models.StepID) error
	Sign(ctx context.Context, employeeID string, stepID models.StepID, artifact []byte) (*models.CertificationRecord, error)
	Acknowledge(ctx context.Context, employeeID string, stepID models.StepID) error
	Transition(ctx context.Context, employeeID string, from, to models.StepID) (bool, error)
	RenderPDF(ctx context.Context, employeeID string, stepID models.StepID) ([]byte, error)
}

// Handler handles the onboarding wizard endpoints.
type Handler struct {
	logger       *slog.Logger
	wizard       Service
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

func New(wizard Service, logger *slog.Logger, m *metrics.Metrics, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		wizard:       wizard,
		metrics:      m,
		jwtValidator: jwtValidator,
	}
}

// Register registers the wizard routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	wizardRouter := chi.NewRouter()
	wizardRouter.Use(middleware.Recovery(h.logger))
	wizardRouter.Use(middleware.RequestID)
	wizardRouter.Use(middleware.Logger(h.logger))
	wizardRouter.Use(middleware.Timeout(30 * time.Second))
	wizardRouter.Use(middleware.Latency(h.metrics))
	// The PDF route overrides the default content type on its own response.
	wizardRouter.Use(middleware.ContentTypeJSON)
	wizardRouter.Use(middleware.Device)
	wizardRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

	wizardRouter.Get("/onboarding/steps", h.handleSteps)
	wizardRouter.Get("/onboarding/steps/{stepID}", h.handleLoadStep)
	wizardRouter.Put("/onboarding/steps/{stepID}", h.handleSaveStep)
	wizardRouter.Post("/onboarding/steps/{stepID}/flush", h.handleFlush)
	wizardRouter.Post("/onboarding/steps/{stepID}/complete", h.handleComplete)
	wizardRouter.Post("/onboarding/steps/{stepID}/sign", h.handleSign)
	wizardRouter.Post("/onboarding/steps/{stepID}/acknowledge", h.handleAcknowledge)
	wizardRouter.Post("/onboarding/transition", h.handleTransition)
	wizardRouter.Get("/onboarding/steps/{stepID}/pdf", h.handlePDF)

	r.Mount("/", wizardRouter)
}

func (h *Handler) employeeID(w http.ResponseWriter, r *http.Request) (string, bool) {
	employeeID := requestcontext.EmployeeID(r.Context())
	if employeeID == "" {
		h.logger.ErrorContext(r.Context(), "employee ID missing from context despite auth middleware")
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return "", false
	}
	return employeeID, true
}

func stepID(r *http.Request) models.StepID {
	return models.StepID(chi.URLParam(r, "stepID"))
}

func (h *Handler) handleSteps(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := h.employeeID(w, r)
	if !ok {
		return
	}
	overview, err := h.wizard.Steps(r.Context(), employeeID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, overview)
}

func (h *Handler) handleLoadStep(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := h.employeeID(w, r)
	if !ok {
		return
	}
	view, err := h.wizard.LoadStep(r.Context(), employeeID, stepID(r))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, view)
}

type saveStepRequest struct {
	Payload models.StepPayload `json:"payload"`
}

func (h *Handler) handleSaveStep(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := h.employeeID(w, r)
	if !ok {
		return
	}
	var req saveStepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := h.wizard.SaveStep(r.Context(), employeeID, stepID(r), req.Payload); err != nil {
		shared.WriteError(w, err)
		return
	}
	// The save is scheduled, not yet persisted.
	shared.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "scheduled"})
}

func (h *Handler) handleFlush(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := h.employeeID(w, r)
	if !ok {
		return
	}
	if err := h.wizard.Flush(r.Context(), employeeID, stepID(r)); err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := h.employeeID(w, r)
	if !ok {
		return
	}
	if err := h.wizard.CompleteStep(r.Context(), employeeID, stepID(r)); err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}

type signRequest struct {
	// Artifact is the base64-encoded signature blob from the signing widget.
	Artifact []byte `json:"artifact"`
}

func (h *Handler) handleSign(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := h.employeeID(w, r)
	if !ok {
		return
	}
	var req signRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	record, err := h.wizard.Sign(r.Context(), employeeID, stepID(r), req.Artifact)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, record)
}

func (h *Handler) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := h.employeeID(w, r)
	if !ok {
		return
	}
	if err := h.wizard.Acknowledge(r.Context(), employeeID, stepID(r)); err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "acknowledged"})
}

type transitionRequest struct {
	From models.StepID `json:"from"`
	To   models.StepID `json:"to"`
}

type transitionResponse struct {
	Performed bool          `json:"performed"`
	Current   models.StepID `json:"current"`
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := h.employeeID(w, r)
	if !ok {
		return
	}
	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	performed, err := h.wizard.Transition(r.Context(), employeeID, req.From, req.To)
	if err != nil {
		if errors.Is(err, nav.ErrTransitionInFlight) {
			shared.WriteError(w, dErrors.New(dErrors.CodeConflict, "transition already in flight"))
			return
		}
		shared.WriteError(w, err)
		return
	}
	current := req.To
	if !performed {
		current = req.From
	}
	shared.WriteJSON(w, http.StatusOK, transitionResponse{Performed: performed, Current: current})
}

func (h *Handler) handlePDF(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := h.employeeID(w, r)
	if !ok {
		return
	}
	pdf, err := h.wizard.RenderPDF(r.Context(), employeeID, stepID(r))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
