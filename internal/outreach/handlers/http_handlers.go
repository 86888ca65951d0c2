package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gartstein/outreach/internal/outreach/aggregate"
	"github.com/gartstein/outreach/internal/outreach/auth"
	"github.com/gartstein/outreach/internal/outreach/controller"
	e "github.com/gartstein/outreach/internal/outreach/errors"
	"github.com/gartstein/outreach/internal/outreach/models"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"go.uber.org/zap"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// OutreachController defines the business logic interface
// that the HTTP handlers will invoke.
type OutreachController interface {
	CreateCompany(ctx context.Context, company *models.Company) (*models.Company, error)
	GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error)
	ListCompanies(ctx context.Context) ([]models.Company, error)
	UpdateCompany(ctx context.Context, update *models.CompanyUpdate) (*models.Company, error)
	DeleteCompany(ctx context.Context, id uuid.UUID) error
	CompanyStatus(ctx context.Context, id uuid.UUID) (*controller.CompanyStatus, error)

	CreateMethod(ctx context.Context, method *models.CommunicationMethod) (*models.CommunicationMethod, error)
	ListMethods(ctx context.Context) ([]aggregate.MethodOrder, error)
	UpdateMethod(ctx context.Context, update *models.MethodUpdate) (*models.CommunicationMethod, error)
	DeleteMethod(ctx context.Context, id uuid.UUID) error

	LogCommunications(ctx context.Context, req *controller.LogRequest) ([]models.Communication, error)
	CommunicationRows(ctx context.Context) ([]aggregate.CommunicationRow, error)
	Dashboard(ctx context.Context) (*aggregate.Dashboard, error)
	Analytics(ctx context.Context, windowDays, limit int) (*controller.Analytics, error)
	Calendar(ctx context.Context) ([]aggregate.CalendarEvent, error)
}

// OutreachHandler translates HTTP requests into OutreachController calls.
type OutreachHandler struct {
	ctrl   OutreachController
	logger *zap.Logger
}

// NewOutreachHandler creates a new OutreachHandler with the given controller and logger.
func NewOutreachHandler(ctrl OutreachController, logger *zap.Logger) *OutreachHandler {
	return &OutreachHandler{ctrl: ctrl, logger: logger.Named("http_handler")}
}

type route struct {
	method  string
	pattern string
	handler runtime.HandlerFunc
}

// Register mounts every outreach route on mux.
func (h *OutreachHandler) Register(mux *runtime.ServeMux) error {
	routes := []route{
		{http.MethodGet, "/v1/companies", h.listCompanies},
		{http.MethodPost, "/v1/companies", h.createCompany},
		{http.MethodGet, "/v1/companies/{id}", h.getCompany},
		{http.MethodPatch, "/v1/companies/{id}", h.updateCompany},
		{http.MethodDelete, "/v1/companies/{id}", h.deleteCompany},
		{http.MethodGet, "/v1/companies/{id}/status", h.companyStatus},
		{http.MethodGet, "/v1/methods", h.listMethods},
		{http.MethodPost, "/v1/methods", h.createMethod},
		{http.MethodPatch, "/v1/methods/{id}", h.updateMethod},
		{http.MethodDelete, "/v1/methods/{id}", h.deleteMethod},
		{http.MethodGet, "/v1/communications", h.listCommunications},
		{http.MethodPost, "/v1/communications", h.logCommunications},
		{http.MethodGet, "/v1/dashboard", h.dashboard},
		{http.MethodGet, "/v1/analytics", h.analytics},
		{http.MethodGet, "/v1/calendar", h.calendar},
	}
	for _, rt := range routes {
		if err := mux.HandlePath(rt.method, rt.pattern, rt.handler); err != nil {
			return fmt.Errorf("failed to register %s %s: %w", rt.method, rt.pattern, err)
		}
	}
	return nil
}

func (h *OutreachHandler) createCompany(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var company models.Company
	if err := decodeBody(w, r, &company); err != nil {
		h.writeError(w, err)
		return
	}
	created, err := h.ctrl.CreateCompany(r.Context(), &company)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, created)
}

func (h *OutreachHandler) listCompanies(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	companies, err := h.ctrl.ListCompanies(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, companies)
}

func (h *OutreachHandler) getCompany(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := parseID(params)
	if err != nil {
		h.writeError(w, err)
		return
	}
	company, err := h.ctrl.GetCompany(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, company)
}

func (h *OutreachHandler) updateCompany(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := parseID(params)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var update models.CompanyUpdate
	if err := decodeBody(w, r, &update); err != nil {
		h.writeError(w, err)
		return
	}
	update.ID = id
	company, err := h.ctrl.UpdateCompany(r.Context(), &update)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, company)
}

func (h *OutreachHandler) deleteCompany(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := parseID(params)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.ctrl.DeleteCompany(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	h.logger.Info("Company deleted",
		zap.String("company_id", id.String()),
		zap.String("user", subject(r.Context())),
	)
	w.WriteHeader(http.StatusNoContent)
}

func (h *OutreachHandler) companyStatus(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := parseID(params)
	if err != nil {
		h.writeError(w, err)
		return
	}
	st, err := h.ctrl.CompanyStatus(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, st)
}

func (h *OutreachHandler) createMethod(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var method models.CommunicationMethod
	if err := decodeBody(w, r, &method); err != nil {
		h.writeError(w, err)
		return
	}
	created, err := h.ctrl.CreateMethod(r.Context(), &method)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, created)
}

func (h *OutreachHandler) listMethods(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	methods, err := h.ctrl.ListMethods(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, methods)
}

func (h *OutreachHandler) updateMethod(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := parseID(params)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var update models.MethodUpdate
	if err := decodeBody(w, r, &update); err != nil {
		h.writeError(w, err)
		return
	}
	update.ID = id
	method, err := h.ctrl.UpdateMethod(r.Context(), &update)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, method)
}

func (h *OutreachHandler) deleteMethod(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := parseID(params)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.ctrl.DeleteMethod(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	h.logger.Info("Method deleted",
		zap.String("method_id", id.String()),
		zap.String("user", subject(r.Context())),
	)
	w.WriteHeader(http.StatusNoContent)
}

func (h *OutreachHandler) logCommunications(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req controller.LogRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	comms, err := h.ctrl.LogCommunications(r.Context(), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.logger.Info("Communications logged by user",
		zap.Int("count", len(comms)),
		zap.String("user", subject(r.Context())),
	)
	h.writeJSON(w, http.StatusCreated, comms)
}

func (h *OutreachHandler) listCommunications(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	rows, err := h.ctrl.CommunicationRows(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, rows)
}

func (h *OutreachHandler) dashboard(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	d, err := h.ctrl.Dashboard(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, d)
}

func (h *OutreachHandler) analytics(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	window, err := queryInt(r, "window")
	if err != nil {
		h.writeError(w, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.writeError(w, err)
		return
	}
	a, err := h.ctrl.Analytics(r.Context(), window, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, a)
}

func (h *OutreachHandler) calendar(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	events, err := h.ctrl.Calendar(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, events)
}

func parseID(params map[string]string) (uuid.UUID, error) {
	id, err := uuid.Parse(params["id"])
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid id %q", e.ErrInvalidInput, params["id"])
	}
	return id, nil
}

// queryInt returns 0 when the parameter is absent.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", e.ErrInvalidInput, name)
	}
	return v, nil
}

// subject returns the token subject of an authenticated request.
func subject(ctx context.Context) string {
	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok {
		return ""
	}
	sub, _ := claims.GetSubject()
	return sub
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed request body: %v", e.ErrInvalidInput, err)
	}
	return nil
}
