package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/propval/internal/model"
	"github.com/sells-group/propval/internal/store"
	"github.com/sells-group/propval/pkg/notion"
)

// leadRequest is the body of POST /api/leads. Valuation, when present, is
// re-run so the stored estimate matches what the visitor saw.
type leadRequest struct {
	Name      string         `json:"name"`
	Email     string         `json:"email"`
	Phone     string         `json:"phone"`
	Valuation *model.Request `json:"valuation,omitempty"`
}

func (s *Server) handleCreateLead(w http.ResponseWriter, r *http.Request) {
	var req leadRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required", "")
		return
	}
	if strings.TrimSpace(req.Email) == "" && strings.TrimSpace(req.Phone) == "" {
		writeError(w, http.StatusBadRequest, "email or phone is required", "")
		return
	}

	lead := &model.Lead{
		Name:  strings.TrimSpace(req.Name),
		Email: strings.TrimSpace(req.Email),
		Phone: strings.TrimSpace(req.Phone),
	}
	if v := req.Valuation; v != nil {
		lead.City = v.City
		lead.PropertyType = v.PropertyType
		lead.AreaName = v.AreaName
		lead.PINCode = v.PINCode
		lead.DistanceKM = v.DistanceKM
		if res, err := s.valuer.Valuate(*v); err == nil {
			lead.City = res.Location.City
			lead.EstimateMin = res.Estimate.Min
			lead.EstimateMax = res.Estimate.Max
			lead.Confidence = res.Confidence
		} else {
			zap.L().Warn("api: lead valuation failed", zap.Error(err))
		}
	}

	if err := s.leads.CreateLead(r.Context(), lead); err != nil {
		zap.L().Error("api: create lead", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not save lead", "")
		return
	}

	s.pushLead(r.Context(), lead)

	zap.L().Info("api: lead captured", zap.String("lead_id", lead.ID), zap.String("city", lead.City))
	writeJSON(w, http.StatusCreated, lead)
}

// pushLead copies the lead to Notion when configured. Failures are logged;
// the lead is already stored.
func (s *Server) pushLead(ctx context.Context, lead *model.Lead) {
	if s.opts.Notion == nil || s.opts.NotionLeadDB == "" {
		return
	}
	pageID, err := notion.PushLead(ctx, s.opts.Notion, s.opts.NotionLeadDB, LeadPage(*lead))
	if err != nil {
		zap.L().Warn("api: push lead to notion", zap.String("lead_id", lead.ID), zap.Error(err))
		return
	}
	if err := s.leads.SetLeadNotionPage(ctx, lead.ID, pageID); err != nil {
		zap.L().Warn("api: record notion page", zap.String("lead_id", lead.ID), zap.Error(err))
		return
	}
	lead.NotionPageID = pageID
}

// LeadPage converts a stored lead into its Notion form.
func LeadPage(l model.Lead) notion.LeadPage {
	var loc []string
	for _, part := range []string{l.PINCode, l.AreaName} {
		if part != "" {
			loc = append(loc, part)
		}
	}
	return notion.LeadPage{
		Name:         l.Name,
		Email:        l.Email,
		Phone:        l.Phone,
		City:         l.City,
		PropertyType: l.PropertyType,
		Location:     strings.Join(loc, " "),
		EstimateMin:  l.EstimateMin,
		EstimateMax:  l.EstimateMax,
		Confidence:   l.Confidence,
		CapturedAt:   l.CreatedAt,
	}
}

func (s *Server) handleListLeads(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.LeadFilter{City: q.Get("city")}
	for name, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid "+name, "")
			return
		}
		*dst = n
	}

	leads, err := s.leads.ListLeads(r.Context(), filter)
	if err != nil {
		zap.L().Error("api: list leads", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not list leads", "")
		return
	}
	if leads == nil {
		leads = []model.Lead{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"leads": leads, "count": len(leads)})
}

func (s *Server) handleGetLead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	lead, err := s.leads.GetLead(r.Context(), id)
	if err != nil {
		zap.L().Error("api: get lead", zap.String("lead_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not load lead", "")
		return
	}
	if lead == nil {
		writeError(w, http.StatusNotFound, "lead not found", "")
		return
	}
	writeJSON(w, http.StatusOK, lead)
}
