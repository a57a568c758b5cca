// internal/app/features/admin/audit.go
package admin

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/learnhub/internal/app/store/audit"
	"github.com/dalemusser/learnhub/internal/app/system/auth"
	"github.com/dalemusser/learnhub/internal/app/system/identity"
	"github.com/dalemusser/learnhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const pageSize = 50

// EventReader queries recorded audit events. *audit.Store satisfies it.
type EventReader interface {
	Query(ctx context.Context, filter audit.QueryFilter) ([]audit.Event, error)
	CountByFilter(ctx context.Context, filter audit.QueryFilter) (int64, error)
}

type auditResponse struct {
	Total  int64         `json:"total"`
	Page   int           `json:"page"`
	Events []audit.Event `json:"events"`
}

// ServeAudit handles GET /audit: recorded auth and admin events, newest
// first, filtered by user_id, category, event_type, start_date and
// end_date (YYYY-MM-DD), paged by page.
func (h *Handler) ServeAudit(w http.ResponseWriter, r *http.Request) {
	page := 1
	if p, err := strconv.Atoi(query.Get(r, "page")); err == nil && p > 0 {
		page = p
	}

	filter := audit.QueryFilter{
		Category:  strings.TrimSpace(query.Get(r, "category")),
		EventType: strings.TrimSpace(query.Get(r, "event_type")),
		Limit:     pageSize,
		Offset:    int64((page - 1) * pageSize),
	}

	if uid := strings.TrimSpace(query.Get(r, "user_id")); uid != "" {
		oid, err := primitive.ObjectIDFromHex(uid)
		if err != nil {
			auth.WriteError(w, identity.ErrUserNotFound)
			return
		}
		filter.UserID = &oid
	}
	if d := strings.TrimSpace(query.Get(r, "start_date")); d != "" {
		if t, err := time.Parse("2006-01-02", d); err == nil {
			filter.StartTime = &t
		}
	}
	if d := strings.TrimSpace(query.Get(r, "end_date")); d != "" {
		if t, err := time.Parse("2006-01-02", d); err == nil {
			// End of day
			endOfDay := t.Add(24*time.Hour - time.Second)
			filter.EndTime = &endOfDay
		}
	}

	if h.Events == nil {
		auth.WriteJSON(w, http.StatusOK, auditResponse{Page: page, Events: []audit.Event{}})
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "audit event list")
	defer cancel()

	events, err := h.Events.Query(ctx, filter)
	if err != nil {
		h.Log.Error("failed to query audit events", zap.Error(err))
		auth.WriteError(w, identity.ErrSystem)
		return
	}
	total, err := h.Events.CountByFilter(ctx, filter)
	if err != nil {
		h.Log.Error("failed to count audit events", zap.Error(err))
		auth.WriteError(w, identity.ErrSystem)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	auth.WriteJSON(w, http.StatusOK, auditResponse{Total: total, Page: page, Events: events})
}
