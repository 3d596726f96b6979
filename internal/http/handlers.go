package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"roundup/internal/core"
	"roundup/internal/middleware/trace"
)

// logError ties handler failures back to the request they belong to.
func (s *Server) logError(r *http.Request, msg string, err error) {
	s.logger.ErrorContext(r.Context(), msg,
		"error", err,
		"request_id", trace.GetRequestID(r.Context()))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).String(),
	}).Write(w)
}

// handleReady reports readiness with per-dependency checks. The bank is not
// probed here: a snapshot refresh is the caller's explicit action.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.status == nil || s.transfer == nil {
		checks["services"] = "failed: not configured"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["services"] = "ok"
	}

	snapshot := s.status.Status()
	if snapshot.AccountUID == "" {
		checks["snapshot"] = "empty"
	} else {
		checks["snapshot"] = "ok"
	}

	checks["goals_cache"] = map[string]any{
		"entries": s.goalsCache.Size(),
		"status":  "ok",
	}
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.limiter.ActiveClients(),
		"status":         "ok",
	}
	checks["traffic"] = map[string]any{
		"requests_total": s.tracer.TotalRequests(),
		"status":         "ok",
	}

	NewJSONResponse().Status(httpStatus).Body(map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// handleStatus returns the last published snapshot without touching the bank.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}
	NewJSONResponse().Body(s.status.Status()).Write(w)
}

// handleRefresh re-fetches the feed and recomputes the snapshot.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}

	status, err := s.status.Refresh(r.Context())
	if err != nil {
		s.logError(r, "Status refresh failed", err)
		ErrorResponse(http.StatusBadGateway, "failed to refresh from bank").Write(w)
		return
	}
	NewJSONResponse().Body(status).Write(w)
}

// handleTransfer moves the pending round-up into the savings goal.
func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}

	// The snapshot is read before the transfer: the refresh the transfer
	// triggers may fail and reset it, and the cached goals listing for this
	// account must be dropped either way.
	accountUID := s.status.Status().AccountUID

	result, err := s.transfer.Transfer(r.Context())
	if err != nil {
		s.writeTransferError(w, r, err)
		return
	}

	// The goal total changed, drop the cached listing.
	s.goalsCache.Delete(accountUID)

	NewJSONResponse().Body(result).Write(w)
}

func (s *Server) writeTransferError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrTransferInFlight):
		ErrorResponse(http.StatusConflict, err.Error()).Write(w)
	case errors.Is(err, core.ErrCooldownActive):
		ErrorResponse(http.StatusConflict, err.Error()).Write(w)
	case errors.Is(err, core.ErrNothingToTransfer):
		ErrorResponse(http.StatusUnprocessableEntity, err.Error()).Write(w)
	default:
		s.logError(r, "Transfer failed", err)
		ErrorResponse(http.StatusBadGateway, "transfer failed").Write(w)
	}
}

// handleSavingsGoals lists the account's savings goals, cached briefly.
func (s *Server) handleSavingsGoals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}

	accountUID := s.status.Status().AccountUID
	if accountUID == "" {
		// No snapshot yet, learn the account through a refresh.
		snapshot, err := s.status.Refresh(r.Context())
		if err != nil {
			s.logError(r, "Refresh for goal listing failed", err)
			ErrorResponse(http.StatusBadGateway, "bank account unavailable").Write(w)
			return
		}
		accountUID = snapshot.AccountUID
	}

	if goals, ok := s.goalsCache.Get(accountUID); ok {
		NewJSONResponse().Body(map[string]any{"savingsGoalList": goals}).Write(w)
		return
	}

	goals, err := s.goals.SavingsGoals(r.Context(), accountUID)
	if err != nil {
		s.logError(r, "Savings goal listing failed", err)
		ErrorResponse(http.StatusBadGateway, "failed to list savings goals").Write(w)
		return
	}
	if goals == nil {
		goals = []core.SavingsGoal{}
	}
	s.goalsCache.Set(accountUID, goals)

	NewJSONResponse().Body(map[string]any{"savingsGoalList": goals}).Write(w)
}

// transferHistoryItem is the wire shape of one ledger row.
type transferHistoryItem struct {
	ID          int64      `json:"id"`
	TransferUID string     `json:"transferUid"`
	AccountUID  string     `json:"accountUid"`
	GoalUID     string     `json:"goalUid"`
	Amount      core.Money `json:"amount"`
	TotalSaved  core.Money `json:"totalSaved"`
	CreatedAt   time.Time  `json:"createdAt"`
	Exported    bool       `json:"exported"`
}

// handleTransfers lists recent ledger rows, newest first.
func (s *Server) handleTransfers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}
	if s.ledger == nil {
		ErrorResponse(http.StatusServiceUnavailable, "transfer ledger not available").Write(w)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			ErrorResponse(http.StatusBadRequest, "limit must be between 1 and 500").Write(w)
			return
		}
		limit = n
	}

	records, err := s.ledger.ListTransfers(r.Context(), limit)
	if err != nil {
		s.logError(r, "Transfer history listing failed", err)
		ErrorResponse(http.StatusInternalServerError, "failed to list transfers").Write(w)
		return
	}

	items := make([]transferHistoryItem, 0, len(records))
	for _, rec := range records {
		items = append(items, transferHistoryItem{
			ID:          rec.ID,
			TransferUID: rec.TransferUID,
			AccountUID:  rec.AccountUID,
			GoalUID:     rec.GoalUID,
			Amount:      core.Money{Currency: rec.Currency, MinorUnits: rec.AmountMinorUnits},
			TotalSaved:  core.Money{Currency: rec.Currency, MinorUnits: rec.TotalSavedMinorUnits},
			CreatedAt:   rec.CreatedAt,
			Exported:    rec.Exported,
		})
	}
	NewJSONResponse().Body(map[string]any{"transfers": items}).Write(w)
}
