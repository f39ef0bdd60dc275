package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"bollette/internal/core"
	"bollette/internal/log"
	"bollette/internal/storage"
)

// Wire representation of a schedule. Kind is "oneoff" or "recurring"; the
// remaining fields apply to one kind each.
type scheduleJSON struct {
	Kind          string `json:"kind"`
	DueDate       string `json:"due_date,omitempty"`
	Frequency     string `json:"frequency,omitempty"`
	Interval      int    `json:"interval,omitempty"`
	AnchorDay     int    `json:"anchor_day,omitempty"`
	StartDate     string `json:"start_date,omitempty"`
	EndDate       string `json:"end_date,omitempty"`
	HorizonMonths int    `json:"horizon_months,omitempty"`
}

type billRequest struct {
	Description       string        `json:"description"`
	TotalAmount       string        `json:"total_amount"`
	InstallmentsTotal int           `json:"installments_total,omitempty"`
	Schedule          *scheduleJSON `json:"schedule,omitempty"`
}

type billResponse struct {
	ID                int64         `json:"id"`
	Description       string        `json:"description"`
	TotalAmount       string        `json:"total_amount"`
	InstallmentsTotal int           `json:"installments_total,omitempty"`
	Schedule          *scheduleJSON `json:"schedule,omitempty"`
	Version           int64         `json:"version"`
	SyncStatus        string        `json:"sync_status"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

type occurrenceJSON struct {
	BillID                  int64  `json:"bill_id"`
	Sequence                int    `json:"sequence"`
	AmountDue               string `json:"amount_due"`
	DueDate                 string `json:"due_date"`
	SuggestedSubmissionDate string `json:"suggested_submission_date"`
}

func (req billRequest) toBill() (core.Bill, error) {
	amount, err := core.ParseMoney(req.TotalAmount)
	if err != nil {
		return core.Bill{}, fmt.Errorf("total_amount: %w", err)
	}

	bill := core.Bill{
		Description:       strings.TrimSpace(req.Description),
		TotalAmount:       amount,
		InstallmentsTotal: req.InstallmentsTotal,
	}

	if req.Schedule == nil {
		return bill, nil
	}

	switch req.Schedule.Kind {
	case "oneoff":
		due, err := core.ParseDate(req.Schedule.DueDate)
		if err != nil {
			return core.Bill{}, fmt.Errorf("schedule.due_date: %w", err)
		}
		bill.Schedule = core.OneOff{DueDate: due}
	case "recurring":
		freq, err := core.ParseFrequency(req.Schedule.Frequency)
		if err != nil {
			return core.Bill{}, fmt.Errorf("schedule.frequency: %w", err)
		}
		start, err := core.ParseDate(req.Schedule.StartDate)
		if err != nil {
			return core.Bill{}, fmt.Errorf("schedule.start_date: %w", err)
		}
		rule := core.RecurringRule{
			Frequency:     freq,
			Interval:      req.Schedule.Interval,
			AnchorDay:     req.Schedule.AnchorDay,
			StartDate:     start,
			HorizonMonths: req.Schedule.HorizonMonths,
		}
		if req.Schedule.EndDate != "" {
			end, err := core.ParseDate(req.Schedule.EndDate)
			if err != nil {
				return core.Bill{}, fmt.Errorf("schedule.end_date: %w", err)
			}
			rule.EndDate = end
		}
		bill.Schedule = core.Recurring{Rule: rule}
	default:
		return core.Bill{}, fmt.Errorf("schedule.kind must be 'oneoff' or 'recurring', got %q", req.Schedule.Kind)
	}

	return bill, nil
}

func toScheduleJSON(schedule core.Schedule) *scheduleJSON {
	switch s := schedule.(type) {
	case core.OneOff:
		return &scheduleJSON{Kind: "oneoff", DueDate: s.DueDate.String()}
	case core.Recurring:
		out := &scheduleJSON{
			Kind:          "recurring",
			Frequency:     string(s.Rule.Frequency),
			Interval:      s.Rule.Interval,
			AnchorDay:     s.Rule.AnchorDay,
			StartDate:     s.Rule.StartDate.String(),
			HorizonMonths: s.Rule.HorizonMonths,
		}
		if !s.Rule.EndDate.IsEmpty() {
			out.EndDate = s.Rule.EndDate.String()
		}
		return out
	default:
		return nil
	}
}

func toBillResponse(bill storage.StoredBill) billResponse {
	return billResponse{
		ID:                bill.ID,
		Description:       bill.Description,
		TotalAmount:       bill.TotalAmount.String(),
		InstallmentsTotal: bill.InstallmentsTotal,
		Schedule:          toScheduleJSON(bill.Schedule),
		Version:           bill.Version,
		SyncStatus:        bill.SyncStatus,
		CreatedAt:         bill.CreatedAt,
		UpdatedAt:         bill.UpdatedAt,
	}
}

func toOccurrenceJSON(occurrences []core.Occurrence) []occurrenceJSON {
	out := make([]occurrenceJSON, 0, len(occurrences))
	for _, occ := range occurrences {
		out = append(out, occurrenceJSON{
			BillID:                  occ.BillID,
			Sequence:                occ.Sequence,
			AmountDue:               occ.AmountDue.String(),
			DueDate:                 occ.DueDate.String(),
			SuggestedSubmissionDate: occ.SuggestedSubmissionDate.String(),
		})
	}
	return out
}

func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request) {
	bills, err := s.service.ListBills(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List bills failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list bills")
		return
	}

	out := make([]billResponse, 0, len(bills))
	for _, bill := range bills {
		out = append(out, toBillResponse(bill))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateBill(w http.ResponseWriter, r *http.Request) {
	var req billRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	bill, err := req.toBill()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id, err := s.service.CreateBill(r.Context(), bill)
	if err != nil {
		if isValidationError(err) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		fields := log.NewFields().
			WithError(err).
			WithOperation(log.OpCreate).
			WithComponent(log.ComponentHTTP).
			WithBill(0, bill.Description, bill.TotalAmount.Cents)
		slog.ErrorContext(r.Context(), "Create bill failed", fields.ToSlice()...)
		writeError(w, http.StatusInternalServerError, "failed to create bill")
		return
	}

	s.invalidateUpcoming()
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleGetBill(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bill, err := s.service.GetBill(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrBillNotFound) {
			writeError(w, http.StatusNotFound, "bill not found")
			return
		}
		slog.ErrorContext(r.Context(), "Get bill failed", "bill_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load bill")
		return
	}

	writeJSON(w, http.StatusOK, toBillResponse(bill))
}

func (s *Server) handleUpdateBill(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req billRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	bill, err := req.toBill()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	bill.ID = id

	version, err := s.service.UpdateBill(r.Context(), bill)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrBillNotFound):
			writeError(w, http.StatusNotFound, "bill not found")
		case isValidationError(err):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			slog.ErrorContext(r.Context(), "Update bill failed", "bill_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to update bill")
		}
		return
	}

	s.invalidateUpcoming()
	writeJSON(w, http.StatusOK, map[string]int64{"id": id, "version": version})
}

func (s *Server) handleDeleteBill(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.service.DeleteBill(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrBillNotFound) {
			writeError(w, http.StatusNotFound, "bill not found")
			return
		}
		slog.ErrorContext(r.Context(), "Delete bill failed", "bill_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete bill")
		return
	}

	s.invalidateUpcoming()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListOccurrences(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := s.service.GetBill(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrBillNotFound) {
			writeError(w, http.StatusNotFound, "bill not found")
			return
		}
		slog.ErrorContext(r.Context(), "Get bill failed", "bill_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load bill")
		return
	}

	occurrences, err := s.service.ListOccurrences(r.Context(), id)
	if err != nil {
		slog.ErrorContext(r.Context(), "List occurrences failed", "bill_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list occurrences")
		return
	}

	writeJSON(w, http.StatusOK, toOccurrenceJSON(occurrences))
}

// handleSchedulePreview expands a bill payload into its occurrence schedule
// without persisting anything.
func (s *Server) handleSchedulePreview(w http.ResponseWriter, r *http.Request) {
	var req billRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	bill, err := req.toBill()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	occurrences, err := s.service.PreviewSchedule(bill)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toOccurrenceJSON(occurrences))
}

type businessDayResponse struct {
	Date                string `json:"date"`
	IsBusinessDay       bool   `json:"is_business_day"`
	IsWeekend           bool   `json:"is_weekend"`
	Holiday             string `json:"holiday,omitempty"`
	PreviousBusinessDay string `json:"previous_business_day"`
	NextBusinessDay     string `json:"next_business_day"`
}

func (s *Server) handleBusinessDay(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("date"))
	if raw == "" {
		writeError(w, http.StatusBadRequest, "missing 'date' query parameter (YYYY-MM-DD)")
		return
	}
	date, err := core.ParseDate(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid 'date' parameter: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, businessDayResponse{
		Date:                date.String(),
		IsBusinessDay:       core.IsBusinessDay(date),
		IsWeekend:           core.IsWeekend(date),
		Holiday:             core.HolidayName(date),
		PreviousBusinessDay: core.PreviousBusinessDay(date).String(),
		NextBusinessDay:     core.NextBusinessDay(date).String(),
	})
}

type upcomingResponse struct {
	From    string            `json:"from"`
	To      string            `json:"to"`
	Count   int               `json:"count"`
	Total   string            `json:"total"`
	ByMonth []monthAmountJSON `json:"by_month"`
}

type monthAmountJSON struct {
	Year   int    `json:"year"`
	Month  int    `json:"month"`
	Amount string `json:"amount"`
}

// handleUpcoming summarizes the persisted occurrences due in a window.
// Defaults to the next three months starting today.
func (s *Server) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	today := core.NewDate(time.Now().Year(), int(time.Now().Month()), time.Now().Day())

	from := today
	if v := strings.TrimSpace(r.URL.Query().Get("from")); v != "" {
		parsed, err := core.ParseDate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid 'from' parameter: "+err.Error())
			return
		}
		from = parsed
	}

	to := from.AddMonthsClamped(3, from.Day())
	if v := strings.TrimSpace(r.URL.Query().Get("to")); v != "" {
		parsed, err := core.ParseDate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid 'to' parameter: "+err.Error())
			return
		}
		to = parsed
	}

	if to.Before(from) {
		writeError(w, http.StatusBadRequest, "'to' must not precede 'from'")
		return
	}

	key := from.String() + "|" + to.String()
	overview, cached := s.upcomingCache.Get(key)
	if !cached {
		var err error
		overview, err = s.service.Upcoming(r.Context(), from, to)
		if err != nil {
			slog.ErrorContext(r.Context(), "Upcoming overview failed", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to summarize upcoming payments")
			return
		}
		s.upcomingCache.Set(key, overview)
	}

	out := upcomingResponse{
		From:    overview.From.String(),
		To:      overview.To.String(),
		Count:   overview.Count,
		Total:   overview.Total.String(),
		ByMonth: make([]monthAmountJSON, 0, len(overview.ByMonth)),
	}
	for _, m := range overview.ByMonth {
		out.ByMonth = append(out.ByMonth, monthAmountJSON{Year: m.Year, Month: m.Month, Amount: m.Amount.String()})
	}
	writeJSON(w, http.StatusOK, out)
}
