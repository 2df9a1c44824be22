package handler

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jefersongoes36-cmd/dns-controlo-v2/internal/domain"
	"github.com/jefersongoes36-cmd/dns-controlo-v2/internal/payroll"
	"github.com/jefersongoes36-cmd/dns-controlo-v2/internal/repository"
	"github.com/jefersongoes36-cmd/dns-controlo-v2/internal/server/authctx"
	"github.com/xuri/excelize/v2"
)

// ReportHandler turns time records into payroll figures. Raw amounts are
// minor units; formatted strings use the employee's language and currency.
type ReportHandler struct {
	Users   *repository.UserRepository
	Records *repository.RecordRepository
}

func (h ReportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/reports/summary", h.summary)
	r.Get("/reports/export", h.export)
}

func (h ReportHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/admin/reports/summary", h.adminSummary)
	r.Get("/admin/reports/export", h.adminExport)
}

func (h ReportHandler) summary(w http.ResponseWriter, r *http.Request) {
	actor := authctx.FromContext(r.Context())
	if actor == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	h.writeSummary(w, r, actor.ID)
}

func (h ReportHandler) adminSummary(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}
	h.writeSummary(w, r, userID)
}

func (h ReportHandler) writeSummary(w http.ResponseWriter, r *http.Request, userID string) {
	user, records, ok := h.load(w, r, userID)
	if !ok {
		return
	}

	days := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		b := payroll.Compute(*user, rec)
		days = append(days, map[string]any{
			"date":           b.Date,
			"isAbsent":       rec.IsAbsent,
			"workSite":       rec.WorkSite,
			"minutes":        b.Minutes,
			"hours":          b.Hours,
			"gross":          b.Gross,
			"socialSecurity": b.SocialSecurity,
			"incomeTax":      b.IncomeTax,
			"advance":        b.Advance,
			"net":            b.Net,
		})
	}
	sum := payroll.Summarize(*user, records)
	writeJSON(w, http.StatusOK, map[string]any{
		"userId":   user.ID,
		"currency": user.Currency,
		"days":     days,
		"totals": map[string]any{
			"days":           sum.Days,
			"absentDays":     sum.AbsentDays,
			"hours":          sum.Hours,
			"gross":          sum.Gross,
			"socialSecurity": sum.SocialSecurity,
			"incomeTax":      sum.IncomeTax,
			"advances":       sum.Advances,
			"net":            sum.Net,
		},
		"formatted": map[string]any{
			"gross":    payroll.FormatMoney(user.Language, user.Currency, sum.Gross),
			"net":      payroll.FormatMoney(user.Language, user.Currency, sum.Net),
			"advances": payroll.FormatMoney(user.Language, user.Currency, sum.Advances),
		},
	})
}

func (h ReportHandler) export(w http.ResponseWriter, r *http.Request) {
	actor := authctx.FromContext(r.Context())
	if actor == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	h.writeExport(w, r, actor.ID)
}

func (h ReportHandler) adminExport(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}
	h.writeExport(w, r, userID)
}

func (h ReportHandler) writeExport(w http.ResponseWriter, r *http.Request, userID string) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	user, records, ok := h.load(w, r, userID)
	if !ok {
		return
	}

	rows := make([]payroll.Breakdown, 0, len(records))
	for _, rec := range records {
		rows = append(rows, payroll.Compute(*user, rec))
	}
	filenameSuffix := time.Now().Format("20060102_150405")

	switch format {
	case "csv":
		data, err := exportReportCSV(user.Currency, records, rows)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"payroll_%s.csv\"", filenameSuffix))
		_, _ = w.Write(data)
	case "xlsx", "excel":
		data, err := exportReportXLSX(user.Currency, records, rows)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"payroll_%s.xlsx\"", filenameSuffix))
		_, _ = w.Write(data)
	default:
		writeError(w, http.StatusBadRequest, "invalid format (use csv or xlsx)")
	}
}

func (h ReportHandler) load(w http.ResponseWriter, r *http.Request, userID string) (*domain.User, []domain.TimeRecord, bool) {
	from, err := parseDateQuery(r, "startDate")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid startDate")
		return nil, nil, false
	}
	to, err := parseDateQuery(r, "endDate")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid endDate")
		return nil, nil, false
	}
	if from != nil && to != nil && from.After(*to) {
		writeError(w, http.StatusBadRequest, "startDate must be before endDate")
		return nil, nil, false
	}

	user, err := h.Users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return nil, nil, false
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, nil, false
	}
	records, err := h.Records.ListByOwner(r.Context(), userID, from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, nil, false
	}
	return user, records, true
}

var reportHeader = []string{"date", "start", "end", "lunch_minutes", "absent", "work_site", "hours", "gross", "social_security", "income_tax", "advance", "net", "currency"}

func reportRow(currency string, rec domain.TimeRecord, b payroll.Breakdown) []string {
	return []string{
		rec.Date,
		rec.StartTime,
		rec.EndTime,
		strconv.Itoa(rec.LunchDuration),
		strconv.FormatBool(rec.IsAbsent),
		rec.WorkSite,
		strconv.FormatFloat(b.Hours, 'f', 2, 64),
		strconv.FormatInt(b.Gross, 10),
		strconv.FormatInt(b.SocialSecurity, 10),
		strconv.FormatInt(b.IncomeTax, 10),
		strconv.FormatInt(b.Advance, 10),
		strconv.FormatInt(b.Net, 10),
		currency,
	}
}

func exportReportCSV(currency string, records []domain.TimeRecord, rows []payroll.Breakdown) ([]byte, error) {
	buf := new(bytes.Buffer)
	w := csv.NewWriter(buf)
	_ = w.Write(reportHeader)
	for i, rec := range records {
		_ = w.Write(reportRow(currency, rec, rows[i]))
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func exportReportXLSX(currency string, records []domain.TimeRecord, rows []payroll.Breakdown) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "Payroll"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	for c, v := range reportHeader {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		_ = f.SetCellValue(sheet, cell, v)
	}
	for i, rec := range records {
		row := i + 2
		b := rows[i]
		values := []any{
			rec.Date, rec.StartTime, rec.EndTime, rec.LunchDuration, rec.IsAbsent, rec.WorkSite,
			b.Hours, b.Gross, b.SocialSecurity, b.IncomeTax, b.Advance, b.Net, currency,
		}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 12)
	_ = f.SetColWidth(sheet, "B", "C", 8)
	_ = f.SetColWidth(sheet, "D", "E", 14)
	_ = f.SetColWidth(sheet, "F", "F", 20)
	_ = f.SetColWidth(sheet, "G", "L", 14)

	style, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#1F2937"}, Pattern: 1},
	})
	_ = f.SetCellStyle(sheet, "A1", "M1", style)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
