package http

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "wastelens/internal/errors"
	"wastelens/pkg/contracts/domain"
)

// ReportHandler serves the analytics over one dataset: the combined
// report, individual breakdown tables with CSV export, and forecasts.
type ReportHandler struct {
	service      AnalyticsServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewReportHandler creates a report handler.
func NewReportHandler(service AnalyticsServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ReportHandler {
	return &ReportHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "report_handler")),
		errorHandler: errorHandler,
	}
}

// RegisterRoutes attaches the view-scoped analytics routes to a
// dataset-scoped router.
func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/report", h.Report)
	r.Get("/breakdowns/{table}", h.Breakdown)
	r.Get("/forecast", h.Forecast)
}

// Report handles GET .../report: the full KPI-and-breakdown report for
// the filtered view described by the query string.
func (h *ReportHandler) Report(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "datasetID")

	vq, err := decodeViewQuery(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	spec, err := vq.filterSpec(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	report, err := h.service.Report(r.Context(), id, spec)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, report)
}

// Breakdown handles GET .../breakdowns/{table}. The items table drills
// into the category named by the query; every table supports
// format=csv.
func (h *ReportHandler) Breakdown(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "datasetID")
	table := chi.URLParam(r, "table")

	vq, err := decodeViewQuery(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	spec, err := vq.filterSpec(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	if table == "items" {
		if vq.Category == "" {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("category", "items breakdown requires a category"))
			return
		}
		items, err := h.service.ItemBreakdown(r.Context(), id, spec, vq.Category, vq.metric())
		if err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		h.renderKeyValues(w, r, vq, table, items)
		return
	}

	report, err := h.service.Report(r.Context(), id, spec)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	switch table {
	case "loss-reasons":
		h.renderKeyCounts(w, r, vq, table, report.LossReasonCounts)
	case "dispositions":
		h.renderKeyCounts(w, r, vq, table, report.DispositionCounts)
	case "stages":
		h.renderKeyCounts(w, r, vq, table, report.StageCounts)
	case "categories":
		h.renderKeyValues(w, r, vq, table, report.CategoryTotals)
	case "operators":
		h.renderKeyValues(w, r, vq, table, report.CostByOperator)
	case "sites":
		h.renderKeyValues(w, r, vq, table, report.CostPerKgBySite)
	case "co2-dispositions":
		h.renderKeyValues(w, r, vq, table, report.CO2ByDisposition)
	case "monthly":
		h.renderMonthly(w, r, vq, table, report.Monthly)
	default:
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("table", fmt.Sprintf("unknown breakdown table %q", table)))
	}
}

// Forecast handles GET .../forecast. With an explicit metric parameter
// it fits a single series; without one it fits both metrics, reporting
// per-metric failures alongside the successes.
func (h *ReportHandler) Forecast(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "datasetID")

	vq, err := decodeViewQuery(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	spec, err := vq.filterSpec(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	if vq.Metric != "" {
		series, err := h.service.Forecast(r.Context(), id, spec, vq.metric(), vq.horizon())
		if err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		render.JSON(w, r, series)
		return
	}

	bundle, err := h.service.ForecastBoth(r.Context(), id, spec, vq.horizon())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, bundle)
}

func (h *ReportHandler) renderKeyValues(w http.ResponseWriter, r *http.Request, vq viewQuery, table string, rows []domain.KeyValue) {
	if vq.Format == "csv" {
		records := make([][]string, 0, len(rows)+1)
		records = append(records, []string{"key", "value"})
		for _, row := range rows {
			records = append(records, []string{row.Key, formatFloat(row.Value)})
		}
		h.writeCSV(w, r, table, records)
		return
	}
	render.JSON(w, r, map[string]interface{}{"table": table, "rows": rows})
}

func (h *ReportHandler) renderKeyCounts(w http.ResponseWriter, r *http.Request, vq viewQuery, table string, rows []domain.KeyCount) {
	if vq.Format == "csv" {
		records := make([][]string, 0, len(rows)+1)
		records = append(records, []string{"key", "count"})
		for _, row := range rows {
			records = append(records, []string{row.Key, strconv.Itoa(row.Count)})
		}
		h.writeCSV(w, r, table, records)
		return
	}
	render.JSON(w, r, map[string]interface{}{"table": table, "rows": rows})
}

func (h *ReportHandler) renderMonthly(w http.ResponseWriter, r *http.Request, vq viewQuery, table string, rows []domain.MonthlyTotals) {
	if vq.Format == "csv" {
		records := make([][]string, 0, len(rows)+1)
		records = append(records, []string{"month", "cost", "weight"})
		for _, row := range rows {
			records = append(records, []string{row.Label, formatFloat(row.Cost), formatFloat(row.Weight)})
		}
		h.writeCSV(w, r, table, records)
		return
	}
	render.JSON(w, r, map[string]interface{}{"table": table, "rows": rows})
}

func (h *ReportHandler) writeCSV(w http.ResponseWriter, r *http.Request, table string, records [][]string) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", table+".csv"))

	writer := csv.NewWriter(w)
	if err := writer.WriteAll(records); err != nil {
		h.logger.ErrorContext(r.Context(), "csv export failed",
			slog.String("table", table),
			slog.String("error", err.Error()))
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
