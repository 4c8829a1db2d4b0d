package httpadapter

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/xuri/excelize/v2"
)

// getFieldStatsReport renders the cached form-field statistics as a
// spreadsheet the dashboard offers for download.
func (rt *Router) getFieldStatsReport(w http.ResponseWriter, r *http.Request) {
	caseID := r.PathValue("case_id")
	if _, err := rt.cases.GetByID(r.Context(), caseID); err != nil {
		rt.writeError(w, r, err)
		return
	}

	stats, err := rt.sessions.FieldStats(r.Context(), caseID)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if len(stats) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no field statistics for this case yet"})
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Field Stats"
	index, err := f.NewSheet(sheet)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		rt.writeError(w, r, err)
		return
	}

	_ = f.SetCellValue(sheet, "A1", "Metric")
	_ = f.SetCellValue(sheet, "B1", "Count")

	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for i, k := range keys {
		row := i + 2
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), k)
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), stats[k])
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", caseID+"_field_stats.xlsx"))
	if err := f.Write(w); err != nil {
		rt.logger.Error("report_write_failed", "case_id", caseID, "error", err)
	}
}
