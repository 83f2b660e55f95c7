package rest

import (
	"bytes"
	"fmt"
	"net/http"
)

// DownloadRoster は GET /api/v1/reports/probation-roster.xlsx を処理します。
func (h *Handler) DownloadRoster(w http.ResponseWriter, r *http.Request) {
	if h.roster == nil {
		writeError(w, http.StatusNotFound, "report is not configured", nil)
		return
	}

	var buf bytes.Buffer
	if err := h.roster.Write(r.Context(), &buf); err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "probation-roster.xlsx"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
