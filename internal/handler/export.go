package handler

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"

	"github.com/akorchak/fleet-dispatch/internal/domain"
)

// csvHeaders defines the column names written as the first row of the CSV
// export.
var csvHeaders = []string{
	"trip_id", "trip_name", "description", "state", "problem",
	"driver_id", "driver_username", "start_date", "end_date",
}

// ExportFleetTrips handles GET /fleets/{fleetID}/trips/export.
// It returns the fleet's full trip history as a flat table.
// Use ?format=csv to receive CSV; default is JSON.
func (s *Server) ExportFleetTrips(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	fleetID, err := pathUUID(r, "fleetID")
	if err != nil {
		respondErr(w, r, err)
		return
	}

	rows, err := s.export.ExportByFleet(r.Context(), user, fleetID)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		writeCSV(w, rows)
		return
	}
	respondOK(w, http.StatusOK, map[string]any{"trips": rows})
}

// writeCSV encodes the rows as CSV with one trip per line.
func writeCSV(w http.ResponseWriter, rows []domain.ExportRow) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	// csv.Writer on a bytes.Buffer cannot fail until Flush.
	_ = cw.Write(csvHeaders)
	for _, row := range rows {
		_ = cw.Write([]string{
			row.TripID, row.TripName, row.Description, row.State,
			strconv.Itoa(row.Problem), row.DriverID, row.DriverUsername,
			row.StartDate, row.EndDate,
		})
	}
	cw.Flush()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="trips.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
