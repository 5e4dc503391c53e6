package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vr-campus-tours/internal/model"
)

// colleges is the static directory served by GET /v1/colleges. The IDs
// are stable since bookings may reference them through college_id.
var colleges = []model.College{
	{ID: 1, Name: "Stanford University", City: "Stanford", State: "CA", TourMins: 45},
	{ID: 2, Name: "Massachusetts Institute of Technology", City: "Cambridge", State: "MA", TourMins: 45},
	{ID: 3, Name: "Harvard University", City: "Cambridge", State: "MA", TourMins: 40},
	{ID: 4, Name: "University of California, Berkeley", City: "Berkeley", State: "CA", TourMins: 50},
	{ID: 5, Name: "University of Michigan", City: "Ann Arbor", State: "MI", TourMins: 40},
	{ID: 6, Name: "Georgia Institute of Technology", City: "Atlanta", State: "GA", TourMins: 35},
	{ID: 7, Name: "University of Texas at Austin", City: "Austin", State: "TX", TourMins: 40},
	{ID: 8, Name: "New York University", City: "New York", State: "NY", TourMins: 35},
	{ID: 9, Name: "University of Washington", City: "Seattle", State: "WA", TourMins: 40},
	{ID: 10, Name: "Carnegie Mellon University", City: "Pittsburgh", State: "PA", TourMins: 45},
	{ID: 11, Name: "Duke University", City: "Durham", State: "NC", TourMins: 40},
	{ID: 12, Name: "University of Illinois Urbana-Champaign", City: "Champaign", State: "IL", TourMins: 35},
}

// CollegeHandler serves the read-only college directory.
type CollegeHandler struct{}

func NewCollegeHandler() *CollegeHandler { return &CollegeHandler{} }

// List handles GET /v1/colleges. The optional ?state and ?q parameters
// filter by state code and case-insensitive name substring.
func (h *CollegeHandler) List(c echo.Context) error {
	state := strings.ToUpper(strings.TrimSpace(c.QueryParam("state")))
	q := strings.ToLower(strings.TrimSpace(c.QueryParam("q")))

	out := make([]model.College, 0, len(colleges))
	for _, col := range colleges {
		if state != "" && col.State != state {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(col.Name), q) {
			continue
		}
		out = append(out, col)
	}
	return c.JSON(http.StatusOK, echo.Map{"colleges": out})
}
