package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/vr-campus-tours/internal/model"
)

func listColleges(t *testing.T, target string) []model.College {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, NewCollegeHandler().List(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Colleges []model.College `json:"colleges"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Colleges
}

func TestCollegeListAll(t *testing.T) {
	got := listColleges(t, "/v1/colleges")
	assert.Len(t, got, len(colleges))
}

func TestCollegeListFilterByState(t *testing.T) {
	got := listColleges(t, "/v1/colleges?state=ma")
	require.NotEmpty(t, got)
	for _, c := range got {
		assert.Equal(t, "MA", c.State)
	}
}

func TestCollegeListFilterByName(t *testing.T) {
	got := listColleges(t, "/v1/colleges?q=university+of")
	require.NotEmpty(t, got)
	for _, c := range got {
		assert.Contains(t, c.Name, "University of")
	}
}

func TestCollegeListNoMatch(t *testing.T) {
	got := listColleges(t, "/v1/colleges?state=ZZ")
	assert.Empty(t, got)
}
