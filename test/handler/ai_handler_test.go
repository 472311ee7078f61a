package handler_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecommendChart(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	bearer := obtainToken(t, router, randomEmail(t), "super-secret")

	up := uploadCSV(t, router, bearer, "sales.csv", sampleCSV)
	require.Equal(t, http.StatusOK, up.Code)
	id := uploadedFileID(t, up)

	resp := authedRequest(t, router, http.MethodGet, fmt.Sprintf("/ai/recommend_chart/%d", id), bearer, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var body struct {
		Data struct {
			Recommendation string `json:"recommendation"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.NotEmpty(t, body.Data.Recommendation)
}

func TestAnalyzeFile(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	bearer := obtainToken(t, router, randomEmail(t), "super-secret")
	other := obtainToken(t, router, randomEmail(t), "super-secret")

	up := uploadCSV(t, router, bearer, "sales.csv", sampleCSV)
	require.Equal(t, http.StatusOK, up.Code)
	id := uploadedFileID(t, up)
	path := fmt.Sprintf("/ai/analyze_file/%d", id)

	resp := authedRequest(t, router, http.MethodGet, path, bearer, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var body struct {
		Data struct {
			ChartType string `json:"chartType"`
			XColumn   string `json:"xColumn"`
			YColumn   string `json:"yColumn"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, "line", body.Data.ChartType)
	require.Equal(t, "Date", body.Data.XColumn)
	require.Equal(t, "Sales", body.Data.YColumn)

	// guard errors are not swallowed by the analysis fallback
	require.Equal(t, http.StatusForbidden, authedRequest(t, router, http.MethodGet, path, other, nil).Code)
}

func TestChat(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	bearer := obtainToken(t, router, randomEmail(t), "super-secret")

	empty, err := json.Marshal(map[string]string{"message": ""})
	require.NoError(t, err)
	resp := authedRequest(t, router, http.MethodPost, "/ai/chat", bearer, empty)
	require.Equal(t, http.StatusBadRequest, resp.Code)

	msg, err := json.Marshal(map[string]string{"message": "what chart fits my data?"})
	require.NoError(t, err)
	resp = authedRequest(t, router, http.MethodPost, "/ai/chat", bearer, msg)
	require.Equal(t, http.StatusOK, resp.Code)

	var body struct {
		Data struct {
			Response string `json:"response"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.NotEmpty(t, body.Data.Response)
}
