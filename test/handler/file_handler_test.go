package handler_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleCSV = "Date,Sales\n2024-01-01,10\n2024-01-02,25\n"

func uploadedFileID(t *testing.T, resp *httptest.ResponseRecorder) int64 {
	t.Helper()
	var body struct {
		Data struct {
			ID int64 `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.NotZero(t, body.Data.ID)
	return body.Data.ID
}

func TestUploadAndList(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	bearer := obtainToken(t, router, randomEmail(t), "super-secret")

	up := uploadCSV(t, router, bearer, "sales.csv", sampleCSV)
	require.Equal(t, http.StatusOK, up.Code)
	id := uploadedFileID(t, up)

	list := authedRequest(t, router, http.MethodGet, "/files/", bearer, nil)
	require.Equal(t, http.StatusOK, list.Code)

	var listed struct {
		Data []struct {
			ID       int64  `json:"id"`
			Filename string `json:"filename"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &listed))
	require.Len(t, listed.Data, 1)
	require.Equal(t, id, listed.Data[0].ID)
	require.Equal(t, "sales.csv", listed.Data[0].Filename)
	require.NotContains(t, list.Body.String(), "storage_key")
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	bearer := obtainToken(t, router, randomEmail(t), "super-secret")
	resp := uploadCSV(t, router, bearer, "report.pdf", "%PDF-1.4")
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestFileOwnershipGuard(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	alice := obtainToken(t, router, randomEmail(t), "super-secret")
	bob := obtainToken(t, router, randomEmail(t), "super-secret")

	up := uploadCSV(t, router, alice, "sales.csv", sampleCSV)
	require.Equal(t, http.StatusOK, up.Code)
	id := uploadedFileID(t, up)

	path := fmt.Sprintf("/visualize/%d/data", id)

	owner := authedRequest(t, router, http.MethodGet, path, alice, nil)
	require.Equal(t, http.StatusOK, owner.Code)
	require.Contains(t, owner.Body.String(), "Sales")

	other := authedRequest(t, router, http.MethodGet, path, bob, nil)
	require.Equal(t, http.StatusForbidden, other.Code)

	missing := authedRequest(t, router, http.MethodGet, "/visualize/123456789/data", bob, nil)
	require.Equal(t, http.StatusNotFound, missing.Code)
}

func TestDeleteFile(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	alice := obtainToken(t, router, randomEmail(t), "super-secret")
	bob := obtainToken(t, router, randomEmail(t), "super-secret")

	up := uploadCSV(t, router, alice, "sales.csv", sampleCSV)
	require.Equal(t, http.StatusOK, up.Code)
	id := uploadedFileID(t, up)
	path := fmt.Sprintf("/files/%d", id)

	require.Equal(t, http.StatusForbidden, authedRequest(t, router, http.MethodDelete, path, bob, nil).Code)
	require.Equal(t, http.StatusNoContent, authedRequest(t, router, http.MethodDelete, path, alice, nil).Code)
	require.Equal(t, http.StatusNotFound, authedRequest(t, router, http.MethodDelete, path, alice, nil).Code)
}
