package handler_test

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/common/webapi"

	"github.com/visdata-app/visdata/internal/chat"
	"github.com/visdata-app/visdata/internal/config"
	"github.com/visdata-app/visdata/internal/filestore"
	"github.com/visdata-app/visdata/internal/handler"
	"github.com/visdata-app/visdata/internal/middleware"
	"github.com/visdata-app/visdata/internal/pkg/token"
	"github.com/visdata-app/visdata/internal/repo"
	"github.com/visdata-app/visdata/internal/service"
	"github.com/visdata-app/visdata/test/testutil"
)

// stubProvider answers every prompt with a fixed chart analysis so the
// AI endpoints are exercised without a network dependency.
type stubProvider struct{}

func (stubProvider) Name() string {
	return "stub"
}

func (stubProvider) Generate(ctx context.Context, model string, prompt string) (string, error) {
	return `{"chartType":"line","xColumn":"Date","yColumn":"Sales","reason":"trend over time"}`, nil
}

func setupRouter(t *testing.T) (http.Handler, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, cleanup := testutil.OpenTestDB(t)
	userRepo := repo.NewUserRepo(conn)
	fileRepo := repo.NewFileRepo(conn)

	issuer, err := token.NewIssuer([]byte("test-secret"), "HS256")
	require.NoError(t, err)

	store, err := filestore.New(config.FileStoreConfig{
		Type: "local",
		Data: map[string]interface{}{"dir": t.TempDir()},
	})
	require.NoError(t, err)

	sessions := chat.NewStore(16, 20, time.Hour)
	authService := service.NewAuthService(userRepo, issuer, time.Hour)
	datasetService := service.NewDatasetService(fileRepo, store)
	chartService := service.NewChartService(datasetService, stubProvider{}, sessions, "stub-model", "", 5*time.Second, 10)

	deps := handler.RouterDeps{
		Auth:      handler.NewAuthHandler(authService),
		Users:     handler.NewUserHandler(authService),
		Files:     handler.NewFileHandler(datasetService, 1<<20),
		Visualize: handler.NewVisualizeHandler(datasetService),
		AI:        handler.NewAIHandler(chartService),
		Resolver:  authService,
	}

	engine, err := webapi.NewEngine(
		"/",
		"",
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(nil),
		),
	)
	require.NoError(t, err)

	return engine, cleanup
}

func randomEmail(t *testing.T) string {
	t.Helper()
	buf := make([]byte, 6)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("user-%s@example.com", hex.EncodeToString(buf))
}

func registerUser(t *testing.T, router http.Handler, email, pass string) *httptest.ResponseRecorder {
	t.Helper()
	payload, _ := json.Marshal(map[string]string{"email": email, "password": pass})
	req := httptest.NewRequest(http.MethodPost, "/users/", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func loginUser(t *testing.T, router http.Handler, email, pass string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", pass)
	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func obtainToken(t *testing.T, router http.Handler, email, pass string) string {
	t.Helper()
	require.Equal(t, http.StatusCreated, registerUser(t, router, email, pass).Code)
	resp := loginUser(t, router, email, pass)
	require.Equal(t, http.StatusOK, resp.Code)
	var body struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, "bearer", body.TokenType)
	require.NotEmpty(t, body.AccessToken)
	return body.AccessToken
}

func uploadCSV(t *testing.T, router http.Handler, bearer, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	header.Set("Content-Type", "text/csv")
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/files/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+bearer)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func authedRequest(t *testing.T, router http.Handler, method, path, bearer string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}
