package apiserver_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lookbusy1344/sam3x-emulator/apiserver"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck(t *testing.T) {
	server := apiserver.NewServer(8080)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	require.Equal(t, "ok", response["status"])
}

func createSession(t *testing.T, server *apiserver.Server) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/session", nil)
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	id, ok := response["sessionId"].(string)
	require.True(t, ok)
	require.NotEmpty(t, id)
	return id
}

func TestCreateAndListSessions(t *testing.T) {
	server := apiserver.NewServer(8080)
	for i := 0; i < 3; i++ {
		createSession(t, server)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	sessions, ok := response["sessions"].([]interface{})
	require.True(t, ok)
	require.Len(t, sessions, 3)
}

func TestSessionStatusAndDestroy(t *testing.T) {
	server := apiserver.NewServer(8080)
	id := createSession(t, server)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/session/"+id, nil)
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/session/"+id, nil)
	w = httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/session/"+id, nil)
	w = httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionDisplayAndPIO(t *testing.T) {
	server := apiserver.NewServer(8080)
	id := createSession(t, server)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/session/"+id+"/display", nil)
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/session/"+id+"/pio", nil)
	w = httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestCheckpointRoundTrip(t *testing.T) {
	server := apiserver.NewServer(8080)
	id := createSession(t, server)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/session/"+id+"/checkpoint", nil)
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.Bytes()
	require.NotEmpty(t, body)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/session/"+id+"/checkpoint", w.Body)
	w = httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}
