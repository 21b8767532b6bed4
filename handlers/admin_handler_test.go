package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"helpdesk-system/config"
	"helpdesk-system/models"
	"helpdesk-system/services"
	"helpdesk-system/storage"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAdminHandler(t *testing.T) (*AdminHandler, redismock.ClientMock) {
	t.Helper()
	db, mock := redismock.NewClientMock()
	st := storage.New(db)
	svc := services.NewTicketService(st, nil, &config.Config{})
	return NewAdminHandler(svc, st), mock
}

func TestAdminHandler_ImportAgents_MultipartUpload(t *testing.T) {
	h, mock := setupAdminHandler(t)

	mock.ExpectGet(storage.KeyAllowedAgents).RedisNil()
	mock.ExpectSet(storage.KeyAllowedAgents,
		[]byte(marshalJSON(t, []string{"a@x.com", "b@y.com"})), 0).SetVal("OK")

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", "agents.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte("a@x.com,b@y.com\nnot-an-email\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/agents/import", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	event, rec := newRequestEvent(req)

	require.NoError(t, h.ImportAgents(event))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(2), resp["imported"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminHandler_ImportAgents_MissingFile(t *testing.T) {
	h, _ := setupAdminHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/agents/import", nil)
	event, _ := newRequestEvent(req)

	assert.Error(t, h.ImportAgents(event))
}

func TestAdminHandler_AddAgent_RejectsNonEmail(t *testing.T) {
	h, mock := setupAdminHandler(t)

	// The import still runs, it just accepts zero tokens.
	mock.ExpectGet(storage.KeyAllowedAgents).RedisNil()
	mock.ExpectSet(storage.KeyAllowedAgents, []byte("[]"), 0).SetVal("OK")

	body := []byte(`{"email":"not-an-email"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/agents", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	event, _ := newRequestEvent(req)

	assert.Error(t, h.AddAgent(event))
}

func TestAdminHandler_RemoveAgent(t *testing.T) {
	h, mock := setupAdminHandler(t)

	mock.ExpectGet(storage.KeyAllowedAgents).SetVal(marshalJSON(t, []string{"a@x.com", "b@y.com"}))
	mock.ExpectSet(storage.KeyAllowedAgents, []byte(marshalJSON(t, []string{"b@y.com"})), 0).SetVal("OK")

	req := httptest.NewRequest(http.MethodDelete, "/api/admin/agents?email=A@X.com", nil)
	event, rec := newRequestEvent(req)

	require.NoError(t, h.RemoveAgent(event))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminHandler_RemoveAgent_RequiresEmail(t *testing.T) {
	h, _ := setupAdminHandler(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/admin/agents", nil)
	event, _ := newRequestEvent(req)

	assert.Error(t, h.RemoveAgent(event))
}

func TestAdminHandler_ListStaff(t *testing.T) {
	h, mock := setupAdminHandler(t)

	staff := []models.User{
		{ID: 101, Name: "IT Administrator", Email: "admin@livak.esam.com.ng", UserType: models.UserTypeStaff},
		{ID: 102, Name: "Bob Technician", Email: "bob@livak.esam.com.ng", UserType: models.UserTypeStaff},
	}
	mock.ExpectGet(storage.KeyStaff).SetVal(marshalJSON(t, staff))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/staff", nil)
	event, rec := newRequestEvent(req)

	require.NoError(t, h.ListStaff(event))

	var resp struct {
		Staff []models.User `json:"staff"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Staff, 2)
	assert.Equal(t, "Bob Technician", resp.Staff[1].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}
