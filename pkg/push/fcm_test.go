package push

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFCMSendSuccess(t *testing.T) {
	var got fcmRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/projects/postos/messages:send", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"name":"projects/postos/messages/1"}`))
	}))
	defer srv.Close()

	sender := NewFCMSender(srv.URL+"/", "postos", "tok", zap.NewNop())
	err := sender.Send(context.Background(), Message{
		Token: "device-1",
		Title: "Aprovação pendente",
		Body:  "Diesel S10 em Posto Centro",
		Link:  "https://app.example/approvals/5",
		Data:  map[string]string{"suggestion_id": "5"},
	})
	require.NoError(t, err)

	assert.Equal(t, "device-1", got.Message.Token)
	assert.Equal(t, "Aprovação pendente", got.Message.Notification.Title)
	require.NotNil(t, got.Message.Webpush)
	assert.Equal(t, "https://app.example/approvals/5", got.Message.Webpush.FcmOptions.Link)
	assert.Equal(t, "5", got.Message.Data["suggestion_id"])
}

func TestFCMSendUnregistered(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"status":"INVALID_ARGUMENT","details":[{"@type":"type.googleapis.com/google.firebase.fcm.v1.FcmError","errorCode":"UNREGISTERED"}]}}`))
	}))
	defer srv.Close()

	err := NewFCMSender(srv.URL, "p", "tok", zap.NewNop()).Send(context.Background(), Message{Token: "gone"})
	assert.ErrorIs(t, err, ErrUnregistered)
}

func TestFCMSendServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"code":503,"status":"UNAVAILABLE"}}`))
	}))
	defer srv.Close()

	err := NewFCMSender(srv.URL, "p", "tok", zap.NewNop()).Send(context.Background(), Message{Token: "t"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnregistered)
	assert.Contains(t, err.Error(), "UNAVAILABLE")
}

func TestFCMDisabled(t *testing.T) {
	err := NewFCMSender("http://unused", "", "", zap.NewNop()).Send(context.Background(), Message{Token: "t"})
	assert.ErrorIs(t, err, ErrDisabled)
}
