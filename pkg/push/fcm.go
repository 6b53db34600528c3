// Package push sends web push notifications through Firebase Cloud Messaging HTTP v1.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrUnregistered means the device token is gone and should be forgotten.
var ErrUnregistered = errors.New("push token unregistered")

// ErrDisabled is returned when no FCM project is configured.
var ErrDisabled = errors.New("push delivery disabled")

type Message struct {
	Token string            `json:"token"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Link  string            `json:"link,omitempty"`
	Data  map[string]string `json:"data,omitempty"`
}

type SenderInterface interface {
	Send(ctx context.Context, msg Message) error
}

type FCMSender struct {
	endpoint    string
	projectID   string
	accessToken string
	httpClient  *http.Client
	logger      *zap.Logger
}

func NewFCMSender(endpoint, projectID, accessToken string, logger *zap.Logger) *FCMSender {
	return &FCMSender{
		endpoint:    strings.TrimRight(endpoint, "/"),
		projectID:   projectID,
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		logger:      logger,
	}
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmWebpush struct {
	FcmOptions struct {
		Link string `json:"link,omitempty"`
	} `json:"fcm_options"`
}

type fcmMessage struct {
	Token        string            `json:"token"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
	Webpush      *fcmWebpush       `json:"webpush,omitempty"`
}

type fcmRequest struct {
	Message fcmMessage `json:"message"`
}

type fcmErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
		Details []struct {
			Type      string `json:"@type"`
			ErrorCode string `json:"errorCode"`
		} `json:"details"`
	} `json:"error"`
}

func (s *FCMSender) Send(ctx context.Context, msg Message) error {
	if s.projectID == "" || s.accessToken == "" {
		return ErrDisabled
	}

	req := fcmRequest{Message: fcmMessage{
		Token:        msg.Token,
		Notification: fcmNotification{Title: msg.Title, Body: msg.Body},
		Data:         msg.Data,
	}}
	if msg.Link != "" {
		req.Message.Webpush = &fcmWebpush{}
		req.Message.Webpush.FcmOptions.Link = msg.Link
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode fcm message: %w", err)
	}

	url := fmt.Sprintf("%s/v1/projects/%s/messages:send", s.endpoint, s.projectID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.accessToken)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("fcm request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	var fcmErr fcmErrorResponse
	_ = json.Unmarshal(body, &fcmErr)
	for _, d := range fcmErr.Error.Details {
		if d.ErrorCode == "UNREGISTERED" {
			return ErrUnregistered
		}
	}
	if resp.StatusCode == http.StatusNotFound {
		return ErrUnregistered
	}

	s.logger.Warn("fcm send failed",
		zap.Int("status", resp.StatusCode),
		zap.String("fcm_status", fcmErr.Error.Status),
		zap.String("message", fcmErr.Error.Message),
	)
	return fmt.Errorf("fcm responded %d: %s", resp.StatusCode, fcmErr.Error.Status)
}
