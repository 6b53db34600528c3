package controllers

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fuel-pricing/internal/dto"
	"fuel-pricing/internal/services"
	apperrors "fuel-pricing/pkg/errors"
	"fuel-pricing/pkg/types"
	"fuel-pricing/pkg/utils"
	"fuel-pricing/pkg/validation"
)

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = validation.New()
	return e
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Body    json.RawMessage `json:"body"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func refreshCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == refreshCookieName {
			return c
		}
	}
	return nil
}

type fakeAuthService struct {
	services.AuthServiceInterface
	gotRefresh string
	loggedOut  string
}

func (f *fakeAuthService) Login(_ context.Context, payload dto.LoginDTO) (*dto.AuthResponseDTO, error) {
	if payload.Password != "secret123" {
		return nil, apperrors.ErrInvalidCredentials
	}
	return &dto.AuthResponseDTO{
		AccessToken:      "access-1",
		RefreshToken:     "refresh-1",
		RefreshExpiresAt: time.Now().Add(time.Hour),
	}, nil
}

func (f *fakeAuthService) Refresh(_ context.Context, token string) (*dto.AuthResponseDTO, error) {
	f.gotRefresh = token
	if token != "refresh-1" {
		return nil, apperrors.ErrTokenRevoked
	}
	return &dto.AuthResponseDTO{AccessToken: "access-2", RefreshToken: "refresh-2", RefreshExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (f *fakeAuthService) Logout(_ context.Context, token string) error {
	f.loggedOut = token
	return nil
}

func TestLoginSetsRefreshCookie(t *testing.T) {
	e := newEcho()
	ctrl := NewAuthController(&fakeAuthService{}, true, zap.NewNop())

	rec := httptest.NewRecorder()
	err := ctrl.Login(e.NewContext(jsonRequest(http.MethodPost, "/api/auth/login", `{"login":"ana","password":"secret123"}`), rec))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	cookie := refreshCookie(rec)
	require.NotNil(t, cookie)
	assert.Equal(t, "refresh-1", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
}

func TestLoginFailures(t *testing.T) {
	e := newEcho()
	ctrl := NewAuthController(&fakeAuthService{}, false, zap.NewNop())

	rec := httptest.NewRecorder()
	require.NoError(t, ctrl.Login(e.NewContext(jsonRequest(http.MethodPost, "/", `{"login":"ana","password":"wrong-pass"}`), rec)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, refreshCookie(rec))

	rec = httptest.NewRecorder()
	require.NoError(t, ctrl.Login(e.NewContext(jsonRequest(http.MethodPost, "/", `{"login":"a"}`), rec)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	require.NoError(t, ctrl.Login(e.NewContext(jsonRequest(http.MethodPost, "/", `{"login":`), rec)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefreshFallsBackToCookie(t *testing.T) {
	e := newEcho()
	auth := &fakeAuthService{}
	ctrl := NewAuthController(auth, false, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: "refresh-1"})
	rec := httptest.NewRecorder()
	require.NoError(t, ctrl.Refresh(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "refresh-1", auth.gotRefresh)
	require.NotNil(t, refreshCookie(rec))
	assert.Equal(t, "refresh-2", refreshCookie(rec).Value)
}

func TestRefreshReuseClearsCookie(t *testing.T) {
	e := newEcho()
	ctrl := NewAuthController(&fakeAuthService{}, false, zap.NewNop())

	rec := httptest.NewRecorder()
	require.NoError(t, ctrl.Refresh(e.NewContext(jsonRequest(http.MethodPost, "/", `{"refresh_token":"old"}`), rec)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	cookie := refreshCookie(rec)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)

	rec = httptest.NewRecorder()
	require.NoError(t, ctrl.Refresh(e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutRevokesBodyToken(t *testing.T) {
	e := newEcho()
	auth := &fakeAuthService{}
	ctrl := NewAuthController(auth, false, zap.NewNop())

	rec := httptest.NewRecorder()
	require.NoError(t, ctrl.Logout(e.NewContext(jsonRequest(http.MethodPost, "/", `{"refresh_token":"refresh-1"}`), rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "refresh-1", auth.loggedOut)
}

type fakeApprovalService struct {
	services.ApprovalServiceInterface
	err error
}

func (f *fakeApprovalService) Reject(_ context.Context, id uint64, payload dto.RejectDTO) (*dto.SuggestionDTO, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &dto.SuggestionDTO{ID: id, Status: "rejected", RejectionReason: &payload.Reason}, nil
}

func TestRejectStatusCodes(t *testing.T) {
	e := newEcho()

	cases := []struct {
		name string
		id   string
		body string
		err  error
		want int
	}{
		{"ok", "7", `{"reason":"margin too thin"}`, nil, http.StatusOK},
		{"bad id", "abc", `{"reason":"margin too thin"}`, nil, http.StatusBadRequest},
		{"missing reason", "7", `{}`, nil, http.StatusBadRequest},
		{"already decided", "7", `{"reason":"margin too thin"}`, apperrors.ErrInvalidStatusTransition, http.StatusConflict},
		{"self approval", "7", `{"reason":"margin too thin"}`, apperrors.ErrSelfApproval, http.StatusForbidden},
		{"missing", "7", `{"reason":"margin too thin"}`, apperrors.ErrNotFound, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := NewApprovalController(&fakeApprovalService{err: tc.err}, zap.NewNop())
			rec := httptest.NewRecorder()
			c := e.NewContext(jsonRequest(http.MethodPost, "/", tc.body), rec)
			c.SetParamNames("id")
			c.SetParamValues(tc.id)

			require.NoError(t, ctrl.Reject(c))
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

type fakeSuggestionService struct {
	services.PriceSuggestionServiceInterface
	query  dto.SuggestionListQuery
	filter types.Filter
}

func (f *fakeSuggestionService) GetSuggestions(_ context.Context, filter types.Filter, query dto.SuggestionListQuery) ([]dto.SuggestionDTO, uint64, error) {
	f.filter = filter
	f.query = query
	return []dto.SuggestionDTO{{ID: 1}, {ID: 2}}, 12, nil
}

func TestGetSuggestionsBindsQuery(t *testing.T) {
	e := newEcho()
	svc := &fakeSuggestionService{}
	ctrl := NewSuggestionController(svc, nil, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/suggestions?mine=true&from=2026-05-01&filter[status]=pending&limit=2&withPagination=true", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, ctrl.GetSuggestions(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, svc.query.Mine)
	assert.Equal(t, "2026-05-01", svc.query.From)
	assert.Equal(t, "pending", svc.filter.Filter["status"])

	var body struct {
		List       []dto.SuggestionDTO `json:"list"`
		Pagination types.Pagination    `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Body, &body))
	assert.Len(t, body.List, 2)
	assert.Equal(t, uint64(12), body.Pagination.TotalCount)
	assert.Equal(t, 6, body.Pagination.TotalPages)
}

func TestGetSuggestionsRejectsBadDate(t *testing.T) {
	e := newEcho()
	ctrl := NewSuggestionController(&fakeSuggestionService{}, nil, zap.NewNop())

	rec := httptest.NewRecorder()
	require.NoError(t, ctrl.GetSuggestions(e.NewContext(httptest.NewRequest(http.MethodGet, "/?from=05/01/2026", nil), rec)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type fakeResearchService struct {
	services.ResearchServiceInterface
	payload   dto.CreateCompetitorPriceDTO
	photoName string
	photo     []byte
}

func (f *fakeResearchService) CreatePrice(_ context.Context, payload dto.CreateCompetitorPriceDTO, photo *services.UploadedFile) (*dto.CompetitorPriceDTO, error) {
	f.payload = payload
	if photo != nil {
		f.photoName = photo.Name
		f.photo, _ = io.ReadAll(photo.Reader)
	}
	return &dto.CompetitorPriceDTO{ID: 1, Product: payload.Product}, nil
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func multipartRequest(t *testing.T, data string, fileField, fileName string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if data != "" {
		require.NoError(t, w.WriteField("data", data))
	}
	if fileField != "" {
		fw, err := w.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/research", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func TestCreatePriceWithPhoto(t *testing.T) {
	e := newEcho()
	svc := &fakeResearchService{}
	ctrl := NewResearchController(svc, zap.NewNop())

	data := `{"station_id":10,"product":"etanol","price":"4,39","source":"photo"}`
	rec := httptest.NewRecorder()
	require.NoError(t, ctrl.CreatePrice(e.NewContext(multipartRequest(t, data, "photo", "board.png", pngHeader), rec)))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, uint64(10), svc.payload.StationID)
	assert.Equal(t, "board.png", svc.photoName)
	assert.Equal(t, pngHeader, svc.photo)
}

func TestCreatePriceRejectsBadUploads(t *testing.T) {
	e := newEcho()
	data := `{"station_id":10,"product":"etanol","price":"4,39","source":"photo"}`

	t.Run("not an image", func(t *testing.T) {
		svc := &fakeResearchService{}
		rec := httptest.NewRecorder()
		req := multipartRequest(t, data, "photo", "notes.txt", []byte("plain text, not a picture"))
		require.NoError(t, NewResearchController(svc, zap.NewNop()).CreatePrice(e.NewContext(req, rec)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, svc.payload.Product)
	})

	t.Run("missing data field", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := multipartRequest(t, "", "photo", "board.png", pngHeader)
		require.NoError(t, NewResearchController(&fakeResearchService{}, zap.NewNop()).CreatePrice(e.NewContext(req, rec)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown product", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := multipartRequest(t, `{"station_id":10,"product":"querosene","price":"4,39","source":"visit"}`, "", "", nil)
		require.NoError(t, NewResearchController(&fakeResearchService{}, zap.NewNop()).CreatePrice(e.NewContext(req, rec)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCreatePriceAcceptsJSON(t *testing.T) {
	e := newEcho()
	svc := &fakeResearchService{}
	rec := httptest.NewRecorder()
	body := `{"station_id":11,"product":"diesel_s10","price":"5,99","source":"visit"}`

	require.NoError(t, NewResearchController(svc, zap.NewNop()).CreatePrice(e.NewContext(jsonRequest(http.MethodPost, "/", body), rec)))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "diesel_s10", svc.payload.Product)
	assert.Empty(t, svc.photoName)
}

type fakeReportService struct {
	services.ReportServiceInterface
	format string
}

func (f *fakeReportService) GetSuggestionReport(_ context.Context, _ types.Filter, _ dto.SuggestionListQuery, format string) ([]dto.SuggestionDTO, uint64, error) {
	if format != services.ReportFormatJSON && format != services.ReportFormatCSV && format != services.ReportFormatXLSX {
		return nil, 0, apperrors.NewInvalidInputError("unsupported report format %q", format)
	}
	f.format = format
	return []dto.SuggestionDTO{{ID: 3, Status: "approved", Station: dto.ShortStationDTO{ID: 1, Name: "Posto Central"}}}, 1, nil
}

func TestReportFormats(t *testing.T) {
	e := newEcho()

	t.Run("csv download", func(t *testing.T) {
		svc := &fakeReportService{}
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/reports/suggestions?format=CSV", nil)
		require.NoError(t, NewReportController(svc, zap.NewNop()).GetSuggestionReport(e.NewContext(req, rec)))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, services.ReportFormatCSV, svc.format)
		assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/csv")
		assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), ".csv")

		records, err := csv.NewReader(rec.Body).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "3", records[1][0])
		assert.Equal(t, "Posto Central", records[1][1])
	})

	t.Run("xlsx download", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/?format=xlsx", nil)
		require.NoError(t, NewReportController(&fakeReportService{}, zap.NewNop()).GetSuggestionReport(e.NewContext(req, rec)))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, xlsxContentType, rec.Header().Get(echo.HeaderContentType))
		assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))
	})

	t.Run("json by default", func(t *testing.T) {
		svc := &fakeReportService{}
		rec := httptest.NewRecorder()
		require.NoError(t, NewReportController(svc, zap.NewNop()).GetSuggestionReport(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, services.ReportFormatJSON, svc.format)
		assert.True(t, decode(t, rec).Status)
	})

	t.Run("unknown format", func(t *testing.T) {
		rec := httptest.NewRecorder()
		require.NoError(t, NewReportController(&fakeReportService{}, zap.NewNop()).GetSuggestionReport(e.NewContext(httptest.NewRequest(http.MethodGet, "/?format=pdf", nil), rec)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

type fakeMapService struct {
	services.MapServiceInterface
	query dto.MapQuery
}

func (f *fakeMapService) GetStations(_ context.Context, query dto.MapQuery) (*dto.FeatureCollection, error) {
	f.query = query
	return &dto.FeatureCollection{Type: "FeatureCollection", Features: []dto.Feature{}}, nil
}

func TestMapReturnsBareGeoJSON(t *testing.T) {
	e := newEcho()
	svc := &fakeMapService{}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/map/stations?product=gnv&min_lat=-24&min_lng=-47&max_lat=-23&max_lng=-46", nil)

	require.NoError(t, NewMapController(svc, zap.NewNop()).GetStations(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/geo+json", rec.Header().Get(echo.HeaderContentType))
	assert.JSONEq(t, `{"type":"FeatureCollection","features":[]}`, rec.Body.String())
	assert.Equal(t, "gnv", svc.query.Product)
	require.True(t, svc.query.HasBounds())
	assert.Equal(t, -24.0, *svc.query.MinLat)

	rec = httptest.NewRecorder()
	require.NoError(t, NewMapController(svc, zap.NewNop()).GetStations(e.NewContext(httptest.NewRequest(http.MethodGet, "/?min_lat=-99", nil), rec)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type fakeTokenService struct {
	services.TokenServiceInterface
	revoked    string
	revokedAll uint64
}

func (f *fakeTokenService) Validate(_ context.Context, token string) dto.SessionDTO {
	if token == "good" {
		return dto.SessionDTO{Valid: true, UserID: 5, TokenType: "access"}
	}
	return dto.SessionDTO{Valid: false, Reason: "invalid token"}
}

func (f *fakeTokenService) Revoke(_ context.Context, callerID uint64, token string) error {
	if callerID != 5 {
		return apperrors.ErrForbidden
	}
	f.revoked = token
	return nil
}

func (f *fakeTokenService) RevokeAll(_ context.Context, userID uint64) error {
	f.revokedAll = userID
	return nil
}

func TestValidateAlwaysAnswersOK(t *testing.T) {
	e := newEcho()
	ctrl := NewTokenController(&fakeAuthService{}, &fakeTokenService{}, zap.NewNop())

	rec := httptest.NewRecorder()
	require.NoError(t, ctrl.Validate(e.NewContext(jsonRequest(http.MethodPost, "/", `{"token":"nope"}`), rec)))
	assert.Equal(t, http.StatusOK, rec.Code)

	var session dto.SessionDTO
	require.NoError(t, json.Unmarshal(decode(t, rec).Body, &session))
	assert.False(t, session.Valid)
	assert.Equal(t, "invalid token", session.Reason)
}

func TestRevokeUsesCaller(t *testing.T) {
	e := newEcho()
	tokens := &fakeTokenService{}
	ctrl := NewTokenController(&fakeAuthService{}, tokens, zap.NewNop())

	req := jsonRequest(http.MethodPost, "/", `{"token":"some-token"}`)
	req = req.WithContext(utils.WithUser(req.Context(), 5, 1, map[string]bool{}))
	rec := httptest.NewRecorder()
	require.NoError(t, ctrl.Revoke(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "some-token", tokens.revoked)

	req = jsonRequest(http.MethodPost, "/", `{"all":true}`)
	req = req.WithContext(utils.WithUser(req.Context(), 5, 1, map[string]bool{}))
	rec = httptest.NewRecorder()
	require.NoError(t, ctrl.Revoke(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(5), tokens.revokedAll)

	req = jsonRequest(http.MethodPost, "/", `{"token":"other"}`)
	req = req.WithContext(utils.WithUser(req.Context(), 9, 1, map[string]bool{}))
	rec = httptest.NewRecorder()
	require.NoError(t, ctrl.Revoke(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	require.NoError(t, ctrl.Revoke(e.NewContext(jsonRequest(http.MethodPost, "/", `{}`), rec)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
