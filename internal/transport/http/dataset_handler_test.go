package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"opspulse/internal/config"
	apierrors "opspulse/internal/errors"
	"opspulse/internal/filter"
	"opspulse/internal/services"
	"opspulse/internal/shared/testutil"
	"opspulse/pkg/contracts/domain"
)

// MockDatasetService is a mock implementation of DatasetServiceInterface
type MockDatasetService struct {
	mock.Mock
}

func (m *MockDatasetService) Upload(ctx context.Context, kind domain.SheetKind, fileName string, r io.Reader) (*domain.Dataset, error) {
	body, _ := io.ReadAll(r)
	args := m.Called(kind, fileName, string(body))
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dataset), args.Error(1)
}

func (m *MockDatasetService) Sync(ctx context.Context, kind domain.SheetKind) (*domain.Dataset, error) {
	args := m.Called(kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dataset), args.Error(1)
}

func (m *MockDatasetService) SyncAll(ctx context.Context) ([]*domain.Dataset, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Dataset), args.Error(1)
}

func (m *MockDatasetService) Clear(ctx context.Context, kind domain.SheetKind) error {
	return m.Called(kind).Error(0)
}

func (m *MockDatasetService) Dataset(kind domain.SheetKind) (*domain.Dataset, error) {
	args := m.Called(kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dataset), args.Error(1)
}

func (m *MockDatasetService) Datasets() []*domain.Dataset {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]*domain.Dataset)
}

func (m *MockDatasetService) Records(ctx context.Context, kind domain.SheetKind, criteria filter.Criteria) ([]domain.Record, error) {
	args := m.Called(kind, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Record), args.Error(1)
}

func (m *MockDatasetService) Export(ctx context.Context, kind domain.SheetKind, criteria filter.Criteria, w io.Writer) error {
	return m.Called(kind, criteria, w).Error(0)
}

func (m *MockDatasetService) Overview(ctx context.Context, kind domain.SheetKind, criteria filter.Criteria) (any, error) {
	args := m.Called(kind, criteria)
	return args.Get(0), args.Error(1)
}

func (m *MockDatasetService) Trend(ctx context.Context, kind domain.SheetKind, criteria filter.Criteria) ([]domain.TrendPoint, error) {
	args := m.Called(kind, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TrendPoint), args.Error(1)
}

func (m *MockDatasetService) Repeats(ctx context.Context, kind domain.SheetKind, criteria filter.Criteria, limit int) ([]domain.RepeatFailure, error) {
	args := m.Called(kind, criteria, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RepeatFailure), args.Error(1)
}

func (m *MockDatasetService) Issues(ctx context.Context, kind domain.SheetKind, criteria filter.Criteria, top int) ([]domain.NameValue, error) {
	args := m.Called(kind, criteria, top)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.NameValue), args.Error(1)
}

func (m *MockDatasetService) Layers(ctx context.Context, kind domain.SheetKind, criteria filter.Criteria) ([]domain.LayerCount, error) {
	args := m.Called(kind, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LayerCount), args.Error(1)
}

func (m *MockDatasetService) Calibration(ctx context.Context, kind domain.SheetKind, criteria filter.Criteria) (services.CalibrationReport, error) {
	args := m.Called(kind, criteria)
	return args.Get(0).(services.CalibrationReport), args.Error(1)
}

func newTestRouter(t *testing.T, svc *MockDatasetService) (http.Handler, *DatasetHandler) {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	errorHandler := apierrors.NewErrorHandler(logger, false)

	h := NewDatasetHandler(svc, config.Default().Ingest, logger, errorHandler)
	h.now = func() time.Time { return time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC) }

	r := chi.NewRouter()
	r.Mount("/api/datasets", h.Routes())
	return r, h
}

func multipartBody(t *testing.T, field, fileName, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, fileName)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestDatasetHandler_Upload(t *testing.T) {
	ds := &domain.Dataset{ID: "ds-1", Kind: domain.SheetFuel, Source: domain.SourceUpload, RowCount: 2}

	tests := []struct {
		name       string
		kind       string
		field      string
		fileName   string
		setupMock  func(m *MockDatasetService)
		wantStatus int
		wantType   string
	}{
		{
			name:     "accepted upload",
			kind:     "fuel",
			field:    "file",
			fileName: "tickets.csv",
			setupMock: func(m *MockDatasetService) {
				m.On("Upload", domain.SheetFuel, "tickets.csv", "Id\n1\n").Return(ds, nil)
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "unsupported extension",
			kind:       "fuel",
			field:      "file",
			fileName:   "notes.txt",
			wantStatus: http.StatusUnsupportedMediaType,
			wantType:   apierrors.TypeUnsupportedFile,
		},
		{
			name:       "missing file field",
			kind:       "after-sales",
			field:      "attachment",
			fileName:   "tickets.csv",
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeValidation,
		},
		{
			name:     "unreadable workbook",
			kind:     "after-sales",
			field:    "file",
			fileName: "tickets.xlsx",
			setupMock: func(m *MockDatasetService) {
				m.On("Upload", domain.SheetAfterSales, "tickets.xlsx", "Id\n1\n").
					Return(nil, apierrors.NewParsingError("failed to open workbook", nil))
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   apierrors.TypeDataUnparseable,
		},
		{
			name:     "empty result",
			kind:     "fuel",
			field:    "file",
			fileName: "tickets.csv",
			setupMock: func(m *MockDatasetService) {
				m.On("Upload", domain.SheetFuel, "tickets.csv", "Id\n1\n").
					Return(nil, apierrors.NewEmptyResultError("No valid data found in the file."))
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   apierrors.TypeDataEmpty,
		},
		{
			name:       "unknown kind",
			kind:       "widgets",
			field:      "file",
			fileName:   "tickets.csv",
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockDatasetService{}
			if tt.setupMock != nil {
				tt.setupMock(svc)
			}
			router, _ := newTestRouter(t, svc)

			body, contentType := multipartBody(t, tt.field, tt.fileName, "Id\n1\n")
			req := httptest.NewRequest(http.MethodPost, "/api/datasets/"+tt.kind, body)
			req.Header.Set("Content-Type", contentType)
			rec := serve(router, req)

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			resp := decode(t, rec)
			if tt.wantType != "" {
				assert.Equal(t, tt.wantType, resp["type"])
			} else {
				assert.Equal(t, "success", resp["status"])
				data := resp["data"].(map[string]interface{})
				assert.Equal(t, "ds-1", data["id"])
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestDatasetHandler_UploadNotMultipart(t *testing.T) {
	svc := &MockDatasetService{}
	router, _ := newTestRouter(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/datasets/fuel", strings.NewReader(`{"file":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(router, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
}

func TestDatasetHandler_Views(t *testing.T) {
	criteria := filter.Criteria{Search: "acme", StartDate: "2024-01-01", EndDate: "2024-01-31"}
	query := "?search=acme&start=2024-01-01&end=2024-01-31"

	svc := &MockDatasetService{}
	svc.On("Overview", domain.SheetFuel, criteria).Return(domain.FuelOverview{Total: 4}, nil)
	svc.On("Trend", domain.SheetFuel, criteria).Return([]domain.TrendPoint{{Label: "Jan 24", Month: "2024-01", TotalIssues: 3}}, nil)
	svc.On("Repeats", domain.SheetFuel, criteria, 0).Return([]domain.RepeatFailure{{Company: "Acme Co", Issue: "Sensor Fail", Count: 3}}, nil)
	svc.On("Issues", domain.SheetFuel, criteria, 3).Return([]domain.NameValue{{Name: "OTP", Value: 2}}, nil)
	svc.On("Layers", domain.SheetFuel, criteria).Return([]domain.LayerCount{{Layer: domain.LayerApp, Count: 2}}, nil)
	svc.On("Calibration", domain.SheetAfterSales, filter.Criteria{}).Return(services.CalibrationReport{Alerts: 1, Status: "Stable"}, nil)
	svc.On("Records", domain.SheetFuel, criteria).Return([]domain.Record{testutil.Fuel("1", "Acme Co", "", "OTP")}, nil)

	router, _ := newTestRouter(t, svc)

	tests := []struct {
		path  string
		check func(t *testing.T, data interface{}, resp map[string]interface{})
	}{
		{"/api/datasets/fuel/overview" + query, func(t *testing.T, data interface{}, _ map[string]interface{}) {
			assert.Equal(t, float64(4), data.(map[string]interface{})["total"])
		}},
		{"/api/datasets/fuel/trend" + query, func(t *testing.T, data interface{}, _ map[string]interface{}) {
			assert.Equal(t, "Jan 24", data.([]interface{})[0].(map[string]interface{})["label"])
		}},
		{"/api/datasets/fuel/repeats" + query, func(t *testing.T, data interface{}, _ map[string]interface{}) {
			assert.Equal(t, "Sensor Fail", data.([]interface{})[0].(map[string]interface{})["issue"])
		}},
		{"/api/datasets/fuel/issues" + query + "&top=3", func(t *testing.T, data interface{}, _ map[string]interface{}) {
			assert.Len(t, data, 1)
		}},
		{"/api/datasets/fuel/layers" + query, func(t *testing.T, data interface{}, _ map[string]interface{}) {
			assert.Equal(t, "App", data.([]interface{})[0].(map[string]interface{})["layer"])
		}},
		{"/api/datasets/AFTER_SALES/calibration", func(t *testing.T, data interface{}, _ map[string]interface{}) {
			assert.Equal(t, "Stable", data.(map[string]interface{})["status"])
		}},
		{"/api/datasets/fuel/records" + query, func(t *testing.T, data interface{}, resp map[string]interface{}) {
			assert.Equal(t, float64(1), resp["count"])
			assert.Equal(t, "Acme Co", data.([]interface{})[0].(map[string]interface{})["companyName"])
		}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := serve(router, httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			resp := decode(t, rec)
			assert.Equal(t, "success", resp["status"])
			tt.check(t, resp["data"], resp)
		})
	}
	svc.AssertExpectations(t)
}

func TestDatasetHandler_Errors(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		setupMock  func(m *MockDatasetService)
		wantStatus int
		wantType   string
	}{
		{
			name:   "dataset not loaded",
			method: http.MethodGet,
			path:   "/api/datasets/fuel",
			setupMock: func(m *MockDatasetService) {
				m.On("Dataset", domain.SheetFuel).Return(nil, apierrors.NewNotFoundError("fuel dataset"))
			},
			wantStatus: http.StatusNotFound,
			wantType:   apierrors.TypeDataNotFound,
		},
		{
			name:       "invalid date",
			method:     http.MethodGet,
			path:       "/api/datasets/fuel/trend?start=15-01-2024",
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeValidation,
		},
		{
			name:       "inverted date range",
			method:     http.MethodGet,
			path:       "/api/datasets/fuel/records?start=2024-03-20&end=2024-03-01",
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeValidation,
		},
		{
			name:       "non numeric top",
			method:     http.MethodGet,
			path:       "/api/datasets/fuel/issues?top=abc",
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeValidation,
		},
		{
			name:       "repeat limit out of range",
			method:     http.MethodGet,
			path:       "/api/datasets/fuel/repeats?limit=0",
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeValidation,
		},
		{
			name:   "sheets disabled",
			method: http.MethodPost,
			path:   "/api/datasets/after-sales/sync",
			setupMock: func(m *MockDatasetService) {
				m.On("Sync", domain.SheetAfterSales).Return(nil, apierrors.NewConfigError("google sheets sync is not enabled", nil))
			},
			wantStatus: http.StatusServiceUnavailable,
			wantType:   apierrors.TypeServiceDown,
		},
		{
			name:   "upstream failure",
			method: http.MethodPost,
			path:   "/api/datasets/sync",
			setupMock: func(m *MockDatasetService) {
				m.On("SyncAll").Return(nil, apierrors.NewNetworkError("sheets request failed", nil))
			},
			wantStatus: http.StatusBadGateway,
			wantType:   apierrors.TypeUpstream,
		},
		{
			name:   "calibration on fuel",
			method: http.MethodGet,
			path:   "/api/datasets/fuel/calibration",
			setupMock: func(m *MockDatasetService) {
				m.On("Calibration", domain.SheetFuel, filter.Criteria{}).
					Return(services.CalibrationReport{}, apierrors.NewAppValidationError("calibration is only available for after-sales tickets"))
			},
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockDatasetService{}
			if tt.setupMock != nil {
				tt.setupMock(svc)
			}
			router, _ := newTestRouter(t, svc)

			rec := serve(router, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantType, decode(t, rec)["type"])
			svc.AssertExpectations(t)
		})
	}
}

func TestDatasetHandler_Export(t *testing.T) {
	svc := &MockDatasetService{}
	svc.On("Export", domain.SheetAfterSales, filter.Criteria{Search: "beta"}, mock.Anything).
		Run(func(args mock.Arguments) {
			w := args.Get(2).(io.Writer)
			_, _ = io.WriteString(w, "Id\nS2\n")
		}).
		Return(nil)
	router, _ := newTestRouter(t, svc)

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/api/datasets/after-sales/export.csv?search=beta", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="after-sales-tickets-20240115-103000.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "Id\nS2\n", rec.Body.String())
}

func TestDatasetHandler_ExportNotLoaded(t *testing.T) {
	svc := &MockDatasetService{}
	svc.On("Export", domain.SheetFuel, filter.Criteria{}, mock.Anything).
		Return(apierrors.NewNotFoundError("fuel dataset"))
	router, _ := newTestRouter(t, svc)

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/api/datasets/fuel/export.csv", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotContains(t, rec.Header().Get("Content-Disposition"), "attachment")
}

func TestDatasetHandler_ListAndClear(t *testing.T) {
	svc := &MockDatasetService{}
	svc.On("Datasets").Return(nil).Once()
	svc.On("Clear", domain.SheetFuel).Return(nil)
	router, _ := newTestRouter(t, svc)

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/api/datasets/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, float64(0), resp["count"])
	assert.Equal(t, []interface{}{}, resp["data"])

	rec = serve(router, httptest.NewRequest(http.MethodDelete, "/api/datasets/fuel", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	svc.AssertExpectations(t)
}
