package handlers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/RMahshie/s2plab/internal/catalog"
	"github.com/RMahshie/s2plab/internal/loader"
	"github.com/RMahshie/s2plab/internal/repository"
	"github.com/RMahshie/s2plab/pkg/analysis"
	"github.com/RMahshie/s2plab/pkg/models"
	"github.com/RMahshie/s2plab/pkg/touchstone"
	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCatalog implements catalog.Service for testing
type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) Reload(ctx context.Context) (*catalog.Snapshot, error) {
	args := m.Called(ctx)
	snap, _ := args.Get(0).(*catalog.Snapshot)
	return snap, args.Error(1)
}

func (m *MockCatalog) Snapshot() (*catalog.Snapshot, error) {
	args := m.Called()
	snap, _ := args.Get(0).(*catalog.Snapshot)
	return snap, args.Error(1)
}

func (m *MockCatalog) Network(index int) (*touchstone.Network, error) {
	args := m.Called(index)
	n, _ := args.Get(0).(*touchstone.Network)
	return n, args.Error(1)
}

func (m *MockCatalog) Summarize(targetHz float64) ([]analysis.Record, error) {
	args := m.Called(targetHz)
	records, _ := args.Get(0).([]analysis.Record)
	return records, args.Error(1)
}

// MockObjectStore implements storage.ObjectStore for testing
type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) GenerateUploadURL(ctx context.Context, key string, contentType string) (string, error) {
	args := m.Called(ctx, key, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockObjectStore) GenerateDownloadURL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockObjectStore) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	args := m.Called(ctx, prefix)
	keys, _ := args.Get(0).([]string)
	return keys, args.Error(1)
}

func (m *MockObjectStore) DownloadFile(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *MockObjectStore) DeleteFile(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// MockReportRepository implements repository.ReportRepository for testing
type MockReportRepository struct {
	mock.Mock
}

func (m *MockReportRepository) CreateReport(ctx context.Context, report *models.Report) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *MockReportRepository) GetReport(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	args := m.Called(ctx, id)
	report, _ := args.Get(0).(*models.Report)
	return report, args.Error(1)
}

func (m *MockReportRepository) ListReports(ctx context.Context, limit int) ([]*models.Report, error) {
	args := m.Called(ctx, limit)
	reports, _ := args.Get(0).([]*models.Report)
	return reports, args.Error(1)
}

// testNetwork has S11 = 0.5, 0.1, 0 at 2.3, 2.4, 2.5 GHz and S21 = 0.9j.
func testNetwork(t *testing.T, name string) *touchstone.Network {
	t.Helper()
	freqs := []float64{2.3e9, 2.4e9, 2.5e9}
	s := make([]touchstone.Matrix, len(freqs))
	for i, s11 := range []complex128{0.5, 0.1, 0} {
		s[i] = touchstone.Matrix{{s11, 0}, {0.9i, s11}}
	}
	n, err := touchstone.New(name, freqs, s, 50)
	require.NoError(t, err)
	return n
}

func testSnapshot(t *testing.T) *catalog.Snapshot {
	t.Helper()
	return &catalog.Snapshot{
		Result: &loader.Result{
			Loaded: []loader.Entry{
				{Path: "/data/antenna1.s2p", Network: testNetwork(t, "/data/antenna1.s2p")},
				{Path: "/data/antenna3.s2p", Network: testNetwork(t, "/data/antenna3.s2p")},
			},
			Failed: []loader.Failure{
				{Path: "/data/antenna2.s2p", Err: &loader.ReadError{Path: "/data/antenna2.s2p", Err: errors.New("permission denied")}},
			},
		},
		LoadedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func assertStatus(t *testing.T, err error, want int) {
	t.Helper()
	var se huma.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, want, se.GetStatus())
}

func TestListNetworks(t *testing.T) {
	mockCatalog := &MockCatalog{}
	mockCatalog.On("Snapshot").Return(testSnapshot(t), nil)

	handler := NewNetworkHandler(mockCatalog, 2.4e9)
	resp, err := handler.ListNetworks(context.Background(), &struct{}{})
	require.NoError(t, err)

	require.Len(t, resp.Body.Networks, 2)
	first := resp.Body.Networks[0]
	assert.Equal(t, 0, first.Index)
	assert.Equal(t, "Antenna 1", first.Label)
	assert.Equal(t, "antenna1.s2p", first.Name)
	assert.Equal(t, 3, first.Points)
	assert.Equal(t, 2, first.Ports)
	assert.Equal(t, 2.3e9, first.MinFrequencyHz)
	assert.Equal(t, 2.5e9, first.MaxFrequencyHz)
	assert.Equal(t, 50.0, first.ReferenceImpedance)
	assert.Equal(t, "Antenna 2", resp.Body.Networks[1].Label)

	require.Len(t, resp.Body.Failures, 1)
	assert.Equal(t, "antenna2.s2p", resp.Body.Failures[0].Name)
	assert.Equal(t, "io", resp.Body.Failures[0].Kind)
	assert.Contains(t, resp.Body.Failures[0].Error, "permission denied")
	assert.Equal(t, 2026, resp.Body.LoadedAt.Year())

	mockCatalog.AssertExpectations(t)
}

func TestNetworkHandler_Errors(t *testing.T) {
	tests := []struct {
		name      string
		mockSetup func(*MockCatalog)
		call      func(*NetworkHandler) error
		wantCode  int
	}{
		{
			name: "not loaded",
			mockSetup: func(m *MockCatalog) {
				m.On("Snapshot").Return(nil, catalog.ErrNotLoaded)
			},
			call: func(h *NetworkHandler) error {
				_, err := h.ListNetworks(context.Background(), &struct{}{})
				return err
			},
			wantCode: 503,
		},
		{
			name: "unknown network",
			mockSetup: func(m *MockCatalog) {
				m.On("Snapshot").Return(testSnapshot(t), nil)
			},
			call: func(h *NetworkHandler) error {
				_, err := h.GetNetwork(context.Background(), &models.GetNetworkRequest{Index: 5})
				return err
			},
			wantCode: 404,
		},
		{
			name: "bad port",
			mockSetup: func(m *MockCatalog) {
				m.On("Network", 0).Return(testNetwork(t, "a.s2p"), nil)
			},
			call: func(h *NetworkHandler) error {
				_, err := h.GetTrace(context.Background(), &models.GetTraceRequest{Index: 0, Out: 3, In: 1})
				return err
			},
			wantCode: 400,
		},
		{
			name: "empty network",
			mockSetup: func(m *MockCatalog) {
				empty, err := touchstone.New("empty.s2p", nil, nil, 50)
				require.NoError(t, err)
				m.On("Network", 1).Return(empty, nil)
			},
			call: func(h *NetworkHandler) error {
				_, err := h.GetNearest(context.Background(), &models.GetNearestRequest{Index: 1, Out: 1, In: 1})
				return err
			},
			wantCode: 409,
		},
		{
			name: "missing network for trace",
			mockSetup: func(m *MockCatalog) {
				m.On("Network", 9).Return(nil, fmt.Errorf("%w: index 9", catalog.ErrNetworkNotFound))
			},
			call: func(h *NetworkHandler) error {
				_, err := h.GetTrace(context.Background(), &models.GetTraceRequest{Index: 9, Out: 1, In: 1})
				return err
			},
			wantCode: 404,
		},
		{
			name: "reload failure",
			mockSetup: func(m *MockCatalog) {
				m.On("Reload", mock.Anything).Return(nil, errors.New("bucket unreachable"))
			},
			call: func(h *NetworkHandler) error {
				_, err := h.Reload(context.Background(), &struct{}{})
				return err
			},
			wantCode: 500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockCatalog := &MockCatalog{}
			tt.mockSetup(mockCatalog)

			err := tt.call(NewNetworkHandler(mockCatalog, 2.4e9))
			assertStatus(t, err, tt.wantCode)
			mockCatalog.AssertExpectations(t)
		})
	}
}

func TestGetNetwork(t *testing.T) {
	mockCatalog := &MockCatalog{}
	mockCatalog.On("Snapshot").Return(testSnapshot(t), nil)

	resp, err := NewNetworkHandler(mockCatalog, 2.4e9).GetNetwork(context.Background(), &models.GetNetworkRequest{Index: 1})
	require.NoError(t, err)
	assert.Equal(t, "antenna3.s2p", resp.Body.Name)
	assert.Equal(t, "Antenna 2", resp.Body.Label)
}

func TestGetTrace(t *testing.T) {
	mockCatalog := &MockCatalog{}
	mockCatalog.On("Network", 0).Return(testNetwork(t, "a.s2p"), nil)

	handler := NewNetworkHandler(mockCatalog, 2.4e9)
	resp, err := handler.GetTrace(context.Background(), &models.GetTraceRequest{Index: 0, Out: 1, In: 1})
	require.NoError(t, err)

	assert.Equal(t, "S11", resp.Body.Parameter)
	require.Len(t, resp.Body.Points, 3)
	require.NotNil(t, resp.Body.Points[1].MagnitudeDB)
	assert.InDelta(t, -20.0, *resp.Body.Points[1].MagnitudeDB, 1e-9)
	// |S11| = 0 has no finite dB value.
	assert.Nil(t, resp.Body.Points[2].MagnitudeDB)

	resp, err = handler.GetTrace(context.Background(), &models.GetTraceRequest{Index: 0, Out: 2, In: 1})
	require.NoError(t, err)
	assert.Equal(t, "S21", resp.Body.Parameter)
	assert.InDelta(t, 90.0, resp.Body.Points[0].PhaseDeg, 1e-9)
	assert.InDelta(t, 0.9, resp.Body.Points[0].Imag, 1e-12)
}

func TestGetNearest(t *testing.T) {
	mockCatalog := &MockCatalog{}
	mockCatalog.On("Network", 0).Return(testNetwork(t, "a.s2p"), nil)
	handler := NewNetworkHandler(mockCatalog, 2.4e9)

	resp, err := handler.GetNearest(context.Background(), &models.GetNearestRequest{Index: 0, Out: 1, In: 1})
	require.NoError(t, err)
	assert.Equal(t, 2.4e9, resp.Body.TargetHz)
	assert.Equal(t, 1, resp.Body.Point.Index)
	assert.Equal(t, "good", resp.Body.Quality)

	resp, err = handler.GetNearest(context.Background(), &models.GetNearestRequest{Index: 0, FrequencyHz: 2.29e9, Out: 1, In: 1})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Body.Point.Index)
	assert.Equal(t, "moderate", resp.Body.Quality)

	resp, err = handler.GetNearest(context.Background(), &models.GetNearestRequest{Index: 0, Out: 2, In: 1})
	require.NoError(t, err)
	assert.Empty(t, resp.Body.Quality)
}

func TestGetSummary(t *testing.T) {
	records := []analysis.Record{
		{Index: 0, Name: "/data/antenna1.s2p", Point: analysis.Point(1, 2.4e9, 0.1), Quality: analysis.Good},
		{Index: 1, Name: "/data/antenna3.s2p", Err: fmt.Errorf("antenna3.s2p: %w", analysis.ErrEmptyNetwork)},
	}
	mockCatalog := &MockCatalog{}
	mockCatalog.On("Summarize", 5.8e9).Return(records, nil)

	resp, err := NewNetworkHandler(mockCatalog, 2.4e9).GetSummary(context.Background(), &models.GetSummaryRequest{FrequencyHz: 5.8e9})
	require.NoError(t, err)

	assert.Equal(t, 5.8e9, resp.Body.TargetHz)
	require.Len(t, resp.Body.Entries, 2)
	assert.Equal(t, "Antenna 1", resp.Body.Entries[0].Label)
	assert.Equal(t, "antenna1.s2p", resp.Body.Entries[0].Name)
	assert.Equal(t, "good", resp.Body.Entries[0].Quality)
	require.NotNil(t, resp.Body.Entries[0].Point)
	assert.Nil(t, resp.Body.Entries[1].Point)
	assert.Contains(t, resp.Body.Entries[1].Error, "empty network")

	mockCatalog.AssertExpectations(t)
}

func TestReload(t *testing.T) {
	mockCatalog := &MockCatalog{}
	mockCatalog.On("Reload", mock.Anything).Return(testSnapshot(t), nil)

	resp, err := NewNetworkHandler(mockCatalog, 2.4e9).Reload(context.Background(), &struct{}{})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Body.Loaded)
	assert.Len(t, resp.Body.Failures, 1)
}

func TestGetDownloadURL(t *testing.T) {
	tests := []struct {
		name      string
		index     int
		noStore   bool
		snapErr   error
		mockSetup func(*MockObjectStore)
		wantCode  int
	}{
		{
			name:  "signed url",
			index: 1,
			mockSetup: func(m *MockObjectStore) {
				m.On("GenerateDownloadURL", mock.Anything, "/data/antenna3.s2p").Return("https://example.com/antenna3.s2p", nil)
			},
		},
		{name: "unknown index", index: 5, mockSetup: func(m *MockObjectStore) {}, wantCode: 404},
		{name: "not loaded", snapErr: catalog.ErrNotLoaded, mockSetup: func(m *MockObjectStore) {}, wantCode: 503},
		{name: "no object store", noStore: true, mockSetup: func(m *MockObjectStore) {}, wantCode: 503},
		{
			name: "store failure",
			mockSetup: func(m *MockObjectStore) {
				m.On("GenerateDownloadURL", mock.Anything, "/data/antenna1.s2p").Return("", assert.AnError)
			},
			wantCode: 500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &MockObjectStore{}
			tt.mockSetup(store)
			mockCatalog := &MockCatalog{}
			if tt.snapErr != nil {
				mockCatalog.On("Snapshot").Return(nil, tt.snapErr)
			} else {
				mockCatalog.On("Snapshot").Return(testSnapshot(t), nil).Maybe()
			}

			h := NewFileHandler(store, mockCatalog)
			if tt.noStore {
				h = NewFileHandler(nil, mockCatalog)
			}

			resp, err := h.GetDownloadURL(context.Background(), &models.GetNetworkRequest{Index: tt.index})
			if tt.wantCode != 0 {
				assertStatus(t, err, tt.wantCode)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "/data/antenna3.s2p", resp.Body.Key)
				assert.Equal(t, "https://example.com/antenna3.s2p", resp.Body.DownloadURL)
				assert.Equal(t, 86400, resp.Body.ExpiresIn)
			}
			store.AssertExpectations(t)
		})
	}
}

func TestDeleteNetwork(t *testing.T) {
	t.Run("deletes then reloads", func(t *testing.T) {
		store := &MockObjectStore{}
		store.On("DeleteFile", mock.Anything, "/data/antenna1.s2p").Return(nil).Once()

		after := testSnapshot(t)
		after.Result.Loaded = after.Result.Loaded[1:]
		mockCatalog := &MockCatalog{}
		mockCatalog.On("Snapshot").Return(testSnapshot(t), nil)
		mockCatalog.On("Reload", mock.Anything).Return(after, nil).Once()

		resp, err := NewFileHandler(store, mockCatalog).DeleteNetwork(context.Background(), &models.DeleteNetworkRequest{Index: 0})
		require.NoError(t, err)
		assert.Equal(t, 1, resp.Body.Loaded)
		assert.Len(t, resp.Body.Failures, 1)
		store.AssertExpectations(t)
		mockCatalog.AssertExpectations(t)
	})

	t.Run("delete failure skips reload", func(t *testing.T) {
		store := &MockObjectStore{}
		store.On("DeleteFile", mock.Anything, "/data/antenna3.s2p").Return(assert.AnError)
		mockCatalog := &MockCatalog{}
		mockCatalog.On("Snapshot").Return(testSnapshot(t), nil)

		_, err := NewFileHandler(store, mockCatalog).DeleteNetwork(context.Background(), &models.DeleteNetworkRequest{Index: 1})
		assertStatus(t, err, 500)
		mockCatalog.AssertNotCalled(t, "Reload", mock.Anything)
	})

	t.Run("unknown index", func(t *testing.T) {
		store := &MockObjectStore{}
		mockCatalog := &MockCatalog{}
		mockCatalog.On("Snapshot").Return(testSnapshot(t), nil)

		_, err := NewFileHandler(store, mockCatalog).DeleteNetwork(context.Background(), &models.DeleteNetworkRequest{Index: 2})
		assertStatus(t, err, 404)
		store.AssertNotCalled(t, "DeleteFile", mock.Anything, mock.Anything)
	})
}

func uploadRequest(name, contentType string) *models.CreateUploadRequest {
	req := &models.CreateUploadRequest{}
	req.Body.FileName = name
	req.Body.FileSize = 2048
	req.Body.ContentType = contentType
	return req
}

func TestCreateUpload(t *testing.T) {
	tests := []struct {
		name      string
		handler   func(*MockObjectStore) *UploadHandler
		req       *models.CreateUploadRequest
		mockSetup func(*MockObjectStore)
		wantCode  int
		wantKey   string
	}{
		{
			name:    "valid file",
			handler: func(m *MockObjectStore) *UploadHandler { return NewUploadHandler(m, "measurements") },
			req:     uploadRequest("antenna4.s2p", "text/plain"),
			mockSetup: func(m *MockObjectStore) {
				m.On("GenerateUploadURL", mock.Anything, "measurements/antenna4.s2p", "text/plain").Return("https://example.com/upload", nil)
			},
			wantKey: "measurements/antenna4.s2p",
		},
		{
			name:      "wrong extension",
			handler:   func(m *MockObjectStore) *UploadHandler { return NewUploadHandler(m, "") },
			req:       uploadRequest("antenna4.csv", "text/plain"),
			mockSetup: func(m *MockObjectStore) {},
			wantCode:  400,
		},
		{
			name:    "store failure",
			handler: func(m *MockObjectStore) *UploadHandler { return NewUploadHandler(m, "") },
			req:     uploadRequest("antenna4.s2p", "application/octet-stream"),
			mockSetup: func(m *MockObjectStore) {
				m.On("GenerateUploadURL", mock.Anything, "antenna4.s2p", "application/octet-stream").Return("", assert.AnError)
			},
			wantCode: 500,
		},
		{
			name:      "no object store",
			handler:   func(m *MockObjectStore) *UploadHandler { return NewUploadHandler(nil, "") },
			req:       uploadRequest("antenna4.s2p", "text/plain"),
			mockSetup: func(m *MockObjectStore) {},
			wantCode:  503,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &MockObjectStore{}
			tt.mockSetup(store)

			resp, err := tt.handler(store).CreateUpload(context.Background(), tt.req)
			if tt.wantCode != 0 {
				assertStatus(t, err, tt.wantCode)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantKey, resp.Body.Key)
				assert.NotEmpty(t, resp.Body.UploadURL)
				assert.Equal(t, 900, resp.Body.ExpiresIn) // 15 minutes in seconds
			}
			store.AssertExpectations(t)
		})
	}
}

func TestCreateReport(t *testing.T) {
	records := []analysis.Record{
		{Index: 0, Name: "antenna1.s2p", Point: analysis.Point(0, 2.4e9, 0.1), Quality: analysis.Good},
	}
	mockCatalog := &MockCatalog{}
	mockCatalog.On("Summarize", 2.4e9).Return(records, nil)
	mockRepo := &MockReportRepository{}
	mockRepo.On("CreateReport", mock.Anything, mock.AnythingOfType("*models.Report")).Return(nil)

	req := &models.CreateReportRequest{}
	req.Body.Title = "bench"

	resp, err := NewReportHandler(mockRepo, mockCatalog, 2.4e9).CreateReport(context.Background(), req)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, resp.Body.ID)
	assert.Equal(t, "bench", resp.Body.Title)
	assert.Equal(t, 2.4e9, resp.Body.TargetHz)
	require.Len(t, resp.Body.Entries, 1)
	assert.Equal(t, "good", resp.Body.Entries[0].Quality)

	mockCatalog.AssertExpectations(t)
	mockRepo.AssertExpectations(t)
}

func TestReportHandler_Errors(t *testing.T) {
	id := uuid.New()

	t.Run("disabled", func(t *testing.T) {
		handler := NewReportHandler(nil, &MockCatalog{}, 2.4e9)
		_, err := handler.ListReports(context.Background(), &models.ListReportsRequest{Limit: 5})
		assertStatus(t, err, 503)
		_, err = handler.CreateReport(context.Background(), &models.CreateReportRequest{})
		assertStatus(t, err, 503)
	})

	t.Run("bad id", func(t *testing.T) {
		handler := NewReportHandler(&MockReportRepository{}, &MockCatalog{}, 2.4e9)
		_, err := handler.GetReport(context.Background(), &models.GetReportRequest{ID: "nope"})
		assertStatus(t, err, 400)
	})

	t.Run("not found", func(t *testing.T) {
		mockRepo := &MockReportRepository{}
		mockRepo.On("GetReport", mock.Anything, id).Return(nil, repository.ErrReportNotFound)
		_, err := NewReportHandler(mockRepo, &MockCatalog{}, 2.4e9).GetReport(context.Background(), &models.GetReportRequest{ID: id.String()})
		assertStatus(t, err, 404)
	})

	t.Run("catalog not loaded", func(t *testing.T) {
		mockCatalog := &MockCatalog{}
		mockCatalog.On("Summarize", 2.4e9).Return(nil, catalog.ErrNotLoaded)
		_, err := NewReportHandler(&MockReportRepository{}, mockCatalog, 2.4e9).CreateReport(context.Background(), &models.CreateReportRequest{})
		assertStatus(t, err, 503)
	})
}

func TestListReports(t *testing.T) {
	mockRepo := &MockReportRepository{}
	mockRepo.On("ListReports", mock.Anything, 20).Return([]*models.Report{
		{ID: uuid.New(), TargetHz: 2.4e9},
		{ID: uuid.New(), TargetHz: 5.8e9},
	}, nil)

	resp, err := NewReportHandler(mockRepo, &MockCatalog{}, 2.4e9).ListReports(context.Background(), &models.ListReportsRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Body.Reports, 2)
	assert.Equal(t, 5.8e9, resp.Body.Reports[1].TargetHz)
}

func TestFinite(t *testing.T) {
	assert.Nil(t, models.Finite(math.Inf(-1)))
	assert.Nil(t, models.Finite(math.NaN()))
	require.NotNil(t, models.Finite(-3))
	assert.Equal(t, -3.0, *models.Finite(-3))
}
