package server

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/joseph-ayodele/docintake/constants"
	"github.com/joseph-ayodele/docintake/internal/capability"
	"github.com/joseph-ayodele/docintake/internal/extract"
	"github.com/joseph-ayodele/docintake/internal/pipeline"
)

const scenarioText = "Name: John Smith, DOB: 1990-01-01, Country: France"

type upload struct {
	field, name string
	body        []byte
}

func newTestService(t *testing.T, opts Options) *Service {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := capability.NewRegistry(logger, capability.Available(constants.CapDateParser, nil))
	proc := pipeline.New(reg, extract.NewRouter(nil, logger), nil, pipeline.Config{}, logger)
	s := NewService(proc, nil, opts, logger)
	s.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func multipartRequest(t *testing.T, target string, uploads []upload, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, u := range uploads {
		w, err := mw.CreateFormFile(u.field, u.name)
		require.NoError(t, err)
		_, err = w.Write(u.body)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func zipOf(t *testing.T, entries ...[2]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e[0])
		require.NoError(t, err)
		_, err = w.Write([]byte(e[1]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

type response struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func serve(t *testing.T, s *Service, req *http.Request) (*httptest.ResponseRecorder, response) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, req)
	var out response
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestHealth(t *testing.T) {
	s := newTestService(t, Options{})
	for _, p := range []string{"/", "/health"} {
		rec, out := serve(t, s, httptest.NewRequest(http.MethodGet, p, nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, out.Success)
		assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))

		var data struct {
			Status           string            `json:"status"`
			Capabilities     map[string]bool   `json:"capabilities"`
			Diagnostics      map[string]string `json:"diagnostics"`
			SupportedFormats []string          `json:"supported_formats"`
		}
		require.NoError(t, json.Unmarshal(out.Data, &data))
		assert.Equal(t, "healthy", data.Status)
		assert.True(t, data.Capabilities["date_parser"])
		assert.False(t, data.Capabilities["ocr"])
		assert.Equal(t, "no probe registered", data.Diagnostics["ocr"])
		assert.Contains(t, data.SupportedFormats, "zip")
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	s := newTestService(t, Options{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	rec, _ := serve(t, s, req)
	assert.Equal(t, "abc-123", rec.Header().Get(HeaderRequestID))
}

func TestProcessSingle(t *testing.T) {
	s := newTestService(t, Options{})
	req := multipartRequest(t, "/process-single", []upload{{"file", "id.txt", []byte(scenarioText)}}, nil)
	rec, out := serve(t, s, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, out.Success)

	var data struct {
		Filename string `json:"filename"`
		Status   string `json:"status"`
		Fields   map[string]struct {
			Value      *string `json:"value"`
			Confidence string  `json:"confidence"`
		} `json:"fields"`
		Risk struct {
			Score int `json:"risk_score"`
		} `json:"risk_assessment"`
		Quality struct {
			Score int `json:"quality_score"`
		} `json:"quality_assessment"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &data))
	assert.Equal(t, "id.txt", data.Filename)
	assert.Equal(t, "complete", data.Status)
	require.NotNil(t, data.Fields["full_name"].Value)
	assert.Equal(t, "John Smith", *data.Fields["full_name"].Value)
	require.NotNil(t, data.Fields["date_of_birth"].Value)
	assert.Equal(t, "1990-01-01", *data.Fields["date_of_birth"].Value)
	assert.Nil(t, data.Fields["expiry_date"].Value)
	// only the expiry date is missing among the critical fields
	assert.Equal(t, 25, data.Risk.Score)
	assert.Positive(t, data.Quality.Score)
}

func TestProcessSingle_Bundle(t *testing.T) {
	s := newTestService(t, Options{})
	bundle := zipOf(t, [2]string{"a.txt", scenarioText}, [2]string{"b.txt", "Name: Jane Doe"})
	req := multipartRequest(t, "/process-single", []upload{{"file", "ids.zip", bundle}}, nil)
	rec, out := serve(t, s, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var data []struct {
		Filename string `json:"filename"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &data))
	require.Len(t, data, 2)
	assert.Equal(t, "ids.zip/a.txt", data[0].Filename)
	assert.Equal(t, "ids.zip/b.txt", data[1].Filename)
}

func TestProcessSingle_NoFile(t *testing.T) {
	s := newTestService(t, Options{})
	req := multipartRequest(t, "/process-single", nil, map[string]string{"format_hint": "txt"})
	rec, out := serve(t, s, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, out.Success)
	assert.Contains(t, out.Error, "No file provided")
}

func TestProcessSingle_NotMultipart(t *testing.T) {
	s := newTestService(t, Options{})
	req := httptest.NewRequest(http.MethodPost, "/process-single", bytes.NewBufferString("{}"))
	req.Header.Set("Content-Type", "application/json")
	rec, out := serve(t, s, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, out.Success)
}

func TestProcessFiles(t *testing.T) {
	s := newTestService(t, Options{})
	bundle := zipOf(t, [2]string{"b.txt", "Name: John Smith\nCountry: France"}, [2]string{".hidden.txt", "x"})
	req := multipartRequest(t, "/process-files", []upload{
		{"files", "a.txt", []byte(scenarioText)},
		{"files", "more.zip", bundle},
		{"files", "broken.zip", []byte("PK\x03\x04 broken")},
	}, nil)
	rec, out := serve(t, s, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Processed 3 files", out.Message)

	var data struct {
		Results []struct {
			Filename string `json:"filename"`
		} `json:"results"`
		Errors  []fileError `json:"errors"`
		Overall struct {
			Category string `json:"risk_category"`
		} `json:"overall_risk_assessment"`
		Summary batchSummary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &data))
	require.Len(t, data.Results, 2)
	assert.Equal(t, "a.txt", data.Results[0].Filename)
	assert.Equal(t, "more.zip/b.txt", data.Results[1].Filename)
	require.Len(t, data.Errors, 2)
	assert.Equal(t, "more.zip/.hidden.txt", data.Errors[0].Filename)
	assert.Equal(t, "broken.zip", data.Errors[1].Filename)
	assert.NotEmpty(t, data.Overall.Category)
	assert.Equal(t, batchSummary{TotalFiles: 3, SuccessfulProcessing: 2, FailedProcessing: 2, ProcessedAt: "2025-06-01T12:00:00Z"}, data.Summary)
}

func TestProcessFiles_XLSX(t *testing.T) {
	s := newTestService(t, Options{})
	req := multipartRequest(t, "/process-files?format=xlsx", []upload{{"files", "a.txt", []byte(scenarioText)}}, nil)
	rec, _ := serve(t, s, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	name, err := f.GetCellValue("Documents", "D2")
	require.NoError(t, err)
	assert.Equal(t, "John Smith", name)
}

func TestExtractText(t *testing.T) {
	s := newTestService(t, Options{})
	req := multipartRequest(t, "/extract-text", []upload{{"file", "id.txt", []byte(scenarioText)}}, nil)
	rec, out := serve(t, s, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var data textReport
	require.NoError(t, json.Unmarshal(out.Data, &data))
	assert.Equal(t, scenarioText, data.Text)
	assert.Equal(t, len(scenarioText), data.TextLength)
	assert.Equal(t, constants.TXT, data.Classification.Format)
}

func TestExtractText_ZipRejected(t *testing.T) {
	s := newTestService(t, Options{})
	req := multipartRequest(t, "/extract-text", []upload{{"file", "ids.zip", zipOf(t, [2]string{"a.txt", "x"})}}, nil)
	rec, out := serve(t, s, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, out.Error, "unsupported format")
}

func TestUploadTooLarge(t *testing.T) {
	s := newTestService(t, Options{MaxUploadBytes: 64})
	req := multipartRequest(t, "/process-single", []upload{{"file", "big.txt", bytes.Repeat([]byte("a"), 4096)}}, nil)
	rec, out := serve(t, s, req)
	assert.False(t, out.Success)
	assert.Contains(t, []int{http.StatusBadRequest, http.StatusRequestEntityTooLarge}, rec.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusGatewayTimeout, statusFor(context.DeadlineExceeded))
	assert.Equal(t, http.StatusRequestEntityTooLarge, statusFor(&http.MaxBytesError{Limit: 1}))
	assert.Equal(t, http.StatusInternalServerError, statusFor(io.ErrUnexpectedEOF))
}

func TestHealthServer(t *testing.T) {
	hs := NewHealthServer(capability.NewSet(constants.CapOCR))
	ctx := context.Background()

	resp, err := hs.Check(ctx, &healthpb.HealthCheckRequest{Service: ""})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	resp, err = hs.Check(ctx, &healthpb.HealthCheckRequest{Service: CapabilityServicePrefix + "ocr"})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	resp, err = hs.Check(ctx, &healthpb.HealthCheckRequest{Service: CapabilityServicePrefix + "ner"})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())

	UpdateHealth(hs, capability.NewSet(constants.CapNER))
	resp, err = hs.Check(ctx, &healthpb.HealthCheckRequest{Service: CapabilityServicePrefix + "ner"})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

type headerCounter struct {
	*httptest.ResponseRecorder
	writes int
}

func (h *headerCounter) WriteHeader(code int) {
	h.writes++
	h.ResponseRecorder.WriteHeader(code)
}

func TestDeadlineAnswersOnce(t *testing.T) {
	s := newTestService(t, Options{RequestTimeout: 30 * time.Millisecond, MaxConcurrent: 1})
	require.NoError(t, s.sem.Acquire(context.Background(), 1))
	defer s.sem.Release(1)

	req := multipartRequest(t, "/process-single", []upload{{"file", "id.txt", []byte(scenarioText)}}, nil)
	rec := &headerCounter{ResponseRecorder: httptest.NewRecorder()}
	s.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Equal(t, 1, rec.writes)
	var resp response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "deadline exceeded")
}
