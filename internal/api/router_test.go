package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/upi-finance-tracker/internal/categorizer"
	"github.com/dvloznov/upi-finance-tracker/internal/jobs"
	"github.com/dvloznov/upi-finance-tracker/internal/jobs/inmemory"
	"github.com/dvloznov/upi-finance-tracker/internal/logger"
	"github.com/dvloznov/upi-finance-tracker/internal/parsers"
	"github.com/dvloznov/upi-finance-tracker/internal/pipeline"
)

const gpayCSV = "Date,Description,Amount\n" +
	"15/01/2024,Zomato Order,-450\n" +
	"16/01/2024,Salary credited,50000\n"

type uploadData struct {
	FileName     string `json:"fileName"`
	Source       string `json:"source"`
	Strategy     string `json:"strategy"`
	Confidence   string `json:"confidence"`
	Transactions []struct {
		Merchant string `json:"merchant"`
		Category string `json:"category"`
		Type     string `json:"type"`
		Amount   string `json:"amount"`
		Date     string `json:"date"`
	} `json:"transactions"`
	Summary struct {
		Count      int               `json:"count"`
		TotalDebit string            `json:"totalDebit"`
		Categories map[string]string `json:"categories"`
	} `json:"summary"`
}

type testServer struct {
	handler http.Handler
	queue   *inmemory.Queue
	store   *inmemory.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	tax, err := categorizer.DefaultTaxonomy()
	require.NoError(t, err)

	processor := pipeline.NewProcessor(parsers.DefaultChain(parsers.DefaultOptions()), categorizer.New(tax), nil)
	store := inmemory.NewStore()
	queue := inmemory.NewQueue(4, store, inmemory.WithWorkers(1))
	ctx := logger.WithContext(context.Background(), zerolog.Nop())
	require.NoError(t, queue.Start(ctx, jobs.ProcessorHandler(processor)))
	t.Cleanup(func() { _ = queue.Close() })

	return &testServer{
		handler: NewRouter(Dependencies{
			Processor: processor,
			Publisher: queue,
			Store:     store,
			Taxonomy:  tax,
			MaxBytes:  10 << 20,
			Logger:    zerolog.Nop(),
		}),
		queue: queue,
		store: store,
	}
}

func upload(t *testing.T, h http.Handler, target, fileName, content string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_UploadSync(t *testing.T) {
	srv := newTestServer(t)

	rec := upload(t, srv.handler, "/api/upload", "gpay_jan.csv", gpayCSV)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var resp struct {
		Success bool       `json:"success"`
		Data    uploadData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "gpay_jan.csv", resp.Data.FileName)
	assert.Equal(t, "GPay", resp.Data.Source)
	assert.Equal(t, parsers.StrategyTabularProvider, resp.Data.Strategy)
	require.Len(t, resp.Data.Transactions, 2)

	first := resp.Data.Transactions[0]
	assert.Equal(t, "2024-01-15", first.Date)
	assert.Equal(t, "Zomato", first.Merchant)
	assert.Equal(t, "Food & Dining", first.Category)
	assert.Equal(t, "debit", first.Type)
	assert.Equal(t, "450", first.Amount)

	second := resp.Data.Transactions[1]
	assert.Equal(t, "credit", second.Type)
	assert.Equal(t, "Income", second.Category)

	assert.Equal(t, 2, resp.Data.Summary.Count)
	assert.Equal(t, "450", resp.Data.Summary.TotalDebit)
	assert.Equal(t, map[string]string{"Food & Dining": "450"}, resp.Data.Summary.Categories)
}

func TestRouter_UploadAsyncThenStatus(t *testing.T) {
	srv := newTestServer(t)

	rec := upload(t, srv.handler, "/api/upload?async=true", "gpay_jan.csv", gpayCSV)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var accepted struct {
		Data struct {
			JobID string `json:"jobId"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accepted))
	require.NotEmpty(t, accepted.Data.JobID)

	var status struct {
		Data struct {
			Status string      `json:"status"`
			Result *uploadData `json:"result"`
		} `json:"data"`
	}
	require.Eventually(t, func() bool {
		rec := httptest.NewRecorder()
		srv.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status/"+accepted.Data.JobID, nil))
		if rec.Code != http.StatusOK {
			return false
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
			return false
		}
		return status.Data.Status == string(jobs.JobStatusCompleted)
	}, 2*time.Second, 10*time.Millisecond)

	require.NotNil(t, status.Data.Result)
	assert.Len(t, status.Data.Result.Transactions, 2)
	assert.Equal(t, "GPay", status.Data.Result.Source)
}

func TestRouter_Errors(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name       string
		fileName   string
		content    string
		wantStatus int
	}{
		{name: "unsupported type", fileName: "statement.docx", content: "x", wantStatus: http.StatusBadRequest},
		{name: "empty file", fileName: "gpay.csv", content: "", wantStatus: http.StatusUnprocessableEntity},
		{name: "corrupt pdf", fileName: "phonepe.pdf", content: "not a pdf", wantStatus: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := upload(t, srv.handler, "/api/upload", tt.fileName, tt.content)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestRouter_NoTransactionsIsNotAnError(t *testing.T) {
	srv := newTestServer(t)

	rec := upload(t, srv.handler, "/api/upload", "unknown.csv", "Foo,Bar\nhello,world\n")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Data uploadData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Data.Transactions)
	assert.Equal(t, "None", resp.Data.Confidence)
}

func TestRouter_ReadEndpoints(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		method     string
		path       string
		wantStatus int
	}{
		{method: http.MethodGet, path: "/api/health", wantStatus: http.StatusOK},
		{method: http.MethodGet, path: "/api/categories", wantStatus: http.StatusOK},
		{method: http.MethodGet, path: "/api/jobs", wantStatus: http.StatusOK},
		{method: http.MethodGet, path: "/api/status/unknown", wantStatus: http.StatusNotFound},
		{method: http.MethodGet, path: "/api/nothing", wantStatus: http.StatusNotFound},
		{method: http.MethodOptions, path: "/api/upload", wantStatus: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.handler.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
