package v1

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"planobra/internal/config"
	"planobra/internal/store"
)

func testBusiness() config.BusinessConfig {
	return config.BusinessConfig{
		DailyHours:          8,
		CoefficientMode:     "hours_per_unit",
		FuzzyCutoff:         0.5,
		CodeWidth:           7,
		MaxHeaderProbeRows:  15,
		DefaultDeadlineDays: 180,
	}
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)

	s, err := store.New(filepath.Join(t.TempDir(), "planobra.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	router := gin.New()
	NewHandler(s, testBusiness()).RegisterRoutes(router.Group("/api"))
	return router
}

func multipartBody(t *testing.T, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("failed to write field: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func referenceCSV() []byte {
	return []byte(strings.Join([]string{
		"CODIGO_COMPOSICAO;DESCRICAO_ITEM;TIPO_ITEM;COEFICIENTE",
		"88309;PEDREIRO COM ENCARGOS COMPLEMENTARES;MÃO DE OBRA;1,6",
		"88309;SERVENTE COM ENCARGOS COMPLEMENTARES;MÃO DE OBRA;0,8",
	}, "\n"))
}

func budgetXLSX(t *testing.T) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	rows := [][]interface{}{
		{"CÓDIGO", "DESCRIÇÃO", "QUANTIDADE"},
		{"88309", "ALVENARIA DE VEDAÇÃO", "10"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("failed to build cell name: %v", err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("failed to set row: %v", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("failed to write workbook: %v", err)
	}
	return buf.Bytes()
}

func TestStatus_Uninitialized(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("want 200 got %d", w.Code)
	}
	var resp StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Initialized {
		t.Fatalf("fresh store must not be initialized")
	}
}

func TestImportReference_ThenStatus(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	body, contentType := multipartBody(t, "sinapi.csv", referenceCSV(), nil)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/reference/import", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("want 200 got %d: %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/status", nil)
	router.ServeHTTP(w, req)

	var resp StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if !resp.Initialized || resp.ReferenceCount != 2 {
		t.Fatalf("unexpected status: %+v", resp)
	}
}

func TestGenerate_StreamsDoneEvent(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	body, contentType := multipartBody(t, "sinapi.csv", referenceCSV(), nil)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/reference/import", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("reference import failed: %s", w.Body.String())
	}

	body, contentType = multipartBody(t, "orcamento.xlsx", budgetXLSX(t), map[string]string{
		"start_date":    "10/03/2025",
		"deadline_days": "180",
	})
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/generate", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("want 200 got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("want event-stream got %q", ct)
	}

	// SSE 帧逐条解析，最后一个事件必须是 done
	var lastType string
	var scheduleID string
	for _, line := range strings.Split(w.Body.String(), "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev struct {
			Type string `json:"type"`
			Data struct {
				ScheduleID string `json:"scheduleId"`
			} `json:"data"`
		}
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			t.Fatalf("bad sse frame %q: %v", line, err)
		}
		lastType = ev.Type
		if ev.Data.ScheduleID != "" {
			scheduleID = ev.Data.ScheduleID
		}
	}
	if lastType != "done" {
		t.Fatalf("want last event done got %q", lastType)
	}
	if scheduleID == "" {
		t.Fatalf("done event missing schedule id")
	}

	// 生成的排期可查询
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/schedules/"+scheduleID, nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("want 200 got %d: %s", w.Code, w.Body.String())
	}
}

func TestGenerate_BadStartDate(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	body, contentType := multipartBody(t, "orcamento.xlsx", budgetXLSX(t), map[string]string{
		"start_date": "2025-03-10",
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/generate", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("want 400 got %d", w.Code)
	}
}

func TestDownload_InvalidToken(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/export/download/nope", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("want 404 got %d", w.Code)
	}
}
