package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/candlr-app/candlr/internal/db"
	"github.com/candlr-app/candlr/internal/genai"
	"github.com/candlr-app/candlr/internal/httputil"
	"github.com/candlr-app/candlr/internal/imagecodec"
	"github.com/candlr-app/candlr/internal/mold"
	"github.com/candlr-app/candlr/internal/testutil"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	database, err := db.NewDB(filepath.Join(t.TempDir(), "candlr.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if err := database.MigrateUp("../../migrations"); err != nil {
		t.Fatalf("MigrateUp: %v", err)
	}

	ai := genai.NewService(genai.NewClient("", "", "test-model", httputil.NewMockHTTPClient()), nil)
	return NewServer(mold.NewGenerator(), ai, database, nil)
}

func depthMapB64(t *testing.T, w, h int, level uint8) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = level
	}
	b64, err := imagecodec.EncodeBase64PNG(img)
	if err != nil {
		t.Fatalf("encode depth map: %v", err)
	}
	return b64
}

func postJSON(t *testing.T, s *Server, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	rec := testutil.NewTestRecorder()
	s.ServeMux().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := testutil.NewTestRecorder()
	s.ServeMux().ServeHTTP(rec, testutil.NewTestRequest(http.MethodGet, "/health"))
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	var body map[string]string
	testutil.AssertNoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	if body["status"] != "ok" {
		t.Errorf("status = %q, want ok", body["status"])
	}
	if body["version"] == "" {
		t.Error("version missing from health response")
	}
}

func TestGenerateMold(t *testing.T) {
	s := newTestServer(t)

	rec := postJSON(t, s, "/api/generate-mold", map[string]interface{}{
		"image_base64": depthMapB64(t, 24, 24, 128),
	})
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	if ct := rec.Header().Get("Content-Type"); ct != "model/stl" {
		t.Errorf("Content-Type = %q, want model/stl", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "candle_mold.stl") {
		t.Errorf("Content-Disposition = %q, want candle_mold.stl attachment", cd)
	}

	stl := rec.Body.Bytes()
	if len(stl) < 84 {
		t.Fatalf("STL too short: %d bytes", len(stl))
	}
	if (len(stl)-84)%50 != 0 {
		t.Errorf("STL body %d bytes is not a whole number of triangles", len(stl)-84)
	}

	// The request is recorded in history.
	generations, err := s.db.Generations(10)
	testutil.AssertNoError(t, err)
	if len(generations) != 1 {
		t.Fatalf("history rows = %d, want 1", len(generations))
	}
	g := generations[0]
	if g.Status != db.StatusOK {
		t.Errorf("status = %q, want ok", g.Status)
	}
	if g.STLBytes != int64(len(stl)) {
		t.Errorf("stl_bytes = %d, want %d", g.STLBytes, len(stl))
	}
	if g.Triangles != int64(len(stl)-84)/50 {
		t.Errorf("triangles = %d, want %d", g.Triangles, (len(stl)-84)/50)
	}
	var params mold.Params
	testutil.AssertNoError(t, json.Unmarshal([]byte(g.ParamsJSON), &params))
	if params.WallThickness != 5 {
		t.Errorf("recorded wall_thickness = %f, want default 5", params.WallThickness)
	}
}

func TestGenerateMoldCustomParams(t *testing.T) {
	s := newTestServer(t)

	rec := postJSON(t, s, "/api/generate-mold", map[string]interface{}{
		"image_base64":               depthMapB64(t, 16, 16, 200),
		"wall_thickness":             3,
		"max_width":                  50,
		"max_height":                 50,
		"max_depth":                  15,
		"include_registration_marks": false,
		"include_pouring_channel":    false,
		"wick_enabled":               false,
	})
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
}

func TestGenerateMoldRejectsBadInput(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing image", map[string]interface{}{}},
		{"malformed base64", map[string]interface{}{"image_base64": "!!!"}},
		{"not an image", map[string]interface{}{"image_base64": "aGVsbG8="}},
		{"wall too thin", map[string]interface{}{"image_base64": depthMapB64(t, 8, 8, 128), "wall_thickness": 1}},
		{"width too large", map[string]interface{}{"image_base64": depthMapB64(t, 8, 8, 128), "max_width": 500}},
		{"depth too small", map[string]interface{}{"image_base64": depthMapB64(t, 8, 8, 128), "max_depth": 5}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postJSON(t, s, "/api/generate-mold", tc.body)
			testutil.AssertStatusCode(t, rec.Code, http.StatusBadRequest)
		})
	}

	// Decode failures ran the pipeline and are recorded as errors;
	// parameter validation rejects never reach history.
	generations, err := s.db.Generations(10)
	testutil.AssertNoError(t, err)
	if len(generations) != 2 {
		t.Fatalf("history rows = %d, want 2 decode failures", len(generations))
	}
	for _, g := range generations {
		if g.Status != db.StatusError || g.Error == "" {
			t.Errorf("expected error row, got %+v", g)
		}
	}
}

func TestGenerateMoldMethodNotAllowed(t *testing.T) {
	s := newTestServer(t)

	rec := testutil.NewTestRecorder()
	s.ServeMux().ServeHTTP(rec, testutil.NewTestRequest(http.MethodGet, "/api/generate-mold"))
	testutil.AssertStatusCode(t, rec.Code, http.StatusMethodNotAllowed)
}

func TestCreateDepthMapFallsBack(t *testing.T) {
	s := newTestServer(t)

	rec := postJSON(t, s, "/api/create-depth-map", map[string]interface{}{
		"image_base64": depthMapB64(t, 16, 16, 90),
	})
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	var body map[string]string
	testutil.AssertNoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	if body["image_base64"] == "" {
		t.Error("no depth map in response")
	}
	if !strings.Contains(body["model_used"], "local processing") {
		t.Errorf("model_used = %q, want local fallback", body["model_used"])
	}
}

func TestExtractSubjectFallsBack(t *testing.T) {
	s := newTestServer(t)

	rec := postJSON(t, s, "/api/extract-subject", map[string]interface{}{
		"image_base64": depthMapB64(t, 8, 8, 40),
	})
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	var body map[string]string
	testutil.AssertNoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	if !strings.Contains(body["model_used"], "fallback") {
		t.Errorf("model_used = %q, want fallback marker", body["model_used"])
	}
}

func TestGenerateImageUnavailable(t *testing.T) {
	s := newTestServer(t)

	rec := postJSON(t, s, "/api/generate-image", map[string]interface{}{"prompt": "a pinecone"})
	testutil.AssertStatusCode(t, rec.Code, http.StatusServiceUnavailable)
}

func TestGenerateImageRequiresPrompt(t *testing.T) {
	s := newTestServer(t)

	rec := postJSON(t, s, "/api/generate-image", map[string]interface{}{})
	testutil.AssertStatusCode(t, rec.Code, http.StatusBadRequest)
}

func TestListPrompts(t *testing.T) {
	s := newTestServer(t)

	rec := testutil.NewTestRecorder()
	s.ServeMux().ServeHTTP(rec, testutil.NewTestRequest(http.MethodGet, "/api/prompts"))
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	var body map[string]map[string]string
	testutil.AssertNoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	for _, key := range []string{"extract_subject", "generate_image", "create_depth_map", "generate_mold"} {
		if _, ok := body[key]; !ok {
			t.Errorf("prompts missing %q", key)
		}
	}
}

func TestListGenerations(t *testing.T) {
	s := newTestServer(t)

	// Seed history through the API.
	for i := 0; i < 3; i++ {
		rec := postJSON(t, s, "/api/generate-mold", map[string]interface{}{
			"image_base64": depthMapB64(t, 8, 8, uint8(50+i)),
		})
		testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	}

	rec := testutil.NewTestRecorder()
	s.ServeMux().ServeHTTP(rec, testutil.NewTestRequest(http.MethodGet, "/api/generations?limit=2"))
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	var rows []db.Generation
	testutil.AssertNoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	if len(rows) != 2 {
		t.Errorf("rows = %d, want 2", len(rows))
	}
}

func TestListGenerationsInvalidLimit(t *testing.T) {
	s := newTestServer(t)

	for _, limit := range []string{"0", "-1", "abc"} {
		rec := testutil.NewTestRecorder()
		s.ServeMux().ServeHTTP(rec, testutil.NewTestRequest(http.MethodGet, fmt.Sprintf("/api/generations?limit=%s", limit)))
		testutil.AssertStatusCode(t, rec.Code, http.StatusBadRequest)
	}
}

func TestDebugHeightfield(t *testing.T) {
	s := newTestServer(t)

	rec := postJSON(t, s, "/debug/heightfield", map[string]interface{}{
		"image_base64": depthMapB64(t, 32, 32, 100),
	})
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("Content-Type = %q, want html", ct)
	}
	if !strings.Contains(rec.Body.String(), "echarts") {
		t.Error("response does not embed a chart")
	}
}

func TestLoggingMiddlewarePassesThrough(t *testing.T) {
	s := newTestServer(t)

	handler := LoggingMiddleware(s.ServeMux())
	rec := testutil.NewTestRecorder()
	handler.ServeHTTP(rec, testutil.NewTestRequest(http.MethodGet, "/health"))
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
}
