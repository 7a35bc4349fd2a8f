package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/danmuck/uniondec/internal/catalog"
	"github.com/danmuck/uniondec/internal/protocol"
	"github.com/danmuck/uniondec/internal/protocol/frame"
	"github.com/danmuck/uniondec/internal/testutil/testlog"
	"github.com/danmuck/uniondec/internal/value"
	"github.com/gin-gonic/gin"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	text, err := catalog.Template(catalog.FormatTOML)
	if err != nil {
		t.Fatalf("template: %v", err)
	}
	file, err := catalog.Parse([]byte(text), catalog.FormatTOML)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	reg, err := catalog.Build(file)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return New(Config{ID: "uniondec_test", Limits: frame.Limits{MaxPayloadBytes: 1024}}, reg)
}

func encodeFrame(t *testing.T, msg *protocol.Message) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := protocol.Encode(&buf, msg, frame.DefaultLimits()); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func post(s *Server, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/decode", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	s.HTTPRouter().ServeHTTP(rr, req)
	return rr
}

func TestHealth(t *testing.T) {
	testlog.Start(t)
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	s.HTTPRouter().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" || body["service"] != "uniondec_test" {
		t.Fatalf("unexpected health body: %v", body)
	}
}

func TestDecodeKeepsWideInteger(t *testing.T) {
	testlog.Start(t)
	s := newTestServer(t)
	rr := post(s, encodeFrame(t, protocol.NewMessage(1, 7, protocol.MustFieldOf(1, value.Int64(123)))))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	want := `{"record":"Event","message_id":7,"fields":{"a":{"union":"UnionIntLongBool","index":1,"branch":"long","kind":"Int64","value":123}}}`
	if rr.Body.String() != want {
		t.Fatalf("unexpected body:\n got %s\nwant %s", rr.Body.String(), want)
	}
}

func TestDecodeStatusCodes(t *testing.T) {
	testlog.Start(t)
	s := newTestServer(t)

	cases := []struct {
		name string
		body []byte
		want int
	}{
		{"unexpected kind", encodeFrame(t, protocol.NewMessage(1, 1, protocol.MustFieldOf(1, value.String("abc")))), http.StatusUnprocessableEntity},
		{"missing required", encodeFrame(t, protocol.NewMessage(2, 1)), http.StatusUnprocessableEntity},
		{"unknown message type", encodeFrame(t, protocol.NewMessage(42, 1)), http.StatusNotFound},
		{"garbage", []byte("not a frame"), http.StatusBadRequest},
		{"empty", nil, http.StatusBadRequest},
		{"trailing bytes", append(encodeFrame(t, protocol.NewMessage(1, 1)), 0), http.StatusBadRequest},
		{"too large", encodeFrame(t, protocol.NewMessage(1, 1, protocol.MustFieldOf(9, value.Bytes(make([]byte, 2048))))), http.StatusRequestEntityTooLarge},
	}
	for _, tc := range cases {
		rr := post(s, tc.body)
		if rr.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d body=%s", tc.name, tc.want, rr.Code, rr.Body.String())
		}
		if !strings.Contains(rr.Body.String(), `"error"`) {
			t.Fatalf("%s: expected error body, got %s", tc.name, rr.Body.String())
		}
	}
}

func TestCatalogRoute(t *testing.T) {
	testlog.Start(t)
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/catalog", nil)
	rr := httptest.NewRecorder()
	s.HTTPRouter().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var file catalog.File
	if err := json.Unmarshal(rr.Body.Bytes(), &file); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(file.Unions) != 1 || len(file.Records) != 2 {
		t.Fatalf("unexpected catalog: %+v", file)
	}
	if _, err := catalog.Build(file); err != nil {
		t.Fatalf("described catalog does not build: %v", err)
	}
}

func TestMetricsRoute(t *testing.T) {
	testlog.Start(t)
	s := newTestServer(t)
	post(s, encodeFrame(t, protocol.NewMessage(1, 1, protocol.MustFieldOf(1, value.Bool(true)))))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	s.HTTPRouter().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	for _, name := range []string{"uniondec_union_resolve_total", "uniondec_http_requests_total"} {
		if !strings.Contains(rr.Body.String(), name) {
			t.Fatalf("metrics output missing %s", name)
		}
	}
}

func TestDecodeRequiresTokenWhenConfigured(t *testing.T) {
	testlog.Start(t)
	text, _ := catalog.Template(catalog.FormatYAML)
	file, _ := catalog.Parse([]byte(text), catalog.FormatYAML)
	reg, err := catalog.Build(file)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	s := New(Config{AuthToken: "s3cret"}, reg)
	body := encodeFrame(t, protocol.NewMessage(1, 1, protocol.MustFieldOf(1, value.Int32(5))))

	if rr := post(s, body); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rr.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/decode", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer s3cret")
	rr := httptest.NewRecorder()
	s.HTTPRouter().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d body=%s", rr.Code, rr.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	rr = httptest.NewRecorder()
	s.HTTPRouter().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected open health route, got %d", rr.Code)
	}
}

func TestResolveProtobufWrapper(t *testing.T) {
	testlog.Start(t)
	s := newTestServer(t)

	cases := []struct {
		path string
		body string
		want int
		out  string
	}{
		{
			"/v1/resolve/UnionIntLongBool",
			`{"@type": "type.googleapis.com/google.protobuf.Int64Value", "value": "123"}`,
			http.StatusOK,
			`{"union":"UnionIntLongBool","index":1,"branch":"long","kind":"Int64","value":123}`,
		},
		{
			"/v1/resolve/UnionIntLongBool",
			`{"@type": "type.googleapis.com/google.protobuf.BoolValue", "value": true}`,
			http.StatusOK,
			`{"union":"UnionIntLongBool","index":2,"branch":"boolean","kind":"Boolean","value":true}`,
		},
		{"/v1/resolve/UnionIntLongBool", `{"@type": "type.googleapis.com/google.protobuf.StringValue", "value": "abc"}`, http.StatusUnprocessableEntity, ""},
		{"/v1/resolve/UnionIntLongBool", `{"value": 1}`, http.StatusBadRequest, ""},
		{"/v1/resolve/Missing", `{"@type": "type.googleapis.com/google.protobuf.BoolValue", "value": true}`, http.StatusNotFound, ""},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, tc.path, strings.NewReader(tc.body))
		rr := httptest.NewRecorder()
		s.HTTPRouter().ServeHTTP(rr, req)
		if rr.Code != tc.want {
			t.Fatalf("%s %s: expected %d, got %d body=%s", tc.path, tc.body, tc.want, rr.Code, rr.Body.String())
		}
		if tc.out != "" && rr.Body.String() != tc.out {
			t.Fatalf("unexpected body:\n got %s\nwant %s", rr.Body.String(), tc.out)
		}
	}
}
