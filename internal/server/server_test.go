package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/agenthands/labelcheck/internal/config"
	"github.com/agenthands/labelcheck/internal/core"
	"github.com/agenthands/labelcheck/internal/core/batch"
	"github.com/agenthands/labelcheck/internal/core/errs"
	"github.com/agenthands/labelcheck/internal/core/extraction"
	"github.com/agenthands/labelcheck/internal/core/model"
	"github.com/agenthands/labelcheck/internal/core/schema"
)

var png = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

const appJSON = `{"brandName": "OLD TOM DISTILLERY", "classType": "Kentucky Straight Bourbon Whiskey",
	"alcoholContent": "45% Alc./Vol.", "netContents": "750 mL"}`

func labelExtraction() model.Extraction {
	return model.Extraction{
		model.FieldBrandName:      model.Found("OLD TOM DISTILLERY"),
		model.FieldClassType:      model.Found("KENTUCKY STRAIGHT BOURBON WHISKEY"),
		model.FieldAlcoholContent: model.Found("90 Proof"),
		model.FieldNetContents:    model.Found("750 ML"),
	}
}

func newTestServer(t *testing.T, oracle extraction.Oracle) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s, err := schema.Load("v1")
	require.NoError(t, err)
	v := core.NewVerifier(oracle, s, nil, zap.NewNop())
	runner := batch.NewRunner(v, 2, 0, zap.NewNop())

	cfg := config.Default().Server
	cfg.MaxUploadMB = 1
	return NewServer(cfg, v, runner, zap.NewNop()).SetupRouter()
}

type part struct {
	field, filename string
	data            []byte
}

func multipartRequest(t *testing.T, path string, parts ...part) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, p := range parts {
		if p.filename == "" {
			require.NoError(t, w.WriteField(p.field, string(p.data)))
			continue
		}
		fw, err := w.CreateFormFile(p.field, p.filename)
		require.NoError(t, err)
		_, err = fw.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestVerifyEndpoint(t *testing.T) {
	r := newTestServer(t, &extraction.MockOracle{Extraction: labelExtraction()})

	w := serve(r, multipartRequest(t, "/api/verify",
		part{field: "image", filename: "label.png", data: png},
		part{field: "applicationData", data: []byte(appJSON)},
	))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	res := decode[model.VerificationResult](t, w)
	assert.Equal(t, model.OverallApproved, res.OverallStatus)
	assert.Len(t, res.Fields, 4)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestVerifyEndpointSplitApplication(t *testing.T) {
	r := newTestServer(t, &extraction.MockOracle{Extraction: labelExtraction()})

	split := `{"brand_name": "Old Tom Distillery", "class_type": "Kentucky Straight Bourbon Whiskey",
		"alcohol_content_amount": "45", "alcohol_content_format": "%",
		"net_contents_amount": 750, "net_contents_unit": "mL"}`
	w := serve(r, multipartRequest(t, "/api/verify",
		part{field: "image", filename: "label.png", data: png},
		part{field: "applicationData", data: []byte(split)},
	))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	res := decode[model.VerificationResult](t, w)
	assert.Equal(t, model.OverallReview, res.OverallStatus, "brand casing differs")
}

func TestVerifyEndpointBadRequests(t *testing.T) {
	r := newTestServer(t, &extraction.MockOracle{Extraction: labelExtraction()})

	cases := map[string][]part{
		"no image":       {{field: "applicationData", data: []byte(appJSON)}},
		"no application": {{field: "image", filename: "label.png", data: png}},
		"bad json": {
			{field: "image", filename: "label.png", data: png},
			{field: "applicationData", data: []byte(`{"brandName": `)},
		},
		"not an image": {
			{field: "image", filename: "label.pdf", data: []byte("%PDF-1.7\n")},
			{field: "applicationData", data: []byte(appJSON)},
		},
	}
	for name, parts := range cases {
		t.Run(name, func(t *testing.T) {
			w := serve(r, multipartRequest(t, "/api/verify", parts...))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			body := decode[map[string]string](t, w)
			assert.NotEmpty(t, body["message"])
		})
	}
}

func TestVerifyEndpointOracleFailures(t *testing.T) {
	cases := []struct {
		name   string
		oracle extraction.Oracle
		status int
		msg    string
	}{
		{
			"malformed reply",
			extraction.NewExtractor(&extraction.MockLLMClient{Response: `{"answer": "approved"}`}, "%s%s"),
			http.StatusInternalServerError, errs.FailureMessage,
		},
		{
			"timeout",
			&extraction.MockOracle{Errs: []error{errs.Timeout("llm", nil)}},
			http.StatusGatewayTimeout, errs.TimeoutMessage,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestServer(t, tc.oracle)
			w := serve(r, multipartRequest(t, "/api/verify",
				part{field: "image", filename: "label.png", data: png},
				part{field: "applicationData", data: []byte(appJSON)},
			))
			assert.Equal(t, tc.status, w.Code)
			body := decode[map[string]any](t, w)
			assert.Equal(t, map[string]any{"message": tc.msg}, body, "no partial result")
		})
	}
}

func TestVerifyEndpointUploadLimit(t *testing.T) {
	r := newTestServer(t, &extraction.MockOracle{Extraction: labelExtraction()})

	big := append(append([]byte{}, png...), make([]byte, 2<<20)...)
	w := serve(r, multipartRequest(t, "/api/verify",
		part{field: "image", filename: "label.png", data: big},
		part{field: "applicationData", data: []byte(appJSON)},
	))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "1.0 MiB")
}

func TestVerifyBatchByIndex(t *testing.T) {
	r := newTestServer(t, &extraction.MockOracle{Extraction: labelExtraction()})

	w := serve(r, multipartRequest(t, "/api/verify-batch",
		part{field: "images", filename: "a.png", data: png},
		part{field: "images", filename: "b.png", data: png},
		part{field: "applicationData", data: []byte("[" + appJSON + "]")},
	))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	b := decode[model.VerificationBatch](t, w)
	require.Len(t, b.Pairs, 2)
	assert.NotEmpty(t, b.ID)
	assert.Equal(t, model.PairComplete, b.Pairs[0].Status)
	require.NotNil(t, b.Pairs[0].Result)
	assert.Equal(t, model.OverallApproved, b.Pairs[0].Result.OverallStatus)
	assert.Equal(t, model.PairMissingApplication, b.Pairs[1].Status)
	assert.NotEmpty(t, b.Pairs[1].Error)
}

func TestVerifyBatchByFileName(t *testing.T) {
	r := newTestServer(t, &extraction.MockOracle{Extraction: labelExtraction()})

	w := serve(r, multipartRequest(t, "/api/verify-batch",
		part{field: "images", filename: "old-tom.png", data: png},
		part{field: "applications", filename: "old-tom.json", data: []byte(appJSON)},
		part{field: "applications", filename: "extra.json", data: []byte(appJSON)},
	))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	b := decode[model.VerificationBatch](t, w)
	require.Len(t, b.Pairs, 2)
	assert.Equal(t, "old-tom.json", b.Pairs[0].ApplicationName)
	assert.NotNil(t, b.Pairs[0].Result)
	assert.Equal(t, model.PairMissingImage, b.Pairs[1].Status)
}

func TestVerifyBatchBadRequests(t *testing.T) {
	r := newTestServer(t, &extraction.MockOracle{Extraction: labelExtraction()})

	w := serve(r, multipartRequest(t, "/api/verify-batch", part{field: "note", data: []byte("hi")}))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(r, multipartRequest(t, "/api/verify-batch",
		part{field: "images", filename: "a.png", data: png},
		part{field: "applicationData", data: []byte(`{"not": "a list"}`)},
	))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(r, multipartRequest(t, "/api/verify-batch",
		part{field: "images", filename: "a.png", data: png},
		part{field: "applications", filename: "a.json", data: []byte(`nope`)},
	))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "a.json")
}

func TestOverrideEndpoint(t *testing.T) {
	r := newTestServer(t, &extraction.MockOracle{Extraction: labelExtraction()})

	result := model.VerificationResult{
		OverallStatus: model.OverallReview,
		Summary:       "Review required: 1 field needs review.",
		Fields: []model.FieldResult{
			{Field: model.FieldBrandName, Name: "Brand Name", Status: model.StatusWarning},
			{Field: model.FieldClassType, Name: "Class/Type", Status: model.StatusPass},
		},
	}
	body, err := json.Marshal(OverrideRequest{Result: result, Field: model.FieldBrandName, Status: model.StatusPass, Note: "stylised casing accepted"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/override", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := serve(r, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	res := decode[model.VerificationResult](t, w)
	assert.Equal(t, model.OverallApproved, res.OverallStatus)
	assert.True(t, res.Fields[0].Overridden)

	body, _ = json.Marshal(OverrideRequest{Result: result, Field: "vintage", Status: model.StatusPass})
	req = httptest.NewRequest(http.MethodPost, "/api/override", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusBadRequest, serve(r, req).Code)
}

func TestSchemaAndHealth(t *testing.T) {
	r := newTestServer(t, &extraction.MockOracle{})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/api/schema", nil))
	require.Equal(t, http.StatusOK, w.Code)
	sr := decode[SchemaResponse](t, w)
	assert.Equal(t, "v1", sr.Version)
	assert.Len(t, sr.Fields, 4)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "ok"}`, w.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	r := newTestServer(t, &extraction.MockOracle{})

	req := httptest.NewRequest(http.MethodOptions, "/api/verify", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := serve(r, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}
