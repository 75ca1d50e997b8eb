package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/reelbites/recipe-extractor/internal/common"
	"github.com/reelbites/recipe-extractor/internal/extraction"
	"github.com/reelbites/recipe-extractor/internal/stream"
)

type fakePipeline struct {
	events   []extraction.ExtractionEvent
	result   *extraction.ExtractionResult
	startErr error
	batchErr error

	cancelled []uuid.UUID
}

func (f *fakePipeline) Start(context.Context, string, extraction.Options) (uuid.UUID, <-chan extraction.ExtractionEvent, error) {
	if f.startErr != nil {
		return uuid.Nil, nil, f.startErr
	}
	ch := make(chan extraction.ExtractionEvent, len(f.events))
	for _, ev := range f.events {
		ch <- ev
	}
	close(ch)
	return uuid.New(), ch, nil
}

func (f *fakePipeline) StartBatch(context.Context, string, extraction.Options) (*extraction.ExtractionResult, error) {
	return f.result, f.batchErr
}

func (f *fakePipeline) Cancel(jobID uuid.UUID) bool {
	f.cancelled = append(f.cancelled, jobID)
	return true
}

func newTestServer(p *fakePipeline) *Server {
	return New(common.ServerConfig{Addr: ":0"}, p, p, Capabilities{VisualAnalysis: true}, nil)
}

func postJSON(t *testing.T, s *Server, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.http.Handler.ServeHTTP(rec, req)
	return rec
}

func TestStreamEndpointEmitsFrames(t *testing.T) {
	jobID := uuid.New()
	p := &fakePipeline{events: []extraction.ExtractionEvent{
		{Event: extraction.EventPhaseUpdate, JobID: jobID, Phase: 1, Status: "processing", Progress: 25},
		{Event: extraction.EventCompleted, JobID: jobID, Result: &extraction.ExtractionResult{JobID: jobID, Structured: true}},
	}}
	s := newTestServer(p)

	rec := postJSON(t, s, "/api/v1/extract/stream", `{"source_url":"https://www.instagram.com/reel/x/"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	dec := stream.NewDecoder(rec.Body)
	first, err := dec.Next()
	if err != nil {
		t.Fatal(err)
	}
	if first.Event != extraction.EventPhaseUpdate {
		t.Fatalf("first event = %+v", first)
	}
	second, err := dec.Next()
	if err != nil {
		t.Fatal(err)
	}
	if !second.Terminal() {
		t.Fatalf("second event = %+v, want terminal", second)
	}
}

func TestStreamEndpointStopsAtTerminal(t *testing.T) {
	jobID := uuid.New()
	p := &fakePipeline{events: []extraction.ExtractionEvent{
		{Event: extraction.EventError, JobID: jobID, ErrorCode: common.CodeWatchdog, ErrorMessage: "stuck"},
		{Event: extraction.EventPhaseUpdate, JobID: jobID, Phase: 1, Status: "processing"},
	}}
	s := newTestServer(p)

	rec := postJSON(t, s, "/api/v1/extract/stream", `{"source_url":"https://www.instagram.com/reel/x/"}`)
	body := rec.Body.String()
	if strings.Count(body, "data: ") != 1 {
		t.Fatalf("frames after terminal event:\n%s", body)
	}
}

func TestStreamEndpointRejectsBadBody(t *testing.T) {
	s := newTestServer(&fakePipeline{})
	rec := postJSON(t, s, "/api/v1/extract/stream", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	var envelope struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatal(err)
	}
	if envelope.Code != common.CodeValidation {
		t.Fatalf("code = %q", envelope.Code)
	}
}

func TestStreamEndpointMapsValidationTo400(t *testing.T) {
	p := &fakePipeline{startErr: common.ValidationError("host is not a supported source platform")}
	s := newTestServer(p)
	rec := postJSON(t, s, "/api/v1/extract/stream", `{"source_url":"https://example.com/"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestBatchEndpoint(t *testing.T) {
	want := &extraction.ExtractionResult{JobID: uuid.New(), Structured: true}
	s := newTestServer(&fakePipeline{result: want})

	rec := postJSON(t, s, "/api/v1/extract/batch", `{"source_url":"https://www.instagram.com/p/x/"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	var got extraction.ExtractionResult
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.JobID != want.JobID {
		t.Fatalf("job id = %v", got.JobID)
	}
}

func TestBatchEndpointMapsFetchTo400(t *testing.T) {
	p := &fakePipeline{batchErr: common.FetchError("post may be private or deleted", nil)}
	s := newTestServer(p)
	rec := postJSON(t, s, "/api/v1/extract/batch", `{"source_url":"https://www.instagram.com/p/x/"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCapabilitiesEndpoint(t *testing.T) {
	s := newTestServer(&fakePipeline{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/extract/capabilities", nil)
	rec := httptest.NewRecorder()
	s.http.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var caps Capabilities
	if err := json.Unmarshal(rec.Body.Bytes(), &caps); err != nil {
		t.Fatal(err)
	}
	if !caps.VisualAnalysis {
		t.Fatal("capabilities not round-tripped")
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(&fakePipeline{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.http.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
