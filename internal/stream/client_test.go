package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/reelbites/recipe-extractor/internal/common"
	"github.com/reelbites/recipe-extractor/internal/extraction"
)

func sseHandler(t *testing.T, events []extraction.ExtractionEvent, dropAfter int) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/extract/stream" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for i, ev := range events {
			if dropAfter > 0 && i >= dropAfter {
				return // simulate connection loss mid-stream
			}
			frame, err := EncodeFrame(ev)
			if err != nil {
				t.Error(err)
				return
			}
			w.Write(frame)
			flusher.Flush()
		}
	}
}

func TestClientStartDecodesStream(t *testing.T) {
	jobID := uuid.New()
	events := []extraction.ExtractionEvent{
		{Event: extraction.EventPhaseUpdate, JobID: jobID, Phase: 1, Status: "processing", Progress: 25},
		{Event: extraction.EventCompleted, JobID: jobID, Result: &extraction.ExtractionResult{JobID: jobID, Structured: true}},
	}
	srv := httptest.NewServer(sseHandler(t, events, 0))
	defer srv.Close()

	c := NewClient(srv.URL, nil, nil)
	_, ch, err := c.Start(context.Background(), "https://www.instagram.com/reel/x1/", extraction.Options{})
	if err != nil {
		t.Fatal(err)
	}

	var got []extraction.ExtractionEvent
	for ev := range ch {
		got = append(got, ev)
	}
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	if !got[1].Terminal() || got[1].Result == nil || !got[1].Result.Structured {
		t.Fatalf("terminal event = %+v", got[1])
	}
}

func TestClientStreamDropClosesWithoutTerminal(t *testing.T) {
	jobID := uuid.New()
	events := []extraction.ExtractionEvent{
		{Event: extraction.EventPhaseUpdate, JobID: jobID, Phase: 1, Status: "processing", Progress: 25},
		{Event: extraction.EventCompleted, JobID: jobID},
	}
	srv := httptest.NewServer(sseHandler(t, events, 1))
	defer srv.Close()

	c := NewClient(srv.URL, nil, nil)
	_, ch, err := c.Start(context.Background(), "https://www.instagram.com/reel/x1/", extraction.Options{})
	if err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	var last *extraction.ExtractionEvent
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				if last != nil && last.Terminal() {
					t.Fatal("dropped stream still delivered a terminal event")
				}
				return
			}
			last = &ev
		case <-deadline:
			t.Fatal("channel never closed after drop")
		}
	}
}

func TestClientStartBatch(t *testing.T) {
	want := extraction.ExtractionResult{JobID: uuid.New(), Structured: true, Confidence: 0.8}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/extract/batch" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			SourceURL string `json:"source_url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SourceURL == "" {
			t.Errorf("bad request body: %v", err)
		}
		json.NewEncoder(w).Encode(want)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil, nil)
	got, err := c.StartBatch(context.Background(), "https://www.instagram.com/p/y2/", extraction.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if got.JobID != want.JobID || !got.Structured {
		t.Fatalf("got %+v", got)
	}
}

func TestClientMapsErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"code":  common.CodeValidation,
			"error": "source_url host is not supported",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil, nil)
	_, _, err := c.Start(context.Background(), "https://example.com/", extraction.Options{})
	if !common.IsValidation(err) {
		t.Fatalf("err = %v, want validation error reconstructed from envelope", err)
	}
}

func TestClientServerDownIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // refuse connections

	c := NewClient(srv.URL, nil, nil)
	_, err := c.StartBatch(context.Background(), "https://www.instagram.com/p/y2/", extraction.Options{})
	if !common.IsTransport(err) {
		t.Fatalf("err = %v, want transport error", err)
	}
}
