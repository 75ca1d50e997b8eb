package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reelbites/recipe-extractor/internal/common"
	"github.com/reelbites/recipe-extractor/internal/extraction"
	"github.com/reelbites/recipe-extractor/internal/stream"
)

type extractRequest struct {
	SourceURL string `json:"source_url"`
	extraction.Options
}

// handleStream starts a job and relays its event log as SSE frames. If
// the client disconnects mid-stream the job is cancelled; the orchestrator
// guarantees nothing further is emitted after that.
func (s *Server) handleStream(c *gin.Context) {
	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, common.ValidationError("invalid request body"))
		return
	}

	jobID, events, err := s.pipeline.Start(c.Request.Context(), req.SourceURL, req.Options)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Header("X-Job-ID", jobID.String())
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	clientGone := c.Request.Context().Done()
	for {
		select {
		case <-clientGone:
			if s.canceler != nil && s.canceler.Cancel(jobID) {
				s.log.Info("server.stream_client_gone", slog.String("job_id", jobID.String()))
			}
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			frame, err := stream.EncodeFrame(ev)
			if err != nil {
				s.log.Error("server.frame_encode_failed", slog.String("error", err.Error()))
				return
			}
			if _, err := c.Writer.Write(frame); err != nil {
				if s.canceler != nil {
					s.canceler.Cancel(jobID)
				}
				return
			}
			c.Writer.Flush()
			if ev.Terminal() {
				return
			}
		}
	}
}

// handleBatch runs a job to completion and returns only the terminal
// result.
func (s *Server) handleBatch(c *gin.Context) {
	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, common.ValidationError("invalid request body"))
		return
	}

	result, err := s.pipeline.StartBatch(c.Request.Context(), req.SourceURL, req.Options)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// respondError maps the error taxonomy onto HTTP statuses. Caller faults
// (bad URL, dead post) are 4xx; everything else is a 5xx with the code
// preserved so clients can rebuild the typed error.
func (s *Server) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case common.IsValidation(err):
		status = http.StatusBadRequest
	case common.IsFetch(err):
		status = http.StatusBadRequest
	case common.Code(err) == common.CodeWatchdog || common.Code(err) == common.CodePhaseTimeout:
		status = http.StatusGatewayTimeout
	case common.Code(err) == common.CodeProvider:
		status = http.StatusBadGateway
	}
	if status >= 500 {
		s.log.Error("server.request_failed", slog.String("error", err.Error()))
	}
	code := common.Code(err)
	if code == "" {
		code = "INTERNAL"
	}
	c.JSON(status, gin.H{"code": code, "error": userFacing(err)})
}

func userFacing(err error) string {
	var ae *common.AppError
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return "extraction failed"
}
