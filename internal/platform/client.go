// Package platform calls the outbound platforms' internal continue-sync
// endpoints to resume interrupted ingestion runs where they left off.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/outreach-sync/internal/resilience"
	"github.com/sells-group/outreach-sync/internal/syncjob"
)

// Endpoint is one platform's continue-sync entry point.
type Endpoint struct {
	BaseURL      string
	ServiceToken string
}

// Client resumes sync jobs over each platform's internal HTTP API. A shared
// limiter keeps recovery traffic from competing with live sync traffic.
type Client struct {
	endpoints map[string]Endpoint
	http      *http.Client
	limiter   *rate.Limiter
	retry     resilience.RetryConfig
}

var _ syncjob.Resumer = (*Client)(nil)

// NewClient creates a resume client for the given platform endpoints.
func NewClient(endpoints map[string]Endpoint) *Client {
	return &Client{
		endpoints: endpoints,
		http:      &http.Client{Timeout: 30 * time.Second},
		limiter:   rate.NewLimiter(rate.Limit(2), 4),
		retry:     resilience.DefaultRetryConfig(),
	}
}

// resumeRequest is the continue-sync payload. Each platform reads its own
// continuation field; internal_continuation distinguishes recovery-initiated
// resumes from user-initiated ones in platform logs.
type resumeRequest struct {
	WorkspaceID          string `json:"workspace_id"`
	InternalContinuation bool   `json:"internal_continuation"`
	ResumeOffset         *int   `json:"resume_offset,omitempty"`
	ChunkIndex           *int   `json:"chunk_index,omitempty"`
	BatchNumber          *int   `json:"batch_number,omitempty"`
}

// Resume asks the job's platform to continue syncing from the job's last
// recorded progress point.
func (c *Client) Resume(ctx context.Context, job syncjob.Job) error {
	ep, ok := c.endpoints[job.Platform]
	if !ok {
		return eris.Errorf("platform: no endpoint configured for %q", job.Platform)
	}

	req := resumeRequest{
		WorkspaceID:          job.WorkspaceID,
		InternalContinuation: true,
	}
	switch job.Platform {
	case "mailer":
		req.ResumeOffset = &job.Progress.ResumeOffset
	case "dialer":
		req.ChunkIndex = &job.Progress.ChunkIndex
	case "sheets":
		req.BatchNumber = &job.Progress.BatchNumber
	default:
		return eris.Errorf("platform: unknown continuation scheme for %q", job.Platform)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return eris.Wrap(err, "platform: encode resume request")
	}

	url := ep.BaseURL + "/internal/sync/continue"
	cfg := c.retry
	cfg.OnRetry = resilience.RetryLogger(job.Platform, "resume")

	err = resilience.Do(ctx, cfg, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		return c.post(ctx, url, ep.ServiceToken, body)
	})
	if err != nil {
		return eris.Wrapf(err, "platform: resume %s/%s", job.Platform, job.WorkspaceID)
	}

	zap.L().Info("platform: resume accepted",
		zap.String("platform", job.Platform),
		zap.String("workspace_id", job.WorkspaceID),
	)
	return nil
}

func (c *Client) post(ctx context.Context, url, token string, body []byte) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "build request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	respErr := fmt.Errorf("continue-sync returned %d: %s", resp.StatusCode, snippet)
	if resilience.IsTransientHTTPStatus(resp.StatusCode) {
		return resilience.NewTransientError(respErr, resp.StatusCode)
	}
	return respErr
}
