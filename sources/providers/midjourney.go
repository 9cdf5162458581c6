package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"musegate/sources/configuration"
	"musegate/sources/tracing"
)

// MidjourneyAdapter submits image jobs to a midjourney-compatible relay.
// The relay answers with a task id and delivers the finished render to our
// webhook ingress later.
type MidjourneyAdapter struct {
	client *http.Client
	config *configuration.Config
}

func NewMidjourneyAdapter(client *http.Client, config *configuration.Config) *MidjourneyAdapter {
	return &MidjourneyAdapter{client: client, config: config}
}

func (x *MidjourneyAdapter) Name() string { return "midjourney" }

type midjourneySubmit struct {
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspect_ratio,omitempty"`
	WebhookURL  string `json:"webhook_url"`
}

type midjourneySubmitResponse struct {
	TaskID string `json:"task_id"`
	Error  string `json:"error,omitempty"`
}

func (x *MidjourneyAdapter) Submit(ctx context.Context, log *tracing.Logger, req *SubmitRequest) (string, *Outcome, error) {
	payload := midjourneySubmit{
		Prompt:     req.Prompt,
		WebhookURL: callbackFor(x.config, x.Name()),
	}
	if req.Details.Image != nil && req.Details.Image.Width > 0 && req.Details.Image.Height > 0 {
		payload.AspectRatio = fmt.Sprintf("%d:%d", req.Details.Image.Width, req.Details.Image.Height)
	}

	response, err := postJSON[midjourneySubmitResponse](ctx, x.client, x.config.Providers.Midjourney, "/v1/imagine", payload)
	if err != nil {
		log.E("Midjourney submission failed", tracing.InnerError, err)
		return "", nil, err
	}
	if response.TaskID == "" {
		return "", nil, fmt.Errorf("midjourney submission rejected: %s", response.Error)
	}

	log.I("Midjourney job submitted", tracing.Provider, x.Name(), tracing.TaskId, response.TaskID)
	return response.TaskID, nil, nil
}

type midjourneyWebhook struct {
	TaskID     string `json:"task_id"`
	Status     string `json:"status"`
	ImageURL   string `json:"image_url"`
	FailReason string `json:"fail_reason"`
}

func (x *MidjourneyAdapter) ParseWebhook(body []byte) (*Outcome, error) {
	var payload midjourneyWebhook
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse midjourney webhook: %w", err)
	}
	if payload.TaskID == "" {
		return nil, fmt.Errorf("midjourney webhook without task_id")
	}

	outcome := &Outcome{TaskID: payload.TaskID}

	switch payload.Status {
	case "pending", "processing", "queued":
		outcome.Intermediate = true
		return outcome, nil
	case "success":
		if payload.ImageURL == "" {
			outcome.ErrorMessage = "success without image url"
			return outcome, nil
		}
		outcome.Success = true
		outcome.Result = payload.ImageURL
		return outcome, nil
	default:
		outcome.ErrorMessage = payload.FailReason
		if outcome.ErrorMessage == "" {
			outcome.ErrorMessage = "generation failed"
		}
		if strings.Contains(strings.ToLower(payload.FailReason), "banned prompt") {
			outcome.ContentViolation = true
		}
		return outcome, nil
	}
}

func callbackFor(config *configuration.Config, provider string) string {
	return strings.TrimSuffix(config.Ingress.CallbackURL, "/") + "/webhook/" + provider
}

func postJSON[R any](ctx context.Context, client *http.Client, provider configuration.AsyncProviderConfig, path string, payload any) (*R, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	timeout := provider.Timeout
	if timeout <= 0 {
		timeout = defaultSubmitTimeout
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	request, err := http.NewRequestWithContext(cctx, http.MethodPost, strings.TrimSuffix(provider.BaseURL, "/")+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Authorization", "Bearer "+provider.Token)

	response, err := client.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	if response.StatusCode >= 300 {
		return nil, fmt.Errorf("provider returned %s", response.Status)
	}

	var decoded R
	if err := json.NewDecoder(response.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode provider response: %w", err)
	}

	return &decoded, nil
}
