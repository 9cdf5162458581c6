package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	"musegate/sources/configuration"
	"musegate/sources/tracing"
)

const defaultSubmitTimeout = 30 * time.Second

// SunoAdapter submits music generation jobs to a suno-compatible API and
// receives finished tracks by webhook.
type SunoAdapter struct {
	client *http.Client
	config *configuration.Config
}

func NewSunoAdapter(client *http.Client, config *configuration.Config) *SunoAdapter {
	return &SunoAdapter{client: client, config: config}
}

func (x *SunoAdapter) Name() string { return "suno" }

type sunoSubmit struct {
	Prompt       string `json:"prompt"`
	Instrumental bool   `json:"make_instrumental"`
	CallbackURL  string `json:"callback_url"`
}

type sunoSubmitResponse struct {
	ID     string `json:"id"`
	Detail string `json:"detail,omitempty"`
}

func (x *SunoAdapter) Submit(ctx context.Context, log *tracing.Logger, req *SubmitRequest) (string, *Outcome, error) {
	payload := sunoSubmit{
		Prompt:      req.Prompt,
		CallbackURL: callbackFor(x.config, x.Name()),
	}
	if req.Details.Music != nil {
		payload.Instrumental = req.Details.Music.Instrumental
	}

	response, err := postJSON[sunoSubmitResponse](ctx, x.client, x.config.Providers.Suno, "/api/generate", payload)
	if err != nil {
		log.E("Suno submission failed", tracing.InnerError, err)
		return "", nil, err
	}
	if response.ID == "" {
		return "", nil, fmt.Errorf("suno submission rejected: %s", response.Detail)
	}

	log.I("Suno job submitted", tracing.Provider, x.Name(), tracing.TaskId, response.ID)
	return response.ID, nil, nil
}

type sunoWebhook struct {
	ID           string `json:"id"`
	State        string `json:"state"`
	AudioURL     string `json:"audio_url"`
	ErrorMessage string `json:"error_message"`
}

func (x *SunoAdapter) ParseWebhook(body []byte) (*Outcome, error) {
	var payload sunoWebhook
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse suno webhook: %w", err)
	}
	if payload.ID == "" {
		return nil, fmt.Errorf("suno webhook without id")
	}

	outcome := &Outcome{TaskID: payload.ID}

	switch payload.State {
	case "submitted", "queued", "streaming":
		outcome.Intermediate = true
	case "complete":
		if payload.AudioURL == "" {
			outcome.ErrorMessage = "complete without audio url"
		} else {
			outcome.Success = true
			outcome.Result = payload.AudioURL
		}
	default:
		outcome.ErrorMessage = payload.ErrorMessage
		if outcome.ErrorMessage == "" {
			outcome.ErrorMessage = "generation failed"
		}
		if strings.Contains(strings.ToLower(payload.ErrorMessage), "moderation") {
			outcome.ContentViolation = true
		}
	}

	return outcome, nil
}
