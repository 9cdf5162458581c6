package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"musegate/sources/configuration"
	"musegate/sources/tracing"
)

// KlingAdapter submits video generation jobs to a kling-compatible API.
type KlingAdapter struct {
	client *http.Client
	config *configuration.Config
}

func NewKlingAdapter(client *http.Client, config *configuration.Config) *KlingAdapter {
	return &KlingAdapter{client: client, config: config}
}

func (x *KlingAdapter) Name() string { return "kling" }

type klingSubmit struct {
	Prompt      string `json:"prompt"`
	Duration    int    `json:"duration"`
	Mode        string `json:"mode"`
	CallbackURL string `json:"callback_url"`
}

type klingSubmitResponse struct {
	Code int    `json:"code"`
	Data struct {
		TaskID string `json:"task_id"`
	} `json:"data"`
	Message string `json:"message"`
}

func (x *KlingAdapter) Submit(ctx context.Context, log *tracing.Logger, req *SubmitRequest) (string, *Outcome, error) {
	payload := klingSubmit{
		Prompt:      req.Prompt,
		Duration:    5,
		Mode:        "std",
		CallbackURL: callbackFor(x.config, x.Name()),
	}
	if req.Details.Video != nil {
		if req.Details.Video.DurationSeconds > 0 {
			payload.Duration = req.Details.Video.DurationSeconds
		}
		if req.Details.Video.Mode != "" {
			payload.Mode = req.Details.Video.Mode
		}
	}

	response, err := postJSON[klingSubmitResponse](ctx, x.client, x.config.Providers.Kling, "/v1/videos/text2video", payload)
	if err != nil {
		log.E("Kling submission failed", tracing.InnerError, err)
		return "", nil, err
	}
	if response.Data.TaskID == "" {
		return "", nil, fmt.Errorf("kling submission rejected: %s", response.Message)
	}

	log.I("Kling job submitted", tracing.Provider, x.Name(), tracing.TaskId, response.Data.TaskID)
	return response.Data.TaskID, nil, nil
}

type klingWebhook struct {
	Data struct {
		TaskID     string `json:"task_id"`
		TaskStatus string `json:"task_status"`
		VideoURL   string `json:"video_url"`
	} `json:"data"`
	Message string `json:"message"`
}

func (x *KlingAdapter) ParseWebhook(body []byte) (*Outcome, error) {
	var payload klingWebhook
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse kling webhook: %w", err)
	}
	if payload.Data.TaskID == "" {
		return nil, fmt.Errorf("kling webhook without task_id")
	}

	outcome := &Outcome{TaskID: payload.Data.TaskID}

	switch payload.Data.TaskStatus {
	case "submitted", "processing":
		outcome.Intermediate = true
	case "succeed":
		if payload.Data.VideoURL == "" {
			outcome.ErrorMessage = "succeed without video url"
		} else {
			outcome.Success = true
			outcome.Result = payload.Data.VideoURL
		}
	case "failed_risk_control":
		outcome.ErrorMessage = payload.Message
		if outcome.ErrorMessage == "" {
			outcome.ErrorMessage = "risk control rejection"
		}
		outcome.ContentViolation = true
	default:
		outcome.ErrorMessage = payload.Message
		if outcome.ErrorMessage == "" {
			outcome.ErrorMessage = "generation failed"
		}
	}

	return outcome, nil
}
