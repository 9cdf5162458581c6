package providers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
	"musegate/sources/configuration"
	"musegate/sources/tracing"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"
)

func NewOpenAIClient(client *http.Client, config *configuration.Config) *openai.Client {
	openaiConfig := openai.DefaultConfig(config.Providers.OpenAIToken)
	openaiConfig.HTTPClient = client
	return openai.NewClientWithConfig(openaiConfig)
}

// DallEAdapter serves the dalle image quota synchronously through the
// OpenAI images endpoint.
type DallEAdapter struct {
	ai *openai.Client
}

func NewDallEAdapter(ai *openai.Client) *DallEAdapter {
	return &DallEAdapter{ai: ai}
}

func (x *DallEAdapter) Name() string { return "dalle" }

func (x *DallEAdapter) Submit(ctx context.Context, log *tracing.Logger, req *SubmitRequest) (string, *Outcome, error) {
	taskID := "dalle-" + uuid.NewString()

	size := openai.CreateImageSize1024x1024
	quality := openai.CreateImageQualityStandard
	if req.Details.Image != nil {
		if req.Details.Image.Width > 1024 || req.Details.Image.Height > 1024 {
			size = openai.CreateImageSize1792x1024
		}
		if strings.EqualFold(req.Details.Image.Quality, "hd") {
			quality = openai.CreateImageQualityHD
		}
	}

	cctx, cancel := context.WithTimeout(ctx, 3*time.Minute)
	defer cancel()

	log = log.With(tracing.Provider, x.Name(), tracing.TaskId, taskID)

	response, err := x.ai.CreateImage(cctx, openai.ImageRequest{
		Prompt:         req.Prompt,
		Model:          openai.CreateImageModelDallE3,
		Size:           size,
		Quality:        quality,
		N:              1,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})

	if err != nil {
		log.E("Image generation failed", tracing.InnerError, err)
		outcome := &Outcome{TaskID: taskID, ErrorMessage: err.Error()}
		if isContentPolicyError(err) {
			outcome.ContentViolation = true
		}
		return taskID, outcome, nil
	}

	if len(response.Data) == 0 || response.Data[0].URL == "" {
		log.E("Image generation returned no data")
		return taskID, &Outcome{TaskID: taskID, ErrorMessage: "empty image response"}, nil
	}

	log.I("Image generation succeeded")
	return taskID, &Outcome{TaskID: taskID, Success: true, Result: response.Data[0].URL}, nil
}

func (x *DallEAdapter) ParseWebhook(body []byte) (*Outcome, error) {
	return nil, ErrNoWebhook
}

func isContentPolicyError(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if code, isString := apiErr.Code.(string); isString && code == "content_policy_violation" {
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "content policy")
}
