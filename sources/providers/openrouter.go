package providers

import (
	"context"
	"net/http"
	"time"
	"musegate/sources/configuration"
	"musegate/sources/tracing"

	"github.com/google/uuid"
	openrouter "github.com/revrost/go-openrouter"
)

func NewOpenRouterClient(config *configuration.Config, client *http.Client) *openrouter.Client {
	clientConfig := openrouter.DefaultConfig(config.Providers.OpenRouterToken)
	clientConfig.HTTPClient = client

	return openrouter.NewClientWithConfig(*clientConfig)
}

// OpenRouterAdapter serves the text capabilities. It is synchronous: the
// chat completion happens inside Submit and the terminal outcome is
// returned inline under a locally minted task id.
type OpenRouterAdapter struct {
	ai     *openrouter.Client
	config *configuration.Config
}

func NewOpenRouterAdapter(ai *openrouter.Client, config *configuration.Config) *OpenRouterAdapter {
	return &OpenRouterAdapter{ai: ai, config: config}
}

func (x *OpenRouterAdapter) Name() string { return "openrouter" }

func (x *OpenRouterAdapter) Submit(ctx context.Context, log *tracing.Logger, req *SubmitRequest) (string, *Outcome, error) {
	taskID := "or-" + uuid.NewString()

	model := x.config.Providers.TextModel
	if req.Details.Text != nil && req.Details.Text.Model != "" {
		model = req.Details.Text.Model
	}

	cctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	request := openrouter.ChatCompletionRequest{
		Model: model,
		Messages: []openrouter.ChatCompletionMessage{
			{
				Role:    openrouter.ChatMessageRoleUser,
				Content: openrouter.Content{Text: req.Prompt},
			},
		},
	}

	log = log.With(tracing.Provider, x.Name(), tracing.ProviderModel, model, tracing.TaskId, taskID)

	response, err := x.ai.CreateChatCompletion(cctx, request)
	if err != nil {
		log.E("Chat completion failed", tracing.InnerError, err)
		return taskID, &Outcome{TaskID: taskID, ErrorMessage: err.Error()}, nil
	}

	if len(response.Choices) == 0 {
		log.E("Chat completion returned no choices")
		return taskID, &Outcome{TaskID: taskID, ErrorMessage: "empty completion"}, nil
	}

	text := response.Choices[0].Message.Content.Text
	log.I("Chat completion succeeded", "completion_tokens", response.Usage.CompletionTokens)

	return taskID, &Outcome{TaskID: taskID, Success: true, Result: text}, nil
}

func (x *OpenRouterAdapter) ParseWebhook(body []byte) (*Outcome, error) {
	return nil, ErrNoWebhook
}
