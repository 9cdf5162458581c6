package telegram

import (
	"context"
	"musegate/sources/billing"
	"musegate/sources/features"
	"musegate/sources/persistence/entities"
	"musegate/sources/platform"
	"musegate/sources/providers"
	"musegate/sources/tracing"
)

// maybeSuggest fires a free companion generation: a short text prompt idea
// riffing on what the user just asked for. Suggestions are marked on the
// generation record, so the reconciler delivers them without debiting quota.
func (x *Handler) maybeSuggest(log *tracing.Logger, user *entities.User, request *entities.Request, quota platform.Quota, prompt string) {
	if !x.features.IsEnabledDefault(features.FeatureSuggestions, false) {
		return
	}

	switch billing.ClassOf(quota) {
	case billing.ClassImageSimple, billing.ClassImageAdvanced, billing.ClassMusic, billing.ClassVideo:
	default:
		return
	}

	adapter, err := x.registry.ByQuota(platform.QuotaChatGPT)
	if err != nil {
		return
	}

	suggestionPrompt := "Suggest one short follow-up prompt, a single sentence, riffing on: " + prompt
	details := entities.GenerationDetails{
		Text: &entities.TextDetails{Model: x.config.Providers.TextModel},
	}
	details.Prompt = suggestionPrompt

	taskID, outcome, err := adapter.Submit(context.Background(), log, &providers.SubmitRequest{
		Prompt:  suggestionPrompt,
		Quota:   platform.QuotaChatGPT,
		Details: details,
	})
	if err != nil {
		log.W("Suggestion submission failed", tracing.InnerError, err)
		return
	}

	_, err = x.generations.CreateGeneration(log, taskID, request.ID, string(billing.ClassTextSimple), platform.QuotaChatGPT, adapter.Name(), true, details)
	if err != nil {
		return
	}

	if outcome != nil {
		if err := x.reconciler.Reconcile(log, adapter.Name(), outcome); err != nil {
			log.W("Suggestion reconciliation failed", tracing.InnerError, err, tracing.TaskId, taskID)
		}
	}
}
