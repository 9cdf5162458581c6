package entities

// GenerationDetails carries the provider-family payload of a Generation.
// Exactly one of the family sub-records is set; Extra keeps the free-form
// provider notes that do not warrant a typed field.
type GenerationDetails struct {
	Prompt    string `json:"prompt"`
	CostUnits int    `json:"cost_units"`

	Text  *TextDetails  `json:"text,omitempty"`
	Image *ImageDetails `json:"image,omitempty"`
	Music *MusicDetails `json:"music,omitempty"`
	Video *VideoDetails `json:"video,omitempty"`

	Extra map[string]string `json:"extra,omitempty"`
}

type TextDetails struct {
	Model            string `json:"model"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
}

type ImageDetails struct {
	Model   string `json:"model"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Quality string `json:"quality"`
}

type MusicDetails struct {
	Model           string `json:"model"`
	DurationSeconds int    `json:"duration_seconds"`
	Instrumental    bool   `json:"instrumental"`
}

type VideoDetails struct {
	Model           string `json:"model"`
	DurationSeconds int    `json:"duration_seconds"`
	Mode            string `json:"mode"`
}

type TransactionDetails struct {
	Prompt   string  `json:"prompt"`
	Result   *string `json:"result,omitempty"`
	Error    *string `json:"error,omitempty"`
	HasError bool    `json:"has_error"`
	TaskID   string  `json:"task_id"`
}
