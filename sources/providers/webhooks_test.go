package providers

import (
	"testing"
	"musegate/sources/configuration"
)

func testConfig() *configuration.Config {
	config := &configuration.Config{}
	config.Ingress.CallbackURL = "https://bot.example.com/"
	return config
}

func TestMidjourneyWebhookStates(t *testing.T) {
	adapter := NewMidjourneyAdapter(nil, testConfig())

	cases := []struct {
		name         string
		body         string
		intermediate bool
		success      bool
		violation    bool
	}{
		{
			name: "processing",
			body: `{"task_id":"t1","status":"processing"}`,

			intermediate: true,
		},
		{
			name:    "success",
			body:    `{"task_id":"t1","status":"success","image_url":"https://cdn/i.png"}`,
			success: true,
		},
		{
			name: "failure",
			body: `{"task_id":"t1","status":"failed","fail_reason":"gpu on fire"}`,
		},
		{
			name:      "banned prompt",
			body:      `{"task_id":"t1","status":"failed","fail_reason":"Banned prompt detected"}`,
			violation: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			outcome, err := adapter.ParseWebhook([]byte(tc.body))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if outcome.Intermediate != tc.intermediate {
				t.Errorf("Intermediate = %v, want %v", outcome.Intermediate, tc.intermediate)
			}
			if outcome.Success != tc.success {
				t.Errorf("Success = %v, want %v", outcome.Success, tc.success)
			}
			if outcome.ContentViolation != tc.violation {
				t.Errorf("ContentViolation = %v, want %v", outcome.ContentViolation, tc.violation)
			}
			if outcome.TaskID != "t1" {
				t.Errorf("TaskID = %q", outcome.TaskID)
			}
		})
	}

	if _, err := adapter.ParseWebhook([]byte(`{"status":"success"}`)); err == nil {
		t.Error("expected error for missing task_id")
	}
	if _, err := adapter.ParseWebhook([]byte(`garbage`)); err == nil {
		t.Error("expected error for malformed payload")
	}
}

func TestSunoWebhookStates(t *testing.T) {
	adapter := NewSunoAdapter(nil, testConfig())

	outcome, err := adapter.ParseWebhook([]byte(`{"id":"s1","state":"streaming"}`))
	if err != nil || !outcome.Intermediate {
		t.Errorf("streaming should be intermediate, got %+v err %v", outcome, err)
	}

	outcome, err = adapter.ParseWebhook([]byte(`{"id":"s1","state":"complete","audio_url":"https://cdn/track.mp3"}`))
	if err != nil || !outcome.Success || outcome.Result != "https://cdn/track.mp3" {
		t.Errorf("complete parse failed, got %+v err %v", outcome, err)
	}

	outcome, err = adapter.ParseWebhook([]byte(`{"id":"s1","state":"error","error_message":"lyrics failed moderation"}`))
	if err != nil || outcome.Success || !outcome.ContentViolation {
		t.Errorf("moderation failure should flag violation, got %+v err %v", outcome, err)
	}
}

func TestKlingWebhookStates(t *testing.T) {
	adapter := NewKlingAdapter(nil, testConfig())

	outcome, err := adapter.ParseWebhook([]byte(`{"data":{"task_id":"k1","task_status":"processing"}}`))
	if err != nil || !outcome.Intermediate {
		t.Errorf("processing should be intermediate, got %+v err %v", outcome, err)
	}

	outcome, err = adapter.ParseWebhook([]byte(`{"data":{"task_id":"k1","task_status":"succeed","video_url":"https://cdn/v.mp4"}}`))
	if err != nil || !outcome.Success || outcome.Result != "https://cdn/v.mp4" {
		t.Errorf("succeed parse failed, got %+v err %v", outcome, err)
	}

	outcome, err = adapter.ParseWebhook([]byte(`{"data":{"task_id":"k1","task_status":"succeed"}}`))
	if err != nil || outcome.Success {
		t.Errorf("succeed without url must not be success, got %+v err %v", outcome, err)
	}

	outcome, err = adapter.ParseWebhook([]byte(`{"data":{"task_id":"k1","task_status":"failed_risk_control"},"message":"nope"}`))
	if err != nil || !outcome.ContentViolation {
		t.Errorf("risk control should flag violation, got %+v err %v", outcome, err)
	}
}

func TestSynchronousAdaptersHaveNoWebhook(t *testing.T) {
	config := testConfig()

	if _, err := NewOpenRouterAdapter(nil, config).ParseWebhook(nil); err != ErrNoWebhook {
		t.Errorf("openrouter: %v", err)
	}
	if _, err := NewDallEAdapter(nil).ParseWebhook(nil); err != ErrNoWebhook {
		t.Errorf("dalle: %v", err)
	}
}

func TestCallbackURLJoining(t *testing.T) {
	config := testConfig()
	if got := callbackFor(config, "midjourney"); got != "https://bot.example.com/webhook/midjourney" {
		t.Errorf("callback = %q", got)
	}
}
