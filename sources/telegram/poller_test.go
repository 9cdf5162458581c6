package telegram

import (
	"testing"
	"time"
	"musegate/sources/configuration"
	"musegate/sources/tracing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type gatedHandler struct {
	started chan int
	release chan struct{}
}

func (g *gatedHandler) HandleMessage(_ *tracing.Logger, msg *tgbotapi.Message) error {
	g.started <- msg.MessageID
	if msg.MessageID == 1 {
		<-g.release
	}
	return nil
}

func testUpdate(messageID int) tgbotapi.Update {
	return tgbotapi.Update{
		Message: &tgbotapi.Message{
			MessageID: messageID,
			From:      &tgbotapi.User{ID: int64(messageID), UserName: "someone"},
			Chat:      &tgbotapi.Chat{ID: int64(messageID), Type: "private"},
			Text:      "/help",
		},
	}
}

func TestPollerHandlesUpdatesConcurrently(t *testing.T) {
	handler := &gatedHandler{
		started: make(chan int, 2),
		release: make(chan struct{}),
	}
	poller := &Poller{
		log:     tracing.NewConsoleLogger(),
		config:  &configuration.Config{},
		handler: handler,
	}

	updates := make(chan tgbotapi.Update, 2)
	updates <- testUpdate(1)
	updates <- testUpdate(2)
	close(updates)

	done := make(chan struct{})
	go func() {
		poller.consume(updates)
		close(done)
	}()

	// The first handler blocks on the gate; the second must still run.
	seen := map[int]bool{}
	for i := 0; i < 2; i++ {
		select {
		case id := <-handler.started:
			seen[id] = true
		case <-time.After(2 * time.Second):
			t.Fatalf("second update queued behind a slow first one, saw %v", seen)
		}
	}
	if !seen[1] || !seen[2] {
		t.Fatalf("expected both updates in flight, saw %v", seen)
	}

	close(handler.release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consume did not drain after the gate opened")
	}
}
