package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/lc4t/ArticlesData/models"
)

// ErrNotAcknowledged is returned when the webhook responded but the body did
// not contain the provider's acknowledgement token.
var ErrNotAcknowledged = errors.New("webhook response missing acknowledgement token")

// ackToken is the literal the IFTTT Maker webhook includes in a successful
// response body.
const ackToken = "Congratulations"

const webhookTimeout = 10 * time.Second

// IFTTT posts items to an IFTTT Maker webhook as the fixed three-value JSON
// payload.
type IFTTT struct {
	client *http.Client
}

func NewIFTTT() *IFTTT {
	return &IFTTT{client: &http.Client{Timeout: webhookTimeout}}
}

func (c *IFTTT) Method() string {
	return models.WebhookMethodIFTTT
}

type makerPayload struct {
	Value1 string `json:"value1"`
	Value2 string `json:"value2"`
	Value3 string `json:"value3"`
}

func (c *IFTTT) Notify(ctx context.Context, source models.Source, item models.Item) error {
	// Format in UTC so the payload carries the feed's published wall-clock
	// time, not the host's local rendering of it.
	payload, err := json.Marshal(makerPayload{
		Value1: fmt.Sprintf("【%s】(%s)", item.AuthorName, item.PublishedAt.UTC().Format("0102.1504")),
		Value2: item.Title,
		Value3: deepLink(item.Link),
	})
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, source.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	rsp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer rsp.Body.Close()

	body, err := io.ReadAll(rsp.Body)
	if err != nil {
		return fmt.Errorf("read webhook response: %w", err)
	}

	if !strings.Contains(string(body), ackToken) {
		log.WithFields(log.Fields{
			"item":   item.ID,
			"status": rsp.StatusCode,
		}).Debug("Webhook did not acknowledge")
		return ErrNotAcknowledged
	}

	return nil
}

// deepLink rewrites a bilibili web video link to the app's URL scheme and
// strips the "av" id prefix, which the scheme does not use.
func deepLink(link string) string {
	link = strings.ReplaceAll(link, "https://www.bilibili.com/video/", "bilibili://video/")
	return strings.ReplaceAll(link, "av", "")
}
