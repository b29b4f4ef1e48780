package notify_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lc4t/ArticlesData/models"
	"github.com/lc4t/ArticlesData/notify"
)

type capturedPayload struct {
	Value1 string `json:"value1"`
	Value2 string `json:"value2"`
	Value3 string `json:"value3"`
}

// ackWebhook runs a webhook server that acknowledges every delivery and
// records the last payload and content type it received.
func ackWebhook(t *testing.T, payload *capturedPayload, contentType *string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if contentType != nil {
			*contentType = r.Header.Get("Content-Type")
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(payload))
		fmt.Fprint(w, "Congratulations! You've fired the push event")
	}))
	t.Cleanup(server.Close)
	return server
}

func TestIFTTTNotify(t *testing.T) {
	var payload capturedPayload
	var contentType string
	server := ackWebhook(t, &payload, &contentType)

	source := models.Source{
		WebhookMethod: models.WebhookMethodIFTTT,
		WebhookURL:    server.URL,
	}
	item := models.Item{
		AuthorName:  "alice",
		Title:       "Hello",
		Link:        "https://www.bilibili.com/video/av100",
		PublishedAt: time.Date(2023, 1, 2, 10, 0, 0, 0, time.UTC),
	}

	err := notify.NewIFTTT().Notify(context.Background(), source, item)
	require.NoError(t, err)

	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, "【alice】(0102.1000)", payload.Value1)
	assert.Equal(t, "Hello", payload.Value2)
	assert.Equal(t, "bilibili://video/100", payload.Value3)
}

func TestIFTTTNotifyKeepsPublishedWallClock(t *testing.T) {
	var payload capturedPayload
	server := ackWebhook(t, &payload, nil)

	// A timestamp reloaded from the store carries the host's zone; the
	// payload must still show the feed's wall-clock time on any host.
	shanghai := time.FixedZone("CST", 8*60*60)
	item := models.Item{
		AuthorName:  "alice",
		Title:       "Hello",
		Link:        "https://www.bilibili.com/video/av100",
		PublishedAt: time.Date(2023, 1, 2, 10, 0, 0, 0, time.UTC).In(shanghai),
	}

	err := notify.NewIFTTT().Notify(context.Background(), models.Source{WebhookURL: server.URL}, item)
	require.NoError(t, err)
	assert.Equal(t, "【alice】(0102.1000)", payload.Value1)
}

func TestIFTTTNotifyRewritesDeepLink(t *testing.T) {
	tests := []struct {
		name     string
		link     string
		expected string
	}{
		{
			name:     "web video link becomes app deep link",
			link:     "https://www.bilibili.com/video/av100",
			expected: "bilibili://video/100",
		},
		{
			name:     "bv-style id keeps its prefix",
			link:     "https://www.bilibili.com/video/BV1xx411c7mD",
			expected: "bilibili://video/BV1xx411c7mD",
		},
		{
			name:     "non-video link only loses the av marker",
			link:     "https://space.bilibili.com/42",
			expected: "https://space.bilibili.com/42",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var payload capturedPayload
			server := ackWebhook(t, &payload, nil)

			item := models.Item{
				AuthorName:  "alice",
				Title:       "Hello",
				Link:        tt.link,
				PublishedAt: time.Now(),
			}
			err := notify.NewIFTTT().Notify(context.Background(), models.Source{WebhookURL: server.URL}, item)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, payload.Value3)
		})
	}
}

func TestIFTTTNotifyMissingAckToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"errors":[{"message":"event not found"}]}`)
	}))
	t.Cleanup(server.Close)

	source := models.Source{WebhookURL: server.URL}
	item := models.Item{AuthorName: "alice", PublishedAt: time.Now()}

	err := notify.NewIFTTT().Notify(context.Background(), source, item)
	assert.ErrorIs(t, err, notify.ErrNotAcknowledged)
}

func TestIFTTTNotifyTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused

	source := models.Source{WebhookURL: server.URL}
	item := models.Item{AuthorName: "alice", PublishedAt: time.Now()}

	err := notify.NewIFTTT().Notify(context.Background(), source, item)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, notify.ErrNotAcknowledged)
}
