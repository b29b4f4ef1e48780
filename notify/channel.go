// Package notify delivers stored items to their source's webhook. Each
// delivery mechanism implements Channel and is selected by the source's
// webhook method, so new channels slot in without touching the dispatch
// loop.
package notify

import (
	"context"

	"github.com/lc4t/ArticlesData/models"
)

// Channel delivers one item to one source's webhook.
type Channel interface {
	// Method returns the webhook method this channel handles.
	Method() string
	// Notify posts the item to the source's webhook and returns an error
	// unless the provider confirmed acceptance.
	Notify(ctx context.Context, source models.Source, item models.Item) error
}

// Registry maps webhook methods to their channels.
type Registry map[string]Channel

func NewRegistry(channels ...Channel) Registry {
	registry := make(Registry, len(channels))
	for _, channel := range channels {
		registry[channel.Method()] = channel
	}
	return registry
}
