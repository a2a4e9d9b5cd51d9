package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldsites/sitebuilder/internal/config"
)

func TestDisabledConfigYieldsNilPublisher(t *testing.T) {
	p, err := NewPublisher(config.EventsConfig{Enabled: false}, nil)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestNilPublisherIsSafe(t *testing.T) {
	var p *Publisher
	assert.NoError(t, p.Publish(context.Background(), RegenerationEvent{
		Type:       EventSiteRegenerated,
		BusinessID: "b-42",
	}))
	p.Close()
}
