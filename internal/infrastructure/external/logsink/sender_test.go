package logsink

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSender_SendText(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := NewSender(zap.New(core))

	require.NoError(t, s.SendText(context.Background(), "owner@example.com", "approved"))
	assert.Error(t, s.SendText(context.Background(), "", "approved"))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "owner@example.com", entries[0].ContextMap()["recipient"])
	assert.Equal(t, "approved", entries[0].ContextMap()["content"])
	assert.Equal(t, ChannelName, s.Channel())
}
