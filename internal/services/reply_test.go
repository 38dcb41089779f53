package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComposeAttachesQuickReplies(t *testing.T) {
	c := NewReplyComposer()

	reply := c.Compose("whatsapp:+66891234567", "hello")

	assert.Equal(t, "whatsapp:+66891234567", reply.To)
	assert.Equal(t, "hello", reply.Text)
	assert.Equal(t, DefaultQuickReplies, reply.QuickReplies)
	assert.Len(t, reply.QuickReplies, 7)
}

func TestComposeCopiesMenu(t *testing.T) {
	c := NewReplyComposer()

	first := c.Compose("a", "x")
	first.QuickReplies[0].Label = "changed"
	second := c.Compose("b", "y")

	assert.Equal(t, "เมนู", second.QuickReplies[0].Label)
	assert.Equal(t, "เมนู", DefaultQuickReplies[0].Label)
}

func TestQuickReplyValuesAreRecognized(t *testing.T) {
	for _, q := range DefaultQuickReplies {
		assert.NotEqual(t, IntentUnrecognized, Classify(q.Value), q.Value)
	}
}
