package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChatModel struct {
	reply *schema.Message
	err   error
	got   []*schema.Message
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.got = input
	return f.reply, f.err
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func TestGenerateContent_SendsSystemAndUser(t *testing.T) {
	fake := &fakeChatModel{reply: schema.AssistantMessage("## VCB: 95.500 VND", nil)}
	c, err := NewClient(context.Background(), Config{Model: "test-model"}, withChatModel(fake))
	require.NoError(t, err)

	out, err := c.GenerateContent(context.Background(), "Giá VCB?")
	require.NoError(t, err)
	assert.Equal(t, "## VCB: 95.500 VND", out)
	assert.Equal(t, "openai/test-model", c.Name())

	require.Len(t, fake.got, 2)
	assert.Equal(t, schema.System, fake.got[0].Role)
	assert.Equal(t, schema.User, fake.got[1].Role)
	assert.Equal(t, "Giá VCB?", fake.got[1].Content)
}

func TestGenerateContent_EmptyReply(t *testing.T) {
	fake := &fakeChatModel{reply: schema.AssistantMessage("   ", nil)}
	c, err := NewClient(context.Background(), Config{}, withChatModel(fake), WithSystemPrompt(""))
	require.NoError(t, err)

	_, err = c.GenerateContent(context.Background(), "x")
	assert.Error(t, err)
	require.Len(t, fake.got, 1, "no system message when disabled")
}

func TestGenerateContent_UpstreamError(t *testing.T) {
	fake := &fakeChatModel{err: errors.New("401 unauthorized")}
	c, err := NewClient(context.Background(), Config{}, withChatModel(fake))
	require.NoError(t, err)

	_, err = c.GenerateContent(context.Background(), "x")
	assert.ErrorContains(t, err, "401")
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), Config{})
	assert.Error(t, err)
}
