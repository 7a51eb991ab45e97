package model

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComplete_CannedResponse(t *testing.T) {
	m := NewMockModel("mock", "mock")
	m.AddResponse("hello", "world 42")

	out, err := Complete(context.Background(), m, "system", "hello")
	require.NoError(t, err)
	assert.Equal(t, "world 42", out)
	assert.Equal(t, 1, m.Calls())
}

func TestComplete_DefaultEcho(t *testing.T) {
	m := NewMockModel("mock", "mock")

	out, err := Complete(context.Background(), m, "", "analyse fintech")
	require.NoError(t, err)
	assert.Contains(t, out, "analyse fintech")
}

func TestComplete_HandlerSeesInstructions(t *testing.T) {
	m := NewMockModel("mock", "mock")
	m.SetHandler(func(_ context.Context, req Request) (string, error) {
		if req.Instructions == "boom" {
			return "", errors.New("upstream down")
		}
		return "ok", nil
	})

	_, err := Complete(context.Background(), m, "boom", "q")
	require.EqualError(t, err, "upstream down")

	out, err := Complete(context.Background(), m, "fine", "q")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestComplete_EmptyIsError(t *testing.T) {
	m := NewMockModel("mock", "mock")
	m.AddResponse("q", "   ")

	_, err := Complete(context.Background(), m, "", "q")
	require.ErrorIs(t, err, ErrEmptyResponse)
}

func TestComplete_RespectsDeadline(t *testing.T) {
	m := NewMockModel("mock", "mock")
	m.SetDelay(time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := Complete(ctx, m, "", "q")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMockModel_Streaming(t *testing.T) {
	m := NewMockModel("mock", "mock")
	m.AddResponse("q", "a b c")

	respCh, errCh := m.Generate(context.Background(), Request{
		Messages: []Message{{Role: "user", Text: "q"}},
		Stream:   true,
	})

	var partials int
	var final string
	for r := range respCh {
		if r.Partial {
			partials++
			continue
		}
		final = r.Text
	}
	require.NoError(t, <-errCh)
	assert.Equal(t, 3, partials)
	assert.Equal(t, "a b c", final)
}
