package util

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTemplate(t *testing.T) {
	out, err := RenderTemplate("Query: {{.query}} / {{default \"general\" .industry}}", map[string]any{"query": "<fintech>"})
	require.NoError(t, err)
	assert.Equal(t, "Query: <fintech> / general", out)

	out, err = RenderTemplate("plain", nil)
	require.NoError(t, err)
	assert.Equal(t, "plain", out)
}

func TestRenderTemplate_Helpers(t *testing.T) {
	out, err := RenderTemplate("{{bullets .items}}|{{join \", \" .items}}", map[string]any{"items": []string{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, "- a\n- b|a, b", out)
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Market Growth Rate", Title("market_growth_rate"))
	assert.Equal(t, "", Title(""))
}

func TestNewID(t *testing.T) {
	_, err := uuid.Parse(NewID())
	require.NoError(t, err)
	assert.NotEqual(t, NewID(), NewID())
}
