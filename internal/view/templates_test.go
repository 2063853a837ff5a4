package view

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine()
	assert.NoError(t, err, "Templates should parse without error")
	assert.NotNil(t, engine)
}

func TestRenderUnknownTemplate(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	assert.Error(t, engine.Render(rec, "missing.html", TemplateData{}))
	assert.Empty(t, rec.Body.String())

	var nilEngine *Engine
	assert.Error(t, nilEngine.Render(rec, "invoice.html", TemplateData{}))
}
