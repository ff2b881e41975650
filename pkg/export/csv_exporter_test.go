package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVRenderPrefixesBOM(t *testing.T) {
	exporter := NewCSVExporter()

	data, err := exporter.Render(Dataset{
		Headers: []string{"Chat", "Mensagem"},
		Rows:    []map[string]string{{"Chat": "c1", "Mensagem": "Olá, tudo bem? Ação confirmada."}},
	})
	require.NoError(t, err)

	require.True(t, bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}), "Excel needs the BOM to decode accents")
	body := string(data[3:])
	assert.True(t, strings.HasPrefix(body, "Chat,Mensagem"))
	assert.Contains(t, body, "Olá, tudo bem? Ação confirmada.")
}

func TestCSVRenderFlattensMultilineMessages(t *testing.T) {
	exporter := NewCSVExporter()

	data, err := exporter.Render(Dataset{
		Headers: []string{"Mensagem"},
		Rows:    []map[string]string{{"Mensagem": "🔐 *Cadastro UTFPR*\n\nDigite seu RA:\r\nex: a1234567"}},
	})
	require.NoError(t, err)

	body := string(data[3:])
	assert.Equal(t, 2, strings.Count(body, "\n"), "one line for the header, one per row")
	assert.Contains(t, body, "🔐 *Cadastro UTFPR*  Digite seu RA: ex: a1234567")
}

func TestCSVRenderRequiresHeaders(t *testing.T) {
	exporter := NewCSVExporter()

	_, err := exporter.Render(Dataset{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one header")
}

func TestCSVRenderFillsMissingColumns(t *testing.T) {
	exporter := NewCSVExporter()

	data, err := exporter.Render(Dataset{
		Headers: []string{"Chat", "Termos"},
		Rows:    []map[string]string{{"Chat": "c1"}},
	})
	require.NoError(t, err)
	assert.Contains(t, string(data), "c1,\n")
}