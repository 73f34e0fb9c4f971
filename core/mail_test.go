package core

import (
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{ errors []string }

func (l *nopLogger) Debug(string, ...interface{}) {}
func (l *nopLogger) Info(string, ...interface{})  {}
func (l *nopLogger) Warn(string, ...interface{})  {}
func (l *nopLogger) Error(msg string, _ ...interface{}) {
	l.errors = append(l.errors, msg)
}
func (l *nopLogger) Fatal(string, ...interface{}) {}

func writeTemplates(t *testing.T, files map[string]string) string {
	root := t.TempDir()
	dir := filepath.Join(root, "assets", "templates", "email")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return root
}

func TestEmailMessage_Render(t *testing.T) {
	root := writeTemplates(t, map[string]string{
		"_base.txt":     `{{template "content" .}} -- {{.AppName}}`,
		"_base.gohtml":  `<body>{{template "content" .}}</body>`,
		"match.txt":     `{{define "content"}}{{upper .Data.Code}} {{percent .Data.Score}} {{frontendURL "propiedades" .Data.Code}}{{end}}`,
		"match.gohtml":  `{{define "content"}}<a href="{{frontendURL "propiedades" .Data.Code}}">{{.Data.Title}}</a>{{end}}`,
		"broken.gohtml": `{{define "content"}}{{if}}{{end}}{{end}}`,
		"notes.md":      `ignored`,
	})
	logger := &nopLogger{}
	ParseEmailTemplates(&Config{AppName: "Janis", WorkDir: root, FrontendBaseURL: "https://crm.janis.pe/", TestMode: true}, logger)
	assert.Len(t, logger.errors, 1)

	msg := &EmailMessage{
		To:           []mail.Address{{Address: "ana@janis.pe"}},
		TemplateName: "match",
		TemplateData: map[string]interface{}{"Code": "jan-1", "Score": 82.5, "Title": "Casa & jardín"},
	}
	require.NoError(t, msg.Render())
	assert.Equal(t, "JAN-1 82.50 % https://crm.janis.pe/propiedades/jan-1 -- Janis", msg.TextContent)
	assert.Equal(t, `<body><a href="https://crm.janis.pe/propiedades/jan-1">Casa &amp; jardín</a></body>`, msg.HTMLContent)

	t.Run("missing keys fail in test mode", func(t *testing.T) {
		msg := &EmailMessage{TemplateName: "match", TemplateData: map[string]interface{}{}}
		assert.Error(t, msg.Render())
	})

	t.Run("plain body", func(t *testing.T) {
		msg := &EmailMessage{BodyStr: "hola", TemplateName: "unknown"}
		require.NoError(t, msg.Render())
		assert.Equal(t, "hola", msg.TextContent)
		assert.Empty(t, msg.HTMLContent)
	})

	t.Run("attachments", func(t *testing.T) {
		msg := &EmailMessage{}
		require.NoError(t, msg.Attach(strings.NewReader("%PDF-1.4"), "plano.pdf"))
		require.Len(t, msg.Attachments, 1)
		assert.Equal(t, "application/pdf", msg.Attachments[0].ContentType)
		assert.Equal(t, "JVBERi0xLjQ=", msg.Attachments[0].Content.String())
		assert.True(t, msg.HasAttachments())
	})
}
