package core

import (
	"bytes"
	"encoding/base64"
	"fmt"
	htmltmpl "html/template"
	"io"
	"net/http"
	"net/mail"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	texttmpl "text/template"

	"github.com/pkg/errors"
)

const (
	textExt = ".txt"
	htmlExt = ".gohtml"
)

// emailTemplates holds the parsed templates by name. A name may have a text and an html version.
var emailTemplates = struct {
	sync.RWMutex
	text    map[string]*texttmpl.Template
	html    map[string]*htmltmpl.Template
	baseURL string
	appName string
}{}

type (
	Attachment struct {
		Content     *bytes.Buffer // base64 encoded
		ContentType string
		Filename    string
	}

	EmailMessage struct {
		To          []mail.Address
		Cc          []mail.Address
		Bcc         []mail.Address
		Subject     string
		BodyStr     string // plain text, skips templates
		Attachments []Attachment

		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	// ContextData is what templates receive.
	ContextData struct {
		AppName         string
		FrontendBaseURL string
		Data            interface{}
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

// templateFuncs are shared by the text and html templates.
func templateFuncs() map[string]interface{} {
	return map[string]interface{}{
		// frontendURL joins path segments to the frontend base URL, escaping each segment.
		"frontendURL": func(segments ...string) string {
			emailTemplates.RLock()
			base := strings.TrimRight(emailTemplates.baseURL, "/")
			emailTemplates.RUnlock()
			for _, s := range segments {
				base += "/" + url.PathEscape(s)
			}
			return base
		},
		"percent": func(v float64) string { return fmt.Sprintf("%.2f %%", v) },
		"upper":   strings.ToUpper,
	}
}

func (m *EmailMessage) contextData() ContextData {
	emailTemplates.RLock()
	defer emailTemplates.RUnlock()
	return ContextData{
		AppName:         emailTemplates.appName,
		FrontendBaseURL: emailTemplates.baseURL,
		Data:            m.TemplateData,
	}
}

// Render fills TextContent and HTMLContent. BodyStr wins over the text template.
// Unknown templates render nothing.
func (m *EmailMessage) Render() error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
	}
	if m.TemplateName == "" {
		return nil
	}

	emailTemplates.RLock()
	txt := emailTemplates.text[m.TemplateName]
	html := emailTemplates.html[m.TemplateName]
	emailTemplates.RUnlock()
	data := m.contextData()

	var buf bytes.Buffer
	if txt != nil && m.BodyStr == "" {
		if err := txt.Execute(&buf, data); err != nil {
			return errors.Wrap(err, m.TemplateName+textExt)
		}
		m.TextContent = buf.String()
	}
	if html != nil {
		buf.Reset()
		if err := html.Execute(&buf, data); err != nil {
			return errors.Wrap(err, m.TemplateName+htmlExt)
		}
		m.HTMLContent = buf.String()
	}
	return nil
}

// Attach base64-encodes the content of r. The content type is sniffed when not given.
func (m *EmailMessage) Attach(r io.Reader, filename string, ct ...string) error {
	content, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	at := Attachment{Filename: filename, Content: new(bytes.Buffer)}
	enc := base64.NewEncoder(base64.StdEncoding, at.Content)
	if _, err := enc.Write(content); err != nil {
		return err
	}
	_ = enc.Close()

	if len(ct) > 0 {
		at.ContentType = ct[0]
	} else {
		at.ContentType = http.DetectContentType(content)
	}
	m.Attachments = append(m.Attachments, at)
	return nil
}

func (m *EmailMessage) AttachFile(path string, contentType ...string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return m.Attach(f, filepath.Base(path), contentType...)
}

func (m *EmailMessage) HasRecipients() bool  { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool     { return (m.TextContent != "") || (m.HTMLContent != "") }
func (m *EmailMessage) HasAttachments() bool { return len(m.Attachments) > 0 }

// ParseEmailTemplates loads every email template under assets/templates/email.
// Files starting with "_" are base layouts: each template defines the "content" block of
// _base.txt or _base.gohtml. Broken templates are logged and skipped.
func ParseEmailTemplates(conf *Config, logger Logger) {
	dir := filepath.Join(conf.WorkDir, "assets", "templates", "email")
	paths, err := filepath.Glob(filepath.Join(dir, "*"))
	if err != nil {
		logger.Error("parsing email templates", "dir", dir, "error", err)
		return
	}

	strict := conf.Debug || conf.TestMode
	text := make(map[string]*texttmpl.Template)
	html := make(map[string]*htmltmpl.Template)
	for _, p := range paths {
		fname := filepath.Base(p)
		ext := filepath.Ext(fname)
		name := strings.TrimSuffix(fname, ext)
		if strings.HasPrefix(fname, "_") {
			continue
		}

		switch ext {
		case textExt:
			t, err := texttmpl.New("_base"+textExt).Funcs(templateFuncs()).
				ParseFiles(filepath.Join(dir, "_base"+textExt), p)
			if err != nil {
				logger.Error("parsing email template", "template", fname, "error", err)
				continue
			}
			if strict {
				t = t.Option("missingkey=error")
			}
			text[name] = t
		case htmlExt:
			t, err := htmltmpl.New("_base"+htmlExt).Funcs(templateFuncs()).
				ParseFiles(filepath.Join(dir, "_base"+htmlExt), p)
			if err != nil {
				logger.Error("parsing email template", "template", fname, "error", err)
				continue
			}
			if strict {
				t = t.Option("missingkey=error")
			}
			html[name] = t
		}
	}

	emailTemplates.Lock()
	emailTemplates.text = text
	emailTemplates.html = html
	emailTemplates.baseURL = conf.FrontendBaseURL
	emailTemplates.appName = conf.AppName
	emailTemplates.Unlock()
}
