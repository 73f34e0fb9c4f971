package emailsvc

import (
	"fmt"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/janisrealty/janis/core"
)

var (
	// SentMessages records what the mock service delivered.
	SentMessages = make([]core.EmailMessage, 0)
	mu           sync.Mutex
)

// ResetSentMessages clears the recorded messages.
func ResetSentMessages() {
	mu.Lock()
	SentMessages = SentMessages[:0]
	mu.Unlock()
}

func record(msg core.EmailMessage) {
	mu.Lock()
	SentMessages = append(SentMessages, msg)
	mu.Unlock()
}

// consoleService prints emails through the logger. Used in development and when SendGrid is not set up.
type consoleService struct {
	from       mail.Address
	subjPrefix string
	quiet      bool
	sync       bool
	logger     core.Logger
}

var _ core.EmailService = (*consoleService)(nil)

func NewConsoleService(conf *core.Config, logger core.Logger) core.EmailService {
	return &consoleService{
		from:       conf.DefaultFromEmail(),
		subjPrefix: "[" + conf.AppName + "] ",
		logger:     logger,
	}
}

// NewConsoleServiceMock delivers synchronously without output and records messages in SentMessages.
func NewConsoleServiceMock(conf *core.Config, logger core.Logger) core.EmailService {
	return &consoleService{
		from:       conf.DefaultFromEmail(),
		subjPrefix: "[" + conf.AppName + "] ",
		quiet:      true,
		sync:       true,
		logger:     logger,
	}
}

func (svc *consoleService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		if svc.sync {
			svc.deliver(msg)
		} else {
			go svc.deliver(msg)
		}
	}
}

func (svc *consoleService) deliver(msg *core.EmailMessage) {
	if err := msg.Render(); err != nil {
		svc.logger.Error("rendering email", "template", msg.TemplateName, "error", err)
		return
	}
	if !msg.HasRecipients() || !(msg.HasContent() || msg.HasAttachments()) {
		return
	}
	if !svc.quiet {
		out, err := svc.mime(*msg)
		if err != nil {
			svc.logger.Error("building email", "template", msg.TemplateName, "error", err)
			return
		}
		svc.logger.Info(out)
	}
	if svc.sync {
		record(*msg)
	}
}

// mime renders msg as a multipart message: alternative text/html parts, wrapped in a mixed
// part when there are attachments.
func (svc *consoleService) mime(msg core.EmailMessage) (string, error) {
	body := new(strings.Builder)
	header := func(k, v string) { _, _ = fmt.Fprintf(body, "%s: %s\r\n", k, v) }

	header("From", svc.from.String())
	header("MIME-Version", "1.0")
	header("Date", time.Now().Format(time.RFC1123Z))
	header("Subject", svc.subjPrefix+msg.Subject)
	header("To", joinAddresses(msg.To))
	if len(msg.Cc) > 0 {
		header("CC", joinAddresses(msg.Cc))
	}
	if len(msg.Bcc) > 0 {
		header("BCC", joinAddresses(msg.Bcc))
	}

	alt := multipart.NewWriter(body)
	var mixed *multipart.Writer
	if msg.HasAttachments() {
		mixed = multipart.NewWriter(body)
		header("Content-Type", "multipart/mixed; boundary="+mixed.Boundary())
		_, _ = fmt.Fprint(body, "\r\n")
		if _, err := mixed.CreatePart(textproto.MIMEHeader{"Content-Type": {"multipart/alternative; boundary=" + alt.Boundary()}}); err != nil {
			return "", errors.Wrap(err, "alternative part")
		}
	} else {
		header("Content-Type", "multipart/alternative; boundary="+alt.Boundary())
		_, _ = fmt.Fprint(body, "\r\n")
	}

	parts := []struct{ ct, content string }{{"text/plain", msg.TextContent}}
	if msg.HTMLContent != "" {
		parts = append(parts, struct{ ct, content string }{"text/html", msg.HTMLContent})
	}
	for _, p := range parts {
		w, err := alt.CreatePart(textproto.MIMEHeader{"Content-Type": {p.ct + "; charset=utf-8"}})
		if err != nil {
			return "", errors.Wrap(err, p.ct+" part")
		}
		_, _ = fmt.Fprintf(w, "%s\r\n", p.content)
	}
	if err := alt.Close(); err != nil {
		return "", err
	}

	if mixed != nil {
		for _, at := range msg.Attachments {
			w, err := mixed.CreatePart(textproto.MIMEHeader{
				"Content-Type":              {at.ContentType},
				"Content-Transfer-Encoding": {"base64"},
				"Content-Disposition":       {"attachment; filename=" + at.Filename},
			})
			if err != nil {
				return "", errors.Wrap(err, at.Filename)
			}
			_, _ = fmt.Fprintf(w, "%s\r\n", at.Content.String())
		}
		if err := mixed.Close(); err != nil {
			return "", err
		}
	}
	return body.String(), nil
}

func joinAddresses(addrs []mail.Address) string {
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, a.String())
	}
	return strings.Join(out, ", ")
}
