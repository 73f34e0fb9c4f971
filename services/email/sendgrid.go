package emailsvc

import (
	"net/http"
	"net/mail"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/janisrealty/janis/core"
)

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
	maxAttempts      = 3
)

var (
	// mocked in tests
	sendgridAPI = sendgrid.API
	sleep       = time.Sleep
	retryDelay  = 2 * time.Second
)

type sendgridService struct {
	key        string
	from       *sgmail.Email
	replyTo    *sgmail.Email
	subjPrefix string
	sandbox    bool
	logger     core.Logger
}

var _ core.EmailService = (*sendgridService)(nil)

func NewSendgridService(conf *core.Config, logger core.Logger) core.EmailService {
	from := conf.DefaultFromEmail()
	svc := &sendgridService{
		key:        conf.SendgridApiKey,
		from:       sgmail.NewEmail(from.Name, from.Address),
		subjPrefix: "[" + conf.AppName + "] ",
		sandbox:    conf.Debug,
		logger:     logger,
	}
	if conf.ReplyToEmail != "" {
		svc.replyTo = sgmail.NewEmail(from.Name, conf.ReplyToEmail)
	}
	return svc
}

func (svc sendgridService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		msg := msg
		go svc.deliver(msg)
	}
}

func (svc sendgridService) deliver(msg *core.EmailMessage) {
	if err := msg.Render(); err != nil {
		svc.logger.Error("rendering email", "template", msg.TemplateName, "error", err)
		return
	}
	if !msg.HasRecipients() || !(msg.HasContent() || msg.HasAttachments()) {
		return
	}
	if err := svc.send(*msg); err != nil {
		svc.logger.Error("sending email", "template", msg.TemplateName, "subject", msg.Subject, "error", err)
	}
}

// prepare builds the SendGrid payload. Messages are tagged with their template so that
// delivery stats can be split per notification kind.
func (svc sendgridService) prepare(msg core.EmailMessage) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = svc.subjPrefix + msg.Subject
	for _, to := range msg.To {
		p.AddTos(sgEmail(to))
	}
	for _, cc := range msg.Cc {
		p.AddCCs(sgEmail(cc))
	}
	for _, bcc := range msg.Bcc {
		p.AddBCCs(sgEmail(bcc))
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(svc.from)
	if svc.replyTo != nil {
		m.SetReplyTo(svc.replyTo)
	}
	m.AddPersonalizations(p)

	m.AddContent(sgmail.NewContent("text/plain", msg.TextContent))
	if msg.HTMLContent != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTMLContent))
	}
	if msg.TemplateName != "" {
		m.AddCategories(msg.TemplateName)
	}
	for _, a := range msg.Attachments {
		m.AddAttachment(&sgmail.Attachment{
			Content:     a.Content.String(),
			Type:        a.ContentType,
			Filename:    a.Filename,
			Disposition: "attachment",
		})
	}
	if svc.sandbox {
		m.SetMailSettings(sgmail.NewMailSettings().SetSandboxMode(sgmail.NewSetting(true)))
	}
	return m
}

func sgEmail(addr mail.Address) *sgmail.Email {
	return sgmail.NewEmail(addr.Name, addr.Address)
}

func retryable(res *rest.Response, err error) bool {
	if err != nil {
		return true
	}
	return res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= http.StatusInternalServerError
}

// send posts msg, retrying rate limits and server errors with a linear backoff.
func (svc sendgridService) send(msg core.EmailMessage) error {
	body := sgmail.GetRequestBody(svc.prepare(msg))

	var (
		res *rest.Response
		err error
	)
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req := sendgrid.GetRequest(svc.key, sendgridEndpoint, sendgridHost)
		req.Method = http.MethodPost
		req.Body = body

		res, err = sendgridAPI(req)
		if !retryable(res, err) {
			break
		}
		if attempt < maxAttempts {
			sleep(time.Duration(attempt) * retryDelay)
		}
	}
	if err != nil {
		return err
	}
	if res.StatusCode >= http.StatusBadRequest {
		return &sendError{status: res.StatusCode, body: res.Body}
	}
	return nil
}

type sendError struct {
	status int
	body   string
}

func (e *sendError) Error() string {
	return "sendgrid: status " + http.StatusText(e.status) + ": " + e.body
}
