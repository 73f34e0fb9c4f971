package whatsapp

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/twilio/twilio-go"
	"github.com/twilio/twilio-go/client"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/janisrealty/janis/core"
	"github.com/janisrealty/janis/core/lead"
)

// MessageCreator is the part of the Twilio API the sender uses.
type MessageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

type Sender struct {
	api  MessageCreator
	from string
}

var _ lead.Sender = (*Sender)(nil)

func NewTwilioSender(conf *core.Config) *Sender {
	c := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: conf.Twilio.AccountSID,
		Password: conf.Twilio.AuthToken,
	})
	return NewSender(c.Api, conf.Twilio.WhatsAppFrom)
}

func NewSender(api MessageCreator, from string) *Sender {
	return &Sender{api: api, from: from}
}

func withPrefix(phone string) string {
	if strings.HasPrefix(phone, lead.WhatsAppPrefix) {
		return phone
	}
	return lead.WhatsAppPrefix + phone
}

// Send delivers body (and mediaURL when set) to the whatsapp address to.
func (s *Sender) Send(_ context.Context, to, body, mediaURL string) (lead.SendResult, error) {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(withPrefix(to))
	params.SetFrom(withPrefix(s.from))
	if body != "" {
		params.SetBody(body)
	}
	if mediaURL != "" {
		params.SetMediaUrl([]string{mediaURL})
	}
	msg, err := s.api.CreateMessage(params)
	if err != nil {
		return lead.SendResult{}, errors.Wrap(err, "sending whatsapp message")
	}
	var res lead.SendResult
	if msg.Sid != nil {
		res.SID = *msg.Sid
	}
	if msg.Status != nil {
		res.Status = *msg.Status
	}
	return res, nil
}

// SignatureValidator checks the X-Twilio-Signature of webhook requests.
type SignatureValidator struct {
	enabled   bool
	validator client.RequestValidator
}

func NewSignatureValidator(conf *core.Config) *SignatureValidator {
	return &SignatureValidator{
		enabled:   conf.Twilio.ValidateSignature && conf.Twilio.AuthToken != "",
		validator: client.NewRequestValidator(conf.Twilio.AuthToken),
	}
}

// Valid reports whether signature signs url and params. It is always true when disabled.
func (v *SignatureValidator) Valid(url string, params map[string]string, signature string) bool {
	if !v.enabled {
		return true
	}
	return v.validator.Validate(url, params, signature)
}
