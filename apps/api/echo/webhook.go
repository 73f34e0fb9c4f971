package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/janisrealty/janis/core"
	"github.com/janisrealty/janis/core/lead"
)

const (
	twilioSignatureHeader = "X-Twilio-Signature"
	emptyTwiML            = `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`
)

type webhookApi struct {
	leads  *lead.Service
	sigs   SignatureChecker
	logger core.Logger
}

func registerWebhookAPI(g *echo.Group, leads *lead.Service, sigs SignatureChecker, logger core.Logger) {
	api := webhookApi{leads: leads, sigs: sigs, logger: logger}
	g.POST("/twilio/whatsapp", api.twilioWhatsApp)
}

// requestURL rebuilds the absolute URL Twilio signed.
func requestURL(ctx echo.Context) string {
	return ctx.Scheme() + "://" + ctx.Request().Host + ctx.Request().RequestURI
}

func (api *webhookApi) twilioWhatsApp(ctx echo.Context) error {
	form, err := ctx.FormParams()
	if err != nil {
		return errors.Wrap(err, "parsing webhook form")
	}
	if api.sigs != nil {
		params := make(map[string]string, len(form))
		for k, v := range form {
			if len(v) > 0 {
				params[k] = v[0]
			}
		}
		if !api.sigs.Valid(requestURL(ctx), params, ctx.Request().Header.Get(twilioSignatureHeader)) {
			api.logger.Warn("rejected twilio webhook", "url", requestURL(ctx))
			return errBadSignature
		}
	}

	var in lead.Incoming
	if err := ctx.Bind(&in); err != nil {
		return err
	}
	if _, err := api.leads.ProcessIncoming(ctx.Request().Context(), in); err != nil {
		return errors.Wrap(err, "processing incoming whatsapp message")
	}
	return ctx.Blob(http.StatusOK, echo.MIMEApplicationXMLCharsetUTF8, []byte(emptyTwiML))
}
