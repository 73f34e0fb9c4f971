package whatsapp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/janisrealty/janis/core"
)

type fakeAPI struct {
	params *twilioApi.CreateMessageParams
	err    error
}

func (f *fakeAPI) CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	sid, status := "SM123", "queued"
	return &twilioApi.ApiV2010Message{Sid: &sid, Status: &status}, nil
}

func TestSender_Send(t *testing.T) {
	tests := []struct {
		name     string
		to       string
		mediaURL string
	}{
		{"bare number", "+51999888777", ""},
		{"prefixed number", "whatsapp:+51999888777", "https://cdn.example.com/a.jpg"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			api := &fakeAPI{}
			s := NewSender(api, "+14155238886")
			res, err := s.Send(context.Background(), tc.to, "hola", tc.mediaURL)
			require.NoError(t, err)
			assert.Equal(t, "SM123", res.SID)
			assert.Equal(t, "queued", res.Status)
			assert.Equal(t, "whatsapp:+51999888777", *api.params.To)
			assert.Equal(t, "whatsapp:+14155238886", *api.params.From)
			assert.Equal(t, "hola", *api.params.Body)
			if tc.mediaURL == "" {
				assert.Nil(t, api.params.MediaUrl)
			} else {
				assert.Equal(t, []string{tc.mediaURL}, *api.params.MediaUrl)
			}
		})
	}
}

func TestSender_SendError(t *testing.T) {
	s := NewSender(&fakeAPI{err: errors.New("down")}, "+1")
	_, err := s.Send(context.Background(), "+2", "x", "")
	assert.Error(t, err)
}

func TestSignatureValidator_disabled(t *testing.T) {
	v := NewSignatureValidator(&core.Config{})
	assert.True(t, v.Valid("https://x/webhook", map[string]string{"Body": "hi"}, "bogus"))

	conf := &core.Config{}
	conf.Twilio.ValidateSignature = true
	conf.Twilio.AuthToken = "secret"
	v = NewSignatureValidator(conf)
	assert.False(t, v.Valid("https://x/webhook", map[string]string{"Body": "hi"}, "bogus"))
}
