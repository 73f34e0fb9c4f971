package lead

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/janisrealty/janis/core"
)

// Message directions
const (
	DirectionIncoming = "incoming"
	DirectionOutgoing = "outgoing"
)

// WhatsAppPrefix marks Twilio WhatsApp addresses.
const WhatsAppPrefix = "whatsapp:"

type Lead struct {
	ID              int64      `json:"id" db:"id"`
	PhoneNumber     string     `json:"phone_number" db:"phone_number"`
	PropertyID      int64      `json:"property_id" db:"property_id"`
	WhatsAppLinkID  *int64     `json:"whatsapp_link_id" db:"whatsapp_link_id"`
	SocialNetworkID *int64     `json:"social_network_id" db:"social_network_id"`
	StatusID        *int64     `json:"status_id" db:"status_id"`
	Name            string     `json:"name" db:"name"`
	LastMessageAt   *time.Time `json:"last_message_at" db:"last_message_at"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// Link is a trackable WhatsApp entry point to a listing. Its identifier travels in the first message body.
type Link struct {
	ID               int64     `json:"id" db:"id"`
	UniqueIdentifier string    `json:"unique_identifier" db:"unique_identifier"`
	PropertyID       int64     `json:"property_id" db:"property_id"`
	SocialNetworkID  *int64    `json:"social_network_id" db:"social_network_id"`
	IsActive         bool      `json:"is_active" db:"is_active"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

type Message struct {
	ID         int64     `json:"id" db:"id"`
	LeadID     int64     `json:"lead_id" db:"lead_id"`
	PropertyID int64     `json:"property_id" db:"property_id"`
	Direction  string    `json:"message_type" db:"direction"`
	SenderName string    `json:"sender_name" db:"sender_name"`
	Body       string    `json:"message_body" db:"body"`
	ExternalID *string   `json:"message_id" db:"external_id"`
	MediaURL   string    `json:"media_url" db:"media_url"`
	MediaType  string    `json:"media_type" db:"media_type"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Incoming is a WhatsApp message as posted by the Twilio webhook.
type Incoming struct {
	From        string `form:"From"`
	To          string `form:"To"`
	Body        string `form:"Body"`
	MessageSID  string `form:"MessageSid"`
	SmsSID      string `form:"SmsSid"`
	ProfileName string `form:"ProfileName"`
	NumMedia    int    `form:"NumMedia"`
	MediaURL    string `form:"MediaUrl0"`
	MediaType   string `form:"MediaContentType0"`
}

func (in Incoming) externalID() string {
	if in.MessageSID != "" {
		return in.MessageSID
	}
	return in.SmsSID
}

func (in Incoming) phone() string {
	return strings.TrimPrefix(core.CleanString(in.From), WhatsAppPrefix)
}

// Detail is a lead with its whole conversation.
type Detail struct {
	Lead
	Messages []Message `json:"conversation"`
}

type SendResult struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

type Outgoing struct {
	Body     string `json:"body" validate:"required_without=MediaURL"`
	MediaURL string `json:"media_url" validate:"omitempty,url"`
}

func (out *Outgoing) Validate(validate *validator.Validate) error {
	out.Body = core.CleanString(out.Body)
	out.MediaURL = core.CleanString(out.MediaURL)
	return validate.Struct(out)
}

type LinkInput struct {
	UniqueIdentifier string `json:"unique_identifier" validate:"omitempty,max=64,alphanum_"`
	SocialNetworkID  *int64 `json:"social_network_id"`
}

func (li *LinkInput) Validate(validate *validator.Validate) error {
	li.UniqueIdentifier = core.CleanString(li.UniqueIdentifier)
	return validate.Struct(li)
}

type StatusUpdate struct {
	StatusID int64 `json:"status_id" validate:"required"`
}

type QueryFilter struct {
	StatusID   *int64 `query:"status"`
	PropertyID *int64 `query:"property"`
	Phone      string `query:"phone"`
}

// normalizePhone renders a phone number in E.164 with a leading "+".
func normalizePhone(phone string) string {
	phone = strings.TrimPrefix(core.CleanString(phone), WhatsAppPrefix)
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return "+" + b.String()
}
