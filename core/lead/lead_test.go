package lead_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janisrealty/janis/core"
	"github.com/janisrealty/janis/core/catalog"
	"github.com/janisrealty/janis/core/lead"
	"github.com/janisrealty/janis/core/property"
	testutil "github.com/janisrealty/janis/tests"
)

func createProperty(t *testing.T, env *testutil.Env, code string) property.Property {
	t.Helper()
	p, err := env.Properties.Import(context.Background(), property.Property{Code: code, Title: "Depa " + code, IsActive: true})
	require.NoError(t, err)
	return p
}

func TestService_ProcessIncoming(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	_, err := env.Leads.ProcessIncoming(ctx, lead.Incoming{From: "whatsapp:+51999111222", Body: "hola"})
	assert.Equal(t, lead.ErrNoProperty, errors.Cause(err))

	_, err = env.Leads.ProcessIncoming(ctx, lead.Incoming{Body: "hola"})
	assert.IsType(t, &core.ValidationError{}, err)

	abierto := testutil.CreateItem(t, env.Catalogs, catalog.KindLeadStatus, "Abierto")
	testutil.CreateItem(t, env.Catalogs, catalog.KindLeadStatus, "Contactado")
	instagram := testutil.CreateItem(t, env.Catalogs, catalog.KindSocialNetwork, "Instagram")
	facebook := testutil.CreateItem(t, env.Catalogs, catalog.KindSocialNetwork, "Facebook")
	first := createProperty(t, env, "JAN-1")
	second := createProperty(t, env, "JAN-2")

	l, err := env.Leads.ProcessIncoming(ctx, lead.Incoming{
		From: "whatsapp:+51999111222", Body: "hola", MessageSID: "SM-A", ProfileName: " Carla ",
	})
	require.NoError(t, err)
	assert.Equal(t, "+51999111222", l.PhoneNumber)
	assert.Equal(t, first.ID, l.PropertyID)
	require.NotNil(t, l.StatusID)
	assert.Equal(t, abierto.ID, *l.StatusID)
	require.NotNil(t, l.SocialNetworkID)
	assert.Equal(t, facebook.ID, *l.SocialNetworkID)
	assert.NotNil(t, l.LastMessageAt)

	t.Run("redeliveries are stored once", func(t *testing.T) {
		again, err := env.Leads.ProcessIncoming(ctx, lead.Incoming{From: "whatsapp:+51999111222", Body: "hola", MessageSID: "SM-A"})
		require.NoError(t, err)
		assert.Equal(t, l.ID, again.ID)

		d, err := env.Leads.Detail(ctx, l.ID)
		require.NoError(t, err)
		require.Len(t, d.Messages, 1)
		assert.Equal(t, "Carla", d.Messages[0].SenderName)
		assert.Equal(t, lead.DirectionIncoming, d.Messages[0].Direction)
	})

	t.Run("media without body", func(t *testing.T) {
		_, err := env.Leads.ProcessIncoming(ctx, lead.Incoming{
			From: "whatsapp:+51999111222", MessageSID: "SM-B", MediaURL: "https://api.twilio.com/m/1", MediaType: "image/jpeg",
		})
		require.NoError(t, err)
		d, err := env.Leads.Detail(ctx, l.ID)
		require.NoError(t, err)
		require.Len(t, d.Messages, 2)
		assert.Equal(t, "image/jpeg", d.Messages[1].Body)
		assert.Equal(t, "+51999111222", d.Messages[1].SenderName)
	})

	t.Run("link identifiers route to their listing", func(t *testing.T) {
		lk, err := env.Leads.CreateLink(ctx, second.ID, lead.LinkInput{UniqueIdentifier: "CASA02", SocialNetworkID: &instagram.ID})
		require.NoError(t, err)
		_, err = env.Leads.CreateLink(ctx, first.ID, lead.LinkInput{UniqueIdentifier: "CASA02"})
		assert.Equal(t, lead.ErrIdentifierTaken, err)

		// accented letters belong to the word, so this is not the CASA02 identifier
		same, err := env.Leads.ProcessIncoming(ctx, lead.Incoming{From: "whatsapp:+51999111222", Body: "Vi CASA02ñ", MessageSID: "SM-C0"})
		require.NoError(t, err)
		assert.Equal(t, l.ID, same.ID)

		linked, err := env.Leads.ProcessIncoming(ctx, lead.Incoming{From: "whatsapp:+51999111222", Body: "Info de «CASA02», señor", MessageSID: "SM-C"})
		require.NoError(t, err)
		assert.NotEqual(t, l.ID, linked.ID)
		assert.Equal(t, second.ID, linked.PropertyID)
		require.NotNil(t, linked.WhatsAppLinkID)
		assert.Equal(t, lk.ID, *linked.WhatsAppLinkID)
		assert.Equal(t, instagram.ID, *linked.SocialNetworkID)

		_, err = env.Leads.DeactivateLink(ctx, first.ID, lk.ID)
		assert.Equal(t, lead.ErrLinkNotFound, err)
		lk, err = env.Leads.DeactivateLink(ctx, second.ID, lk.ID)
		require.NoError(t, err)
		assert.False(t, lk.IsActive)

		// inactive links fall back to the latest lead
		latest, err := env.Leads.ProcessIncoming(ctx, lead.Incoming{From: "whatsapp:+51999111222", Body: "CASA02", MessageSID: "SM-D"})
		require.NoError(t, err)
		assert.Equal(t, linked.ID, latest.ID)
	})

	t.Run("generated identifiers", func(t *testing.T) {
		lk, err := env.Leads.CreateLink(ctx, first.ID, lead.LinkInput{})
		require.NoError(t, err)
		assert.Len(t, lk.UniqueIdentifier, 8)
		links, err := env.Leads.Links(ctx, first.ID)
		require.NoError(t, err)
		assert.Len(t, links, 1)
	})
}

func TestService_Send(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	p := createProperty(t, env, "JAN-1")
	l, err := env.Leads.ProcessIncoming(ctx, lead.Incoming{From: "whatsapp:+51 987-654-321", Body: "hola"})
	require.NoError(t, err)
	assert.Equal(t, p.ID, l.PropertyID)

	res, err := env.Leads.Send(ctx, l, "Mia", lead.Outgoing{Body: "Buenas tardes"})
	require.NoError(t, err)
	assert.Equal(t, lead.SendResult{SID: "SM1", Status: "queued"}, res)
	require.Len(t, env.Sender.Sent, 1)
	assert.Equal(t, "whatsapp:+51987654321", env.Sender.Sent[0].To)

	d, err := env.Leads.Detail(ctx, l.ID)
	require.NoError(t, err)
	require.Len(t, d.Messages, 2)
	out := d.Messages[1]
	assert.Equal(t, lead.DirectionOutgoing, out.Direction)
	assert.Equal(t, "Mia", out.SenderName)
	require.NotNil(t, out.ExternalID)
	assert.Equal(t, "SM1", *out.ExternalID)

	t.Run("delivery failure", func(t *testing.T) {
		env.Sender.Err = errors.New("twilio down")
		defer func() { env.Sender.Err = nil }()
		_, err := env.Leads.Send(ctx, l, "Mia", lead.Outgoing{Body: "otra vez"})
		assert.EqualError(t, errors.Cause(err), "twilio down")
	})

	t.Run("invalid phone", func(t *testing.T) {
		_, err := env.Leads.Send(ctx, lead.Lead{ID: l.ID, PhoneNumber: "n/a"}, "Mia", lead.Outgoing{Body: "hola"})
		assert.IsType(t, &core.ValidationError{}, err)
	})
}

func TestService_SetStatus(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	createProperty(t, env, "JAN-1")
	contactado := testutil.CreateItem(t, env.Catalogs, catalog.KindLeadStatus, "Contactado")
	l, err := env.Leads.ProcessIncoming(ctx, lead.Incoming{From: "+51999000111", Body: "hola"})
	require.NoError(t, err)

	_, err = env.Leads.SetStatus(ctx, l, contactado.ID+50)
	assert.IsType(t, &core.ValidationError{}, err)

	l, err = env.Leads.SetStatus(ctx, l, contactado.ID)
	require.NoError(t, err)
	assert.Equal(t, contactado.ID, *l.StatusID)

	leads, err := env.Leads.Query(ctx, lead.QueryFilter{StatusID: &contactado.ID})
	require.NoError(t, err)
	assert.Len(t, leads, 1)
	leads, err = env.Leads.Query(ctx, lead.QueryFilter{Phone: "+51000"})
	require.NoError(t, err)
	assert.Empty(t, leads)
}
