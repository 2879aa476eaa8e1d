package notification

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

type fakeCreator struct {
	params *twilioApi.CreateMessageParams
	err    error
}

func (f *fakeCreator) CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
	f.params = params
	return &twilioApi.ApiV2010Message{}, f.err
}

func TestTwilioNotifierSend(t *testing.T) {
	creator := &fakeCreator{}
	n := &TwilioNotifier{api: creator, fromNumber: "+15005550006"}

	err := n.Send(context.Background(), Message{Kind: KindPhoneVerification, Destination: "+27821234567", Body: "code 123456"})
	require.NoError(t, err)
	require.Equal(t, "+27821234567", *creator.params.To)
	require.Equal(t, "+15005550006", *creator.params.From)
	require.Equal(t, "code 123456", *creator.params.Body)
}

func TestTwilioNotifierError(t *testing.T) {
	n := &TwilioNotifier{api: &fakeCreator{err: errors.New("twilio down")}, fromNumber: "+1"}
	require.ErrorContains(t, n.Send(context.Background(), Message{Destination: "+2"}), "twilio down")
}

func TestLoggerNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLoggerNotifier(slog.New(slog.NewTextHandler(&buf, nil)))

	require.NoError(t, n.Send(context.Background(), Message{Kind: KindPhoneVerification, Destination: "+27821234567"}))
	require.Contains(t, buf.String(), "phone_verification")

	var nilNotifier *LoggerNotifier
	require.NoError(t, nilNotifier.Send(context.Background(), Message{}))
}
