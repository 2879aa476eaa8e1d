package notification

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// messageCreator is the part of the Twilio REST client used to send SMS.
type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioNotifier delivers messages as SMS through Twilio.
type TwilioNotifier struct {
	api        messageCreator
	fromNumber string
}

// NewTwilioNotifier builds a notifier from account credentials.
func NewTwilioNotifier(accountSID, authToken, fromNumber string) *TwilioNotifier {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioNotifier{api: client.Api, fromNumber: fromNumber}
}

// Send implements Notifier. Destination must be an E.164 number.
func (t *TwilioNotifier) Send(_ context.Context, message Message) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(message.Destination)
	params.SetFrom(t.fromNumber)
	params.SetBody(message.Body)

	if _, err := t.api.CreateMessage(params); err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	return nil
}
