// internal/notify/email.go
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	apperrors "coincoach-backend/internal/common/errors"
	"coincoach-backend/internal/common/logger"
	"coincoach-backend/internal/models"
)

// SESService is the slice of the SES API the emailer needs.
type SESService interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

// Emailer sends the optional signal digest to subscribed addresses.
type Emailer struct {
	ses    SESService
	from   string
	logger logger.Logger
}

func NewEmailer(sesClient SESService, from string, log logger.Logger) *Emailer {
	return &Emailer{
		ses:    sesClient,
		from:   from,
		logger: log,
	}
}

// SendDigest emails the given signals as a plain-text digest. An empty
// signal list is a no-op.
func (e *Emailer) SendDigest(ctx context.Context, recipients []string, signals []models.Signal) error {
	if len(signals) == 0 || len(recipients) == 0 {
		return nil
	}

	var body strings.Builder
	body.WriteString("Latest trading signals:\n\n")
	for _, sig := range signals {
		fmt.Fprintf(&body, "- [%s] %s\n", sig.CreatedAt, sig.Strategy)
	}
	body.WriteString("\nThis is not financial advice.\n")

	subject := fmt.Sprintf("Signal digest (%d new)", len(signals))
	_, err := e.ses.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(e.from),
		Destination: &types.Destination{
			ToAddresses: recipients,
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body.String())},
			},
		},
	})
	if err != nil {
		e.logger.WithError(err).Error("digest email send failed", map[string]interface{}{
			"recipients": len(recipients),
		})
		return apperrors.NewNotificationSendFailedError("email", err)
	}

	e.logger.Info("digest email sent", map[string]interface{}{
		"recipients": len(recipients),
		"signals":    len(signals),
	})
	return nil
}
