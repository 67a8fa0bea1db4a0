// internal/notify/push.go
package notify

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"coincoach-backend/internal/common/logger"
	"coincoach-backend/internal/common/metrics"
	"coincoach-backend/internal/models"
)

// SNSService is the slice of the SNS API the pusher needs.
type SNSService interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

// FanoutResult reports one batch send. Failures are recorded per token
// and never cancel the remainder of the batch.
type FanoutResult struct {
	Sent   int               `json:"sent"`
	Failed int               `json:"failed"`
	Errors map[string]string `json:"errors,omitempty"`
}

// Pusher fans a signal out to every registered device as an SNS
// publish per token.
type Pusher struct {
	sns    SNSService
	title  string
	logger logger.Logger
}

func NewPusher(snsClient SNSService, title string, log logger.Logger) *Pusher {
	return &Pusher{
		sns:    snsClient,
		title:  title,
		logger: log,
	}
}

type pushPayload struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	Signal string `json:"signal"`
}

// Fanout sends the signal to each device. Tokens are collected by the
// caller beforehand; a rejected token only affects its own slot.
func (p *Pusher) Fanout(ctx context.Context, signal models.Signal, devices []models.Device) FanoutResult {
	result := FanoutResult{Errors: map[string]string{}}

	message, err := json.Marshal(pushPayload{
		Title:  p.title,
		Body:   signal.Strategy,
		Signal: signal.Strategy,
	})
	if err != nil {
		result.Failed = len(devices)
		return result
	}

	for _, device := range devices {
		_, err := p.sns.Publish(ctx, &sns.PublishInput{
			TargetArn: aws.String(device.Token),
			Message:   aws.String(string(message)),
		})
		if err != nil {
			result.Failed++
			result.Errors[device.Token] = err.Error()
			metrics.NotificationsSent.WithLabelValues("failure").Inc()
			p.logger.WithError(err).Warn("push send failed", map[string]interface{}{
				"platform": device.Platform,
			})
			continue
		}
		result.Sent++
		metrics.NotificationsSent.WithLabelValues("success").Inc()
	}

	p.logger.Info("push fan-out complete", map[string]interface{}{
		"sent":   result.Sent,
		"failed": result.Failed,
	})
	return result
}
