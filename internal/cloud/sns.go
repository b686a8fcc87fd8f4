package cloud

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/rs/zerolog/log"
)

// SNSClient publishes report notifications.
type SNSClient struct {
	svc      *sns.Client
	topicArn string
}

func NewSNSClient(cfg aws.Config, topicArn string) *SNSClient {
	return &SNSClient{svc: sns.NewFromConfig(cfg), topicArn: topicArn}
}

func (c *SNSClient) SendAlert(ctx context.Context, subject, message string) error {
	result, err := c.svc.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(c.topicArn),
		Subject:  aws.String(subject),
		Message:  aws.String(message),
	})
	if err != nil {
		return fmt.Errorf("failed to publish to SNS: %w", err)
	}
	log.Info().Str("message_id", aws.ToString(result.MessageId)).Msg("alert sent")
	return nil
}

// ReportAlert is the content of a weekly brief notification.
type ReportAlert struct {
	SiteName string
	Period   string
	Headline []string
	Items    []string
	URL      string
}

// FormatReportAlert renders the subject and body of a report notification.
func FormatReportAlert(a ReportAlert) (string, string) {
	subject := fmt.Sprintf("Weekly energy brief: %s (%s)", a.SiteName, a.Period)
	// SNS rejects subjects over 100 characters
	if len(subject) > 100 {
		subject = subject[:100]
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Site: %s\nPeriod: %s\n\n", a.SiteName, a.Period)
	for _, h := range a.Headline {
		fmt.Fprintf(&b, "* %s\n", h)
	}
	if len(a.Items) > 0 {
		b.WriteString("\nNeeds attention:\n")
		for i, item := range a.Items {
			fmt.Fprintf(&b, "%d. %s\n", i+1, item)
		}
	}
	if a.URL != "" {
		fmt.Fprintf(&b, "\nFull report: %s\n", a.URL)
	}
	return subject, b.String()
}

func (c *SNSClient) SendReportAlert(ctx context.Context, a ReportAlert) error {
	subject, message := FormatReportAlert(a)
	return c.SendAlert(ctx, subject, message)
}
