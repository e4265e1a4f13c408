package notify

import (
	"context"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

type snsAPI interface {
	CreateTopic(ctx context.Context, in *sns.CreateTopicInput, opts ...func(*sns.Options)) (*sns.CreateTopicOutput, error)
	Publish(ctx context.Context, in *sns.PublishInput, opts ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSAlerter publishes admin alerts to an SNS topic.  The topic may be
// configured as an ARN or as a bare name; a name is resolved with
// CreateTopic, which is idempotent, on first use.
type SNSAlerter struct {
	client snsAPI
	topic  string

	mu  sync.Mutex
	arn string
}

// NewSNSAlerter loads AWS credentials from the default chain.
func NewSNSAlerter(ctx context.Context, region, topic string) (*SNSAlerter, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return newSNSAlerter(sns.NewFromConfig(cfg), topic), nil
}

func newSNSAlerter(client snsAPI, topic string) *SNSAlerter {
	a := &SNSAlerter{client: client, topic: topic}
	if strings.HasPrefix(topic, "arn:") {
		a.arn = topic
	}
	return a
}

func (a *SNSAlerter) topicARN(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.arn != "" {
		return a.arn, nil
	}
	out, err := a.client.CreateTopic(ctx, &sns.CreateTopicInput{Name: aws.String(a.topic)})
	if err != nil {
		return "", err
	}
	a.arn = aws.ToString(out.TopicArn)
	return a.arn, nil
}

// snsSubjectMax is the SNS limit on the Subject attribute.
const snsSubjectMax = 100

func (a *SNSAlerter) Alert(ctx context.Context, subject, body string) error {
	arn, err := a.topicARN(ctx)
	if err != nil {
		return err
	}
	if len(subject) > snsSubjectMax {
		subject = subject[:snsSubjectMax]
	}
	_, err = a.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(arn),
		Subject:  aws.String(subject),
		Message:  aws.String(body),
	})
	return err
}
