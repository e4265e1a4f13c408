package notify

import (
	"context"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSNS struct {
	created   int
	published []*sns.PublishInput
}

func (f *fakeSNS) CreateTopic(ctx context.Context, in *sns.CreateTopicInput, _ ...func(*sns.Options)) (*sns.CreateTopicOutput, error) {
	f.created++
	return &sns.CreateTopicOutput{TopicArn: aws.String("arn:aws:sns:us-east-1:123:" + aws.ToString(in.Name))}, nil
}

func (f *fakeSNS) Publish(ctx context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.published = append(f.published, in)
	return &sns.PublishOutput{MessageId: aws.String("m-1")}, nil
}

func TestSNSAlerterResolvesTopicNameOnce(t *testing.T) {
	api := &fakeSNS{}
	a := newSNSAlerter(api, "booking-alerts")

	require.NoError(t, a.Alert(context.Background(), "New booking", "room 101"))
	require.NoError(t, a.Alert(context.Background(), "New booking", "room 102"))

	assert.Equal(t, 1, api.created)
	require.Len(t, api.published, 2)
	assert.Equal(t, "arn:aws:sns:us-east-1:123:booking-alerts", aws.ToString(api.published[1].TopicArn))
	assert.Equal(t, "room 102", aws.ToString(api.published[1].Message))
}

func TestSNSAlerterUsesConfiguredARN(t *testing.T) {
	api := &fakeSNS{}
	a := newSNSAlerter(api, "arn:aws:sns:eu-west-1:1:alerts")

	require.NoError(t, a.Alert(context.Background(), strings.Repeat("x", 150), "body"))
	assert.Zero(t, api.created)
	assert.Len(t, aws.ToString(api.published[0].Subject), snsSubjectMax)
}
