package sns

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/securescan-api/internal/config"
	"github.com/securescan-api/internal/domain"
)

// MessageKind is the "kind" message attribute on every published job, for
// subscription filter policies.
const MessageKind = "otp_email"

// API is the subset of *sns.Client the publisher calls.
type API interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Job is the JSON body handed to the mail worker subscribed to the topic.
type Job struct {
	To         string `json:"to"`
	Code       int    `json:"code"`
	TTLMinutes int    `json:"ttl_minutes"`
}

// Publisher hands OTP deliveries to an SNS topic instead of sending mail itself.
type Publisher struct {
	client   API
	topicARN string
}

func NewPublisher(client API, topicARN string) *Publisher {
	return &Publisher{client: client, topicARN: topicARN}
}

// NewClient creates an SNS client, honoring AWS_ENDPOINT_URL for LocalStack.
func NewClient(ctx context.Context, cfg *config.Config) (*sns.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWSRegion),
	}
	if cfg.AWSAccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var clientOpts []func(*sns.Options)
	if cfg.AWSEndpointURL != "" {
		clientOpts = append(clientOpts, func(o *sns.Options) {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
		})
	}
	return sns.NewFromConfig(awsCfg, clientOpts...), nil
}

func (p *Publisher) Deliver(ctx context.Context, to string, d domain.Delivery) error {
	body, err := json.Marshal(Job{To: to, Code: d.Code, TTLMinutes: d.TTLMinutes})
	if err != nil {
		return err
	}
	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"kind": {DataType: aws.String("String"), StringValue: aws.String(MessageKind)},
		},
	})
	if err != nil {
		return fmt.Errorf("publish otp job: %w", err)
	}
	return nil
}
