// Package ddbconn builds DynamoDB clients from user settings: a region from
// the catalogue, static keys or the default credential chain, and an
// optional endpoint override for DynamoDB Local and similar emulators.
package ddbconn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// ErrCredentialsRequired is returned when only one half of a static key
// pair is configured.
var ErrCredentialsRequired = errors.New("both access key ID and secret access key are required")

// Options selects where and as whom to connect.
type Options struct {
	Region string
	// Profile names a shared config profile. Ignored with static keys.
	Profile string
	// Endpoint overrides the service endpoint. Regions outside the
	// catalogue are accepted when it is set.
	Endpoint string

	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string

	Logger *slog.Logger
}

// StaticCredentials reports whether a static key pair is configured.
func (o Options) StaticCredentials() bool {
	return o.AccessKeyID != "" || o.SecretAccessKey != ""
}

// Validate checks the options without touching the network.
func (o Options) Validate() error {
	if o.StaticCredentials() && (o.AccessKeyID == "" || o.SecretAccessKey == "") {
		return ErrCredentialsRequired
	}
	if o.Endpoint == "" {
		if _, err := LookupRegion(o.region()); err != nil {
			return err
		}
	}
	return nil
}

func (o Options) region() string {
	if o.Region == "" {
		return DefaultRegion
	}
	return o.Region
}

// LoadConfig resolves an aws.Config for opts.
func LoadConfig(ctx context.Context, opts Options) (aws.Config, error) {
	if err := opts.Validate(); err != nil {
		return aws.Config{}, err
	}

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(opts.region()),
	}
	if opts.StaticCredentials() {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, opts.SessionToken),
		))
	} else if opts.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(opts.Profile))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}

// Conn holds the clients for one set of Options.
type Conn struct {
	Config   aws.Config
	DynamoDB *dynamodb.Client

	endpoint string
	logger   *slog.Logger
}

// Connect resolves configuration and builds a DynamoDB client. No request
// is sent; use Identity to probe the credentials.
func Connect(ctx context.Context, opts Options) (*Conn, error) {
	cfg, err := LoadConfig(ctx, opts)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	})

	logger.DebugContext(ctx, "dynamodb client configured",
		"region", cfg.Region,
		"endpoint", opts.Endpoint,
		"static_credentials", opts.StaticCredentials(),
		"profile", opts.Profile,
	)

	return &Conn{
		Config:   cfg,
		DynamoDB: client,
		endpoint: opts.Endpoint,
		logger:   logger,
	}, nil
}

// Endpoint returns the endpoint override, or "" for the AWS default.
func (c *Conn) Endpoint() string {
	return c.endpoint
}

// Identity asks STS who the credentials belong to.
func (c *Conn) Identity(ctx context.Context) (Identity, error) {
	stsClient := sts.NewFromConfig(c.Config)
	iamClient := iam.NewFromConfig(c.Config)
	id, err := ResolveIdentity(ctx, stsClient, iamClient)
	if err != nil {
		return Identity{}, err
	}
	c.logger.DebugContext(ctx, "caller identity resolved", "account", id.Account, "arn", id.ARN)
	return id, nil
}
