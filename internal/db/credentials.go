package db

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/rds/auth"
	"github.com/aws/aws-sdk-go-v2/service/redshift"
	"github.com/vvka-141/sparkify-dwh/pkg/dwh"
)

// Credentials is a short-lived database login.
type Credentials struct {
	User      string
	Password  string
	ExpiresAt time.Time
}

// CredentialProvider acquires temporary database credentials.
type CredentialProvider interface {
	Credentials(ctx context.Context) (Credentials, error)

	// String describes the provider for logs. It must not include secrets.
	String() string
}

// ClusterCredentialsAPI is the subset of the Redshift client used here.
type ClusterCredentialsAPI interface {
	GetClusterCredentials(ctx context.Context, params *redshift.GetClusterCredentialsInput, optFns ...func(*redshift.Options)) (*redshift.GetClusterCredentialsOutput, error)
}

// RedshiftCredentialProvider obtains a temporary user and password from
// redshift:GetClusterCredentials. The returned user carries the "IAM:"
// prefix Redshift expects at login.
type RedshiftCredentialProvider struct {
	client    ClusterCredentialsAPI
	clusterID string
	database  string
	user      string
	duration  int32
}

// NewRedshiftCredentialProvider creates a provider backed by client.
func NewRedshiftCredentialProvider(client ClusterCredentialsAPI, clusterID, database, user string) (*RedshiftCredentialProvider, error) {
	if client == nil {
		return nil, fmt.Errorf("redshift client is required")
	}
	if clusterID == "" {
		return nil, fmt.Errorf("redshift IAM auth requires CLUSTER.CLUSTER_ID: %w", dwh.ErrConfiguration)
	}
	if user == "" {
		return nil, fmt.Errorf("redshift IAM auth requires CLUSTER.DB_USER: %w", dwh.ErrConfiguration)
	}
	return &RedshiftCredentialProvider{
		client:    client,
		clusterID: clusterID,
		database:  database,
		user:      user,
		duration:  dwh.DefaultIAMCredentialDuration,
	}, nil
}

// Credentials calls GetClusterCredentials.
func (p *RedshiftCredentialProvider) Credentials(ctx context.Context) (Credentials, error) {
	out, err := p.client.GetClusterCredentials(ctx, &redshift.GetClusterCredentialsInput{
		ClusterIdentifier: aws.String(p.clusterID),
		DbUser:            aws.String(p.user),
		DbName:            aws.String(p.database),
		DurationSeconds:   aws.Int32(p.duration),
	})
	if err != nil {
		return Credentials{}, fmt.Errorf("get cluster credentials for %s: %w", p.clusterID, err)
	}

	return Credentials{
		User:      aws.ToString(out.DbUser),
		Password:  aws.ToString(out.DbPassword),
		ExpiresAt: aws.ToTime(out.Expiration),
	}, nil
}

func (p *RedshiftCredentialProvider) String() string {
	return fmt.Sprintf("RedshiftCredentialProvider(cluster=%s, user=%s)", p.clusterID, p.user)
}

// TokenBuilder signs an RDS IAM authentication token.
type TokenBuilder func(ctx context.Context, endpoint, region, user string, creds aws.CredentialsProvider, optFns ...func(*auth.BuildAuthTokenOptions)) (string, error)

// RDSTokenProvider builds an RDS IAM token and uses it as the password.
type RDSTokenProvider struct {
	endpoint string
	region   string
	user     string
	creds    aws.CredentialsProvider
	build    TokenBuilder
}

// NewRDSTokenProvider creates a token provider for endpoint (host:port).
func NewRDSTokenProvider(endpoint, region, user string, creds aws.CredentialsProvider) (*RDSTokenProvider, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("rds IAM auth requires an endpoint (host:port): %w", dwh.ErrConfiguration)
	}
	if region == "" {
		return nil, fmt.Errorf("rds IAM auth requires CLUSTER.REGION: %w", dwh.ErrConfiguration)
	}
	if user == "" {
		return nil, fmt.Errorf("rds IAM auth requires CLUSTER.DB_USER: %w", dwh.ErrConfiguration)
	}
	return &RDSTokenProvider{
		endpoint: endpoint,
		region:   region,
		user:     user,
		creds:    creds,
		build:    auth.BuildAuthToken,
	}, nil
}

// Credentials signs a fresh token; tokens are valid for 15 minutes.
func (p *RDSTokenProvider) Credentials(ctx context.Context) (Credentials, error) {
	token, err := p.build(ctx, p.endpoint, p.region, p.user, p.creds)
	if err != nil {
		return Credentials{}, fmt.Errorf("build RDS auth token: %w", err)
	}
	return Credentials{
		User:      p.user,
		Password:  token,
		ExpiresAt: time.Now().Add(15 * time.Minute),
	}, nil
}

func (p *RDSTokenProvider) String() string {
	return fmt.Sprintf("RDSTokenProvider(endpoint=%s, region=%s, user=%s)", p.endpoint, p.region, p.user)
}

func loadAWSConfig(ctx context.Context, region string) (aws.Config, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return cfg, nil
}
