package config

import (
	"context"

	"github.com/m-mizutani/githook/pkg/infra/gcs"
	"github.com/urfave/cli/v3"
	"google.golang.org/api/option"
)

// GCS holds Cloud Storage artifact store configuration
type GCS struct {
	Bucket          string
	CredentialsFile string
}

// Flags returns CLI flags for Cloud Storage configuration
func (c *GCS) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gcs-bucket",
			Usage:       "Cloud Storage bucket receiving release archives",
			Destination: &c.Bucket,
			Sources:     cli.EnvVars("GITHOOK_GCS_BUCKET"),
		},
		&cli.StringFlag{
			Name:        "gcs-credentials",
			Usage:       "Service account key file for Cloud Storage, default credentials when empty",
			Destination: &c.CredentialsFile,
			Sources:     cli.EnvVars("GITHOOK_GCS_CREDENTIALS"),
		},
	}
}

// Configure creates the artifact store. It returns nil when no bucket is set.
func (c *GCS) Configure(ctx context.Context) (*gcs.Client, error) {
	if c.Bucket == "" {
		return nil, nil
	}

	var opts []option.ClientOption
	if c.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(c.CredentialsFile))
	}
	return gcs.New(ctx, c.Bucket, opts...)
}
