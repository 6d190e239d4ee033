package config

import (
	"context"

	"github.com/m-mizutani/githook/pkg/infra/firestore"
	"github.com/urfave/cli/v3"
	"google.golang.org/api/option"
)

// Firestore holds parameter store configuration
type Firestore struct {
	ProjectID       string
	DatabaseID      string
	Collection      string
	CredentialsFile string
}

// Flags returns CLI flags for Firestore configuration
func (c *Firestore) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "firestore-project-id",
			Usage:       "Google Cloud project of the Firestore parameter store",
			Destination: &c.ProjectID,
			Sources:     cli.EnvVars("GITHOOK_FIRESTORE_PROJECT_ID"),
		},
		&cli.StringFlag{
			Name:        "firestore-database-id",
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Destination: &c.DatabaseID,
			Sources:     cli.EnvVars("GITHOOK_FIRESTORE_DATABASE_ID"),
		},
		&cli.StringFlag{
			Name:        "firestore-collection",
			Usage:       "Collection holding parameter documents",
			Value:       firestore.DefaultCollection,
			Destination: &c.Collection,
			Sources:     cli.EnvVars("GITHOOK_FIRESTORE_COLLECTION"),
		},
		&cli.StringFlag{
			Name:        "firestore-credentials",
			Usage:       "Service account key file for Firestore, default credentials when empty",
			Destination: &c.CredentialsFile,
			Sources:     cli.EnvVars("GITHOOK_FIRESTORE_CREDENTIALS"),
		},
	}
}

// Configure creates the parameter store. It returns nil when no project is set.
func (c *Firestore) Configure(ctx context.Context) (*firestore.Client, error) {
	if c.ProjectID == "" {
		return nil, nil
	}

	var clientOpts []option.ClientOption
	if c.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(c.CredentialsFile))
	}

	var opts []firestore.Option
	if c.Collection != "" {
		opts = append(opts, firestore.WithCollection(c.Collection))
	}
	return firestore.New(ctx, c.ProjectID, c.DatabaseID, opts, clientOpts...)
}
