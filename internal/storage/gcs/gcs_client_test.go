package gcs_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"fleetdocs/internal/config"
	"fleetdocs/internal/storage/gcs"
)

func TestNewGCSClient_RequiresBucket(t *testing.T) {
	_, err := gcs.NewGCSClient(context.Background(), &config.GCSConfig{}, option.WithoutAuthentication())
	assert.Error(t, err)
}

func TestNewGCSClient(t *testing.T) {
	c, err := gcs.NewGCSClient(context.Background(), &config.GCSConfig{Bucket: "fleet-docs"}, option.WithoutAuthentication())
	require.NoError(t, err)
	assert.NotNil(t, c)
}
