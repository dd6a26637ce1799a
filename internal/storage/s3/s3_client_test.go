package s3_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetdocs/internal/config"
	"fleetdocs/internal/port"
	s3storage "fleetdocs/internal/storage/s3"
)

func newClient(t *testing.T, endpoint string) port.ObjectStorage {
	t.Helper()
	c, err := s3storage.NewS3Client(&config.S3Config{
		Region:    "us-east-1",
		Bucket:    "fleet-docs",
		Endpoint:  endpoint,
		AccessKey: "test",
		SecretKey: "test",
	})
	require.NoError(t, err)
	return c
}

func TestNewS3Client_RequiresBucket(t *testing.T) {
	_, err := s3storage.NewS3Client(&config.S3Config{Region: "us-east-1"})
	assert.Error(t, err)
}

func TestUploadAndDelete(t *testing.T) {
	var (
		mu       sync.Mutex
		requests []string
		body     string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		requests = append(requests, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodPut {
			body = string(data)
		}
		mu.Unlock()
		switch r.Method {
		case http.MethodPut:
			w.Header().Set("ETag", `"abc123"`)
			w.WriteHeader(http.StatusOK)
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	defer srv.Close()

	c := newClient(t, srv.URL)

	out, err := c.Upload(context.Background(), port.UploadInput{
		Key:         "ships/imo-1/certificate/rec/cert.pdf",
		Body:        strings.NewReader("%PDF-1.4"),
		ContentType: "application/pdf",
		Size:        8,
	})
	require.NoError(t, err)
	assert.Equal(t, `"abc123"`, out.ETag)
	assert.Contains(t, out.Location, "/fleet-docs/ships/imo-1/certificate/rec/cert.pdf")

	require.NoError(t, c.Delete(context.Background(), "ships/imo-1/certificate/rec/cert.pdf"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{
		"PUT /fleet-docs/ships/imo-1/certificate/rec/cert.pdf",
		"DELETE /fleet-docs/ships/imo-1/certificate/rec/cert.pdf",
	}, requests)
	assert.Contains(t, body, "%PDF-1.4")
}

func TestGetPresignedURL(t *testing.T) {
	c := newClient(t, "http://localhost:9000")

	url, err := c.GetPresignedURL(context.Background(), "ships/a/b.pdf", 600)

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://localhost:9000/fleet-docs/ships/a/b.pdf?"))
	assert.Contains(t, url, "X-Amz-Expires=600")
}
