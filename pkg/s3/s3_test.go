package s3

import (
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, cfg *aws.Config) *Client {
	t.Helper()
	sess, err := session.NewSession(cfg)
	require.NoError(t, err)
	return &Client{s3Client: s3.New(sess), bucket: "snapshots"}
}

func TestURL_MinIO(t *testing.T) {
	client := newTestClient(t, &aws.Config{
		Region:     aws.String("us-east-1"),
		Endpoint:   aws.String("http://localhost:9000"),
		DisableSSL: aws.Bool(true),
	})

	assert.Equal(t, "http://localhost:9000/snapshots/snapshots/a.json", client.URL("snapshots/a.json"))
}

func TestURL_MinIOWithSSL(t *testing.T) {
	client := newTestClient(t, &aws.Config{
		Region:   aws.String("us-east-1"),
		Endpoint: aws.String("https://minio.internal"),
	})

	assert.Equal(t, "https://minio.internal/snapshots/a.json", client.URL("a.json"))
}

func TestURL_AWS(t *testing.T) {
	client := newTestClient(t, &aws.Config{Region: aws.String("eu-west-1")})

	assert.Equal(t, "https://snapshots.s3.eu-west-1.amazonaws.com/a.json", client.URL("a.json"))
}
