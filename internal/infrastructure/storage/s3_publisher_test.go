package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pharmdist/salesflow/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeS3 struct {
	objects map[string][]byte
	types   map[string]string
	err     error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.objects[key] = data
	f.types[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestNewS3Publisher_Validation(t *testing.T) {
	t.Run("nil config returns error", func(t *testing.T) {
		_, err := NewS3Publisher(context.Background(), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration is required")
	})

	t.Run("missing bucket returns error", func(t *testing.T) {
		_, err := NewS3Publisher(context.Background(), &config.StorageConfig{Prefix: "x"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("valid config creates publisher", func(t *testing.T) {
		cfg := &config.StorageConfig{
			Bucket:          "reports",
			Prefix:          "/salesflow/",
			Endpoint:        "http://localhost:9000",
			AccessKeyID:     "key",
			SecretAccessKey: "secret",
			UsePathStyle:    true,
		}
		p, err := NewS3Publisher(context.Background(), cfg)
		require.NoError(t, err)
		assert.Equal(t, "reports", p.Bucket())
		assert.Equal(t, "salesflow/run-1/stage-1.xlsx", p.Key("run-1", "/tmp/out/stage-1.xlsx"))
	})
}

func TestS3Publisher_Publish(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeFile(t, dir, "Вторичка.xlsx", "first"),
		writeFile(t, dir, "stage-1.xlsx", "second"),
	}
	fake := newFakeS3()
	p, err := NewS3Publisher(context.Background(),
		&config.StorageConfig{Bucket: "reports", Prefix: "salesflow"},
		WithClient(fake), WithLogger(zap.NewNop()))
	require.NoError(t, err)

	keys, err := p.Publish(context.Background(), "abc", files)
	require.NoError(t, err)

	assert.Equal(t, []string{"salesflow/abc/Вторичка.xlsx", "salesflow/abc/stage-1.xlsx"}, keys)
	assert.Equal(t, []byte("second"), fake.objects["reports/salesflow/abc/stage-1.xlsx"])
	assert.Equal(t, XLSXContentType, fake.types["reports/salesflow/abc/stage-1.xlsx"])
}

func TestS3Publisher_PublishErrors(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "a.xlsx", "a")

	t.Run("missing file", func(t *testing.T) {
		p, err := NewS3Publisher(context.Background(), &config.StorageConfig{Bucket: "b"}, WithClient(newFakeS3()))
		require.NoError(t, err)
		keys, err := p.Publish(context.Background(), "r", []string{good, filepath.Join(dir, "absent.xlsx")})
		require.Error(t, err)
		assert.Equal(t, []string{"r/a.xlsx"}, keys)
	})

	t.Run("upload failure", func(t *testing.T) {
		fake := newFakeS3()
		fake.err = errors.New("access denied")
		p, err := NewS3Publisher(context.Background(), &config.StorageConfig{Bucket: "b"}, WithClient(fake))
		require.NoError(t, err)
		_, err = p.Publish(context.Background(), "r", []string{good})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "access denied")
	})
}

func TestNewPublisher_Disabled(t *testing.T) {
	pub, err := NewPublisher(context.Background(), &config.StorageConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, NoopPublisher{}, pub)

	keys, err := pub.Publish(context.Background(), "r", []string{"x"})
	assert.NoError(t, err)
	assert.Nil(t, keys)
}
