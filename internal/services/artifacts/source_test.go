package artifacts

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGetter struct {
	bucket, key string
}

func (g *fakeGetter) GetObjectWithContext(_ aws.Context, in *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	g.bucket, g.key = aws.StringValue(in.Bucket), aws.StringValue(in.Key)
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(`{"kind":"egarch"}`))}, nil
}

func TestFileSourceResolvesRelativeToRoot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "models"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "models", "mean.json"), []byte(`{"kind":"sarimax"}`), 0o600))

	rc, err := FileSource{Root: dir}.Open(context.Background(), "models/mean.json")
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"sarimax"}`, string(b))
}

func TestFileSourceMissing(t *testing.T) {
	_, err := FileSource{}.Open(context.Background(), filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestParseS3URI(t *testing.T) {
	b, k, err := ParseS3URI("s3://aircast-models/prod/volatility.json")
	require.NoError(t, err)
	assert.Equal(t, "aircast-models", b)
	assert.Equal(t, "prod/volatility.json", k)

	for _, bad := range []string{"models/mean.json", "s3://bucket", "s3:///key"} {
		_, _, err := ParseS3URI(bad)
		assert.Error(t, err, bad)
	}
}

func TestRouterDispatchesByScheme(t *testing.T) {
	g := &fakeGetter{}
	r := Router{S3: NewS3SourceWithClient(g)}

	rc, err := r.Open(context.Background(), "s3://aircast-models/vol.json")
	require.NoError(t, err)
	_ = rc.Close()
	assert.Equal(t, "aircast-models", g.bucket)
	assert.Equal(t, "vol.json", g.key)

	_, err = Router{}.Open(context.Background(), "s3://b/k")
	assert.Error(t, err)
	assert.True(t, IsS3("a.json", "s3://b/k"))
	assert.False(t, IsS3("a.json"))
}
