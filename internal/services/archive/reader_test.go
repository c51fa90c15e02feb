package archive

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dayOne = `location_id,sensors_id,location,datetime,lat,lon,parameter,units,value
1894637,7,Nakuru-1894637,2025-03-01T03:00:00+03:00,-0.28,36.07,pm25,µg/m³,14.2
1894637,8,Nakuru-1894637,2025-03-01T03:00:00+03:00,-0.28,36.07,pm10,µg/m³,40.1
1894637,7,Nakuru-1894637,2025-03-01T02:00:00+03:00,-0.28,36.07,pm25,µg/m³,12.0
1894637,7,Nakuru-1894637,not-a-time,-0.28,36.07,pm25,µg/m³,99
`

const dayTwo = `location_id,sensors_id,location,datetime,lat,lon,parameter,units,value
1894637,7,Nakuru-1894637,2025-03-02T00:00:00Z,-0.28,36.07,pm25,µg/m³,20.5
`

type fakeStore struct {
	objects  map[string]string
	prefixes []string
	getErr   error
}

func gz(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func (f *fakeStore) ListObjectsV2PagesWithContext(_ aws.Context, in *s3.ListObjectsV2Input, fn func(*s3.ListObjectsV2Output, bool) bool, _ ...request.Option) error {
	prefix := aws.StringValue(in.Prefix)
	f.prefixes = append(f.prefixes, prefix)
	page := &s3.ListObjectsV2Output{}
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			page.Contents = append(page.Contents, &s3.Object{Key: aws.String(k)})
		}
	}
	fn(page, true)
	return nil
}

func (f *fakeStore) GetObjectWithContext(_ aws.Context, in *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	body := f.objects[aws.StringValue(in.Key)]
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func newFakeStore(t *testing.T) *fakeStore {
	return &fakeStore{objects: map[string]string{
		"records/csv.gz/locationid=1894637/year=2025/month=03/location-1894637-20250301.csv.gz": string(gz(t, dayOne)),
		"records/csv.gz/locationid=1894637/year=2025/month=03/location-1894637-20250302.csv.gz": string(gz(t, dayTwo)),
		"records/csv.gz/locationid=1894637/year=2025/month=03/README.txt":                         "ignored",
	}}
}

func TestPrefix(t *testing.T) {
	r := NewReader(Config{Bucket: "b", Prefix: "/records/csv.gz/"}, nil, nil)
	assert.Equal(t, "records/csv.gz/locationid=1894637/year=2025/", r.Prefix(1894637, 2025, 0))
	assert.Equal(t, "records/csv.gz/locationid=1894637/year=2025/month=03/", r.Prefix(1894637, 2025, 3))
}

func TestReadingsKeepsParameterSortedByTime(t *testing.T) {
	store := newFakeStore(t)
	r := NewReader(Config{Bucket: "openaq-data-archive", Prefix: "records/csv.gz"}, store, nil)

	rs, err := r.Readings(context.Background(), 1894637, 2025, 3)
	require.NoError(t, err)
	require.Len(t, rs, 3)

	assert.Equal(t, []string{"records/csv.gz/locationid=1894637/year=2025/month=03/"}, store.prefixes)
	assert.True(t, rs[0].CapturedAt.Equal(time.Date(2025, 2, 28, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, 12.0, rs[0].Value)
	assert.Equal(t, 14.2, rs[1].Value)
	assert.Equal(t, 20.5, rs[2].Value)
	for _, x := range rs {
		assert.Equal(t, int64(1894637), x.LocationID)
		assert.Equal(t, time.UTC, x.CapturedAt.Location())
	}
}

func TestReadingsInvalidMonth(t *testing.T) {
	r := NewReader(Config{Bucket: "b"}, newFakeStore(t), nil)
	_, err := r.Readings(context.Background(), 1, 2025, 13)
	assert.Error(t, err)
}

func TestReadingsPropagatesGetError(t *testing.T) {
	store := newFakeStore(t)
	store.getErr = errors.New("access denied")
	r := NewReader(Config{Bucket: "b", Prefix: "records/csv.gz"}, store, nil)

	_, err := r.Readings(context.Background(), 1894637, 2025, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestParseCSVMissingColumn(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("datetime,value\n2025-01-01T00:00:00Z,1\n"), 1, "pm25")
	assert.Error(t, err)
}

func TestParseCSVEmpty(t *testing.T) {
	rs, err := ParseCSV(strings.NewReader(""), 1, "pm25")
	require.NoError(t, err)
	assert.Empty(t, rs)
}
