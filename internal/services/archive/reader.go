package archive

import (
	"compress/gzip"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"AirCast/internal/domain/models"
	"AirCast/pkg/logger"
	"AirCast/pkg/util"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// ObjectStore is the part of the S3 API the reader uses. *s3.S3 satisfies it.
type ObjectStore interface {
	ListObjectsV2PagesWithContext(ctx aws.Context, in *s3.ListObjectsV2Input, fn func(*s3.ListObjectsV2Output, bool) bool, opts ...request.Option) error
	GetObjectWithContext(ctx aws.Context, in *s3.GetObjectInput, opts ...request.Option) (*s3.GetObjectOutput, error)
}

// Config locates the public OpenAQ archive.
type Config struct {
	Bucket    string
	Prefix    string
	Region    string
	Parameter string
}

// Reader lists and decodes the daily csv.gz files of the OpenAQ archive.
type Reader struct {
	cfg   Config
	store ObjectStore
	log   *logger.Logger
}

// NewS3Store builds an anonymous S3 client; the archive bucket is public.
func NewS3Store(region string) (*s3.S3, error) {
	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.AnonymousCredentials,
	})
	if err != nil {
		return nil, fmt.Errorf("aws session: %w", err)
	}
	return s3.New(sess), nil
}

// NewReader creates an archive reader on top of store.
func NewReader(cfg Config, store ObjectStore, l *logger.Logger) *Reader {
	if cfg.Parameter == "" {
		cfg.Parameter = "pm25"
	}
	cfg.Prefix = strings.Trim(cfg.Prefix, "/")
	if l == nil {
		l = logger.Nop()
	}
	return &Reader{cfg: cfg, store: store, log: l}
}

// Prefix returns the key prefix for a location and year, narrowed to a month when month > 0.
func (r *Reader) Prefix(locationID int64, year, month int) string {
	p := fmt.Sprintf("locationid=%d/year=%d/", locationID, year)
	if month > 0 {
		p += fmt.Sprintf("month=%02d/", month)
	}
	if r.cfg.Prefix != "" {
		p = r.cfg.Prefix + "/" + p
	}
	return p
}

// Readings returns every reading of the configured parameter archived for the
// period, ordered by capture time.
func (r *Reader) Readings(ctx context.Context, locationID int64, year, month int) ([]models.Reading, error) {
	if month < 0 || month > 12 {
		return nil, fmt.Errorf("invalid month %d", month)
	}
	keys, err := r.list(ctx, r.Prefix(locationID, year, month))
	if err != nil {
		return nil, err
	}

	var out []models.Reading
	for _, key := range keys {
		rs, err := r.readObject(ctx, key, locationID)
		if err != nil {
			return nil, err
		}
		out = append(out, rs...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CapturedAt.Before(out[j].CapturedAt) })

	r.log.Info("archive read",
		logger.Int64("location_id", locationID),
		logger.Int("objects", len(keys)),
		logger.Int("readings", len(out)),
	)
	return out, nil
}

func (r *Reader) list(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := r.store.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(r.cfg.Bucket),
		Prefix: aws.String(prefix),
	}, func(page *s3.ListObjectsV2Output, _ bool) bool {
		for _, obj := range page.Contents {
			if k := aws.StringValue(obj.Key); strings.HasSuffix(k, ".csv.gz") {
				keys = append(keys, k)
			}
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("list s3://%s/%s: %w", r.cfg.Bucket, prefix, err)
	}
	sort.Strings(keys)
	return keys, nil
}

func (r *Reader) readObject(ctx context.Context, key string, locationID int64) ([]models.Reading, error) {
	obj, err := r.store.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	defer obj.Body.Close()

	zr, err := gzip.NewReader(obj.Body)
	if err != nil {
		return nil, fmt.Errorf("gunzip %s: %w", key, err)
	}
	defer zr.Close()

	rs, err := ParseCSV(zr, locationID, r.cfg.Parameter)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", key, err)
	}
	return rs, nil
}

// ParseCSV decodes archive rows (location_id, sensors_id, location, datetime,
// lat, lon, parameter, units, value) and keeps those for parameter.
// Rows with an unparseable timestamp or value are skipped.
func ParseCSV(src io.Reader, locationID int64, parameter string) ([]models.Reading, error) {
	cr := csv.NewReader(src)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(strings.ToLower(h))] = i
	}
	for _, name := range []string{"datetime", "parameter", "value"} {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	var out []models.Reading
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if rec[col["parameter"]] != parameter {
			continue
		}
		at, ok := util.ParseTime(rec[col["datetime"]])
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[col["value"]]), 64)
		if err != nil {
			continue
		}
		out = append(out, models.Reading{LocationID: locationID, CapturedAt: at, Value: v})
	}
	return out, nil
}
