// Package backup copies saved data files to an S3 compatible bucket.
package backup

import (
	"bytes"
	"context"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
)

const DefaultRegion = "us-east-1"

var (
	ErrNoBucket = errors.New("backup bucket required")
	ErrNoFiles  = errors.New("nothing to back up")

	NowFunc = time.Now // mockable
)

type Config struct {
	Bucket          string
	Region          string
	Endpoint        string // optional, e.g. a MinIO server
	Prefix          string
	PathStyle       bool
	AccessKeyID     string // optional, falls back to the default credentials chain
	SecretAccessKey string
}

// ConfigFrom reads the backup settings of the app config.
func ConfigFrom(conf *core.Config) Config {
	return Config{
		Bucket:          conf.Backup.Bucket,
		Region:          conf.Backup.Region,
		Endpoint:        conf.Backup.Endpoint,
		Prefix:          conf.Backup.Prefix,
		PathStyle:       conf.Backup.PathStyle,
		AccessKeyID:     conf.Backup.AccessKeyID,
		SecretAccessKey: conf.Backup.SecretAccessKey,
	}
}

type Uploader struct {
	client *s3.Client
	bucket string
	prefix string
	log    core.Logger
}

func New(ctx context.Context, cfg Config, logger core.Logger, optFns ...func(*s3.Options)) (*Uploader, error) {
	if cfg.Bucket == "" {
		return nil, ErrNoBucket
	}
	region := cfg.Region
	if region == "" {
		region = DefaultRegion
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "loading aws config")
	}
	opts := []func(*s3.Options){func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}}
	client := s3.NewFromConfig(awsCfg, append(opts, optFns...)...)
	return &Uploader{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix, log: logger}, nil
}

// folder returns the key prefix shared by one backup run.
func (u *Uploader) folder() string {
	return path.Join(u.prefix, NowFunc().UTC().Format("20060102T150405Z"))
}

// UploadDir uploads every regular file of `dir` under a timestamped folder and returns the object keys.
func (u *Uploader) UploadDir(ctx context.Context, dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "reading data directory")
	}
	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	sort.Strings(files)

	folder := u.folder()
	keys := make([]string, 0, len(files))
	for _, file := range files {
		key := path.Join(folder, filepath.Base(file))
		if err := u.put(ctx, key, file); err != nil {
			return keys, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// UploadFile uploads a single file, such as an SQLite database, and returns its object key.
func (u *Uploader) UploadFile(ctx context.Context, file string) (string, error) {
	key := path.Join(u.folder(), filepath.Base(file))
	if err := u.put(ctx, key, file); err != nil {
		return "", err
	}
	return key, nil
}

func (u *Uploader) put(ctx context.Context, key, file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return errors.Wrapf(err, "reading %s", file)
	}
	contentType := "application/octet-stream"
	if filepath.Ext(file) == ".txt" {
		contentType = "text/plain"
	}
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return errors.Wrapf(err, "uploading %s", key)
	}
	u.log.Info("file backed up", map[string]interface{}{"bucket": u.bucket, "key": key, "size": len(data)})
	return nil
}
