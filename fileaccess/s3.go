package fileaccess

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config describes an S3 compatible bucket
type S3Config struct {
	Access   string
	Secret   string
	Bucket   string
	Endpoint string
	Region   string
	// Prefix is prepended to every path, e.g. "settings/"
	Prefix string
	// use http instead of https, for local minio servers
	Insecure bool
}

// S3 stores files as objects in a bucket
type S3 struct {
	Client *minio.Client
	Bucket string
	Prefix string
}

func (c *S3Config) validate() error {
	if c == nil {
		return errors.New("must provide config")
	}
	if c.Access == "" || c.Secret == "" || c.Bucket == "" || c.Endpoint == "" {
		return errors.New("must provide Access, Secret, Bucket and Endpoint in config")
	}
	return nil
}

func s3ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Minute)
}

// NewS3 connects to the endpoint and checks that the bucket exists
func NewS3(c *S3Config) (*S3, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	mc, err := minio.New(c.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(c.Access, c.Secret, ""),
		Region: c.Region,
		Secure: !c.Insecure,
	})
	if err != nil {
		return nil, err
	}
	ctx, cancel := s3ctx()
	defer cancel()
	found, err := mc.BucketExists(ctx, c.Bucket)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("bucket '%s' doesn't exist", c.Bucket)
	}
	return &S3{
		Client: mc,
		Bucket: c.Bucket,
		Prefix: c.Prefix,
	}, nil
}

func (s *S3) objectName(p string) string {
	return path.Join(s.Prefix, strings.TrimPrefix(p, "/"))
}

// OpenRead downloads an object. Missing objects are reported
// as fs.ErrNotExist.
func (s *S3) OpenRead(p string) (io.ReadCloser, error) {
	if s.Client == nil {
		return nil, errors.New("fileaccess: S3.Client is nil")
	}
	ctx, cancel := s3ctx()
	defer cancel()
	obj, err := s.Client.GetObject(ctx, s.Bucket, s.objectName(p), minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	d, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, &fs.PathError{Op: "open", Path: p, Err: fs.ErrNotExist}
		}
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(d)), nil
}

type s3Writer struct {
	bytes.Buffer
	s       *S3
	name    string
	closed  bool
	aborted bool
	err     error
}

func (w *s3Writer) Abort() {
	w.aborted = true
	w.Close()
}

func (w *s3Writer) Close() error {
	if w.closed {
		return w.err
	}
	w.closed = true
	if w.aborted {
		return nil
	}
	ctx, cancel := s3ctx()
	defer cancel()
	opts := minio.PutObjectOptions{
		ContentType: "text/plain; charset=utf-8",
	}
	d := w.Bytes()
	_, w.err = w.s.Client.PutObject(ctx, w.s.Bucket, w.name, bytes.NewReader(d), int64(len(d)), opts)
	return w.err
}

// OpenWrite buffers data and uploads the object on Close
func (s *S3) OpenWrite(p string) (io.WriteCloser, error) {
	if s.Client == nil {
		return nil, errors.New("fileaccess: S3.Client is nil")
	}
	return &s3Writer{s: s, name: s.objectName(p)}, nil
}
