package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/scc-digitalhub/digitalhub-go/pkg/entity"
	xe "github.com/scc-digitalhub/digitalhub-go/pkg/errors"
	"github.com/scc-digitalhub/digitalhub-go/pkg/uri"
)

// Environment variables configuring the S3 store.
const (
	EnvS3Endpoint       = "S3_ENDPOINT_URL"
	EnvS3Bucket         = "S3_BUCKET_NAME"
	EnvAWSAccessKeyID   = "AWS_ACCESS_KEY_ID"
	EnvAWSSecretKey     = "AWS_SECRET_ACCESS_KEY"
	EnvAWSSessionToken  = "AWS_SESSION_TOKEN"
	EnvAWSRegion        = "AWS_REGION"
	EnvAWSDefaultRegion = "AWS_DEFAULT_REGION"
)

const (
	DefaultS3Endpoint = "https://s3.amazonaws.com"
	DefaultS3Region   = "us-east-1"

	s3DirectoryDelimiter = "/"
)

// S3Config is how to connect to S3 compatible storage.
type S3Config struct {
	// Endpoint url, like "http://minio:9000". DefaultS3Endpoint when empty.
	Endpoint string

	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string

	// Region of buckets. DefaultS3Region when empty.
	Region string

	// Bucket used when an uri has no bucket.
	Bucket string
}

// S3ConfigFromEnv reads S3Config from S3_* and AWS_* environment variables.
func S3ConfigFromEnv() S3Config {
	region := os.Getenv(EnvAWSRegion)
	if region == "" {
		region = os.Getenv(EnvAWSDefaultRegion)
	}
	return S3Config{
		Endpoint:        os.Getenv(EnvS3Endpoint),
		AccessKeyID:     os.Getenv(EnvAWSAccessKeyID),
		SecretAccessKey: os.Getenv(EnvAWSSecretKey),
		SessionToken:    os.Getenv(EnvAWSSessionToken),
		Region:          region,
		Bucket:          os.Getenv(EnvS3Bucket),
	}
}

// S3 is a store on S3 compatible storage.
type S3 struct {
	Config S3Config

	// Progress reports download progress. It may be nil.
	Progress Progress

	once   sync.Once
	client *minio.Client
	err    error
}

var _ Store = &S3{}

func NewS3(config S3Config) *S3 {
	return &S3{Config: config}
}

func (s *S3) minio() (*minio.Client, error) {
	s.once.Do(func() {
		endpoint := s.Config.Endpoint
		if endpoint == "" {
			endpoint = DefaultS3Endpoint
		}
		if !strings.Contains(endpoint, "://") {
			endpoint = "https://" + endpoint
		}
		u, err := url.Parse(endpoint)
		if err != nil || u.Host == "" {
			s.err = fmt.Errorf("%w: malformed s3 endpoint: %s", ErrStore, s.Config.Endpoint)
			return
		}
		region := s.Config.Region
		if region == "" {
			region = DefaultS3Region
		}
		s.client, s.err = minio.New(u.Host, &minio.Options{
			Creds: credentials.NewStaticV4(
				s.Config.AccessKeyID, s.Config.SecretAccessKey, s.Config.SessionToken,
			),
			Secure:       u.Scheme == "https",
			Region:       region,
			BucketLookup: minio.BucketLookupPath,
		})
		if s.err != nil {
			s.err = fmt.Errorf("%w: s3 client: %s", ErrStore, s.err)
		}
	})
	return s.client, s.err
}

// location splits s3://bucket/key into bucket and key.
func (s *S3) location(u string) (string, string, error) {
	parsed, err := url.Parse(strings.TrimPrefix(u, "zip+"))
	if err != nil {
		return "", "", fmt.Errorf("%w: malformed uri: %s", ErrStore, u)
	}
	bucket := parsed.Host
	if bucket == "" {
		bucket = s.Config.Bucket
	}
	if bucket == "" {
		return "", "", fmt.Errorf("%w: no bucket in %s, and %s is not set", ErrStore, u, EnvS3Bucket)
	}
	return bucket, strings.TrimPrefix(parsed.Path, "/"), nil
}

// Download an object, or all objects under a "directory" when src ends with "/".
//
// A single object is saved in dst when it is a directory (or has no extension),
// with the name in src. A directory is saved as dst/<last part of src>.
func (s *S3) Download(ctx context.Context, src string, dst string, overwrite bool) (string, error) {
	bucket, key, err := s.location(src)
	if err != nil {
		return "", err
	}
	cl, err := s.minio()
	if err != nil {
		return "", err
	}
	if dst == "" {
		if dst, err = os.MkdirTemp("", "dh-download-"); err != nil {
			return "", xe.Wrap(err)
		}
	}
	dst = uri.LocalPath(dst)

	if key == "" || strings.HasSuffix(key, s3DirectoryDelimiter) {
		dest := dst
		if key != "" {
			dest = filepath.Join(dst, path.Base(key))
		}
		lctx, cancel := context.WithCancel(ctx)
		defer cancel()
		found := false
		for obj := range cl.ListObjects(lctx, bucket, minio.ListObjectsOptions{Prefix: key, Recursive: true}) {
			if obj.Err != nil {
				return "", fmt.Errorf("%w: list %s: %s", ErrStore, src, obj.Err)
			}
			if strings.HasSuffix(obj.Key, s3DirectoryDelimiter) {
				continue
			}
			found = true
			rel := filepath.FromSlash(strings.TrimPrefix(obj.Key, key))
			if err := s.fetch(ctx, cl, bucket, obj.Key, filepath.Join(dest, rel), overwrite); err != nil {
				return "", err
			}
		}
		if !found {
			return "", fmt.Errorf("%w: no objects under %s", ErrStore, src)
		}
		return dest, nil
	}

	dest := dst
	if st, err := os.Stat(dst); (err == nil && st.IsDir()) || filepath.Ext(dst) == "" {
		dest = filepath.Join(dst, path.Base(key))
	}
	if err := s.fetch(ctx, cl, bucket, key, dest, overwrite); err != nil {
		return "", err
	}
	return dest, nil
}

func (s *S3) fetch(ctx context.Context, cl *minio.Client, bucket string, key string, dest string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(dest); err == nil {
			return fmt.Errorf("%w: %s", ErrDestinationExists, dest)
		} else if !errors.Is(err, os.ErrNotExist) {
			return xe.Wrap(err)
		}
	}

	obj, err := cl.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return s3Error("GET", bucket, key, err)
	}
	defer obj.Close()
	info, err := obj.Stat()
	if err != nil {
		return s3Error("GET", bucket, key, err)
	}

	if err := os.MkdirAll(filepath.Dir(dest), os.FileMode(0o777)); err != nil {
		return xe.Wrap(err)
	}
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(0o666))
	if err != nil {
		return xe.Wrap(err)
	}
	defer f.Close()

	var w io.Writer = f
	if s.Progress != nil {
		pw := s.Progress(dest, info.Size, f)
		defer pw.Close()
		w = pw
	}
	if _, err := io.Copy(w, obj); err != nil {
		return s3Error("GET", bucket, key, err)
	}
	return nil
}

// Upload local files under dst.
//
// When src is a single file and dst does not end with "/", the file is uploaded as dst itself.
// Otherwise, paths relative to src (or the non-glob part of it) are kept under dst.
func (s *S3) Upload(ctx context.Context, src string, dst string) ([]Uploaded, error) {
	bucket, key, err := s.location(dst)
	if err != nil {
		return nil, err
	}
	cl, err := s.minio()
	if err != nil {
		return nil, err
	}
	srcpath := uri.LocalPath(src)
	base, files, err := sources(srcpath)
	if err != nil {
		return nil, err
	}

	single := !containsGlob(srcpath) && len(files) == 1 &&
		filepath.Join(base, files[0]) == filepath.Clean(srcpath)

	uploaded := make([]Uploaded, 0, len(files))
	for _, f := range files {
		objkey := key
		if !single || key == "" || strings.HasSuffix(key, s3DirectoryDelimiter) {
			objkey = path.Join(key, filepath.ToSlash(f))
		}
		from := filepath.Join(base, f)
		_, err := cl.FPutObject(ctx, bucket, objkey, from, minio.PutObjectOptions{
			ContentType: mime.TypeByExtension(filepath.Ext(from)),
		})
		if err != nil {
			return nil, s3Error("PUT", bucket, objkey, err)
		}
		uploaded = append(uploaded, Uploaded{Dst: "s3://" + bucket + "/" + objkey, Src: from})
	}
	return uploaded, nil
}

// FileInfo describes objects. Hash is the md5 of the object, if its ETag tells it.
func (s *S3) FileInfo(ctx context.Context, paths []string) ([]entity.File, error) {
	cl, err := s.minio()
	if err != nil {
		return nil, err
	}
	infos := make([]entity.File, 0, len(paths))
	for _, p := range paths {
		bucket, key, err := s.location(p)
		if err != nil {
			return nil, err
		}
		st, err := cl.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
		if err != nil {
			return nil, s3Error("HEAD", bucket, key, err)
		}
		hash := ""
		// multipart uploads have "<hash>-<parts>" as ETag, which is not md5.
		if etag := strings.Trim(st.ETag, `"`); len(etag) == 32 {
			hash = "md5:" + etag
		}
		infos = append(infos, entity.File{
			Path:         p,
			Name:         path.Base(key),
			ContentType:  st.ContentType,
			Size:         st.Size,
			Hash:         hash,
			LastModified: st.LastModified.UTC().Format(entity.TimestampLayout),
		})
	}
	return infos, nil
}

func s3Error(method string, bucket string, key string, err error) error {
	if code := minio.ToErrorResponse(err).Code; code != "" {
		return fmt.Errorf("%w: s3 %s s3://%s/%s: %s (%s)", ErrStore, method, bucket, key, code, err)
	}
	return fmt.Errorf("%w: s3 %s s3://%s/%s: %s", ErrStore, method, bucket, key, err)
}
