package resultstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/alitto/pond"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3Types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/schollz/progressbar/v3"
)

type s3ResultStore struct {
	input *S3ResultStoreInput
	s3    *s3.Client
}

type S3ResultStoreInput struct {
	AwsConfig         aws.Config
	Bucket            string
	UploadConcurrency int
}

func NewS3ResultStore(input *S3ResultStoreInput) ResultStore {
	if input.UploadConcurrency < 1 {
		input.UploadConcurrency = 1
	}
	return &s3ResultStore{
		input: input,
		s3:    s3.NewFromConfig(input.AwsConfig),
	}
}

func (o *s3ResultStore) Upload(files []*FileSpec) ([]string, error) {
	slog.Info("uploading results", slog.String("bucket", o.input.Bucket), slog.Int("files", len(files)))
	uploader := manager.NewUploader(o.s3, func(u *manager.Uploader) {
		u.PartSize = 1024 * 1024 * 10
	})
	errChan := make(chan error, len(files))
	pool := pond.New(o.input.UploadConcurrency, 0, pond.MinWorkers(o.input.UploadConcurrency))
	p := progressbar.Default(int64(len(files)), "Uploading results:")
	for _, file := range files {
		pool.Submit(func() {
			defer p.Add(1)

			f, err := os.Open(file.Path)
			if err != nil {
				errChan <- err
				return
			}
			defer f.Close()

			_, err = uploader.Upload(context.Background(), &s3.PutObjectInput{
				Bucket: &o.input.Bucket,
				Key:    &file.Key,
				Body:   f,
			})
			if err != nil {
				slog.Error("failed to upload result file", slog.String("key", file.Key), slog.String("error", err.Error()))
				errChan <- err
				return
			}
		})
	}
	pool.StopAndWait()
	p.Finish()

	select {
	case err := <-errChan:
		return nil, fmt.Errorf("some result files failed to upload: %w", err)
	default:
		keys := make([]string, len(files))
		for i, f := range files {
			keys[i] = f.Key
		}
		slog.Info("done uploading", slog.String("bucket", o.input.Bucket))
		return keys, nil
	}
}

func (o *s3ResultStore) SetUp() error {
	_, err := o.s3.CreateBucket(context.Background(), &s3.CreateBucketInput{
		Bucket: &o.input.Bucket,
		ACL:    s3Types.BucketCannedACLPrivate,
		CreateBucketConfiguration: &s3Types.CreateBucketConfiguration{
			LocationConstraint: s3Types.BucketLocationConstraint(o.input.AwsConfig.Region),
		},
	})
	var owned *s3Types.BucketAlreadyOwnedByYou
	if errors.As(err, &owned) {
		slog.Debug("bucket already exists", slog.String("name", o.input.Bucket))
		return nil
	} else if err != nil {
		return err
	}
	slog.Debug("created bucket", slog.String("name", o.input.Bucket))
	return nil
}

func (o *s3ResultStore) GetBucket() string {
	return o.input.Bucket
}
