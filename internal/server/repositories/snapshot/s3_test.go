package snapshot

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects map[string][]byte
	getErr  error
	putErr  error
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*in.Bucket+"/"+*in.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func TestS3Blob_LoadSave(t *testing.T) {
	ctx := context.Background()
	fake := &fakeS3{objects: map[string][]byte{}}
	b := &S3Blob{client: fake, bucket: "bucket", object: "keyvault.json"}

	data, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, b.Save(ctx, []byte("payload")))
	assert.Equal(t, "payload", string(fake.objects["bucket/keyvault.json"]))

	data, err = b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestS3Blob_Errors(t *testing.T) {
	ctx := context.Background()
	fake := &fakeS3{objects: map[string][]byte{}, getErr: errors.New("boom"), putErr: errors.New("denied")}
	b := &S3Blob{client: fake, bucket: "bucket", object: "o"}

	_, err := b.Load(ctx)
	assert.ErrorContains(t, err, "boom")
	assert.ErrorContains(t, b.Save(ctx, nil), "denied")
}

func TestNewS3Blob_UsesSeams(t *testing.T) {
	origLoad, origNew := loadDefaultAWSConfig, newS3ClientFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig, newS3ClientFromConfig = origLoad, origNew
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*config.LoadOptions) error) (aws.Config, error) {
		var lo config.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "eu-central-1", lo.Region)
		assert.NotNil(t, lo.Credentials)
		return aws.Config{Region: lo.Region}, nil
	}
	var gotEndpoint string
	fake := &fakeS3{objects: map[string][]byte{}}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) s3API {
		var o s3.Options
		for _, fn := range optFns {
			fn(&o)
		}
		gotEndpoint = aws.ToString(o.BaseEndpoint)
		return fake
	}

	b, err := NewS3Blob(context.Background(), S3Options{
		Region: "eu-central-1", Bucket: "b", Object: "o",
		AccessKey: "minio", SecretKey: "minio123", BaseEndpoint: "http://localhost:9000",
	})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", gotEndpoint)
	assert.Same(t, fake, b.client)
}

func TestNewS3Blob_Validation(t *testing.T) {
	_, err := NewS3Blob(context.Background(), S3Options{Bucket: "b"})
	assert.Error(t, err)

	origLoad := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = origLoad })
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*config.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no config")
	}
	_, err = NewS3Blob(context.Background(), S3Options{Bucket: "b", Object: "o"})
	assert.ErrorContains(t, err, "no config")
}
