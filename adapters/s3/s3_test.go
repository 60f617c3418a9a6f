package s3

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ballistics/pointdeck/adapters"
)

type fakeObjects struct {
	objects map[string]string
	bucket  string
}

func (f *fakeObjects) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.bucket = aws.ToString(params.Bucket)
	body, ok := f.objects[aws.ToString(params.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("missing")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func TestFetch(t *testing.T) {
	fake := &fakeObjects{objects: map[string]string{
		"site/totallist.json": `[{"key":"A","idx":0}]`,
	}}
	src, err := NewSource(&Config{Bucket: "ballistics", Prefix: "site"}, nil)
	require.NoError(t, err)
	src.WithClient(fake)

	data, err := src.Fetch(context.Background(), "totallist.json")
	require.NoError(t, err)
	assert.Equal(t, `[{"key":"A","idx":0}]`, string(data))
	assert.Equal(t, "ballistics", fake.bucket)

	_, err = src.Fetch(context.Background(), "trajectories.json")
	assert.True(t, errors.Is(err, adapters.ErrNotFound))
}

func TestObjectSizeLimit(t *testing.T) {
	fake := &fakeObjects{objects: map[string]string{"big.json": strings.Repeat("x", 32)}}
	src, err := NewSource(&Config{Bucket: "b", MaxObjectBytes: 8}, nil)
	require.NoError(t, err)
	src.WithClient(fake)

	_, err = src.Fetch(context.Background(), "big.json")
	assert.ErrorContains(t, err, "max_object_bytes")
}

func TestKey(t *testing.T) {
	src, err := NewSource(&Config{Bucket: "b"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "results/a.json", src.Key("/results/a.json"))

	src, err = NewSource(&Config{Bucket: "b", Prefix: "data/"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "data/results/a.json", src.Key("results/a.json"))
}

func TestDefaultsAndValidation(t *testing.T) {
	_, err := NewSource(&Config{}, nil)
	assert.Error(t, err)

	cfg := &Config{Bucket: "b"}
	src, err := NewSource(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "s3", src.Name())
	assert.Equal(t, "us-east-1", cfg.Region)

	f := &Factory{}
	assert.Error(t, f.ValidateConfig(adapters.SourceConfig{Type: "s3"}))
	created, err := f.Create(adapters.SourceConfig{
		SourceID: "archive",
		Type:     "s3",
		Config: map[string]interface{}{
			"bucket":           "b",
			"region":           "eu-west-1",
			"force_path_style": true,
			"timeout":          "10s",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "archive", created.Name())
	assert.True(t, created.(*Source).config.ForcePathStyle)
}
