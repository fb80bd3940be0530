package service

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func dataURI(ext string, data []byte) string {
	return "data:image/" + ext + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func TestDecodeDataURI(t *testing.T) {
	ext, data, err := DecodeDataURI(dataURI("png", pngBytes))
	require.NoError(t, err)
	assert.Equal(t, "png", ext)
	assert.Equal(t, pngBytes, data)

	for _, bad := range []string{
		"",
		"plain text",
		"data:text/plain;base64,aGVsbG8=",
		"data:image/png,aGVsbG8=",
		"data:image/;base64,aGVsbG8=",
		"data:image/../x;base64,aGVsbG8=",
		"data:image/png;base64,***",
		"data:image/png;base64,",
	} {
		_, _, err := DecodeDataURI(bad)
		assert.ErrorIs(t, err, ErrValidation, bad)
	}
}

func TestSaveDataURILocal(t *testing.T) {
	dir := t.TempDir()
	images := NewImageService(&LocalStore{Dir: dir, BaseURL: "/media/"})

	key, err := images.SaveDataURI(context.Background(), dataURI("PNG", pngBytes))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "recipes/images/"))
	assert.True(t, strings.HasSuffix(key, ".png"))

	stored, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(key)))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, stored)

	assert.Equal(t, "/media/"+key, images.URL(key))
	assert.Empty(t, images.URL(""))

	images.Discard(context.Background(), key)
	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(key)))
	assert.True(t, os.IsNotExist(err))

	// already gone
	assert.NoError(t, (&LocalStore{Dir: dir}).Delete(context.Background(), key))
}

type fakeS3 struct {
	input   *s3.PutObjectInput
	body    []byte
	deleted []string
	err     error
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = params
	f.body, _ = io.ReadAll(params.Body)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.deleted = append(f.deleted, *params.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Store(t *testing.T) {
	client := &fakeS3{}
	images := NewImageService(&S3Store{client: client, bucket: "foodgram-media"})

	key, err := images.SaveDataURI(context.Background(), dataURI("png", pngBytes))
	require.NoError(t, err)

	require.NotNil(t, client.input)
	assert.Equal(t, "foodgram-media", *client.input.Bucket)
	assert.Equal(t, key, *client.input.Key)
	assert.Equal(t, "image/png", *client.input.ContentType)
	assert.Equal(t, pngBytes, client.body)
	assert.Equal(t, "https://foodgram-media.s3.amazonaws.com/"+key, images.URL(key))

	images.Discard(context.Background(), key)
	assert.Equal(t, []string{key}, client.deleted)

	client.err = errors.New("boom")
	_, err = images.SaveDataURI(context.Background(), dataURI("png", pngBytes))
	assert.Error(t, err)
}
