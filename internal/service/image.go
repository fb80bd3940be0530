package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/logging"
)

const imagePrefix = "recipes/images"

// MediaStore keeps image bytes somewhere addressable by key.
type MediaStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// LocalStore writes media under a directory that the router serves.
type LocalStore struct {
	Dir     string
	BaseURL string
}

func (l *LocalStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	dest := filepath.Join(l.Dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create media directory: %w", err)
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return fmt.Errorf("failed to write media file: %w", err)
	}
	return nil
}

// Delete removes a stored file; a missing file is not an error.
func (l *LocalStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(filepath.Join(l.Dir, filepath.FromSlash(key)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove media file: %w", err)
	}
	return nil
}

func (l *LocalStore) URL(key string) string {
	return strings.TrimRight(l.BaseURL, "/") + "/" + key
}

// s3API is the slice of the S3 client the store needs.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store uploads media to a public-read bucket.
type S3Store struct {
	client s3API
	bucket string
}

func NewS3Store(s3Config *config.S3Config) *S3Store {
	return &S3Store{client: s3Config.Client, bucket: s3Config.BucketName}
}

func (s *S3Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	return nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}

func (s *S3Store) URL(key string) string {
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key)
}

// ImageService turns uploaded image payloads into stored media keys.
type ImageService struct {
	store MediaStore
}

func NewImageService(store MediaStore) *ImageService {
	return &ImageService{store: store}
}

// DecodeDataURI splits "data:image/<ext>;base64,<payload>" into the file
// extension and the decoded bytes.
func DecodeDataURI(uri string) (string, []byte, error) {
	header, payload, ok := strings.Cut(uri, ",")
	if !ok || !strings.HasPrefix(header, "data:image/") || !strings.HasSuffix(header, ";base64") {
		return "", nil, invalid("image", "expected a base64 data URI of an image")
	}
	ext := strings.TrimSuffix(strings.TrimPrefix(header, "data:image/"), ";base64")
	if ext == "" || strings.ContainsAny(ext, "/\\.") {
		return "", nil, invalid("image", "unsupported image type %q", ext)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, invalid("image", "image payload is not valid base64")
	}
	if len(data) == 0 {
		return "", nil, invalid("image", "image is empty")
	}
	return ext, data, nil
}

// SaveDataURI stores an embedded image and returns its key.
func (s *ImageService) SaveDataURI(ctx context.Context, uri string) (string, error) {
	ext, data, err := DecodeDataURI(uri)
	if err != nil {
		return "", err
	}
	return s.Save(ctx, ext, data)
}

// Save stores raw image bytes under a fresh key with the given extension.
func (s *ImageService) Save(ctx context.Context, ext string, data []byte) (string, error) {
	key := path.Join(imagePrefix, uuid.NewString()+"."+strings.ToLower(ext))
	if err := s.store.Put(ctx, key, data, http.DetectContentType(data)); err != nil {
		return "", err
	}
	logging.Debug().Str("key", key).Int("bytes", len(data)).Msg("image stored")
	return key, nil
}

// Discard deletes a stored image whose recipe write did not go through.
func (s *ImageService) Discard(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.store.Delete(ctx, key); err != nil {
		logging.Warn().Err(err).Str("key", key).Msg("failed to discard image")
	}
}

// URL resolves a stored key; an empty key stays empty.
func (s *ImageService) URL(key string) string {
	if key == "" {
		return ""
	}
	return s.store.URL(key)
}
