package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryObjects struct {
	objects map[string][]byte
	types   map[string]string
	err     error
}

func (m *memoryObjects) PutProfile(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if m.err != nil {
		return m.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if m.objects == nil {
		m.objects = map[string][]byte{}
		m.types = map[string]string{}
	}
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

var pngBytes = append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, bytes.Repeat([]byte{1}, 64)...)

func newProfileService(store ObjectPutter) *ProfileService {
	svc := NewProfileService(store, testConfig("address"), nopLogger)
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return svc
}

func TestProfileUploadStoresImage(t *testing.T) {
	objects := &memoryObjects{}
	svc := newProfileService(objects)

	key, err := svc.Upload(context.Background(), ProfileUploadInput{
		File:         bytes.NewReader(pngBytes),
		Filename:     "../../etc/my photo.png",
		DeclaredMIME: "image/png",
	})
	require.NoError(t, err)
	assert.Equal(t, "1700000000000_my_photo.png", key)
	assert.Equal(t, pngBytes, objects.objects[key])
	assert.Equal(t, "image/png", objects.types[key])
}

func TestProfileUploadRejectsNonImages(t *testing.T) {
	svc := newProfileService(&memoryObjects{})

	_, err := svc.Upload(context.Background(), ProfileUploadInput{
		File:     bytes.NewReader([]byte("GIF89a not allowed")),
		Filename: "anim.gif",
	})
	assert.ErrorIs(t, err, ErrInvalidImage)

	_, err = svc.Upload(context.Background(), ProfileUploadInput{
		File:         bytes.NewReader(pngBytes),
		Filename:     "lying.jpg",
		DeclaredMIME: "image/jpeg",
	})
	assert.ErrorIs(t, err, ErrInvalidImage, "declared type must match content")
}

func TestProfileUploadSizeLimit(t *testing.T) {
	svc := newProfileService(&memoryObjects{})
	svc.maxSize = 32

	_, err := svc.Upload(context.Background(), ProfileUploadInput{File: bytes.NewReader(pngBytes), Filename: "big.png"})
	assert.ErrorIs(t, err, ErrImageTooLarge)
}

func TestProfileUploadStoreFailure(t *testing.T) {
	svc := newProfileService(&memoryObjects{err: errors.New("bucket gone")})

	_, err := svc.Upload(context.Background(), ProfileUploadInput{File: bytes.NewReader(pngBytes), Filename: "a.png"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidImage)
}

func TestCleanFilename(t *testing.T) {
	assert.Equal(t, "profile.png", cleanFilename("", "png"))
	assert.Equal(t, "a_b.jpg", cleanFilename(`C:\Users\me\a b.jpg`, "jpeg"))
	assert.Equal(t, "hidden", cleanFilename(".hidden", "png"))
}

func TestProfileUploadZeroLimitUsesDefault(t *testing.T) {
	cfg := testConfig("address")
	cfg.Storage.MaxProfileSize = 0
	objects := &memoryObjects{}
	svc := NewProfileService(objects, cfg, nopLogger)

	assert.Equal(t, DefaultMaxProfileSize, svc.MaxSize())

	key, err := svc.Upload(context.Background(), ProfileUploadInput{File: bytes.NewReader(pngBytes), Filename: "a.png"})
	require.NoError(t, err)
	assert.Equal(t, pngBytes, objects.objects[key])
}
