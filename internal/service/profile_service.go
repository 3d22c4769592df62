package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"blockon/api/internal/config"
	"blockon/api/internal/media/sniffer"
)

type ProfileUploadInput struct {
	File         io.Reader
	Filename     string
	DeclaredMIME string
}

// ProfileService stores profile images ahead of registration. The returned
// path is what clients later submit as profileFilename.
type ProfileService struct {
	store   ObjectPutter
	maxSize int64
	now     func() time.Time
	log     zerolog.Logger
}

// DefaultMaxProfileSize applies when storage.maxprofilesize is left at zero.
const DefaultMaxProfileSize int64 = 5 << 20

func NewProfileService(store ObjectPutter, cfg *config.AppConfig, log zerolog.Logger) *ProfileService {
	maxSize := cfg.Storage.MaxProfileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxProfileSize
	}
	return &ProfileService{
		store:   store,
		maxSize: maxSize,
		now:     time.Now,
		log:     log,
	}
}

// MaxSize is the largest accepted image in bytes.
func (s *ProfileService) MaxSize() int64 {
	return s.maxSize
}

func (s *ProfileService) Upload(ctx context.Context, input ProfileUploadInput) (string, error) {
	if input.File == nil {
		return "", ErrInvalidImage
	}

	result, r, err := sniffer.Sniff(input.File)
	if err != nil {
		if errors.Is(err, sniffer.ErrUnsupportedType) {
			return "", ErrInvalidImage
		}
		return "", fmt.Errorf("read profile: %w", err)
	}
	if !result.Matches(input.DeclaredMIME) {
		return "", ErrInvalidImage
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxSize+1))
	if err != nil {
		return "", fmt.Errorf("read profile: %w", err)
	}
	if int64(len(data)) > s.maxSize {
		return "", ErrImageTooLarge
	}

	key := fmt.Sprintf("%d_%s", s.now().UnixMilli(), cleanFilename(input.Filename, result.Type))
	if err := s.store.PutProfile(ctx, key, bytes.NewReader(data), int64(len(data)), result.MIME); err != nil {
		return "", err
	}

	s.log.Debug().Str("key", key).Int("size", len(data)).Msg("profile image stored")
	return key, nil
}

// cleanFilename keeps the base name of the client filename, restricted to a
// safe character set, and falls back to a name derived from the image type.
func cleanFilename(name string, kind sniffer.ImageType) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, base)
	clean = strings.TrimLeft(clean, ".")
	if clean == "" || clean == "_" {
		clean = "profile." + string(kind)
	}
	return clean
}
