package sniffer

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"
)

type ImageType string

const (
	TypeJPEG ImageType = "jpeg"
	TypePNG  ImageType = "png"
)

var ErrUnsupportedType = errors.New("unsupported image type")

const headSize = 512

type Result struct {
	Type ImageType
	MIME string
}

// Sniff reads the leading bytes of r, identifies the image type and returns a
// reader that replays the consumed bytes ahead of the rest of r.
func Sniff(r io.Reader) (Result, io.Reader, error) {
	head := make([]byte, headSize)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return Result{}, nil, err
	}
	head = head[:n]

	result, err := DetectHead(head)
	if err != nil {
		return Result{}, nil, err
	}
	return result, io.MultiReader(bytes.NewReader(head), r), nil
}

func DetectHead(head []byte) (Result, error) {
	switch {
	case isJPEG(head):
		return Result{Type: TypeJPEG, MIME: "image/jpeg"}, nil
	case isPNG(head):
		return Result{Type: TypePNG, MIME: "image/png"}, nil
	}
	return Result{}, ErrUnsupportedType
}

func isJPEG(head []byte) bool {
	return len(head) > 3 &&
		head[0] == 0xff &&
		head[1] == 0xd8 &&
		head[2] == 0xff
}

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func isPNG(head []byte) bool {
	return len(head) >= len(pngMagic) && bytes.Equal(head[:len(pngMagic)], pngMagic)
}

// DeclaredMIME returns the media type of a Content-Type header without parameters.
func DeclaredMIME(header http.Header) string {
	contentType := header.Get("Content-Type")
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = contentType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

// Matches reports whether a declared MIME type agrees with the sniffed one.
// "image/jpg" is accepted as an alias of "image/jpeg".
func (r Result) Matches(declared string) bool {
	if declared == "" || declared == "application/octet-stream" {
		return true
	}
	if declared == "image/jpg" {
		declared = "image/jpeg"
	}
	return declared == r.MIME
}
