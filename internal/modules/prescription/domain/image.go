package domain

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg" // JPEG形式のサポート
	_ "image/png"  // PNG形式のサポート
	"strings"

	_ "golang.org/x/image/webp" // WEBP形式のサポート
)

// 対応する画像形式
const (
	MediaTypePNG  = "image/png"
	MediaTypeJPEG = "image/jpeg"
	MediaTypeWEBP = "image/webp"
)

// MaxImageSize 画像サイズの上限（10MB）
const MaxImageSize = 10 * 1024 * 1024

// formatMediaTypes image.DecodeConfig の形式名とメディアタイプの対応
var formatMediaTypes = map[string]string{
	"png":  MediaTypePNG,
	"jpeg": MediaTypeJPEG,
	"webp": MediaTypeWEBP,
}

// RawImage 処方箋画像の生データ
type RawImage struct {
	Data      []byte
	MediaType string
}

// EncodedImage JSONに埋め込めるようbase64化した画像
type EncodedImage struct {
	MediaType string
	Base64    string
}

// NormalizeMediaType メディアタイプを正規化し、対応形式かどうかを返す
func NormalizeMediaType(mediaType string) (string, bool) {
	mt := strings.ToLower(strings.TrimSpace(mediaType))
	if idx := strings.Index(mt, ";"); idx != -1 {
		mt = strings.TrimSpace(mt[:idx])
	}
	if mt == "image/jpg" {
		mt = MediaTypeJPEG
	}

	switch mt {
	case MediaTypePNG, MediaTypeJPEG, MediaTypeWEBP:
		return mt, true
	}
	return mt, false
}

// EncodeImage 画像をbase64エンコードする
func EncodeImage(img RawImage) (*EncodedImage, error) {
	if len(img.Data) == 0 {
		return nil, &InvalidInputError{Reason: "image data is empty"}
	}

	mediaType, ok := NormalizeMediaType(img.MediaType)
	if !ok {
		return nil, &InvalidInputError{Reason: fmt.Sprintf("unsupported media type: %q", img.MediaType)}
	}

	return &EncodedImage{
		MediaType: mediaType,
		Base64:    base64.StdEncoding.EncodeToString(img.Data),
	}, nil
}

// DataURI data URI形式（data:<media>;base64,<data>）を返す
func (e *EncodedImage) DataURI() string {
	return "data:" + e.MediaType + ";base64," + e.Base64
}

// DecodeDataURI data URIを画像に戻す
func DecodeDataURI(uri string) (*RawImage, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, &InvalidInputError{Reason: "not a data URI"}
	}

	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, &InvalidInputError{Reason: "data URI has no payload"}
	}

	mediaType, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return nil, &InvalidInputError{Reason: "data URI is not base64 encoded"}
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, &InvalidInputError{Reason: fmt.Sprintf("invalid base64 payload: %v", err)}
	}

	return &RawImage{Data: data, MediaType: mediaType}, nil
}

// SniffImage 画像ヘッダーを解析して実際のメディアタイプを判定
func SniffImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", &InvalidInputError{Reason: "image data is empty"}
	}

	if len(data) > MaxImageSize {
		return "", &InvalidInputError{Reason: "image size exceeds 10MB"}
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", &InvalidInputError{Reason: fmt.Sprintf("invalid image format: %v", err)}
	}

	mediaType, ok := formatMediaTypes[format]
	if !ok {
		return "", &InvalidInputError{Reason: fmt.Sprintf("unsupported format: %s", format)}
	}

	return mediaType, nil
}
