package domain

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func createTestPNGImage(width, height int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	// 白で塗りつぶし
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.White)
		}
	}

	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

func createTestJPEGImage(width, height int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	var buf bytes.Buffer
	_ = jpeg.Encode(&buf, img, nil)
	return buf.Bytes()
}

func TestEncodeImage(t *testing.T) {
	pngData := createTestPNGImage(10, 10)

	tests := []struct {
		name          string
		img           RawImage
		wantMediaType string
		wantErr       bool
	}{
		{
			name:          "正常系: PNG",
			img:           RawImage{Data: pngData, MediaType: "image/png"},
			wantMediaType: MediaTypePNG,
		},
		{
			name:          "正常系: image/jpgはimage/jpegに正規化",
			img:           RawImage{Data: []byte{0xFF, 0xD8, 0xFF}, MediaType: "image/jpg"},
			wantMediaType: MediaTypeJPEG,
		},
		{
			name:          "正常系: パラメータ付きWEBP",
			img:           RawImage{Data: []byte("RIFF"), MediaType: "Image/WEBP; charset=binary"},
			wantMediaType: MediaTypeWEBP,
		},
		{
			name:    "異常系: 空データ",
			img:     RawImage{Data: nil, MediaType: "image/png"},
			wantErr: true,
		},
		{
			name:    "異常系: 未対応形式",
			img:     RawImage{Data: []byte("GIF89a"), MediaType: "image/gif"},
			wantErr: true,
		},
		{
			name:    "異常系: メディアタイプなし",
			img:     RawImage{Data: pngData},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := EncodeImage(tt.img)
			if (err != nil) != tt.wantErr {
				t.Fatalf("EncodeImage() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				var invalid *InvalidInputError
				if !errors.As(err, &invalid) {
					t.Errorf("Expected InvalidInputError, got %T", err)
				}
				return
			}
			if encoded.MediaType != tt.wantMediaType {
				t.Errorf("MediaType = %s, want %s", encoded.MediaType, tt.wantMediaType)
			}
		})
	}
}

func TestEncodeImage_DataURIRoundTrip(t *testing.T) {
	inputs := [][]byte{
		createTestPNGImage(3, 7),
		createTestJPEGImage(5, 5),
		{0x00, 0xFF, 0x10, 0x80, '+', '/', '='},
	}

	for i, data := range inputs {
		encoded, err := EncodeImage(RawImage{Data: data, MediaType: MediaTypePNG})
		if err != nil {
			t.Fatalf("[%d] EncodeImage() error = %v", i, err)
		}

		uri := encoded.DataURI()
		if want := "data:image/png;base64,"; uri[:len(want)] != want {
			t.Errorf("[%d] DataURI prefix = %q", i, uri[:len(want)])
		}

		decoded, err := DecodeDataURI(uri)
		if err != nil {
			t.Fatalf("[%d] DecodeDataURI() error = %v", i, err)
		}
		if !bytes.Equal(decoded.Data, data) {
			t.Errorf("[%d] round trip altered the payload", i)
		}
		if decoded.MediaType != MediaTypePNG {
			t.Errorf("[%d] MediaType = %s", i, decoded.MediaType)
		}
	}
}

func TestDecodeDataURI_Invalid(t *testing.T) {
	tests := []string{
		"",
		"image/png;base64,AAAA",
		"data:image/png;base64",
		"data:image/png,AAAA",
		"data:image/png;base64,!!!",
	}

	for _, uri := range tests {
		if _, err := DecodeDataURI(uri); err == nil {
			t.Errorf("DecodeDataURI(%q) expected error", uri)
		}
	}
}

func TestSniffImage(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    string
		wantErr bool
	}{
		{
			name: "正常系: PNG",
			data: createTestPNGImage(100, 100),
			want: MediaTypePNG,
		},
		{
			name: "正常系: JPEG",
			data: createTestJPEGImage(20, 20),
			want: MediaTypeJPEG,
		},
		{
			name:    "異常系: 空データ",
			data:    []byte{},
			wantErr: true,
		},
		{
			name:    "異常系: 無効なデータ",
			data:    []byte("invalid image data"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SniffImage(tt.data)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SniffImage() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("SniffImage() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSniffImage_SizeLimit(t *testing.T) {
	// 10MB超のデータ
	largeData := make([]byte, MaxImageSize+1)
	_, err := SniffImage(largeData)
	if err == nil {
		t.Error("Expected error for large image, got nil")
	}
}
