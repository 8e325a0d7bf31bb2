// Package encoding normalizes input markup files to UTF-8. Fragments come
// from varied sources and occasionally arrive as UTF-16, GBK or with a BOM.
package encoding

import (
	"bytes"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"

	"tex2img/internal/logger"
	"tex2img/internal/types"
)

// Encoding names returned by Detect.
const (
	UTF8    = "UTF-8"
	UTF8BOM = "UTF-8-BOM"
	UTF16LE = "UTF-16LE"
	UTF16BE = "UTF-16BE"
	GBK     = "GBK"
	Unknown = "UNKNOWN"
)

// Detect identifies the encoding of raw file data.
func Detect(data []byte) string {
	if len(data) >= 3 && bytes.Equal(data[:3], []byte{0xEF, 0xBB, 0xBF}) {
		return UTF8BOM
	}
	if len(data) >= 2 && bytes.Equal(data[:2], []byte{0xFF, 0xFE}) {
		return UTF16LE
	}
	if len(data) >= 2 && bytes.Equal(data[:2], []byte{0xFE, 0xFF}) {
		return UTF16BE
	}
	if utf8.Valid(data) {
		return UTF8
	}
	if isValidGBK(data) {
		return GBK
	}
	return Unknown
}

// isValidGBK checks if data is valid GBK encoding
func isValidGBK(data []byte) bool {
	decoded, err := simplifiedchinese.GBK.NewDecoder().Bytes(data)
	if err != nil {
		return false
	}
	return utf8.Valid(decoded)
}

// Decode converts raw data of any detected encoding to a UTF-8 string,
// stripping any BOM.
func Decode(data []byte) (string, error) {
	enc := Detect(data)
	logger.Debug("detected input encoding", logger.String("encoding", enc))

	switch enc {
	case UTF8:
		return string(data), nil
	case UTF8BOM:
		return string(data[3:]), nil
	case UTF16LE:
		decoded, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder().Bytes(data)
		if err != nil {
			return "", types.NewAppError(types.ErrInvalidInput, "failed to decode UTF-16LE input", err)
		}
		return string(decoded), nil
	case UTF16BE:
		decoded, err := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder().Bytes(data)
		if err != nil {
			return "", types.NewAppError(types.ErrInvalidInput, "failed to decode UTF-16BE input", err)
		}
		return string(decoded), nil
	case GBK:
		decoded, err := simplifiedchinese.GBK.NewDecoder().Bytes(data)
		if err != nil {
			return "", types.NewAppError(types.ErrInvalidInput, "failed to decode GBK input", err)
		}
		return string(decoded), nil
	default:
		return "", types.NewAppError(types.ErrInvalidInput, "input file has an unsupported encoding", nil)
	}
}

// ReadFile reads path and returns its content as UTF-8.
func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", types.NewAppError(types.ErrFileNotFound, "input file not found", err)
		}
		return "", types.NewAppError(types.ErrInternal, "failed to read input file", err)
	}
	return Decode(data)
}
