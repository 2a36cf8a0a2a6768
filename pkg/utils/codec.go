package utils

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// utf8BOM is stripped from decoded input; writers never emit it.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LookupEncoding resolves an encoding label such as "utf-8",
// "windows-1251" or "koi8-r". An empty label means UTF-8.
func LookupEncoding(label string) (encoding.Encoding, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		label = "utf-8"
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %w", label, err)
	}
	return enc, nil
}

// IsUTF8 reports whether the label names UTF-8.
func IsUTF8(label string) bool {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "", "utf-8", "utf8":
		return true
	}
	return false
}

// DecodeText converts raw file bytes in the given encoding to a UTF-8
// string, dropping a leading byte order mark.
func DecodeText(data []byte, label string) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if IsUTF8(label) {
		return string(data), nil
	}
	enc, err := LookupEncoding(label)
	if err != nil {
		return "", err
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s text: %w", label, err)
	}
	return string(out), nil
}

// EncodeText converts a UTF-8 string back to the given encoding.
func EncodeText(text, label string) ([]byte, error) {
	if IsUTF8(label) {
		return []byte(text), nil
	}
	enc, err := LookupEncoding(label)
	if err != nil {
		return nil, err
	}
	out, err := enc.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("failed to encode text as %s: %w", label, err)
	}
	return out, nil
}
