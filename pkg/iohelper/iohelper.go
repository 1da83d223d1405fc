// Package iohelper reads HTTP response bodies safely: bounded in size and
// decoded to UTF-8 so that payload matching works on text, not on raw bytes.
package iohelper

import (
	"bytes"
	"io"
	"log/slog"

	"golang.org/x/net/html/charset"

	"github.com/Killjoybr/IA-CAI/pkg/defaults"
)

// drainLimit bounds how much unread body is discarded before closing.
const drainLimit = 64 * 1024

// ReadBody reads from r with a size limit.
// A nil reader yields an empty slice and no error.
func ReadBody(r io.Reader, maxSize int64) ([]byte, error) {
	if r == nil {
		return []byte{}, nil
	}
	if maxSize <= 0 {
		maxSize = defaults.MaxBodySize
	}
	return io.ReadAll(io.LimitReader(r, maxSize))
}

// ReadBodyDefault reads from r with defaults.MaxBodySize.
func ReadBodyDefault(r io.Reader) ([]byte, error) {
	return ReadBody(r, defaults.MaxBodySize)
}

// ReadText reads at most maxSize bytes from r and converts them to UTF-8
// using the charset declared in contentType, a BOM, or a <meta> tag.
// When no converter can be determined the raw bytes are returned.
//
// The size limit applies to the encoded bytes on the wire.
func ReadText(r io.Reader, contentType string, maxSize int64) ([]byte, error) {
	raw, err := ReadBody(r, maxSize)
	if err != nil {
		return raw, err
	}
	if len(raw) == 0 {
		return raw, nil
	}
	dec, err := charset.NewReader(bytes.NewReader(raw), contentType)
	if err != nil {
		return raw, nil
	}
	text, err := io.ReadAll(dec)
	if err != nil {
		return raw, nil
	}
	return text, nil
}

// ReadBodyOrLog reads r with ReadBodyDefault and logs any error.
// It returns the body bytes (which may be partial on error).
func ReadBodyOrLog(r io.Reader, logger *slog.Logger) []byte {
	data, err := ReadBodyDefault(r)
	if err != nil && logger != nil {
		logger.Warn("body read failed", slog.String("error", err.Error()))
	}
	return data
}

// DrainAndClose discards what is left of r and closes it if it is a
// ReadCloser, so the connection can go back to the keep-alive pool.
// Always returns nil to allow use in defer.
func DrainAndClose(r io.Reader) error {
	if r == nil {
		return nil
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(r, drainLimit))
	if rc, ok := r.(io.ReadCloser); ok {
		rc.Close()
	}
	return nil
}
