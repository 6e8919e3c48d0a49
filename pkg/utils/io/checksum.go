// Package io has readers computing hashes of what passes through them.
package io

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
)

type ChecksumReader interface {
	io.Reader

	// Sum is the hash of bytes have been read.
	Sum() []byte

	// Checksum is Sum formatted as "{algorithm}:{hex}", as status.files[].hash records.
	Checksum() string
}

type hashReader struct {
	source    io.Reader
	h         hash.Hash
	algorithm string
}

func NewMD5Reader(source io.Reader) ChecksumReader {
	return &hashReader{source: source, h: md5.New(), algorithm: "md5"}
}

func NewSHA256Reader(source io.Reader) ChecksumReader {
	return &hashReader{source: source, h: sha256.New(), algorithm: "sha256"}
}

func (hr *hashReader) Read(p []byte) (int, error) {
	n, err := hr.source.Read(p)
	if 0 < n {
		hr.h.Write(p[:n])
	}
	return n, err
}

func (hr *hashReader) Sum() []byte {
	return hr.h.Sum(nil)
}

func (hr *hashReader) Checksum() string {
	return hr.algorithm + ":" + hex.EncodeToString(hr.Sum())
}

// Checksum reads r to the end, and returns its md5 checksum.
func Checksum(r io.Reader) (string, error) {
	hr := NewMD5Reader(r)
	if _, err := io.Copy(io.Discard, hr); err != nil {
		return "", err
	}
	return hr.Checksum(), nil
}
