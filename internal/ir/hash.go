package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes.
// Version suffix enables future algorithm migration.
const (
	DomainRequest = "ndcsqlite/request/v1"
	DomainSQL     = "ndcsqlite/sql/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// RequestHash computes a stable identity for a decoded query request.
// The request is given in its canonical IR form, so two requests that differ
// only in key order or whitespace hash identically. Used as the request_hash
// log attribute.
func RequestHash(request IRObject) (string, error) {
	canonical, err := MarshalCanonical(request)
	if err != nil {
		return "", fmt.Errorf("RequestHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRequest, canonical), nil
}

// StatementHash identifies a compiled statement together with its bound
// parameters.
func StatementHash(sql string, params []IRValue) (string, error) {
	canonical, err := MarshalCanonical(IRObject{
		"sql":    IRString(sql),
		"params": IRArray(params),
	})
	if err != nil {
		return "", fmt.Errorf("StatementHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSQL, canonical), nil
}

// MustRequestHash is like RequestHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustRequestHash(request IRObject) string {
	h, err := RequestHash(request)
	if err != nil {
		panic(err)
	}
	return h
}
