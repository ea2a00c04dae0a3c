package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainQuery  = "modelq/query/v1"
	DomainResult = "modelq/result/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// QueryID computes the content-addressed ID of a query log record.
// specJSON must already be canonical; it is embedded verbatim as a string.
func QueryID(sessionID, typeName, specJSON string, seq int64) (string, error) {
	obj := map[string]any{
		"session_id": sessionID,
		"type_name":  typeName,
		"spec":       specJSON,
		"seq":        seq,
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("QueryID: failed to marshal: %w", err)
	}

	return hashWithDomain(DomainQuery, canonical), nil
}

// ResultHash fingerprints an ordered query result. Two results hash equal
// only if they contain equal node documents in the same order.
func ResultHash(nodes []*Node) (string, error) {
	docs := make([]any, len(nodes))
	for i, n := range nodes {
		docs[i] = NodeDocument(n)
	}

	canonical, err := MarshalCanonical(docs)
	if err != nil {
		return "", fmt.Errorf("ResultHash: failed to marshal: %w", err)
	}

	return hashWithDomain(DomainResult, canonical), nil
}

// MustQueryID is like QueryID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustQueryID(sessionID, typeName, specJSON string, seq int64) string {
	id, err := QueryID(sessionID, typeName, specJSON, seq)
	if err != nil {
		panic(err)
	}
	return id
}
