package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainTypeInstance = "dynir/type-instance/v1"
	DomainAttrInstance = "dynir/attr-instance/v1"
	DomainDialectDecl  = "dynir/dialect-decl/v1"
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

// InstanceKey computes the uniquing bucket for a dynamic instance of def
// with the given parameters. domain selects the type or attribute
// namespace. Strings are NFC normalised and invalid UTF-8 is replaced, so
// unequal parameter lists can share a key; callers confirm hits with
// AttrListsEqual.
func InstanceKey(domain string, def Definition, params []Attr) (string, error) {
	nodes, err := attrListNode(params)
	if err != nil {
		return "", fmt.Errorf("InstanceKey: %w", err)
	}
	canonical, err := marshalCanonical(map[string]any{
		"def":    QualifiedName(def),
		"params": nodes,
	})
	if err != nil {
		return "", fmt.Errorf("InstanceKey: failed to marshal: %w", err)
	}
	return hashWithDomain(domain, canonical), nil
}

// DeclHash computes a content hash for a canonical dialect declaration.
func DeclHash(canonical []byte) string {
	return hashWithDomain(DomainDialectDecl, canonical)
}
