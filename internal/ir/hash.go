package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix allows the encoding to change without collisions.
const (
	DomainType        = "ilverify/type/v1"
	DomainSig         = "ilverify/sig/v1"
	DomainClass       = "ilverify/class/v1"
	DomainField       = "ilverify/field/v1"
	DomainStaticField = "ilverify/static_field/v1"
	DomainMethod      = "ilverify/method/v1"
	DomainNode        = "ilverify/node/v1"
	DomainRoot        = "ilverify/root/v1"
	DomainUnit        = "ilverify/unit/v1"
)

// Encodable is implemented by every interned entity.
type Encodable interface {
	Encode() IRObject
}

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// CanonicalKey returns the canonical bytes of an entity as a string,
// suitable as a hash-consing key. Two entities share a key iff they are
// structurally equal.
func CanonicalKey(e Encodable) (string, error) {
	b, err := MarshalCanonical(e.Encode())
	if err != nil {
		return "", fmt.Errorf("canonical key: %w", err)
	}
	return string(b), nil
}

// ContentID computes the domain-separated SHA-256 content ID of an entity.
// Handles embedded in the encoding are arena-local, so IDs are stable for a
// given construction order of a unit.
func ContentID(domain string, e Encodable) (string, error) {
	b, err := MarshalCanonical(e.Encode())
	if err != nil {
		return "", fmt.Errorf("content id: %w", err)
	}
	return hashWithDomain(domain, b), nil
}

// MustContentID is like ContentID but panics on error.
// Encodings built by this package never fail; use only for those.
func MustContentID(domain string, e Encodable) string {
	id, err := ContentID(domain, e)
	if err != nil {
		panic(err)
	}
	return id
}
