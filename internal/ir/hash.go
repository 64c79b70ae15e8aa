package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainExample = "exemplar/example/v1"
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

// typedObject renders a TypedValue the way it is published.
func typedObject(tv TypedValue) IRObject {
	return IRObject{
		"class_name": IRString(tv.TypeName),
		"value":      tv.Representable(),
	}
}

// DedupKey computes the identity of a completed invocation over the function,
// its arguments and its return value.
//
// Arguments are hashed as an ordered list, so callers must pass them in
// parameter declaration order; two captures of the same call in a different
// capture order would otherwise hash differently. Values that failed capture
// contribute their degraded placeholder.
func DedupKey(definingType, function string, args []NamedValue, ret TypedValue) (string, error) {
	argList := make(IRArray, len(args))
	for i, arg := range args {
		argList[i] = IRArray{IRString(arg.Name), typedObject(arg.TypedValue)}
	}

	obj := IRObject{
		"defining_type": IRString(definingType),
		"function":      IRString(function),
		"arguments":     argList,
		"return":        typedObject(ret),
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("DedupKey: failed to marshal: %w", err)
	}

	return hashWithDomain(DomainExample, canonical), nil
}

// RecordDedupKey computes the DedupKey of a completed record.
func RecordDedupKey(r *InvocationRecord) (string, error) {
	if r.Return == nil {
		return "", fmt.Errorf("DedupKey: record %s.%s has no return value", r.DefiningType, r.Function)
	}
	return DedupKey(r.DefiningType, r.Function, r.Arguments, *r.Return)
}

// MustDedupKey is like DedupKey but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustDedupKey(definingType, function string, args []NamedValue, ret TypedValue) string {
	key, err := DedupKey(definingType, function, args, ret)
	if err != nil {
		panic(err)
	}
	return key
}
