package blockchain

import (
	"bytes"
	"net/url"
)

// StripMetadata removes the CBOR metadata solc appends to runtime bytecode.
// The last two bytes hold the big-endian length of the CBOR map before them.
func StripMetadata(code []byte) []byte {
	if len(code) < 2 {
		return code
	}
	cborLen := int(code[len(code)-2])<<8 | int(code[len(code)-1])
	start := len(code) - 2 - cborLen
	if cborLen == 0 || start < 0 {
		return code
	}
	// Metadata is a CBOR map of one to five entries
	if header := code[start]; header < 0xa1 || header > 0xa5 {
		return code
	}
	return code[:start]
}

// SameRuntimeCode compares on-chain code with the artifact's deployed bytecode,
// ignoring metadata
func SameRuntimeCode(onChain, expected []byte) bool {
	return bytes.Equal(StripMetadata(onChain), StripMetadata(expected))
}

// redactURL drops the path and query of an RPC URL, which often carry API keys
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "<invalid url>"
	}
	return u.Scheme + "://" + u.Host
}
