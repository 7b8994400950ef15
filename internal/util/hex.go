package util

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// HexToBytes converts a hex string (optionally 0x-prefixed) to bytes.
func HexToBytes(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	return hex.DecodeString(s)
}

// BytesToHex converts bytes to a 0x-prefixed hex string.
func BytesToHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

// BytesToHexNoPrefix converts bytes to hex without the 0x prefix.
func BytesToHexNoPrefix(b []byte) string {
	return hex.EncodeToString(b)
}

// MustHexToBytes converts a hex string to bytes, panicking on malformed input.
// Intended for compile-time-known constants (golden vectors in tests).
func MustHexToBytes(s string) []byte {
	b, err := HexToBytes(s)
	if err != nil {
		panic(fmt.Sprintf("invalid hex string: %s", s))
	}
	return b
}

// IsValidHex reports whether s is valid hexadecimal, ignoring an optional
// 0x prefix.
func IsValidHex(s string) bool {
	s = strings.TrimPrefix(s, "0x")
	_, err := hex.DecodeString(s)
	return err == nil
}

// Uint64ToHex converts a uint64 to a 0x-prefixed hex string.
func Uint64ToHex(n uint64) string {
	return fmt.Sprintf("0x%x", n)
}
