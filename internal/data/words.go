package data

import "strings"

// wordHexLen is the width of one ABI word (32 bytes) in hex digits.
const wordHexLen = 64

// addressHexLen is the width of an EVM address in hex digits.
const addressHexLen = 40

// StripPrefix drops a leading "0x" or "0X" if present.
func StripPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

// PadToWord right-aligns hex digits into a single 32-byte word,
// zero-padding on the left. Inputs longer than a word keep only the
// last 64 digits, matching Solidity ABI word truncation.
func PadToWord(hexDigits string) string {
	if len(hexDigits) > wordHexLen {
		return hexDigits[len(hexDigits)-wordHexLen:]
	}
	return strings.Repeat("0", wordHexLen-len(hexDigits)) + hexDigits
}

// EncodeAddress ABI-encodes an address as one right-aligned word.
// Malformed addresses are tolerated: fewer than 40 digits are
// right-justified and zero-padded, more than 40 keep the last 40.
func EncodeAddress(addr string) string {
	a := StripPrefix(addr)
	if len(a) > addressHexLen {
		a = a[len(a)-addressHexLen:]
	} else if len(a) < addressHexLen {
		a = strings.Repeat("0", addressHexLen-len(a)) + a
	}
	return PadToWord(a)
}
