package otp

// base32Values maps an RFC 4648 alphabet byte to its 5-bit value, -1 otherwise.
var base32Values = func() [256]int8 {
	var table [256]int8
	for i := range table {
		table[i] = -1
	}
	for i, c := range "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567" {
		table[c] = int8(i)
		if c >= 'A' && c <= 'Z' {
			table[c+('a'-'A')] = int8(i)
		}
	}
	return table
}()

// DecodeBase32 decodes an RFC 4648 Base32 string into raw key bytes.
//
// Decoding is case-insensitive and lenient: characters outside the alphabet
// (padding, whitespace, separators) are skipped instead of rejected. Trailing
// bits that do not complete a byte are dropped.
func DecodeBase32(encoded string) []byte {
	out := make([]byte, 0, len(encoded)*5/8)

	var buffer uint32
	var bits uint
	for i := 0; i < len(encoded); i++ {
		v := base32Values[encoded[i]]
		if v < 0 {
			continue
		}

		buffer = buffer<<5 | uint32(v)
		bits += 5
		if bits >= 8 {
			bits -= 8
			out = append(out, byte(buffer>>bits))
			buffer &= 1<<bits - 1
		}
	}

	return out
}
