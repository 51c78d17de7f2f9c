// Package hash provides keyed digests for values that must be compared but
// never stored in clear, such as issued verification codes.
package hash
