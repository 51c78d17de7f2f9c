// Package mfacrypto protects MFA material at rest.
//
// Secrets are sealed with AES-256-GCM and bound to a Scope (user + purpose)
// through the additional authenticated data, so a ciphertext copied to
// another user or purpose fails to open. Keys come from a KeyProvider; the
// HKDF provider splits one configured master key into independent subkeys.
package mfacrypto
