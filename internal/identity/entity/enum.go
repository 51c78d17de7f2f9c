package entity

import (
	"strings"
)

// MFAMethod is the second factor a user enrolled with.
type MFAMethod int16

const (
	MFAMethodUnknown       MFAMethod = 0
	MFAMethodAuthenticator MFAMethod = 1
	MFAMethodSMS           MFAMethod = 2
	MFAMethodEmail         MFAMethod = 3
)

// MFAMethodFromString parses a method name, case-insensitively.
func MFAMethodFromString(str string) MFAMethod {
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "authenticator", "totp":
		return MFAMethodAuthenticator
	case "sms":
		return MFAMethodSMS
	case "email":
		return MFAMethodEmail
	default:
		return MFAMethodUnknown
	}
}

func (m MFAMethod) String() string {
	switch m {
	case MFAMethodAuthenticator:
		return "authenticator"
	case MFAMethodSMS:
		return "sms"
	case MFAMethodEmail:
		return "email"
	default:
		return "unknown"
	}
}

// IsOutOfBand reports whether codes for m are issued and delivered by us.
func (m MFAMethod) IsOutOfBand() bool {
	return m == MFAMethodSMS || m == MFAMethodEmail
}

// CodePurpose scopes a challenge code to the operation it authorizes.
type CodePurpose int16

const (
	CodePurposeUnknown    CodePurpose = 0
	CodePurposeLogin      CodePurpose = 1
	CodePurposeEnable2FA  CodePurpose = 2
	CodePurposeDisable2FA CodePurpose = 3
)

// CodePurposeFromString parses a purpose name, case-insensitively.
func CodePurposeFromString(str string) CodePurpose {
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "login":
		return CodePurposeLogin
	case "enable", "enable2fa":
		return CodePurposeEnable2FA
	case "disable", "disable2fa":
		return CodePurposeDisable2FA
	default:
		return CodePurposeUnknown
	}
}

func (p CodePurpose) String() string {
	switch p {
	case CodePurposeLogin:
		return "login"
	case CodePurposeEnable2FA:
		return "enable2fa"
	case CodePurposeDisable2FA:
		return "disable2fa"
	default:
		return "unknown"
	}
}

func (p CodePurpose) IsValid() bool {
	return p == CodePurposeLogin || p == CodePurposeEnable2FA || p == CodePurposeDisable2FA
}
