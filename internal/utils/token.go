package utils

import "crypto/rand"

// signupAlphabet is the character set used for signup codes. Uppercase plus
// digits keeps the codes safe to embed in a mailed URL without escaping.
const signupAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// SignupCodeLen is the fixed length of a signup code.
const SignupCodeLen = 32

// NewSignupCode returns a 32-character random alphanumeric token used to let
// a pre-provisioned attendee claim their account. Codes are generated from
// crypto/rand; the modulo bias over a 36-character alphabet is negligible for
// this purpose.
func NewSignupCode() (string, error) {
	buf := make([]byte, SignupCodeLen)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = signupAlphabet[int(b)%len(signupAlphabet)]
	}
	return string(buf), nil
}
