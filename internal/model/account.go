package model

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

// accountHashSalt is appended when deriving the account hash. It is part of
// the wire contract: two processes must derive identical hashes for the same
// credentials, so it cannot change without breaking existing accounts.
const accountHashSalt = "Mr.Weicao"

// AccountID is a normalized player identifier: lowercase ASCII letters,
// digits and underscores only.
type AccountID string

// Account is the identity a controller presents to a game. Two accounts are
// the same player exactly when the structs are equal.
type Account struct {
	ID   AccountID `json:"id"`
	Hash string    `json:"hash"`
}

// NewAccount builds an account from a raw id and password. The id is
// normalized with NormalizeID and the hash is derived from the normalized
// id, the password and a fixed salt.
func NewAccount(id, password string) Account {
	normalized := NormalizeID(id)
	return Account{
		ID:   normalized,
		Hash: accountHash(normalized, password),
	}
}

// Check reports whether the given password derives this account's hash.
func (a Account) Check(password string) bool {
	return accountHash(a.ID, password) == a.Hash
}

func (a Account) String() string {
	return string(a.ID)
}

// IsZero reports whether the account carries no identity.
func (a Account) IsZero() bool {
	return a.ID == "" && a.Hash == ""
}

func accountHash(id AccountID, password string) string {
	h := sha1.Sum([]byte(string(id) + password + accountHashSalt))
	return hex.EncodeToString(h[:])
}

// NormalizeID canonicalizes a raw account id: trimmed and lowercased,
// separator punctuation ('-', '.', ',', ' ') becomes '_', newlines and
// literal underscores in the input are dropped, and anything left that is
// not ASCII alphanumeric or '_' is removed.
func NormalizeID(raw string) AccountID {
	lowered := strings.ToLower(strings.TrimSpace(raw))

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		switch r {
		case '\n', '_':
			continue
		case '-', '.', ',', ' ':
			b.WriteByte('_')
		default:
			if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
				b.WriteRune(r)
			}
		}
	}
	return AccountID(b.String())
}
