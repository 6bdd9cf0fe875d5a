// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package roster

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/taibuivan/roster/internal/docstore"
	"github.com/taibuivan/roster/pkg/timestamp"
)

// SignupLayout formats signup times in rows.
const SignupLayout = "Jan 2, 2006, 3:04:05 PM"

// SortKey names a sortable column.
type SortKey string

const (
	SortEmail       SortKey = "email"
	SortUID         SortKey = "uid"
	SortDisplayName SortKey = "displayName"
	SortSignupTime  SortKey = "signupTime"
	SortID          SortKey = "id"
)

// SortKeys lists every accepted [SortKey].
var SortKeys = []SortKey{SortEmail, SortUID, SortDisplayName, SortSignupTime, SortID}

// Valid reports whether k is one of [SortKeys].
func (k SortKey) Valid() bool {
	for _, key := range SortKeys {
		if k == key {
			return true
		}
	}
	return false
}

type fieldSet uint8

const (
	hasUID fieldSet = 1 << iota
	hasEmail
	hasDisplayName
)

// Account is one row of the roster, decoded from a profile document.
//
// Fields absent from the document stay absent: they compare greater than any
// present value and are rendered as blanks.
type Account struct {
	Key         string
	UID         string
	Email       string
	DisplayName string
	FirstName   string
	LastName    string
	SignupTime  timestamp.Timestamp

	present fieldSet
	index   int
}

// Has reports whether the column behind key was present in the document.
func (a Account) Has(key SortKey) bool {
	switch key {
	case SortID:
		return true
	case SortUID:
		return a.present&hasUID != 0
	case SortEmail:
		return a.present&hasEmail != 0
	case SortDisplayName:
		return a.present&hasDisplayName != 0
	case SortSignupTime:
		return a.SignupTime.Valid()
	default:
		return false
	}
}

// Initial is the avatar letter: the upper-cased first letter of the email, or "U".
func (a Account) Initial() string {
	r, size := utf8.DecodeRuneInString(a.Email)
	if size == 0 || r == utf8.RuneError {
		return "U"
	}
	return string(unicode.ToUpper(r))
}

// Name is the display name, falling back to first and last name.
func (a Account) Name() string {
	if a.DisplayName != "" {
		return a.DisplayName
	}
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// SignupLabel is the formatted signup time, or "N/A" when unknown.
func (a Account) SignupLabel() string {
	if !a.SignupTime.Valid() {
		return "N/A"
	}
	return a.SignupTime.Format(SignupLayout)
}

// decodeAccount reads the known fields of a document. index is its fetch position.
func decodeAccount(index int, document docstore.Document) Account {
	account := Account{Key: document.Key, index: index}
	fields := document.Fields

	if value, ok := fields["uid"].(string); ok {
		account.UID = value
		account.present |= hasUID
	}
	if value, ok := fields["email"].(string); ok {
		account.Email = value
		account.present |= hasEmail
	}
	account.FirstName, _ = fields["firstName"].(string)
	account.LastName, _ = fields["lastName"].(string)

	if value, ok := fields["displayName"].(string); ok {
		account.DisplayName = value
		account.present |= hasDisplayName
	} else if name := account.Name(); name != "" {
		account.DisplayName = name
		account.present |= hasDisplayName
	}

	if stamp, ok := timestamp.Parse(fields["signupTime"]); ok {
		account.SignupTime = stamp
	}

	return account
}
