package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorKind groups driver errors that services turn into client errors.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindDuplicateKey
	KindValueTooLong
)

// Message fragments per supported dialect, checked in order.
var errorFragments = []struct {
	kind     ErrorKind
	fragment string
}{
	{KindDuplicateKey, "SQLSTATE 23505"},               // postgres unique_violation
	{KindDuplicateKey, "duplicate key value violates"}, // postgres message text
	{KindDuplicateKey, "Error 1062"},                   // mysql ER_DUP_ENTRY
	{KindDuplicateKey, "UNIQUE constraint failed"},     // sqlite
	{KindValueTooLong, "SQLSTATE 22001"},               // postgres string_data_right_truncation
	{KindValueTooLong, "value too long for type"},      // postgres message text
	{KindValueTooLong, "Error 1406"},                   // mysql ER_DATA_TOO_LONG
}

// Classify maps err to the kind of constraint it violated.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return KindDuplicateKey
	}
	msg := err.Error()
	for _, f := range errorFragments {
		if strings.Contains(msg, f.fragment) {
			return f.kind
		}
	}
	return KindUnknown
}

func IsDuplicateKeyErr(err error) bool {
	return Classify(err) == KindDuplicateKey
}

// IsValueTooLongErr reports a value wider than its column.
func IsValueTooLongErr(err error) bool {
	return Classify(err) == KindValueTooLong
}
