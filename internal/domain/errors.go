package domain

import (
	"errors"
	"fmt"
)

// ErrMalformedInput は入力が不正でレポートを作成できないことを表す
var ErrMalformedInput = errors.New("入力が不正です")

// MalformedInputError は不正な入力項目の詳細を保持する
type MalformedInputError struct {
	Field  string
	Value  string
	Reason string
}

func (e *MalformedInputError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s: %s (%s=%q)", ErrMalformedInput, e.Reason, e.Field, e.Value)
	}
	return fmt.Sprintf("%s: %s (%s)", ErrMalformedInput, e.Reason, e.Field)
}

// Unwrap により errors.Is(err, ErrMalformedInput) が成立する
func (e *MalformedInputError) Unwrap() error {
	return ErrMalformedInput
}
