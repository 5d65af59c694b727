package pasetotoken

import "fmt"

type ErrInvalidToken struct {
	Err error
}

func (e ErrInvalidToken) Error() string {
	return fmt.Sprintf("invalid token: %v", e.Err)
}

func (e ErrInvalidToken) Unwrap() error { return e.Err }
