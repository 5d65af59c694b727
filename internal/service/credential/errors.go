package credential

import "errors"

var (
	ErrNotLinked = errors.New("no calendar linked for user")
	ErrBadFeed   = errors.New("calendar feed URL is not valid")
)
