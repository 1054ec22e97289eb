package trace

import "errors"

var ErrUnknownStore = errors.New("unknown trace store")
