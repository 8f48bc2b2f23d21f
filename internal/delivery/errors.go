package delivery

import "codeberg.org/mutker/kitchenctl/internal/errors"

const (
	ErrConnect = errors.ErrorCode("delivery_connect_failed")
	ErrPublish = errors.ErrorCode("delivery_publish_failed")
	ErrEncode  = errors.ErrorCode("delivery_encode_failed")
)
