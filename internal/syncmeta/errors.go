package syncmeta

import "errors"

var (
	ErrOwnerAlreadyClaimed = errors.New("record already claimed by another owner")
	ErrEmptyOwner          = errors.New("owner id is empty")
)
