package errors

import "fmt"

var (
	ErrNotFound                  = fmt.Errorf("document not found")
	ErrInsufficientCoins         = fmt.Errorf("insufficient coins")
	ErrInsufficientDiamonds      = fmt.Errorf("insufficient diamonds")
	ErrInsufficientAgencyBalance = fmt.Errorf("insufficient agency balance")
	ErrNoRecipients              = fmt.Errorf("no recipients selected")
	ErrBagAlreadyClaimed         = fmt.Errorf("bag already claimed by this user")
	ErrBagEmpty                  = fmt.Errorf("bag has no coins left")
	ErrNotOnSeat                 = fmt.Errorf("user is not on a seat")
	ErrSeatOutOfRange            = fmt.Errorf("seat index out of range")
	ErrEmptyMessage              = fmt.Errorf("empty message")
)
