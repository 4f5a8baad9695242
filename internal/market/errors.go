package market

import "errors"

// ErrPriceUnavailable reports that a price source could not supply a price
// for a symbol (unknown symbol, empty book, transport failure). Evaluation
// must discard the whole path rather than substitute a stale or zero price.
var ErrPriceUnavailable = errors.New("price unavailable")
