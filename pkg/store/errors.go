package store

import "errors"

// ErrInvalidKey is the panic value (wrapped) for a nil key, or for a
// lookup of an absent key without a default. Both indicate consumer
// misuse of the data layer, so they fail synchronously instead of
// returning an error value.
var ErrInvalidKey = errors.New("store: invalid key")

// ErrReadOnly is the panic value (wrapped) for any write attempted
// through a Reader.
var ErrReadOnly = errors.New("store: write through read-only reader")

// ErrTxConcluded is the panic value (wrapped) for any operation on a Tx
// after Commit has been called. It guards against code retaining a
// transaction handle past the end of its transaction.
var ErrTxConcluded = errors.New("store: transaction concluded")
