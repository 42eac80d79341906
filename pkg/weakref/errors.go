package weakref

import "errors"

// ErrUnhashable is wrapped by the panic raised when a value that is neither
// comparable nor weakly referenceable is resolved or looked up.
//
// This is a programming error, like using a slice as a map key.
var ErrUnhashable = errors.New("weakref: unhashable value")
