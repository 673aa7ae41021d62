// File: wire/errors.go
// Author: momentics <momentics@gmail.com>
//
// Small helper for the "got N bytes, wanted M" message shared by every
// fixed-length decoder in this package.

package wire

import "fmt"

// ProtoLengthError formats the canonical wrong-length message used by every
// decoder in this package.
func ProtoLengthError(got, want int) error {
	return fmt.Errorf("expected %d bytes, got %d", want, got)
}
