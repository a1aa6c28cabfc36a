package schema

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// errMalformed builds a descriptive error for a field whose
// protowire.Consume* call returned a negative length (n), reusing
// protowire's own ParseError to describe why.
func errMalformed(field string, n int) error {
	return fmt.Errorf("schema: malformed %s: %w", field, protowire.ParseError(n))
}
