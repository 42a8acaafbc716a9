package mqbvh

import "fmt"

const maxRecursionDepth = 64

// ErrTooDeep is returned when the top-level tree recurses past
// maxRecursionDepth; deeper recursion is treated as a fatal build error.
var ErrTooDeep = fmt.Errorf("mqbvh: recursion exceeded %d levels", maxRecursionDepth)
