package buffer

import (
	"math"

	"github.com/andreygs/gocsp/pkg/csp"
)

// MaxCapacity bounds every serialization buffer.
const MaxCapacity = math.MaxInt32

// ResizeStrategy decides the new capacity of a growing buffer.
type ResizeStrategy interface {
	// CalculateNewSize returns a capacity of at least minimum. current must
	// be in [0, minimum].
	CalculateNewSize(current, minimum int) (int, error)
}

// Doubling grows capacity by powers of two and saturates at MaxCapacity.
type Doubling struct{}

// DefaultResizeStrategy is used when no strategy is configured.
var DefaultResizeStrategy ResizeStrategy = Doubling{}

func (Doubling) CalculateNewSize(current, minimum int) (int, error) {
	if current < 0 || current > minimum {
		return 0, csp.Errorf(csp.InvalidArgument,
			"current capacity %d must be non-negative and not bigger than minimum required size %d", current, minimum)
	}
	if minimum > MaxCapacity {
		return 0, csp.Errorf(csp.NoMemory, "required size %d exceeds maximum capacity", minimum)
	}

	size := current
	if size == 0 && minimum > 0 {
		size = 1
	}
	for size < minimum {
		if size > MaxCapacity/2 {
			return MaxCapacity, nil
		}
		size *= 2
	}
	return size, nil
}
