package errs

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFatalIsDetectedThroughWrapping(t *testing.T) {
	err := fmt.Errorf("rendering README.md: %w", Fatalf(2, "exit %s while %s is open", "List", "Item"))

	assert.True(t, IsFatal(err))
	assert.Contains(t, err.Error(), "exit List while Item is open")
	assert.Contains(t, err.Error(), "depth 2")
}

func TestOutputClosedIsNotFatal(t *testing.T) {
	assert.False(t, IsFatal(fmt.Errorf("write: %w", ErrOutputClosed)))
}
