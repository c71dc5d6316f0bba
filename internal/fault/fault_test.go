package fault

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnreachablePanicsWithError(t *testing.T) {
	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(*Error)
		require.True(t, ok, "panic value should be *fault.Error, got %T", r)
		assert.Equal(t, "modifier", err.Kind)
		assert.Equal(t, "unreachable modifier variant: bogus", err.Error())
	}()
	Unreachable("modifier", "bogus")
}
