package chains

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookup(t *testing.T) {
	spec, ok := Lookup(Base)
	assert.True(t, ok)
	assert.Equal(t, "eip155:8453", spec.CAIP2)
	assert.Equal(t, "BASE_RPC_URL", spec.RPCEnvVar)

	_, ok = Lookup(42161)
	assert.False(t, ok)
}

func TestIsNative(t *testing.T) {
	assert.True(t, IsNative(ZeroAddress))
}

func TestAll(t *testing.T) {
	assert.ElementsMatch(t, []uint64{1, 10, 8453, 130}, All())
}
