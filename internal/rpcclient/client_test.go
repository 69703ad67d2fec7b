package rpcclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactory_StartsEmptyAndDialRejectsInvalidURL(t *testing.T) {
	f := NewFactory()
	assert.Empty(t, f.clients)

	_, err := Dial("") // invalid URL exercises the dial-error path directly
	require.Error(t, err)
}
