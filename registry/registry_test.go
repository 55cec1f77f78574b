package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressOfIsABijection(t *testing.T) {
	reg := New(50, 8001, "localhost")

	seen := make(map[int]bool)
	for id := 1; id <= 50; id++ {
		addr, err := reg.AddressOf(id)
		require.NoError(t, err)
		assert.Equal(t, id, addr.ID)
		assert.Equal(t, 8001+id-1, addr.Port)
		assert.False(t, seen[addr.Port], "port %d assigned twice", addr.Port)
		seen[addr.Port] = true
	}
	assert.Len(t, seen, 50)
}

func TestAddressOfOutOfRange(t *testing.T) {
	reg := New(10, 8001, "localhost")

	for _, id := range []int{0, -1, 11, 1000} {
		_, err := reg.AddressOf(id)
		assert.ErrorIs(t, err, ErrOutOfRange, "id %d", id)
		_, err = reg.ContainerName(id)
		assert.ErrorIs(t, err, ErrOutOfRange, "id %d", id)
	}
}

func TestContainerName(t *testing.T) {
	reg := New(5, 8001, "localhost")

	name, err := reg.ContainerName(3)
	require.NoError(t, err)
	assert.Equal(t, "server-3", name)
}

func TestDefaults(t *testing.T) {
	reg := New(3, 0, "")

	addr, err := reg.AddressOf(1)
	require.NoError(t, err)
	assert.Equal(t, DefaultBasePort, addr.Port)
	assert.Equal(t, DefaultHost, addr.Host)
	assert.Equal(t, "http://localhost:8001", addr.URL())
}

func TestAllAndIDsAreOrdered(t *testing.T) {
	reg := New(4, 9000, "farm.local")

	addrs := reg.All()
	require.Len(t, addrs, 4)
	for i, addr := range addrs {
		assert.Equal(t, i+1, addr.ID)
		assert.Equal(t, 9000+i, addr.Port)
	}

	assert.Equal(t, []int{1, 2, 3, 4}, reg.IDs())
}
