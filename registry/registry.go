// Package registry maps server ids to addresses and container names.
// The mapping is pure arithmetic over the fleet size and base port, so a
// registry needs no I/O and no locking.
package registry

import (
	"errors"
	"fmt"

	"github.com/serverfarm/farmctl/models"
)

var ErrOutOfRange = errors.New("server id out of range")

const (
	DefaultBasePort = 8001
	DefaultHost     = "localhost"
)

type Registry struct {
	size     int
	basePort int
	host     string
}

// New builds a registry for servers 1..size. Zero basePort and empty
// host fall back to the defaults.
func New(size, basePort int, host string) *Registry {
	if basePort == 0 {
		basePort = DefaultBasePort
	}
	if host == "" {
		host = DefaultHost
	}
	return &Registry{size: size, basePort: basePort, host: host}
}

func (r *Registry) Size() int { return r.size }

// AddressOf returns the address of server id. The id-to-port mapping is
// a bijection over [1, size]: port = basePort + id - 1.
func (r *Registry) AddressOf(id int) (models.NodeAddress, error) {
	if id < 1 || id > r.size {
		return models.NodeAddress{}, fmt.Errorf("server %d: %w", id, ErrOutOfRange)
	}
	return models.NodeAddress{
		ID:   id,
		Host: r.host,
		Port: r.basePort + id - 1,
	}, nil
}

// ContainerName returns the container handle for server id.
func (r *Registry) ContainerName(id int) (string, error) {
	if id < 1 || id > r.size {
		return "", fmt.Errorf("server %d: %w", id, ErrOutOfRange)
	}
	return fmt.Sprintf("server-%d", id), nil
}

// All returns the addresses of every server, ordered by id.
func (r *Registry) All() []models.NodeAddress {
	addrs := make([]models.NodeAddress, 0, r.size)
	for id := 1; id <= r.size; id++ {
		addr, _ := r.AddressOf(id)
		addrs = append(addrs, addr)
	}
	return addrs
}

// IDs returns every server id in order, for use as a dispatch target
// list.
func (r *Registry) IDs() []int {
	ids := make([]int, 0, r.size)
	for id := 1; id <= r.size; id++ {
		ids = append(ids, id)
	}
	return ids
}
