// Package compose renders a docker-compose topology for the server
// fleet: one service per node plus the control plane, all on a shared
// bridge network.
package compose

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	networkName      = "server-network"
	nodeInternalPort = 8000
)

type File struct {
	Services map[string]Service `yaml:"services"`
	Networks map[string]Network `yaml:"networks"`
}

type Service struct {
	Build         string       `yaml:"build,omitempty"`
	ContainerName string       `yaml:"container_name"`
	Command       []string     `yaml:"command,omitempty"`
	Environment   []string     `yaml:"environment,omitempty"`
	Ports         []string     `yaml:"ports,omitempty"`
	Restart       string       `yaml:"restart,omitempty"`
	Deploy        *Deploy      `yaml:"deploy,omitempty"`
	Networks      []string     `yaml:"networks"`
	Healthcheck   *Healthcheck `yaml:"healthcheck,omitempty"`
	Volumes       []string     `yaml:"volumes,omitempty"`
}

type Deploy struct {
	Resources Resources `yaml:"resources"`
}

type Resources struct {
	Limits       ResourceSpec `yaml:"limits"`
	Reservations ResourceSpec `yaml:"reservations"`
}

type ResourceSpec struct {
	CPUs   string `yaml:"cpus"`
	Memory string `yaml:"memory"`
}

type Healthcheck struct {
	Test        []string `yaml:"test"`
	Interval    string   `yaml:"interval"`
	Timeout     string   `yaml:"timeout"`
	StartPeriod string   `yaml:"start_period"`
	Retries     int      `yaml:"retries"`
}

type Network struct {
	Driver string `yaml:"driver"`
}

// Generate builds the compose file for numServers nodes. Host port for
// server i is basePort + i - 1, matching the registry's bijection.
func Generate(numServers, basePort, controlPort int) File {
	f := File{
		Services: make(map[string]Service, numServers+1),
		Networks: map[string]Network{networkName: {Driver: "bridge"}},
	}

	for i := 1; i <= numServers; i++ {
		name := fmt.Sprintf("server-%d", i)
		f.Services[name] = Service{
			Build:         ".",
			ContainerName: name,
			Command:       []string{"node", "--id", fmt.Sprint(i), "--port", fmt.Sprint(nodeInternalPort)},
			Environment: []string{
				fmt.Sprintf("SERVER_ID=%s", name),
				fmt.Sprintf("SERVER_PORT=%d", nodeInternalPort),
			},
			Ports:   []string{fmt.Sprintf("%d:%d", basePort+i-1, nodeInternalPort)},
			Restart: "unless-stopped",
			Deploy: &Deploy{Resources: Resources{
				Limits:       ResourceSpec{CPUs: "0.5", Memory: "256M"},
				Reservations: ResourceSpec{CPUs: "0.1", Memory: "128M"},
			}},
			Networks: []string{networkName},
			Healthcheck: &Healthcheck{
				Test:        []string{"CMD", "wget", "-q", "-O", "-", fmt.Sprintf("http://localhost:%d/health", nodeInternalPort)},
				Interval:    "30s",
				Timeout:     "3s",
				StartPeriod: "5s",
				Retries:     3,
			},
		}
	}

	f.Services["control-plane"] = Service{
		Build:         ".",
		ContainerName: "control-plane",
		Command: []string{
			"serve",
			"--port", fmt.Sprint(controlPort),
			"--servers", fmt.Sprint(numServers),
			"--base-port", fmt.Sprint(basePort),
		},
		Ports:    []string{fmt.Sprintf("%d:%d", controlPort, controlPort)},
		Restart:  "unless-stopped",
		Networks: []string{networkName},
		Volumes:  []string{"/var/run/docker.sock:/var/run/docker.sock"},
	}
	return f
}

// Write renders the compose file to path.
func Write(path string, f File) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal compose file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
