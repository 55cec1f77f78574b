package runtime

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/serverfarm/farmctl/models"
)

// microseconds per clock tick at the kernel's USER_HZ of 100, used to
// bring /proc/stat jiffies onto the same scale as cgroup usage_usec.
const usecPerJiffy = 10000

// runner executes one docker invocation and returns its combined
// output. Split out so tests can substitute a fake docker.
type runner func(ctx context.Context, args ...string) ([]byte, error)

func execDocker(ctx context.Context, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, "docker", args...).CombinedOutput()
}

// DockerCLI drives Docker through the docker binary, and reads
// cumulative CPU/memory counters straight from the cgroup filesystem.
type DockerCLI struct {
	run        runner
	cgroupRoot string
	procStat   string
}

func NewDockerCLI() *DockerCLI {
	return &DockerCLI{
		run:        execDocker,
		cgroupRoot: "/sys/fs/cgroup",
		procStat:   "/proc/stat",
	}
}

// Available reports whether the Docker daemon answers at all.
func (d *DockerCLI) Available(ctx context.Context) bool {
	_, err := d.run(ctx, "version", "--format", "{{.Server.Version}}")
	return err == nil
}

// Inspect returns the container's status and one snapshot of its
// cumulative counters. Counters that cannot be read (container stopped,
// cgroup path gone) stay zero; the sampler's delta math reads a zero
// snapshot as 0%.
func (d *DockerCLI) Inspect(ctx context.Context, name string) (models.ContainerStats, error) {
	out, err := d.run(ctx, "inspect", "-f", "{{.State.Status}} {{.Id}}", name)
	if err != nil {
		return models.ContainerStats{}, d.classify(name, out, err)
	}

	fields := strings.Fields(strings.TrimSpace(string(out)))
	if len(fields) < 2 {
		return models.ContainerStats{}, fmt.Errorf("inspect %s: unexpected output %q", name, strings.TrimSpace(string(out)))
	}
	stats := models.ContainerStats{Status: fields[0]}
	d.readCounters(fields[1], &stats)
	return stats, nil
}

func (d *DockerCLI) Start(ctx context.Context, name string) error {
	return d.lifecycle(ctx, models.ActionStart, name)
}

func (d *DockerCLI) Stop(ctx context.Context, name string) error {
	return d.lifecycle(ctx, models.ActionStop, name)
}

func (d *DockerCLI) Restart(ctx context.Context, name string) error {
	return d.lifecycle(ctx, models.ActionRestart, name)
}

func (d *DockerCLI) lifecycle(ctx context.Context, verb, name string) error {
	out, err := d.run(ctx, verb, name)
	if err != nil {
		return d.classify(name, out, err)
	}
	return nil
}

func (d *DockerCLI) classify(name string, out []byte, err error) error {
	msg := strings.ToLower(string(out))
	switch {
	case strings.Contains(msg, "no such container"), strings.Contains(msg, "no such object"):
		return fmt.Errorf("%s: %w", name, ErrNotFound)
	case strings.Contains(msg, "cannot connect to the docker daemon"):
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	default:
		return fmt.Errorf("docker %s: %v: %s", name, err, strings.TrimSpace(string(out)))
	}
}

// readCounters fills in the cumulative CPU and memory counters for the
// container with the given full id. Docker places cgroups either under
// a systemd scope or a plain docker hierarchy depending on the host.
func (d *DockerCLI) readCounters(id string, stats *models.ContainerStats) {
	candidates := []string{
		d.cgroupRoot + "/system.slice/docker-" + id + ".scope",
		d.cgroupRoot + "/docker/" + id,
	}
	for _, dir := range candidates {
		usage, ok := readCPUStatUsage(dir + "/cpu.stat")
		if !ok {
			continue
		}
		stats.CPUUsageTotal = usage
		stats.MemoryUsed = readUintFile(dir + "/memory.current")
		stats.MemoryLimit = readUintFile(dir + "/memory.max")
		break
	}
	stats.SystemCPUTotal = readSystemCPUTotal(d.procStat)
}

func readCPUStatUsage(path string) (uint64, bool) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	for _, line := range strings.Split(string(raw), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 2 && fields[0] == "usage_usec" {
			v, err := strconv.ParseUint(fields[1], 10, 64)
			if err != nil {
				return 0, false
			}
			return v, true
		}
	}
	return 0, false
}

// readUintFile parses a single-value cgroup file. The literal "max"
// (unlimited) reads as 0, which the sampler treats as "no limit known".
func readUintFile(path string) uint64 {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	v, err := strconv.ParseUint(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// readSystemCPUTotal sums the aggregate cpu line of /proc/stat and
// scales it to microseconds so it shares units with usage_usec.
func readSystemCPUTotal(path string) uint64 {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	for _, line := range strings.Split(string(raw), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[0] != "cpu" {
			continue
		}
		var total uint64
		for _, f := range fields[1:] {
			v, err := strconv.ParseUint(f, 10, 64)
			if err != nil {
				continue
			}
			total += v
		}
		return total * usecPerJiffy
	}
	return 0
}
