package server

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Self-observation for the node instance: two-point CPU busy delta from
// /proc/stat and a memory snapshot from /proc/meminfo. On hosts without
// procfs everything reads as zero, which keeps the node healthy.

func selfCPUPercent(interval time.Duration) float64 {
	busy1, total1, ok := readProcStat()
	if !ok {
		return 0
	}
	time.Sleep(interval)
	busy2, total2, ok := readProcStat()
	if !ok {
		return 0
	}

	totalDelta := total2 - total1
	if totalDelta <= 0 {
		return 0
	}
	pct := float64(busy2-busy1) / float64(totalDelta) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

func readProcStat() (busy, total int64, ok bool) {
	raw, err := os.ReadFile("/proc/stat")
	if err != nil {
		return 0, 0, false
	}
	for _, line := range strings.Split(string(raw), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 5 || fields[0] != "cpu" {
			continue
		}
		var values []int64
		for _, f := range fields[1:] {
			v, err := strconv.ParseInt(f, 10, 64)
			if err != nil {
				break
			}
			values = append(values, v)
		}
		if len(values) < 4 {
			return 0, 0, false
		}
		for _, v := range values {
			total += v
		}
		// fields 4 and 5 after "cpu" are idle and iowait
		idle := values[3]
		if len(values) > 4 {
			idle += values[4]
		}
		return total - idle, total, true
	}
	return 0, 0, false
}

func selfMemory() (totalMB, availableMB, usedMB, percent float64) {
	raw, err := os.ReadFile("/proc/meminfo")
	if err != nil {
		return 0, 0, 0, 0
	}

	var totalKB, availableKB float64
	for _, line := range strings.Split(string(raw), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			continue
		}
		switch fields[0] {
		case "MemTotal:":
			totalKB = v
		case "MemAvailable:":
			availableKB = v
		}
	}
	if totalKB == 0 {
		return 0, 0, 0, 0
	}

	totalMB = totalKB / 1024
	availableMB = availableKB / 1024
	usedMB = totalMB - availableMB
	percent = usedMB / totalMB * 100
	return totalMB, availableMB, usedMB, percent
}
