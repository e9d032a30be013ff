package portscan

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// parseLsofOutput parses `lsof -nP -iTCP -sTCP:LISTEN` output. Each data
// line looks like:
//
//	node    12345 user   23u  IPv4 0x0  0t0  TCP *:3000 (LISTEN)
//
// Duplicate ports (IPv4 + IPv6 listeners) collapse to one entry.
func parseLsofOutput(out string) []Port {
	seen := make(map[int]bool)
	var ports []Port

	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 9 || fields[0] == "COMMAND" {
			continue
		}

		pid, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}

		// NAME is the second-to-last field when "(LISTEN)" trails.
		name := fields[len(fields)-1]
		if name == "(LISTEN)" {
			name = fields[len(fields)-2]
		}
		idx := strings.LastIndexByte(name, ':')
		if idx < 0 {
			continue
		}
		port, err := strconv.Atoi(name[idx+1:])
		if err != nil || port <= 0 {
			continue
		}
		if seen[port] {
			continue
		}
		seen[port] = true

		ports = append(ports, Port{Port: port, PID: pid, Command: fields[0]})
	}

	sort.Slice(ports, func(i, j int) bool { return ports[i].Port < ports[j].Port })
	return ports
}

// simctlDevice mirrors the per-device shape of `simctl list devices --json`.
type simctlDevice struct {
	Name  string `json:"name"`
	UDID  string `json:"udid"`
	State string `json:"state"`
}

// parseSimctlJSON extracts booted devices from `xcrun simctl list devices
// --json`. The runtime comes from the map key, e.g.
// "com.apple.CoreSimulator.SimRuntime.iOS-18-0" becomes "iOS-18-0".
func parseSimctlJSON(data []byte) ([]Simulator, error) {
	var doc struct {
		Devices map[string][]simctlDevice `json:"devices"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing simctl output: %w", err)
	}

	var sims []Simulator
	for runtimeKey, devices := range doc.Devices {
		runtime := runtimeKey
		if idx := strings.LastIndexByte(runtimeKey, '.'); idx >= 0 {
			runtime = runtimeKey[idx+1:]
		}
		for _, d := range devices {
			if d.State != "Booted" {
				continue
			}
			sims = append(sims, Simulator{
				Name:    d.Name,
				UDID:    d.UDID,
				State:   d.State,
				Runtime: runtime,
			})
		}
	}

	sort.Slice(sims, func(i, j int) bool { return sims[i].Name < sims[j].Name })
	return sims, nil
}

// parseHexPort extracts the port from a hex-encoded addr:port field of
// /proc/net/tcp, like "0100007F:1A0B".
func parseHexPort(addrPort string) (int, error) {
	parts := strings.SplitN(addrPort, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid addr:port %q", addrPort)
	}
	portBytes, err := hex.DecodeString(parts[1])
	if err != nil {
		return 0, err
	}
	if len(portBytes) != 2 {
		return 0, fmt.Errorf("unexpected port hex length: %d", len(portBytes))
	}
	return int(portBytes[0])<<8 | int(portBytes[1]), nil
}

// parseProcNetListeners scans /proc/net/tcp or tcp6 content and returns
// listening-socket (state 0A) port → inode pairs.
// Format: sl local_address rem_address st tx_queue:rx_queue ... inode
func parseProcNetListeners(content string) map[int]uint64 {
	listeners := make(map[int]uint64)

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if i == 0 {
			continue // header
		}
		fields := strings.Fields(line)
		if len(fields) < 10 {
			continue
		}
		if fields[3] != "0A" {
			continue
		}
		port, err := parseHexPort(fields[1])
		if err != nil || port <= 0 {
			continue
		}
		ino, err := strconv.ParseUint(fields[9], 10, 64)
		if err != nil {
			continue
		}
		if _, ok := listeners[port]; !ok {
			listeners[port] = ino
		}
	}
	return listeners
}
