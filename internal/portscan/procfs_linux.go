//go:build linux

package portscan

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// linuxAPI reads the /proc filesystem. No CGO required.
type linuxAPI struct{}

func newPlatformAPI() platformAPI {
	return &linuxAPI{}
}

// ListeningPorts parses /proc/net/tcp and tcp6 for sockets in LISTEN
// state, then best-effort resolves each socket inode to the owning
// process by walking /proc/[pid]/fd.
func (*linuxAPI) ListeningPorts() ([]Port, error) {
	listeners := make(map[int]uint64)
	for _, proto := range []string{"tcp", "tcp6"} {
		data, err := os.ReadFile("/proc/net/" + proto)
		if err != nil {
			continue // no IPv6 table is fine
		}
		for port, ino := range parseProcNetListeners(string(data)) {
			if _, ok := listeners[port]; !ok {
				listeners[port] = ino
			}
		}
	}
	if len(listeners) == 0 {
		return nil, nil
	}

	owners := resolveSocketOwners(listeners)

	ports := make([]Port, 0, len(listeners))
	for port, ino := range listeners {
		p := Port{Port: port}
		if owner, ok := owners[ino]; ok {
			p.PID = owner.pid
			p.Command = owner.command
		}
		ports = append(ports, p)
	}
	sort.Slice(ports, func(i, j int) bool { return ports[i].Port < ports[j].Port })
	return ports, nil
}

// BootedSimulators has nothing to report off macOS.
func (*linuxAPI) BootedSimulators() ([]Simulator, error) {
	return nil, nil
}

type socketOwner struct {
	pid     int
	command string
}

// resolveSocketOwners maps socket inodes to processes. Only processes
// readable by the current user resolve; the rest keep pid 0.
func resolveSocketOwners(listeners map[int]uint64) map[uint64]socketOwner {
	wanted := make(map[uint64]bool, len(listeners))
	for _, ino := range listeners {
		wanted[ino] = true
	}

	owners := make(map[uint64]socketOwner)
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return owners
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(entry.Name())
		if err != nil || pid <= 0 {
			continue
		}

		fdDir := fmt.Sprintf("/proc/%d/fd", pid)
		fds, err := os.ReadDir(fdDir)
		if err != nil {
			continue
		}
		for _, fd := range fds {
			link, err := os.Readlink(filepath.Join(fdDir, fd.Name()))
			if err != nil {
				continue
			}
			if !strings.HasPrefix(link, "socket:[") || !strings.HasSuffix(link, "]") {
				continue
			}
			ino, err := strconv.ParseUint(link[len("socket:["):len(link)-1], 10, 64)
			if err != nil || !wanted[ino] {
				continue
			}
			if _, ok := owners[ino]; ok {
				continue
			}
			owners[ino] = socketOwner{pid: pid, command: readComm(pid)}
		}
	}
	return owners
}

// readComm returns the binary name from /proc/[pid]/comm.
func readComm(pid int) string {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/comm", pid))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
