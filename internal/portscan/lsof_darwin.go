//go:build darwin

package portscan

import (
	"fmt"
	"os/exec"
)

// darwinAPI shells out to lsof and simctl.
type darwinAPI struct{}

func newPlatformAPI() platformAPI {
	return &darwinAPI{}
}

// ListeningPorts runs lsof restricted to listening TCP sockets. -nP
// skips DNS and service-name resolution so output parses fast and
// deterministically.
func (*darwinAPI) ListeningPorts() ([]Port, error) {
	out, err := exec.Command("lsof", "-nP", "-iTCP", "-sTCP:LISTEN").Output()
	if err != nil {
		// lsof exits 1 when nothing matches; treat empty output as no
		// listeners rather than a failure.
		if len(out) == 0 {
			if _, isExit := err.(*exec.ExitError); isExit {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("running lsof: %w", err)
	}
	return parseLsofOutput(string(out)), nil
}

// BootedSimulators queries simctl for booted devices.
func (*darwinAPI) BootedSimulators() ([]Simulator, error) {
	out, err := exec.Command("xcrun", "simctl", "list", "devices", "--json").Output()
	if err != nil {
		return nil, fmt.Errorf("running simctl: %w", err)
	}
	return parseSimctlJSON(out)
}
