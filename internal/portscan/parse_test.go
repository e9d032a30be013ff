package portscan

import "testing"

const sampleLsof = `COMMAND   PID  USER   FD   TYPE             DEVICE SIZE/OFF NODE NAME
node    12345  dev   23u  IPv4 0xabc123           0t0  TCP *:3000 (LISTEN)
node    12345  dev   24u  IPv6 0xabc124           0t0  TCP *:3000 (LISTEN)
postgres  987  dev    7u  IPv4 0xdef456           0t0  TCP 127.0.0.1:5432 (LISTEN)
redis-ser 654  dev    6u  IPv6 0xdef457           0t0  TCP [::1]:6379 (LISTEN)
`

func TestParseLsofOutput(t *testing.T) {
	ports := parseLsofOutput(sampleLsof)
	if len(ports) != 3 {
		t.Fatalf("expected 3 ports (dual-stack deduped), got %d: %+v", len(ports), ports)
	}

	want := []Port{
		{Port: 3000, PID: 12345, Command: "node"},
		{Port: 5432, PID: 987, Command: "postgres"},
		{Port: 6379, PID: 654, Command: "redis-ser"},
	}
	for i, p := range ports {
		if p != want[i] {
			t.Errorf("port[%d] = %+v, want %+v", i, p, want[i])
		}
	}
}

func TestParseLsofOutput_Empty(t *testing.T) {
	if ports := parseLsofOutput(""); len(ports) != 0 {
		t.Errorf("expected no ports, got %+v", ports)
	}
	header := "COMMAND   PID  USER   FD   TYPE DEVICE SIZE/OFF NODE NAME\n"
	if ports := parseLsofOutput(header); len(ports) != 0 {
		t.Errorf("header-only output should yield no ports, got %+v", ports)
	}
}

const sampleSimctl = `{
  "devices": {
    "com.apple.CoreSimulator.SimRuntime.iOS-18-0": [
      {"name": "iPhone 16", "udid": "AAAA-1111", "state": "Booted"},
      {"name": "iPhone 16 Pro", "udid": "BBBB-2222", "state": "Shutdown"}
    ],
    "com.apple.CoreSimulator.SimRuntime.watchOS-11-0": [
      {"name": "Apple Watch Series 10", "udid": "CCCC-3333", "state": "Booted"}
    ]
  }
}`

func TestParseSimctlJSON(t *testing.T) {
	sims, err := parseSimctlJSON([]byte(sampleSimctl))
	if err != nil {
		t.Fatalf("parseSimctlJSON: %v", err)
	}
	if len(sims) != 2 {
		t.Fatalf("expected 2 booted sims, got %d: %+v", len(sims), sims)
	}
	if sims[0].Name != "Apple Watch Series 10" || sims[0].Runtime != "watchOS-11-0" {
		t.Errorf("sims[0] = %+v", sims[0])
	}
	if sims[1].Name != "iPhone 16" || sims[1].UDID != "AAAA-1111" || sims[1].Runtime != "iOS-18-0" {
		t.Errorf("sims[1] = %+v", sims[1])
	}
}

func TestParseSimctlJSON_Malformed(t *testing.T) {
	if _, err := parseSimctlJSON([]byte("{bad")); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestParseHexPort(t *testing.T) {
	tests := []struct {
		in   string
		port int
		ok   bool
	}{
		{"0100007F:1F90", 8080, true},
		{"00000000000000000000000001000000:0BB8", 3000, true},
		{"0100007F:0000", 0, true},
		{"noport", 0, false},
		{"0100007F:ZZZZ", 0, false},
	}
	for _, tt := range tests {
		port, err := parseHexPort(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("parseHexPort(%q) err = %v, want ok=%v", tt.in, err, tt.ok)
			continue
		}
		if err == nil && port != tt.port {
			t.Errorf("parseHexPort(%q) = %d, want %d", tt.in, port, tt.port)
		}
	}
}

const sampleProcNet = `  sl  local_address rem_address   st tx_queue rx_queue tr tm->when retrnsmt   uid  timeout inode
   0: 0100007F:1F90 00000000:0000 0A 00000000:00000000 00:00000000 00000000  1000        0 44556 1 0000000000000000 100 0 0 10 0
   1: 0100007F:C350 0100007F:1F90 01 00000000:00000000 00:00000000 00000000  1000        0 44557 1 0000000000000000 100 0 0 10 0
   2: 00000000:0BB8 00000000:0000 0A 00000000:00000000 00:00000000 00000000  1000        0 44558 1 0000000000000000 100 0 0 10 0
`

func TestParseProcNetListeners(t *testing.T) {
	listeners := parseProcNetListeners(sampleProcNet)
	if len(listeners) != 2 {
		t.Fatalf("expected 2 listeners, got %d: %v", len(listeners), listeners)
	}
	if ino := listeners[8080]; ino != 44556 {
		t.Errorf("port 8080 inode = %d, want 44556", ino)
	}
	if ino := listeners[3000]; ino != 44558 {
		t.Errorf("port 3000 inode = %d, want 44558", ino)
	}
	// The established connection (state 01) is excluded.
	if _, ok := listeners[50000]; ok {
		t.Error("non-listening socket should be excluded")
	}
}
