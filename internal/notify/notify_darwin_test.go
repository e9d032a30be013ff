//go:build darwin

package notify

import "testing"

func TestPing_DisabledIsNoOp(t *testing.T) {
	// Disabled notifier must not attempt delivery or panic.
	n := NewNotifier(false, nil)
	n.Ping(`project with "quotes"`, 1234)
}

func TestEscapeAppleScript(t *testing.T) {
	escaped := escapeAppleScript(`He said "hello" and \n stuff`)
	expected := `He said \"hello\" and \\n stuff`
	if escaped != expected {
		t.Errorf("escapeAppleScript: expected %q, got %q", expected, escaped)
	}
}
