package safety

import (
	"strings"
	"testing"
)

func TestValidateDenyPatterns(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name     string
		command  string
		category string
	}{
		{"recursive delete", "rm -rf /tmp", "destructive delete"},
		{"recursive delete flags merged", "rm -fr ./build", "destructive delete"},
		{"delete with glob", "rm important/*", "destructive delete"},
		{"shred", "shred /var/log/syslog", "destructive delete"},
		{"mkfs", "mkfs.ext4 /dev/sdb1", "filesystem format"},
		{"sudo", "sudo cat /etc/shadow", "privilege escalation"},
		{"dd to device", "dd if=/dev/zero of=/dev/sda", "raw device write"},
		{"redirect into etc", "echo 0 > /etc/hosts", "system configuration write"},
		{"tee into etc", "tee /etc/passwd", "system configuration write"},
		{"netcat listener", "nc -lvp 4444", "network listener"},
		{"python http server", "python3 -m http.server 8000", "network listener"},
		{"fork bomb", ":(){ :|:& };:", "fork bomb"},
		{"shutdown", "shutdown -h now", "host power control"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := v.Validate(tt.command)
			if got.Allowed {
				t.Fatalf("Validate(%q) allowed, want denied", tt.command)
			}
			if !strings.Contains(got.Reason, tt.category) {
				t.Errorf("Validate(%q) reason = %q, want category %q", tt.command, got.Reason, tt.category)
			}
		})
	}
}

func TestValidateAllowPatterns(t *testing.T) {
	v := NewValidator()

	commands := []string{
		"date",
		"ls -la /tmp",
		"cat README.md",
		"head -n 20 main.go",
		"pwd",
		"whoami",
		"uptime",
		"df -h",
		"ps aux",
		"ping -c 1 example.com",
		"dig example.com",
		"nslookup example.com",
		"grep -r TODO .",
		"sort names.txt",
		"wc -l access.log",
		"echo hello",
	}

	for _, cmd := range commands {
		if got := v.Validate(cmd); !got.Allowed {
			t.Errorf("Validate(%q) denied (%s), want allowed", cmd, got.Reason)
		}
	}
}

// Deny rules are authoritative: a command starting with an allow-listed word
// is still blocked when a deny pattern matches anywhere in it.
func TestValidateDenyOverridesAllow(t *testing.T) {
	v := NewValidator()

	tests := []string{
		"echo pwned > /etc/motd",
		"cat secrets.txt && rm -rf /",
		"find / -name '*.log' | sudo tee /etc/targets",
	}

	for _, cmd := range tests {
		got := v.Validate(cmd)
		if got.Allowed {
			t.Errorf("Validate(%q) allowed, want denied", cmd)
		}
		if got.Reason == "not in allowed set" {
			t.Errorf("Validate(%q) fell through to default deny, want deny category", cmd)
		}
	}
}

func TestValidateDefaultDeny(t *testing.T) {
	v := NewValidator()

	tests := []string{
		"make install",
		"cargo build",
		"vim /tmp/notes.txt",
		"curl https://example.com",
		"unknowncommand --flag",
	}

	for _, cmd := range tests {
		got := v.Validate(cmd)
		if got.Allowed {
			t.Fatalf("Validate(%q) allowed, want denied", cmd)
		}
		if got.Reason != "not in allowed set" {
			t.Errorf("Validate(%q) reason = %q, want %q", cmd, got.Reason, "not in allowed set")
		}
	}
}

func TestValidateEmptyCommand(t *testing.T) {
	v := NewValidator()

	for _, cmd := range []string{"", "   ", "\t\n"} {
		if got := v.Validate(cmd); got.Allowed {
			t.Errorf("Validate(%q) allowed, want denied", cmd)
		}
	}
}

func TestValidateIsPure(t *testing.T) {
	v := NewValidator()

	first := v.Validate("rm -rf /tmp")
	for i := 0; i < 10; i++ {
		if got := v.Validate("rm -rf /tmp"); got != first {
			t.Fatalf("Validate not deterministic: %+v vs %+v", got, first)
		}
	}
}
