package safety

import (
	"regexp"
	"strings"
)

// Outcome is the result of validating a candidate shell command.
type Outcome struct {
	Allowed bool
	// Reason names the deny category that matched, or "not in allowed set"
	// when no allow pattern covered the command. Empty when allowed.
	Reason string
}

// denyRule pairs a category name with the pattern that detects it.
type denyRule struct {
	category string
	pattern  *regexp.Regexp
}

// Validator classifies shell commands as allowed or denied using ordered
// pattern rules. Deny rules are checked first and are authoritative: a
// command matching both a deny and an allow pattern is denied. The allow
// list only covers read-only inspection commands, network probes and text
// filters; anything else is denied by default.
//
// Validate is a pure function of the command string. It never executes
// anything.
type Validator struct {
	denyRules  []denyRule
	allowRules []*regexp.Regexp
}

// NewValidator creates a validator with the built-in policy.
func NewValidator() *Validator {
	v := &Validator{}

	// Ordered deny rules. First match wins and names the category.
	denyRuleStrs := []struct {
		category string
		pattern  string
	}{
		{"destructive delete", `\brm\s+(-[a-zA-Z]*[rf][a-zA-Z]*\s+)`},
		{"destructive delete", `\brm\s+.*(/|\*)`},
		{"destructive delete", `\b(rmdir|shred)\b`},
		{"filesystem format", `\b(mkfs|fdisk|parted|format)\b`},
		{"privilege escalation", `\b(sudo|su|doas)\b`},
		{"privilege escalation", `\b(chmod|chown)\s+.*(/etc|/usr|/var|/bin|/sbin|\s/\s*$)`},
		{"raw device write", `\bdd\b.*\bof=`},
		{"raw device write", `>\s*/dev/(sd|hd|nvme|null\s*;)`},
		{"system configuration write", `>>?\s*/etc/`},
		{"system configuration write", `\btee\s+(-a\s+)?/etc/`},
		{"system configuration write", `\b(useradd|userdel|groupadd|groupdel|passwd)\b`},
		{"network listener", `\bnc\b.*\s-l`},
		{"network listener", `\bnetcat\b.*\s-l`},
		{"network listener", `\bpython3?\s+-m\s+http\.server\b`},
		{"fork bomb", `:\(\)\s*\{\s*:\|:`},
		{"host power control", `\b(shutdown|reboot|halt|poweroff|init\s+0)\b`},
		{"kernel interface write", `>>?\s*/(proc|sys)/`},
	}

	for _, r := range denyRuleStrs {
		v.denyRules = append(v.denyRules, denyRule{
			category: r.category,
			pattern:  regexp.MustCompile(r.pattern),
		})
	}

	// Ordered allow rules: read-only inspection commands, DNS/network
	// probes, and text filters. Patterns anchor on the first word so
	// "ls -la /tmp" matches but "als" does not.
	allowRuleStrs := []string{
		// Filesystem and file inspection
		`^ls(\s|$)`, `^pwd(\s|$)`, `^cat\s`, `^head(\s|$)`, `^tail(\s|$)`,
		`^file\s`, `^stat\s`, `^wc(\s|$)`, `^du(\s|$)`, `^df(\s|$)`,
		`^find\s`, `^tree(\s|$)`,
		// System information
		`^date(\s|$)`, `^uptime(\s|$)`, `^whoami(\s|$)`, `^hostname(\s|$)`,
		`^uname(\s|$)`, `^id(\s|$)`, `^env(\s|$)`, `^printenv(\s|$)`,
		`^ps(\s|$)`, `^which\s`, `^echo\s`,
		// DNS and network probes
		`^ping\s`, `^dig\s`, `^nslookup\s`, `^host\s`, `^traceroute\s`,
		// Text filters
		`^grep\s`, `^awk\s`, `^sort(\s|$)`, `^uniq(\s|$)`, `^cut\s`,
		`^tr\s`, `^diff\s`, `^jq\s`,
	}

	for _, p := range allowRuleStrs {
		v.allowRules = append(v.allowRules, regexp.MustCompile(p))
	}

	return v
}

// Validate classifies a command. Deny rules run first and cannot be
// overridden by the allow list.
func (v *Validator) Validate(command string) Outcome {
	cmd := strings.TrimSpace(command)
	if cmd == "" {
		return Outcome{Allowed: false, Reason: "empty command"}
	}

	for _, rule := range v.denyRules {
		if rule.pattern.MatchString(cmd) {
			return Outcome{Allowed: false, Reason: "blocked: " + rule.category}
		}
	}

	for _, rule := range v.allowRules {
		if rule.MatchString(cmd) {
			return Outcome{Allowed: true}
		}
	}

	return Outcome{Allowed: false, Reason: "not in allowed set"}
}
