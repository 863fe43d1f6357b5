package model

import (
	"fmt"
	"strings"
)

// Policy identifies one of the fixed scheduling policies.
type Policy string

const (
	PolicyFCFS               Policy = "fcfs"
	PolicySJF                Policy = "sjf"
	PolicySRTF               Policy = "srtf"
	PolicyPriority           Policy = "priority"
	PolicyPriorityPreemptive Policy = "priority-preemptive"
	PolicyRoundRobin         Policy = "rr"
	PolicyRoundRobinAging    Policy = "rr-priority-aging"
)

// AllPolicies lists every policy in the order they are reported.
var AllPolicies = []Policy{
	PolicyFCFS,
	PolicySJF,
	PolicySRTF,
	PolicyPriority,
	PolicyPriorityPreemptive,
	PolicyRoundRobin,
	PolicyRoundRobinAging,
}

var policyNames = map[Policy]string{
	PolicyFCFS:               "First Come, First Served",
	PolicySJF:                "Shortest Job First",
	PolicySRTF:               "Shortest Remaining Time First",
	PolicyPriority:           "Priority (non-preemptive)",
	PolicyPriorityPreemptive: "Priority (preemptive)",
	PolicyRoundRobin:         "Round Robin",
	PolicyRoundRobinAging:    "Round Robin with Priority and Aging",
}

var policyAliases = map[string]Policy{
	"first-come-first-served":       PolicyFCFS,
	"shortest-job-first":            PolicySJF,
	"shortest-remaining-time-first": PolicySRTF,
	"priority-non-preemptive":       PolicyPriority,
	"round-robin":                   PolicyRoundRobin,
	"round-robin-priority-aging":    PolicyRoundRobinAging,
}

// String returns the policy identifier.
func (p Policy) String() string {
	return string(p)
}

// Name returns the human-readable policy name.
func (p Policy) Name() string {
	if n, ok := policyNames[p]; ok {
		return n
	}
	return string(p)
}

// Valid reports whether p is one of the fixed policies.
func (p Policy) Valid() bool {
	_, ok := policyNames[p]
	return ok
}

// Preemptive reports whether the policy can take the CPU away from an unfinished process.
func (p Policy) Preemptive() bool {
	switch p {
	case PolicySRTF, PolicyPriorityPreemptive, PolicyRoundRobin, PolicyRoundRobinAging:
		return true
	}
	return false
}

// ParsePolicy resolves a short identifier or a long alias, case-insensitively.
func ParsePolicy(s string) (Policy, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if p := Policy(key); p.Valid() {
		return p, nil
	}
	if p, ok := policyAliases[key]; ok {
		return p, nil
	}
	return "", fmt.Errorf("unknown policy %q", s)
}

// ParsePolicies resolves a list of identifiers. An empty list selects every policy.
func ParsePolicies(names []string) ([]Policy, error) {
	if len(names) == 0 {
		return append([]Policy(nil), AllPolicies...), nil
	}
	out := make([]Policy, 0, len(names))
	seen := make(map[Policy]bool)
	for _, n := range names {
		p, err := ParsePolicy(n)
		if err != nil {
			return nil, err
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out, nil
}
