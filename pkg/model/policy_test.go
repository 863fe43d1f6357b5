package model

import "testing"

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		input   string
		want    Policy
		wantErr bool
	}{
		{"fcfs", PolicyFCFS, false},
		{"FCFS", PolicyFCFS, false},
		{"first-come-first-served", PolicyFCFS, false},
		{"shortest-job-first", PolicySJF, false},
		{"srtf", PolicySRTF, false},
		{"priority-non-preemptive", PolicyPriority, false},
		{"priority-preemptive", PolicyPriorityPreemptive, false},
		{" round-robin ", PolicyRoundRobin, false},
		{"round-robin-priority-aging", PolicyRoundRobinAging, false},
		{"lottery", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParsePolicy(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePolicy(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePolicy(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestParsePolicies(t *testing.T) {
	all, err := ParsePolicies(nil)
	if err != nil {
		t.Fatalf("ParsePolicies(nil): %v", err)
	}
	if len(all) != 7 {
		t.Errorf("len = %d, want 7", len(all))
	}

	got, err := ParsePolicies([]string{"rr", "round-robin", "sjf"})
	if err != nil {
		t.Fatalf("ParsePolicies: %v", err)
	}
	if len(got) != 2 || got[0] != PolicyRoundRobin || got[1] != PolicySJF {
		t.Errorf("got %v, want [rr sjf]", got)
	}

	if _, err := ParsePolicies([]string{"fcfs", "nope"}); err == nil {
		t.Error("expected error for unknown policy")
	}
}

func TestPolicy_Preemptive(t *testing.T) {
	for _, p := range []Policy{PolicyFCFS, PolicySJF, PolicyPriority} {
		if p.Preemptive() {
			t.Errorf("%s should not be preemptive", p)
		}
	}
	for _, p := range []Policy{PolicySRTF, PolicyPriorityPreemptive, PolicyRoundRobin, PolicyRoundRobinAging} {
		if !p.Preemptive() {
			t.Errorf("%s should be preemptive", p)
		}
	}
	if PolicyRoundRobinAging.Name() != "Round Robin with Priority and Aging" {
		t.Errorf("Name() = %q", PolicyRoundRobinAging.Name())
	}
}
