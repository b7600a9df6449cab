package network

import (
	"errors"
	"testing"

	"arpdeploy/internal/plan"
)

func TestLookup(t *testing.T) {
	r := NewRouter()

	tests := []struct {
		name      string
		network   string
		wantSteps []string
		wantErr   error
	}{
		{
			name:      "development deploys token then holdings",
			network:   "development",
			wantSteps: []string{"ARPToken", "ARPTeamHolding", "ARPMidTermHolding", "ARPLongTermHolding"},
		},
		{
			name:      "live deploys team holding only",
			network:   "live",
			wantSteps: []string{"ARPTeamHolding"},
		},
		{
			name:    "unknown network",
			network: "ropsten",
			wantErr: ErrUnknownNetwork,
		},
		{
			name:    "match is case sensitive",
			network: "Development",
			wantErr: ErrUnknownNetwork,
		},
		{
			name:    "empty identifier",
			network: "",
			wantErr: ErrUnknownNetwork,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := r.Lookup(tt.network)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Lookup(%q) err = %v, want %v", tt.network, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Lookup(%q) err = %v, want nil", tt.network, err)
			}

			got := plan.IDs(p.Steps)
			if len(got) != len(tt.wantSteps) {
				t.Fatalf("Lookup(%q) steps = %v, want %v", tt.network, got, tt.wantSteps)
			}
			for i := range got {
				if got[i] != tt.wantSteps[i] {
					t.Errorf("step %d = %q, want %q", i, got[i], tt.wantSteps[i])
				}
			}
		})
	}
}

func TestBuiltinProfilesValidate(t *testing.T) {
	r := NewRouter()
	for _, name := range r.Names() {
		p, err := r.Lookup(name)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", name, err)
		}
		if err := p.Validate(); err != nil {
			t.Errorf("profile %q invalid: %v", name, err)
		}
	}
}

func TestDevelopmentTeamHoldingArgs(t *testing.T) {
	p, err := NewRouter().Lookup(Development)
	if err != nil {
		t.Fatal(err)
	}

	want := []plan.Arg{plan.Ref("ARPToken"), plan.Account(0), plan.Time(-63071700)}
	got := p.Steps[1].Args
	if len(got) != len(want) {
		t.Fatalf("args = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("arg %d = %v, want %v", i, got[i], want[i])
		}
	}

	if !p.AllowDevKeys {
		t.Error("development should allow dev keys")
	}
}

func TestLiveProfileValues(t *testing.T) {
	p, err := NewRouter().Lookup(Live)
	if err != nil {
		t.Fatal(err)
	}

	if p.Values["start_time"] != "1525132800" {
		t.Errorf("start_time = %q", p.Values["start_time"])
	}
	if p.Values["token"] != LiveToken || p.Values["beneficiary"] != LiveBeneficiary {
		t.Errorf("values = %v", p.Values)
	}
	if p.AllowDevKeys {
		t.Error("live must not allow dev keys")
	}
}

func TestNames(t *testing.T) {
	got := NewRouter().Names()
	if len(got) != 2 || got[0] != Development || got[1] != Live {
		t.Errorf("Names() = %v", got)
	}
}

func TestMerge(t *testing.T) {
	r := NewRouter()
	r.Merge(&plan.File{Networks: map[string]plan.Definition{
		"live": {
			Values: map[string]string{"start_time": "1530403200"},
			Steps: []plan.Step{{ID: "ARPTeamHolding", Args: []plan.Arg{
				plan.Config("token"), plan.Config("beneficiary"), plan.Config("start_time"),
			}}},
		},
		"staging": {
			Steps: []plan.Step{{ID: "ARPRegistry"}, {ID: "ARPBank", Args: []plan.Arg{plan.Ref("ARPRegistry")}}},
		},
	}})

	live, err := r.Lookup(Live)
	if err != nil {
		t.Fatal(err)
	}
	if live.Values["start_time"] != "1530403200" {
		t.Errorf("start_time not overridden: %v", live.Values)
	}
	if live.Values["token"] != LiveToken {
		t.Errorf("token should be kept from built-in profile: %v", live.Values)
	}

	staging, err := r.Lookup("staging")
	if err != nil {
		t.Fatalf("staging not registered: %v", err)
	}
	if err := staging.Validate(); err != nil {
		t.Errorf("staging invalid: %v", err)
	}

	names := r.Names()
	if len(names) != 3 || names[2] != "staging" {
		t.Errorf("Names() = %v", names)
	}
}

func TestSetValues(t *testing.T) {
	r := NewRouter()

	if err := r.SetValues(Live, map[string]string{"beneficiary": "0x0000000000000000000000000000000000000002"}); err != nil {
		t.Fatal(err)
	}
	p, _ := r.Lookup(Live)
	if p.Values["beneficiary"] != "0x0000000000000000000000000000000000000002" {
		t.Errorf("beneficiary = %q", p.Values["beneficiary"])
	}

	// The built-in profile map must not be shared with the override.
	fresh, _ := NewRouter().Lookup(Live)
	if fresh.Values["beneficiary"] != LiveBeneficiary {
		t.Errorf("built-in values mutated: %v", fresh.Values)
	}

	if err := r.SetValues("kovan", nil); !errors.Is(err, ErrUnknownNetwork) {
		t.Errorf("SetValues on unknown network err = %v", err)
	}
}

func TestSetAllowDevKeys(t *testing.T) {
	r := NewRouter()
	if err := r.SetAllowDevKeys(Development, false); err != nil {
		t.Fatal(err)
	}
	p, _ := r.Lookup(Development)
	if p.AllowDevKeys {
		t.Error("AllowDevKeys should be false")
	}
	if err := r.SetAllowDevKeys("kovan", true); !errors.Is(err, ErrUnknownNetwork) {
		t.Errorf("err = %v", err)
	}
}

func TestNewEmptyRouter(t *testing.T) {
	r := NewEmptyRouter()
	if len(r.Names()) != 0 {
		t.Errorf("Names() = %v", r.Names())
	}
	if _, err := r.Lookup(Development); !errors.Is(err, ErrUnknownNetwork) {
		t.Errorf("err = %v", err)
	}
}
