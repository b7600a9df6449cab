package plan

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	values := map[string]string{"token": "0xbeb6fdf4ef6ceb975157be43cbe0047b248a8922"}

	tests := []struct {
		name    string
		steps   []Step
		wantErr error
	}{
		{
			name: "token then holding referencing token",
			steps: []Step{
				{ID: "ARPToken"},
				{ID: "ARPTeamHolding", Args: []Arg{Ref("ARPToken"), Account(0), Time(-63071700)}},
			},
		},
		{
			name:  "config value present",
			steps: []Step{{ID: "ARPTeamHolding", Args: []Arg{Config("token"), Literal("1525132800")}}},
		},
		{
			name:    "empty plan",
			steps:   nil,
			wantErr: ErrEmptyPlan,
		},
		{
			name:    "duplicate ids",
			steps:   []Step{{ID: "ARPToken"}, {ID: "ARPToken"}},
			wantErr: ErrDuplicateStep,
		},
		{
			name: "reference to later step",
			steps: []Step{
				{ID: "ARPTeamHolding", Args: []Arg{Ref("ARPToken")}},
				{ID: "ARPToken"},
			},
			wantErr: ErrForwardReference,
		},
		{
			name:    "self reference",
			steps:   []Step{{ID: "ARPToken", Args: []Arg{Ref("ARPToken")}}},
			wantErr: ErrForwardReference,
		},
		{
			name:    "reference to unknown step",
			steps:   []Step{{ID: "ARPBank", Args: []Arg{Ref("ARPRegistry")}}},
			wantErr: ErrUnknownReference,
		},
		{
			name:    "missing profile value",
			steps:   []Step{{ID: "ARPTeamHolding", Args: []Arg{Config("beneficiary")}}},
			wantErr: ErrMissingValue,
		},
		{
			name:    "negative account index",
			steps:   []Step{{ID: "ARPWallet", Args: []Arg{Account(-1)}}},
			wantErr: ErrInvalidArg,
		},
		{
			name:    "empty step id",
			steps:   []Step{{ID: ""}},
			wantErr: ErrInvalidArg,
		},
		{
			name:    "unknown kind",
			steps:   []Step{{ID: "ARPWallet", Args: []Arg{{Kind: "env", Value: "HOME"}}}},
			wantErr: ErrInvalidArg,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.steps, values)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)
		})
	}
}

func TestStep_ContractName(t *testing.T) {
	assert.Equal(t, "ARPToken", Step{ID: "ARPToken"}.ContractName())
	assert.Equal(t, "ARPHolding", Step{ID: "ARPMidTermHolding", Contract: "ARPHolding"}.ContractName())
}

func TestStep_References(t *testing.T) {
	s := Step{ID: "ARPBank", Args: []Arg{Ref("ARPToken"), Account(1), Ref("ARPRegistry")}}

	assert.Equal(t, []string{"ARPToken", "ARPRegistry"}, s.References())
	assert.Nil(t, Step{ID: "ARPToken"}.References())
}

func TestIDs(t *testing.T) {
	steps := []Step{{ID: "ARPToken"}, {ID: "ARPTeamHolding"}, {ID: "ARPMidTermHolding"}}

	assert.Equal(t, []string{"ARPToken", "ARPTeamHolding", "ARPMidTermHolding"}, IDs(steps))
}

func TestArg_String(t *testing.T) {
	tests := []struct {
		arg  Arg
		want string
	}{
		{Literal("1525132800"), `"1525132800"`},
		{Config("token"), "config:token"},
		{Ref("ARPToken"), "<address of ARPToken>"},
		{Account(0), "accounts[0]"},
		{Time(0), "now"},
		{Time(-63071700), "now-63071700s"},
		{Time(300), "now+300s"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.arg.String())
		})
	}
}
