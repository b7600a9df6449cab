// Package network maps network identifiers to deployment profiles.
//
// A [Profile] carries the literal values and the ordered step list for one
// deployment target. The [Router] is a lookup table from network name to
// profile; names must match exactly.
//
// [NewRouter] returns the built-in profiles:
//   - development: ARPToken, then ARPTeamHolding and the mid/long term
//     holding contracts, all referencing the token deployed in the same run
//   - live: ARPTeamHolding only, with fixed token, beneficiary and start time
//
// Plan files loaded with [Router.Merge] replace or extend these profiles.
package network

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"arpdeploy/internal/plan"
)

// ErrUnknownNetwork is returned by [Router.Lookup] when no profile matches the
// network identifier. No deployment must happen for such a network.
var ErrUnknownNetwork = errors.New("unknown network")

// Network names with built-in profiles.
const (
	Development = "development"
	Live        = "live"
)

// Built-in profile values and timing.
const (
	// LiveToken is the ARPToken address used by the live profile.
	LiveToken = "0xbeb6fdf4ef6ceb975157be43cbe0047b248a8922"

	// LiveBeneficiary receives the team holding on the live profile.
	LiveBeneficiary = "0x1fafd10cea9d705ee1f37b575987ad0890889121"

	// LiveStartTime is 2018-05-01 00:00:00 UTC.
	LiveStartTime = "1525132800"

	// TeamHoldingOffset backdates the development team holding by two
	// 365-day years, plus a five minute delay so the first release is still
	// in the future when the run finishes.
	TeamHoldingOffset int64 = -(2 * 365 * 24 * 60 * 60) + 5*60
)

// Profile is the deployment configuration for a single network.
type Profile struct {
	// Name is the network identifier.
	Name string

	// Values are the literals that config arguments resolve against.
	Values map[string]string

	// Steps are the deployments for the network in execution order.
	Steps []plan.Step

	// AllowDevKeys permits the well-known local development signing keys.
	AllowDevKeys bool
}

// Validate checks the profile's step list against its values.
func (p Profile) Validate() error {
	if err := plan.Validate(p.Steps, p.Values); err != nil {
		return fmt.Errorf("network %s: %w", p.Name, err)
	}
	return nil
}

// Router resolves network identifiers to profiles.
type Router struct {
	profiles map[string]Profile

	// order preserves registration order for listing.
	order []string
}

// NewRouter creates a [Router] with the built-in development and live profiles.
func NewRouter() *Router {
	r := &Router{profiles: make(map[string]Profile)}

	r.Register(Profile{
		Name:         Development,
		AllowDevKeys: true,
		Steps: []plan.Step{
			{ID: "ARPToken"},
			{ID: "ARPTeamHolding", Args: []plan.Arg{
				plan.Ref("ARPToken"),
				plan.Account(0),
				plan.Time(TeamHoldingOffset),
			}},
			{ID: "ARPMidTermHolding", Args: []plan.Arg{
				plan.Ref("ARPToken"),
				plan.Time(0),
			}},
			{ID: "ARPLongTermHolding", Args: []plan.Arg{
				plan.Ref("ARPToken"),
				plan.Time(0),
			}},
		},
	})

	r.Register(Profile{
		Name: Live,
		Values: map[string]string{
			"token":       LiveToken,
			"beneficiary": LiveBeneficiary,
			"start_time":  LiveStartTime,
		},
		Steps: []plan.Step{
			{ID: "ARPTeamHolding", Args: []plan.Arg{
				plan.Config("token"),
				plan.Config("beneficiary"),
				plan.Config("start_time"),
			}},
		},
	})

	return r
}

// NewEmptyRouter creates a [Router] with no profiles.
func NewEmptyRouter() *Router {
	return &Router{profiles: make(map[string]Profile)}
}

// Register adds or replaces a profile.
func (r *Router) Register(p Profile) {
	if _, ok := r.profiles[p.Name]; !ok {
		r.order = append(r.order, p.Name)
	}
	r.profiles[p.Name] = p
}

// Merge applies a plan file to the router.
//
// Each network in the file replaces the steps of the profile with the same
// name, or registers a new profile. Values in the file are layered over the
// existing profile values. AllowDevKeys is kept from an existing profile.
func (r *Router) Merge(f *plan.File) {
	for _, name := range slices.Sorted(maps.Keys(f.Networks)) {
		def := f.Networks[name]
		p, ok := r.profiles[name]
		if !ok {
			p = Profile{Name: name}
		}
		p.Steps = def.Steps
		p.Values = mergeValues(p.Values, def.Values)
		r.Register(p)
	}
}

// SetValues layers values over the named profile's values.
//
// Returns [ErrUnknownNetwork] if no profile has that name.
func (r *Router) SetValues(name string, values map[string]string) error {
	p, ok := r.profiles[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNetwork, name)
	}
	p.Values = mergeValues(p.Values, values)
	r.profiles[name] = p
	return nil
}

// SetAllowDevKeys overrides whether the named profile may use development keys.
func (r *Router) SetAllowDevKeys(name string, allow bool) error {
	p, ok := r.profiles[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNetwork, name)
	}
	p.AllowDevKeys = allow
	r.profiles[name] = p
	return nil
}

// Lookup returns the profile for a network identifier.
//
// Matching is exact and case-sensitive. Returns [ErrUnknownNetwork] when no
// profile is registered under name.
func (r *Router) Lookup(name string) (Profile, error) {
	p, ok := r.profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownNetwork, name)
	}
	return p, nil
}

// Names returns the registered network names in registration order.
func (r *Router) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func mergeValues(base, overlay map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(overlay))
	maps.Copy(out, base)
	maps.Copy(out, overlay)
	return out
}
