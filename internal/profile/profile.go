package profile

import (
	"context"

	"github.com/wellnest/internal/actors"
)

// ComparableAttributes is the canonical ordered list of health-profile
// attributes the affinity scorer compares. The list is the stable
// denominator for every score on the platform, so entries are only ever
// appended, never removed or reordered.
var ComparableAttributes = []string{
	"sleep_hours",
	"wake_time",
	"bed_time",
	"diet_type",
	"exercise_frequency",
	"exercise_type",
	"stress_level",
	"meditation_practice",
	"smoking_habit",
	"alcohol_habit",
	"caffeine_intake",
	"water_intake",
	"screen_time",
	"work_schedule",
	"chronic_condition",
	"allergy_profile",
	"supplement_use",
	"therapy_history",
	"primary_goal",
}

// Profile holds an actor's structured health-profile attributes.
type Profile struct {
	Actor      actors.Ref        `json:"actor"`
	Attributes map[string]string `json:"attributes"`
}

// Attribute returns the named attribute value and whether it is set.
func (p *Profile) Attribute(name string) (string, bool) {
	if p == nil || p.Attributes == nil {
		return "", false
	}
	v, ok := p.Attributes[name]
	return v, ok
}

// Store reads structured profile attributes. Get returns (nil, nil) when
// the actor has no profile yet; an incomplete or missing profile is not
// an error.
type Store interface {
	Get(ctx context.Context, ref actors.Ref) (*Profile, error)
}
