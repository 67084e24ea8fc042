// ABOUTME: UserProfile value object with four length-capped free-text fields
// ABOUTME: ProfileEdit applies PATCH semantics; cleaning text is the caller's job

package directory

// Maximum lengths in runes for profile fields.
const (
	MaxPronounsLength = 32
	MaxBioLength      = 512
	MaxStatusLength   = 128
	MaxMoodLength     = 32
)

// Profile is embedded in every User. Fields are always present, possibly empty.
type Profile struct {
	Pronouns string `json:"pronouns"`
	Bio      string `json:"bio"`
	Status   string `json:"status"`
	Mood     string `json:"mood"`
}

// ProfileEdit is a partial update of a Profile.
type ProfileEdit struct {
	Pronouns *string `json:"pronouns,omitempty" validate:"omitempty,max=256"`
	Bio      *string `json:"bio,omitempty" validate:"omitempty,max=4096"`
	Status   *string `json:"status,omitempty" validate:"omitempty,max=1024"`
	Mood     *string `json:"mood,omitempty" validate:"omitempty,max=256"`
}

// Map calls fn on every present field and stores the result back.
func (e ProfileEdit) Map(fn func(value string, maxLen int) string) ProfileEdit {
	apply := func(p *string, maxLen int) *string {
		if p == nil {
			return nil
		}
		v := fn(*p, maxLen)
		return &v
	}
	return ProfileEdit{
		Pronouns: apply(e.Pronouns, MaxPronounsLength),
		Bio:      apply(e.Bio, MaxBioLength),
		Status:   apply(e.Status, MaxStatusLength),
		Mood:     apply(e.Mood, MaxMoodLength),
	}
}

// Apply overwrites only the fields present in edit.
func (p *Profile) Apply(edit ProfileEdit) {
	if edit.Pronouns != nil {
		p.Pronouns = *edit.Pronouns
	}
	if edit.Bio != nil {
		p.Bio = *edit.Bio
	}
	if edit.Status != nil {
		p.Status = *edit.Status
	}
	if edit.Mood != nil {
		p.Mood = *edit.Mood
	}
}
