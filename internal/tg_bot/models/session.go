package models

// Step identifies which piece of listing data the bot currently expects from the user.
type Step int

const (
	StepAwaitAddress         Step = iota // адрес объекта
	StepAwaitPhoto                       // фотография
	StepAwaitFlatDescription             // описание квартиры
	StepAwaitHouseOptions                // описание дома
	StepAwaitDealDetails                 // условия сделки, после них генерация
)

// StepCount is the length of one data-collection cycle.
const StepCount = 5

// Next returns the step that follows s, wrapping to StepAwaitAddress after the last one.
func (s Step) Next() Step {
	next := s + 1
	if next >= StepCount || next < 0 {
		return StepAwaitAddress
	}
	return next
}

// Photo is an image collected at StepAwaitPhoto.
type Photo struct {
	FileID   string // Telegram file ID, used to send the photo back
	MIMEType string // e.g. image/jpeg
	Data     []byte // Raw image bytes for the generation backend
}

// Session is the per-user state of the data-collection cycle.
type Session struct {
	UserID          int64
	Step            Step
	Cycle           uint64 // Bumped whenever the collected data is dropped
	Address         string
	Photo           *Photo
	FlatDescription string
	HouseOptions    string
	DealDetails     string
	Infrastructure  InfrastructureSummary
}

// HasListing reports whether the session holds the data of a finished cycle.
func (s Session) HasListing() bool {
	return s.Address != "" && s.DealDetails != ""
}

// SessionPatch is a sparse update of a Session: nil fields are left untouched.
type SessionPatch struct {
	Address         *string
	Photo           *Photo
	FlatDescription *string
	HouseOptions    *string
	DealDetails     *string
	Infrastructure  *InfrastructureSummary
}

// Apply copies every present field of p into s.
func (p SessionPatch) Apply(s *Session) {
	if p.Address != nil {
		s.Address = *p.Address
	}
	if p.Photo != nil {
		photo := *p.Photo
		s.Photo = &photo
	}
	if p.FlatDescription != nil {
		s.FlatDescription = *p.FlatDescription
	}
	if p.HouseOptions != nil {
		s.HouseOptions = *p.HouseOptions
	}
	if p.DealDetails != nil {
		s.DealDetails = *p.DealDetails
	}
	if p.Infrastructure != nil {
		s.Infrastructure = p.Infrastructure.Clone()
	}
}

// PatchString is a helper for building a SessionPatch field.
func PatchString(v string) *string {
	return &v
}
