package triage

// timeRangeMinDuration is the shortest card, in minutes, that still has room
// to print its time range.
const timeRangeMinDuration = 15

// Card is a treatment as the board draws it.
type Card struct {
	*Treatment
	Color         string `json:"color"`
	TypeLabel     string `json:"type_label"`
	ShowTimeRange bool   `json:"show_time_range"`
}

func NewCard(t *Treatment) *Card {
	return &Card{
		Treatment:     t,
		Color:         t.TreatmentType.Color(),
		TypeLabel:     t.TreatmentType.Label(),
		ShowTimeRange: Minutes(t.CompleteBy)-Minutes(t.ArrivedAt) > timeRangeMinDuration,
	}
}

// TreatmentTypeOption is one entry of the creation form's type selector.
type TreatmentTypeOption struct {
	Code  TreatmentType `json:"code"`
	Label string        `json:"label"`
	Color string        `json:"color"`
}

func TreatmentTypeOptions() []TreatmentTypeOption {
	out := make([]TreatmentTypeOption, len(TreatmentTypes))
	for i, t := range TreatmentTypes {
		out[i] = TreatmentTypeOption{Code: t, Label: t.Label(), Color: t.Color()}
	}
	return out
}
