package triage

import (
	"encoding/json"
	"math"
	"strconv"
)

// TreatmentType is the category of a walk-in treatment.
type TreatmentType string

const (
	QuickTreat TreatmentType = "QT"
	SingleDrug TreatmentType = "SD"
	MultiDrug  TreatmentType = "MD"
	DTU        TreatmentType = "DTU"
)

var treatmentTypeInfo = map[TreatmentType]struct {
	label string
	color string
}{
	QuickTreat: {"Quick Treat", "#C9DF8A"},
	SingleDrug: {"Single Drug", "#D2B4DE"},
	MultiDrug:  {"Multi Drug", "#FFC0CB"},
	DTU:        {"DTU", "#7AC2E0"},
}

// TreatmentTypes lists the selectable types in form order.
var TreatmentTypes = []TreatmentType{QuickTreat, SingleDrug, MultiDrug, DTU}

func (t TreatmentType) Valid() bool {
	_, ok := treatmentTypeInfo[t]
	return ok
}

// Label returns the human-readable name, or the raw code if unknown.
func (t TreatmentType) Label() string {
	if info, ok := treatmentTypeInfo[t]; ok {
		return info.label
	}
	return string(t)
}

// Color returns the card background color for the type.
func (t TreatmentType) Color() string {
	return treatmentTypeInfo[t].color
}

// Coord is a layout value. NaN (from a malformed time string) encodes as null.
type Coord float64

func (c Coord) MarshalJSON() ([]byte, error) {
	f := float64(c)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(f, 'f', -1, 64)), nil
}

func (c *Coord) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = Coord(math.NaN())
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*c = Coord(f)
	return nil
}

// Treatment is a single walk-in care request.
type Treatment struct {
	ID            int           `json:"id"`
	PatientName   string        `json:"patient_name"`
	ArrivedAt     string        `json:"arrived_at"`
	CompleteBy    string        `json:"complete_by"`
	TreatmentType TreatmentType `json:"treatment_type"`
	AssignedTo    *int          `json:"assigned_to"`
	X             Coord         `json:"x"`
	Y             Coord         `json:"y"`
	Width         Coord         `json:"width"`
	Height        Coord         `json:"height"`
}

// Assigned reports whether the treatment sits on a nurse column.
func (t *Treatment) Assigned() bool { return t.AssignedTo != nil }

// AssignedToNurse reports whether the treatment sits on the given nurse's column.
func (t *Treatment) AssignedToNurse(nurseID int) bool {
	return t.AssignedTo != nil && *t.AssignedTo == nurseID
}

func (t *Treatment) clone() *Treatment {
	c := *t
	if t.AssignedTo != nil {
		id := *t.AssignedTo
		c.AssignedTo = &id
	}
	return &c
}

// Nurse is a fixed column on the board.
type Nurse struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// NewRoster builds the fixed nurse set; ids follow the order of names.
func NewRoster(names []string) []Nurse {
	roster := make([]Nurse, len(names))
	for i, name := range names {
		roster[i] = Nurse{ID: i, Name: name}
	}
	return roster
}

// NurseSchedule is a nurse column with the treatments assigned to it.
type NurseSchedule struct {
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	Treatments []*Card `json:"treatments"`
}

// Board is the full render state: the unassigned pool plus every column.
type Board struct {
	Unassigned []*Card          `json:"unassigned"`
	Schedules  []*NurseSchedule `json:"schedules"`
}

// CreateTreatmentForm carries the fields of the creation form.
type CreateTreatmentForm struct {
	PatientName   string `json:"patient_name" form:"patient_name"`
	ArrivedAt     string `json:"arrived_at" form:"arrived_at"`
	TreatmentType string `json:"treatment_type" form:"treatment_type"`
	CompleteBy    string `json:"complete_by" form:"complete_by"`
}

// DropMessage is the drag payload: which card was dropped onto which column.
// Target is the column identifier as the drop surface reports it.
type DropMessage struct {
	TreatmentID int    `json:"treatment_id"`
	Target      string `json:"target"`
}
