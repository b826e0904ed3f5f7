package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Reagents is one bioplastic recipe: starch plus the three liquids derived
// from it. The JSON names match the persisted notebook records.
type Reagents struct {
	StarchG    float64 `json:"starch_g"`
	WaterML    float64 `json:"water_ml"`
	AceticML   float64 `json:"acetic_ml"`
	GlycerinML float64 `json:"glycerin_ml"`
}

// Experiment is one parameterized synthesis batch. BaseReagents is a
// snapshot taken at creation; practices copy it and never look back.
// Closed flips to true exactly once, there is no reopen.
type Experiment struct {
	ExperimentNumber int       `json:"experimentNumber" validate:"required,gt=0"`
	BaseReagents     Reagents  `json:"baseReagents"`
	CreatedAt        time.Time `json:"createdAt"`
	Closed           bool      `json:"closed"`
	OwnerID          string    `json:"ownerId"`
}

func (e *Experiment) Validate() error {
	validate := validator.New()
	return validate.Struct(e)
}

// Practice is one physical replicate run of an Experiment. HeatSeconds
// accumulates stopwatch time; zero means "not recorded yet", which is why
// the statistics engine drops non-positive values.
type Practice struct {
	Code             string `json:"code" validate:"required,len=10"`
	ExperimentNumber int    `json:"experimentNumber" validate:"required,gt=0"`
	PracticeNumber   int    `json:"practiceNumber" validate:"required,gt=0"`

	Date    time.Time `json:"date"`
	OwnerID string    `json:"ownerId"`

	Reagents

	HeatSeconds       int        `json:"heatSeconds"`
	HeatMinutes       *float64   `json:"heatMinutes,omitempty"`
	MaxTemp           *float64   `json:"maxTemp,omitempty"`
	HeatingNotes      string     `json:"heatingNotes"`
	FinalNotes        string     `json:"finalNotes"`
	FinalPhotoDataURL string     `json:"finalPhotoDataUrl,omitempty"`
	FinalDate         *time.Time `json:"finalDate,omitempty"`
}

func (p *Practice) Validate() error {
	validate := validator.New()
	return validate.Struct(p)
}

// PracticeUpdate is a partial edit merged into a stored Practice,
// last-write-wins on the whole record. Nil fields are left untouched.
type PracticeUpdate struct {
	HeatSeconds  *int     `json:"heatSeconds,omitempty"`
	HeatMinutes  *float64 `json:"heatMinutes,omitempty"`
	MaxTemp      *float64 `json:"maxTemp,omitempty"`
	HeatingNotes *string  `json:"heatingNotes,omitempty"`
	FinalNotes   *string  `json:"finalNotes,omitempty"`
}
