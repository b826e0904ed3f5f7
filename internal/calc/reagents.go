package calc

import (
	"fmt"
	"math"
	"time"

	"github.com/eanlabs/bioplast/internal/models"
)

// The lab protocol is written against a 10 g starch baseline: 50 mL water,
// 2.5 mL acetic acid, 2.5 mL glycerin. Everything scales linearly from there.
const (
	baselineStarchG  = 10.0
	baselineWaterML  = 50.0
	baselineAceticML = 2.5
	baselineGlycML   = 2.5
)

// epsilon nudges values off the .005 boundary before rounding, so that
// e.g. 2.675 (stored as 2.67499...) still rounds up to 2.68.
const epsilon = 2.220446049250313e-16 // 2^-52

// Round2 rounds to 2 decimals, half away from zero, with the epsilon guard
// against binary representation error.
func Round2(v float64) float64 {
	return math.Floor((v+epsilon)*100+0.5) / 100
}

// ReagentsFromStarch derives the full recipe from a starch mass in grams.
// Non-positive input scales linearly like any other value; clamping is the
// caller's business, not the calculator's.
func ReagentsFromStarch(grams float64) models.Reagents {
	f := grams / baselineStarchG
	return models.Reagents{
		StarchG:    Round2(grams),
		WaterML:    Round2(baselineWaterML * f),
		AceticML:   Round2(baselineAceticML * f),
		GlycerinML: Round2(baselineGlycML * f),
	}
}

// BuildCode builds the 10-character practice identifier EEPPDDMMYY.
// Uniqueness rests on the experiment counter never reusing a number and on
// practice numbers being dense within an experiment; the date alone does
// not disambiguate.
func BuildCode(experimentNumber, practiceNumber int, date time.Time) string {
	return fmt.Sprintf("%02d%02d%02d%02d%02d",
		experimentNumber,
		practiceNumber,
		date.Day(),
		int(date.Month()),
		date.Year()%100,
	)
}
