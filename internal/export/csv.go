// CSV export of one experiment's practice group. The format is the one the
// lab already ingests into spreadsheets: a "# Base:" comment line with the
// experiment's base reagents, a header row, then one fully quoted row per
// practice. Column names stay in Spanish to keep existing sheets working.
package export

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/eanlabs/bioplast/internal/calc"
	"github.com/eanlabs/bioplast/internal/models"
)

const dateLayout = "2006-01-02 15:04:05"

var header = strings.Join([]string{
	"Codigo",
	"NroExperimento",
	"Practica",
	"Fecha",
	"Almidon_g",
	"Agua_mL",
	"AcidoAcetico_mL",
	"Glicerina_mL",
	"Tiempo_s",
	"Tiempo_min",
	"Temp_C",
	"ObsCalentamiento",
	"ObsFinales",
}, ",")

// BuildGroupCSV renders the export for one experiment and its practices.
func BuildGroupCSV(exp *models.Experiment, group []models.Practice) string {
	var base models.Reagents
	if exp != nil {
		base = exp.BaseReagents
	}

	meta := fmt.Sprintf("# Base: Almidon=%sg, Agua=%smL, Acido=%smL, Glicerina=%smL",
		formatFloat(base.StarchG),
		formatFloat(base.WaterML),
		formatFloat(base.AceticML),
		formatFloat(base.GlycerinML),
	)

	lines := make([]string, 0, len(group)+2)
	lines = append(lines, meta, header)
	for _, p := range group {
		lines = append(lines, row(p))
	}
	return strings.Join(lines, "\n")
}

// Filename names the exported file after the experiment number and the
// export date, matching the practice code's DDMMYY convention.
func Filename(experimentNumber int, date time.Time) string {
	return fmt.Sprintf("exp_%02d_%02d%02d%02d.csv",
		experimentNumber, date.Day(), int(date.Month()), date.Year()%100)
}

func row(p models.Practice) string {
	fields := []string{
		p.Code,
		strconv.Itoa(p.ExperimentNumber),
		strconv.Itoa(p.PracticeNumber),
		formatDate(p.Date),
		formatFloat(p.StarchG),
		formatFloat(p.WaterML),
		formatFloat(p.AceticML),
		formatFloat(p.GlycerinML),
		strconv.Itoa(p.HeatSeconds),
		minutes(p),
		floatOrEmpty(p.MaxTemp),
		p.HeatingNotes,
		p.FinalNotes,
	}
	escaped := make([]string, len(fields))
	for i, f := range fields {
		escaped[i] = csvEscape(f)
	}
	return strings.Join(escaped, ",")
}

// minutes prefers the stored derived value and falls back to computing it
// from the raw seconds.
func minutes(p models.Practice) string {
	if p.HeatMinutes != nil {
		return formatFloat(*p.HeatMinutes)
	}
	if p.HeatSeconds > 0 {
		return formatFloat(calc.Round2(float64(p.HeatSeconds) / 60))
	}
	return ""
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func floatOrEmpty(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func csvEscape(v string) string {
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}
