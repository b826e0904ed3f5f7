// Experiment and practice persistence over the key-value store. The
// repository is deliberately a thin layer: permission predicates are
// checked by the calling layer before every mutating call, not re-checked
// here.
package repo

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/eanlabs/bioplast/internal/audit"
	"github.com/eanlabs/bioplast/internal/calc"
	"github.com/eanlabs/bioplast/internal/models"
	"github.com/eanlabs/bioplast/internal/policy"
	"github.com/eanlabs/bioplast/internal/store"
)

type SearchMode string

const (
	SearchAuto       SearchMode = "auto"
	SearchCode       SearchMode = "code"
	SearchExperiment SearchMode = "exp"
)

var allDigits = regexp.MustCompile(`^\d+$`)

type Repository struct {
	kv    store.KV
	trail *audit.Trail
	now   func() time.Time
}

func New(kv store.KV, trail *audit.Trail) *Repository {
	return &Repository{kv: kv, trail: trail, now: time.Now}
}

// NextExperimentNumber increments and persists the experiment counter.
// Numbers are never reused, even after deletion. Read-increment-write is
// not atomic: the store is single-writer per instance, which is a stated
// constraint of the notebook, not an oversight.
func (r *Repository) NextExperimentNumber() (int, error) {
	n := 0
	raw, err := r.kv.Get(store.KeyCounter)
	if err != nil {
		return 0, err
	}
	if raw != nil {
		n, _ = strconv.Atoi(string(raw))
	}
	n++
	if err := r.kv.Set(store.KeyCounter, []byte(strconv.Itoa(n))); err != nil {
		return 0, err
	}
	return n, nil
}

// CreateExperiment persists a new experiment and its 1..replicas practices,
// each with a derived code and a copy of the base reagents. The caller has
// already established that owner is a logged-in session.
func (r *Repository) CreateExperiment(owner *models.Session, base models.Reagents, replicas int) (*models.Experiment, []models.Practice, error) {
	if replicas < 1 || replicas > 3 {
		return nil, nil, fmt.Errorf("replica count must be between 1 and 3, got %d", replicas)
	}

	num, err := r.NextExperimentNumber()
	if err != nil {
		return nil, nil, err
	}

	now := r.now()
	exp := models.Experiment{
		ExperimentNumber: num,
		BaseReagents:     base,
		CreatedAt:        now,
		Closed:           false,
		OwnerID:          owner.UserID,
	}
	if err := r.saveExperiment(exp); err != nil {
		return nil, nil, err
	}

	practices := make([]models.Practice, 0, replicas)
	for i := 1; i <= replicas; i++ {
		p := models.Practice{
			Code:             calc.BuildCode(num, i, now),
			ExperimentNumber: num,
			PracticeNumber:   i,
			Date:             now,
			OwnerID:          owner.UserID,
			Reagents:         base,
		}
		if err := r.SavePractice(p); err != nil {
			return nil, nil, err
		}
		practices = append(practices, p)
	}

	if err := r.trail.Log("experiment:create", map[string]any{
		"user":             owner,
		"experimentNumber": num,
		"payload": map[string]any{
			"base":     base,
			"replicas": replicas,
		},
	}); err != nil {
		return nil, nil, err
	}

	return &exp, practices, nil
}

func (r *Repository) GetExperiment(number int) (*models.Experiment, error) {
	experiments, err := r.AllExperiments()
	if err != nil {
		return nil, err
	}
	for i := range experiments {
		if experiments[i].ExperimentNumber == number {
			return &experiments[i], nil
		}
	}
	return nil, nil
}

func (r *Repository) AllExperiments() ([]models.Experiment, error) {
	var experiments []models.Experiment
	if err := store.ReadJSON(r.kv, store.KeyExperiments, &experiments); err != nil {
		return nil, err
	}
	return experiments, nil
}

func (r *Repository) AllPractices() ([]models.Practice, error) {
	var practices []models.Practice
	if err := store.ReadJSON(r.kv, store.KeyPractices, &practices); err != nil {
		return nil, err
	}
	return practices, nil
}

func (r *Repository) FindPracticeByCode(code string) (*models.Practice, error) {
	practices, err := r.AllPractices()
	if err != nil {
		return nil, err
	}
	for i := range practices {
		if practices[i].Code == code {
			return &practices[i], nil
		}
	}
	return nil, nil
}

// FindPracticesByExperiment returns the experiment's practices ordered by
// practice number.
func (r *Repository) FindPracticesByExperiment(number int) ([]models.Practice, error) {
	practices, err := r.AllPractices()
	if err != nil {
		return nil, err
	}
	group := practices[:0:0]
	for _, p := range practices {
		if p.ExperimentNumber == number {
			group = append(group, p)
		}
	}
	sort.Slice(group, func(i, j int) bool {
		return group[i].PracticeNumber < group[j].PracticeNumber
	})
	return group, nil
}

// SavePractice upserts by code.
func (r *Repository) SavePractice(p models.Practice) error {
	practices, err := r.AllPractices()
	if err != nil {
		return err
	}
	found := false
	for i := range practices {
		if practices[i].Code == p.Code {
			practices[i] = p
			found = true
			break
		}
	}
	if !found {
		practices = append(practices, p)
	}
	return store.WriteJSON(r.kv, store.KeyPractices, practices)
}

// UpdatePractice merges the non-nil fields of update into the stored
// record, last-write-wins on the whole record. Returns nil when the code
// is unknown. Permission checks belong to the caller.
func (r *Repository) UpdatePractice(code string, update models.PracticeUpdate) (*models.Practice, error) {
	p, err := r.FindPracticeByCode(code)
	if err != nil || p == nil {
		return nil, err
	}

	if update.HeatSeconds != nil {
		p.HeatSeconds = *update.HeatSeconds
	}
	if update.HeatMinutes != nil {
		p.HeatMinutes = update.HeatMinutes
	}
	if update.MaxTemp != nil {
		p.MaxTemp = update.MaxTemp
	}
	if update.HeatingNotes != nil {
		p.HeatingNotes = *update.HeatingNotes
	}
	if update.FinalNotes != nil {
		p.FinalNotes = *update.FinalNotes
	}

	if err := r.SavePractice(*p); err != nil {
		return nil, err
	}
	return p, nil
}

// RecordHeatData stores the stopwatch result on a practice: accumulated
// seconds, derived minutes, optional peak temperature and notes.
func (r *Repository) RecordHeatData(actor *models.Session, code string, seconds int, maxTemp *float64, notes string) (*models.Practice, error) {
	minutes := calc.Round2(float64(seconds) / 60)
	p, err := r.UpdatePractice(code, models.PracticeUpdate{
		HeatSeconds:  &seconds,
		HeatMinutes:  &minutes,
		MaxTemp:      maxTemp,
		HeatingNotes: &notes,
	})
	if err != nil || p == nil {
		return nil, err
	}

	if err := r.trail.Log("practice:save_heat", map[string]any{
		"user":             actor,
		"experimentNumber": p.ExperimentNumber,
		"practiceCode":     p.Code,
		"payload": map[string]any{
			"seconds": seconds,
			"minutes": minutes,
			"maxTemp": maxTemp,
			"notes":   notes,
		},
	}); err != nil {
		return nil, err
	}
	return p, nil
}

// AttachPhoto merges a finished-film photo into the practice. The record is
// re-read here, at completion time, so a photo produced against a stale
// snapshot can never clobber edits made to the record in the meantime.
func (r *Repository) AttachPhoto(code, photoDataURL, finalNotes string) (*models.Practice, error) {
	p, err := r.FindPracticeByCode(code)
	if err != nil || p == nil {
		return nil, err
	}

	now := r.now()
	p.FinalPhotoDataURL = photoDataURL
	p.FinalNotes = finalNotes
	p.FinalDate = &now

	if err := r.SavePractice(*p); err != nil {
		return nil, err
	}
	return p, nil
}

// CloseExperiment flips closed to true. One-way; callers have already
// validated CanClose, which rejects an already-closed experiment.
func (r *Repository) CloseExperiment(actor *models.Session, number int) (*models.Experiment, error) {
	exp, err := r.GetExperiment(number)
	if err != nil || exp == nil {
		return nil, err
	}

	exp.Closed = true
	if err := r.saveExperiment(*exp); err != nil {
		return nil, err
	}

	if err := r.trail.Log("experiment:close", map[string]any{
		"user":             actor,
		"experimentNumber": number,
	}); err != nil {
		return nil, err
	}
	return exp, nil
}

// DeleteExperiment removes the experiment and cascades to its practices.
// Callers have already validated CanDelete.
func (r *Repository) DeleteExperiment(actor *models.Session, number int) error {
	practices, err := r.AllPractices()
	if err != nil {
		return err
	}
	kept := practices[:0:0]
	for _, p := range practices {
		if p.ExperimentNumber != number {
			kept = append(kept, p)
		}
	}
	if err := store.WriteJSON(r.kv, store.KeyPractices, kept); err != nil {
		return err
	}

	experiments, err := r.AllExperiments()
	if err != nil {
		return err
	}
	keptExp := experiments[:0:0]
	for _, e := range experiments {
		if e.ExperimentNumber != number {
			keptExp = append(keptExp, e)
		}
	}
	if err := store.WriteJSON(r.kv, store.KeyExperiments, keptExp); err != nil {
		return err
	}

	return r.trail.Log("experiment:delete", map[string]any{
		"user":             actor,
		"experimentNumber": number,
	})
}

// DeletePractice removes a single practice. Callers have already validated
// CanDelete.
func (r *Repository) DeletePractice(actor *models.Session, code string) error {
	practices, err := r.AllPractices()
	if err != nil {
		return err
	}
	kept := practices[:0:0]
	var deleted *models.Practice
	for _, p := range practices {
		if p.Code == code {
			dp := p
			deleted = &dp
			continue
		}
		kept = append(kept, p)
	}
	if deleted == nil {
		return nil
	}
	if err := store.WriteJSON(r.kv, store.KeyPractices, kept); err != nil {
		return err
	}

	return r.trail.Log("practice:delete", map[string]any{
		"user":             actor,
		"experimentNumber": deleted.ExperimentNumber,
		"practiceCode":     code,
	})
}

// Search resolves a query in one of three modes. "code" is an exact code
// lookup; "exp" requires an all-digit query and returns the experiment's
// practice set; "auto" treats an all-digit query of up to 3 characters as
// an experiment number, anything else as a code. Results are filtered
// through CanSee for the viewer.
func (r *Repository) Search(viewer *models.Session, mode SearchMode, query string) ([]models.Practice, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, nil
	}

	var list []models.Practice
	var err error

	switch mode {
	case SearchCode:
		list, err = r.searchByCode(q)
	case SearchExperiment:
		if !allDigits.MatchString(q) {
			return []models.Practice{}, nil
		}
		n, _ := strconv.Atoi(q)
		list, err = r.FindPracticesByExperiment(n)
	default: // auto
		if allDigits.MatchString(q) && len(q) <= 3 {
			n, _ := strconv.Atoi(q)
			list, err = r.FindPracticesByExperiment(n)
		} else {
			list, err = r.searchByCode(q)
		}
	}
	if err != nil {
		return nil, err
	}

	visible := make([]models.Practice, 0, len(list))
	for _, p := range list {
		if policy.CanSee(viewer, p.OwnerID) {
			visible = append(visible, p)
		}
	}
	return visible, nil
}

func (r *Repository) searchByCode(code string) ([]models.Practice, error) {
	p, err := r.FindPracticeByCode(code)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return []models.Practice{}, nil
	}
	return []models.Practice{*p}, nil
}

func (r *Repository) saveExperiment(exp models.Experiment) error {
	experiments, err := r.AllExperiments()
	if err != nil {
		return err
	}
	found := false
	for i := range experiments {
		if experiments[i].ExperimentNumber == exp.ExperimentNumber {
			experiments[i] = exp
			found = true
			break
		}
	}
	if !found {
		experiments = append(experiments, exp)
	}
	return store.WriteJSON(r.kv, store.KeyExperiments, experiments)
}
