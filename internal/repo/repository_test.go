package repo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eanlabs/bioplast/internal/audit"
	"github.com/eanlabs/bioplast/internal/models"
	"github.com/eanlabs/bioplast/internal/store"
)

var (
	studentSess = &models.Session{UserID: "s1", Name: "Ana", Role: models.RoleStudent}
	otherSess   = &models.Session{UserID: "s2", Name: "Bruno", Role: models.RoleStudent}
	adminSess   = &models.Session{UserID: "a1", Name: "Admin", Role: models.RoleAdmin}
)

func newTestRepo(t *testing.T) (*Repository, *audit.Trail, store.KV) {
	t.Helper()
	kv := store.NewMemoryStore()
	trail := audit.NewTrail(kv)
	r := New(kv, trail)
	r.now = func() time.Time {
		return time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	}
	return r, trail, kv
}

func baseReagents() models.Reagents {
	return models.Reagents{StarchG: 10, WaterML: 50, AceticML: 2.5, GlycerinML: 2.5}
}

func TestNextExperimentNumber_Monotonic(t *testing.T) {
	r, _, _ := newTestRepo(t)

	for want := 1; want <= 5; want++ {
		n, err := r.NextExperimentNumber()
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}
}

func TestCreateExperiment_Triplicate(t *testing.T) {
	r, trail, _ := newTestRepo(t)

	exp, practices, err := r.CreateExperiment(studentSess, baseReagents(), 3)
	require.NoError(t, err)
	require.NotNil(t, exp)

	assert.Equal(t, 1, exp.ExperimentNumber)
	assert.False(t, exp.Closed)
	assert.Equal(t, "s1", exp.OwnerID)

	require.Len(t, practices, 3)
	codes := make(map[string]bool)
	for i, p := range practices {
		assert.Equal(t, i+1, p.PracticeNumber)
		assert.Equal(t, 1, p.ExperimentNumber)
		assert.Equal(t, baseReagents(), p.Reagents, "practices copy the base recipe")
		assert.Len(t, p.Code, 10)
		codes[p.Code] = true
	}
	assert.Len(t, codes, 3, "codes are distinct within the experiment")
	assert.Equal(t, "0101140325", practices[0].Code)

	entries, err := trail.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "experiment:create", entries[0].Action)
}

func TestCreateExperiment_RejectsBadReplicaCount(t *testing.T) {
	r, _, _ := newTestRepo(t)

	for _, replicas := range []int{0, 4, -1} {
		_, _, err := r.CreateExperiment(studentSess, baseReagents(), replicas)
		assert.Error(t, err, "replicas=%d", replicas)
	}
}

func TestFindPractices(t *testing.T) {
	r, _, _ := newTestRepo(t)
	_, practices, err := r.CreateExperiment(studentSess, baseReagents(), 2)
	require.NoError(t, err)

	p, err := r.FindPracticeByCode(practices[1].Code)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 2, p.PracticeNumber)

	missing, err := r.FindPracticeByCode("9999999999")
	require.NoError(t, err)
	assert.Nil(t, missing, "lookup miss is a normal outcome, not an error")

	group, err := r.FindPracticesByExperiment(1)
	require.NoError(t, err)
	require.Len(t, group, 2)
	assert.Equal(t, 1, group[0].PracticeNumber)
	assert.Equal(t, 2, group[1].PracticeNumber)
}

func TestUpdatePractice_MergesFields(t *testing.T) {
	r, _, _ := newTestRepo(t)
	_, practices, err := r.CreateExperiment(studentSess, baseReagents(), 1)
	require.NoError(t, err)
	code := practices[0].Code

	temp := 85.5
	notes := "slow boil"
	p, err := r.UpdatePractice(code, models.PracticeUpdate{
		MaxTemp:      &temp,
		HeatingNotes: &notes,
	})
	require.NoError(t, err)
	require.NotNil(t, p)
	require.NotNil(t, p.MaxTemp)
	assert.Equal(t, 85.5, *p.MaxTemp)
	assert.Equal(t, "slow boil", p.HeatingNotes)

	// untouched fields survive the merge
	final := "film dried"
	p, err = r.UpdatePractice(code, models.PracticeUpdate{FinalNotes: &final})
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "slow boil", p.HeatingNotes)
	assert.Equal(t, "film dried", p.FinalNotes)

	unknown, err := r.UpdatePractice("0000000000", models.PracticeUpdate{FinalNotes: &final})
	require.NoError(t, err)
	assert.Nil(t, unknown)
}

func TestRecordHeatData(t *testing.T) {
	r, trail, _ := newTestRepo(t)
	_, practices, err := r.CreateExperiment(studentSess, baseReagents(), 1)
	require.NoError(t, err)

	temp := 92.0
	p, err := r.RecordHeatData(studentSess, practices[0].Code, 630, &temp, "steady")
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.Equal(t, 630, p.HeatSeconds)
	require.NotNil(t, p.HeatMinutes)
	assert.Equal(t, 10.5, *p.HeatMinutes)
	require.NotNil(t, p.MaxTemp)
	assert.Equal(t, 92.0, *p.MaxTemp)

	entries, err := trail.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "practice:save_heat", entries[1].Action)
	assert.Equal(t, p.Code, entries[1].Details["practiceCode"])
}

func TestAttachPhoto_MergesIntoCurrentRecord(t *testing.T) {
	r, _, _ := newTestRepo(t)
	_, practices, err := r.CreateExperiment(studentSess, baseReagents(), 1)
	require.NoError(t, err)
	code := practices[0].Code

	// edits land between the photo being taken and the merge completing
	temp := 88.0
	_, err = r.RecordHeatData(studentSess, code, 600, &temp, "ok")
	require.NoError(t, err)

	p, err := r.AttachPhoto(code, "data:image/png;base64,xyz", "nice film")
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.Equal(t, "data:image/png;base64,xyz", p.FinalPhotoDataURL)
	assert.Equal(t, "nice film", p.FinalNotes)
	require.NotNil(t, p.FinalDate)
	assert.Equal(t, 600, p.HeatSeconds, "intervening heat data survives the photo merge")
}

func TestCloseExperiment(t *testing.T) {
	r, trail, _ := newTestRepo(t)
	exp, _, err := r.CreateExperiment(studentSess, baseReagents(), 1)
	require.NoError(t, err)

	closed, err := r.CloseExperiment(adminSess, exp.ExperimentNumber)
	require.NoError(t, err)
	require.NotNil(t, closed)
	assert.True(t, closed.Closed)

	stored, err := r.GetExperiment(exp.ExperimentNumber)
	require.NoError(t, err)
	assert.True(t, stored.Closed)

	entries, err := trail.Entries()
	require.NoError(t, err)
	assert.Equal(t, "experiment:close", entries[len(entries)-1].Action)
}

func TestDeleteExperiment_Cascades(t *testing.T) {
	r, _, _ := newTestRepo(t)
	exp, practices, err := r.CreateExperiment(studentSess, baseReagents(), 3)
	require.NoError(t, err)

	require.NoError(t, r.DeleteExperiment(adminSess, exp.ExperimentNumber))

	stored, err := r.GetExperiment(exp.ExperimentNumber)
	require.NoError(t, err)
	assert.Nil(t, stored)

	for _, p := range practices {
		found, err := r.FindPracticeByCode(p.Code)
		require.NoError(t, err)
		assert.Nil(t, found)
	}

	group, err := r.FindPracticesByExperiment(exp.ExperimentNumber)
	require.NoError(t, err)
	assert.Empty(t, group)

	// numbers are never reused, even after deletion
	next, _, err := r.CreateExperiment(studentSess, baseReagents(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, next.ExperimentNumber)
}

func TestDeletePractice(t *testing.T) {
	r, trail, _ := newTestRepo(t)
	_, practices, err := r.CreateExperiment(studentSess, baseReagents(), 2)
	require.NoError(t, err)

	require.NoError(t, r.DeletePractice(adminSess, practices[0].Code))

	found, err := r.FindPracticeByCode(practices[0].Code)
	require.NoError(t, err)
	assert.Nil(t, found)

	remaining, err := r.FindPracticesByExperiment(1)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)

	entries, err := trail.Entries()
	require.NoError(t, err)
	assert.Equal(t, "practice:delete", entries[len(entries)-1].Action)

	// deleting an unknown code is a no-op and logs nothing
	before := len(entries)
	require.NoError(t, r.DeletePractice(adminSess, "0000000000"))
	entries, err = trail.Entries()
	require.NoError(t, err)
	assert.Len(t, entries, before)
}

func TestSearch(t *testing.T) {
	r, _, _ := newTestRepo(t)
	_, mine, err := r.CreateExperiment(studentSess, baseReagents(), 2)
	require.NoError(t, err)
	_, theirs, err := r.CreateExperiment(otherSess, baseReagents(), 1)
	require.NoError(t, err)

	t.Run("by code exact", func(t *testing.T) {
		rows, err := r.Search(studentSess, SearchCode, mine[0].Code)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, mine[0].Code, rows[0].Code)
	})

	t.Run("by experiment number sorted", func(t *testing.T) {
		rows, err := r.Search(studentSess, SearchExperiment, "1")
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, 1, rows[0].PracticeNumber)
		assert.Equal(t, 2, rows[1].PracticeNumber)
	})

	t.Run("exp mode rejects non-digits", func(t *testing.T) {
		rows, err := r.Search(studentSess, SearchExperiment, "1a")
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("auto short digits is an experiment lookup", func(t *testing.T) {
		rows, err := r.Search(studentSess, SearchAuto, " 1 ")
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})

	t.Run("auto long query is a code lookup", func(t *testing.T) {
		rows, err := r.Search(studentSess, SearchAuto, mine[1].Code)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, mine[1].Code, rows[0].Code)
	})

	t.Run("results filtered by visibility", func(t *testing.T) {
		rows, err := r.Search(studentSess, SearchCode, theirs[0].Code)
		require.NoError(t, err)
		assert.Empty(t, rows, "another student's practice stays hidden")

		rows, err = r.Search(adminSess, SearchCode, theirs[0].Code)
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	})

	t.Run("blank query returns nothing", func(t *testing.T) {
		rows, err := r.Search(studentSess, SearchAuto, "   ")
		require.NoError(t, err)
		assert.Nil(t, rows)
	})
}

func TestCorruptStorageReadsAsEmpty(t *testing.T) {
	r, _, kv := newTestRepo(t)

	require.NoError(t, kv.Set(store.KeyPractices, []byte("{not json")))
	require.NoError(t, kv.Set(store.KeyExperiments, []byte("also broken")))

	practices, err := r.AllPractices()
	require.NoError(t, err)
	assert.Empty(t, practices)

	experiments, err := r.AllExperiments()
	require.NoError(t, err)
	assert.Empty(t, experiments)
}
