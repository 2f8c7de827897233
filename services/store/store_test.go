package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sahilchouksey/gaokao-ingest/database"
	"github.com/sahilchouksey/gaokao-ingest/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	store, err := database.Open(database.Settings{SQLitePath: ":memory:", LogLevel: logger.Silent})
	require.NoError(t, err)
	require.NoError(t, store.Init())
	t.Cleanup(func() { _ = store.Close() })
	return store.GetDB()
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func institutions(from, to int) []model.Institution {
	out := make([]model.Institution, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, model.Institution{
			InstitutionCode: fmt.Sprintf("1%04d", i),
			RegistryCode:    fmt.Sprintf("%04d", i),
			Name:            fmt.Sprintf("University %d", i),
			PlanSize:        intPtr(100),
		})
	}
	return out
}

func count[T any](t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(new(T)).Count(&n).Error)
	return n
}

func TestParseWriteMode(t *testing.T) {
	for in, want := range map[string]WriteMode{
		"insert": ModeInsert, "INSERT-IGNORE": ModeInsertIgnore, "ignore": ModeInsertIgnore,
		"replace": ModeReplace, "upsert": ModeReplace,
	} {
		got, err := ParseWriteMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseWriteMode("merge")
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestWrite_InsertChunksEveryRow(t *testing.T) {
	db := newTestDB(t)
	w := NewWriter(db, 4)

	res, err := Write(context.Background(), w, institutions(0, 10), ModeInsert)
	require.NoError(t, err)
	assert.EqualValues(t, 10, res.RowsAffected)
	assert.Equal(t, 3, res.ChunksCommitted)
	assert.Zero(t, res.ChunksFailed)
	assert.EqualValues(t, 10, count[model.Institution](t, db))
}

func TestWrite_InsertIgnoreCountsOnlyNewRows(t *testing.T) {
	db := newTestDB(t)
	w := NewWriter(db, DefaultChunkSize)
	ctx := context.Background()

	existing := institutions(0, 3)
	existing[0].PlanSize = intPtr(7)
	_, err := Write(ctx, w, existing, ModeInsert)
	require.NoError(t, err)

	// K=8 rows, D=3 collide with stored keys.
	incoming := institutions(0, 8)
	res, err := Write(ctx, w, incoming, ModeInsertIgnore)
	require.NoError(t, err)
	assert.EqualValues(t, 5, res.RowsAffected)
	assert.EqualValues(t, 8, count[model.Institution](t, db))

	var kept model.Institution
	require.NoError(t, db.Where("yxdm = ?", existing[0].InstitutionCode).Take(&kept).Error)
	require.NotNil(t, kept.PlanSize)
	assert.Equal(t, 7, *kept.PlanSize, "pre-existing row is untouched")

	// A repeat run converges.
	res, err = Write(ctx, w, incoming, ModeInsertIgnore)
	require.NoError(t, err)
	assert.Zero(t, res.RowsAffected)
	assert.EqualValues(t, 8, count[model.Institution](t, db))
}

func TestWrite_ReplaceOverwritesNonKeyColumns(t *testing.T) {
	db := newTestDB(t)
	w := NewWriter(db, DefaultChunkSize)
	ctx := context.Background()

	groups := []model.ProgramGroup{
		{GroupCode: "01", RegistryCode: "1101", GroupSeq: "01", GroupName: strPtr("old"), PlanSize: intPtr(10)},
		{GroupCode: "02", RegistryCode: "1101", GroupSeq: "01", GroupName: strPtr("other")},
	}
	_, err := Write(ctx, w, groups, ModeInsert)
	require.NoError(t, err)

	var before model.ProgramGroup
	require.NoError(t, db.Where("zyzdm = ?", "01").Take(&before).Error)

	update := []model.ProgramGroup{
		{GroupCode: "01", RegistryCode: "1101", GroupSeq: "01", GroupName: strPtr("stale")},
		{GroupCode: "01", RegistryCode: "1101", GroupSeq: "01", GroupName: strPtr("new"), PlanSize: intPtr(12)},
		{GroupCode: "03", RegistryCode: "1101", GroupSeq: "01"},
	}
	_, err = Write(ctx, w, update, ModeReplace)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count[model.ProgramGroup](t, db))

	var after model.ProgramGroup
	require.NoError(t, db.Where("zyzdm = ?", "01").Take(&after).Error)
	assert.Equal(t, before.KeyID, after.KeyID, "identity is preserved")
	require.NotNil(t, after.GroupName)
	assert.Equal(t, "new", *after.GroupName, "last row for a key wins")
	assert.Equal(t, 12, *after.PlanSize)
	assert.Equal(t, before.CreatedAt.Unix(), after.CreatedAt.Unix())
}

func TestWrite_ReplaceRefusesAppendOnly(t *testing.T) {
	db := newTestDB(t)
	rows := []model.HistoricalProgramGroupScore{{Year: "2024", InstitutionCode: "10001", GroupCode: "01", GroupSeq: "01"}}

	res, err := Write(context.Background(), NewWriter(db, 0), rows, ModeReplace)
	assert.ErrorIs(t, err, ErrAppendOnly)
	assert.Zero(t, res.RowsAffected)
	assert.Zero(t, count[model.HistoricalProgramGroupScore](t, db))
}

func TestWrite_InsertCollisionKeepsEarlierChunks(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, err := Write(ctx, NewWriter(db, 0), institutions(6, 7), ModeInsert)
	require.NoError(t, err)

	// Chunks [0,3) [3,6) [6,9); the third collides on row 6.
	res, err := Write(ctx, NewWriter(db, 3), institutions(0, 9), ModeInsert)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConstraintViolation)

	var chunkErr *ChunkError
	require.True(t, errors.As(err, &chunkErr))
	assert.Equal(t, 2, chunkErr.Index)
	assert.Equal(t, 3, chunkErr.Rows)

	assert.EqualValues(t, 6, res.RowsAffected)
	assert.Equal(t, 2, res.ChunksCommitted)
	assert.Equal(t, 1, res.ChunksFailed)
	assert.EqualValues(t, 7, count[model.Institution](t, db), "failed chunk rolled back in full")
}

func TestWrite_EmptyAndUnregistered(t *testing.T) {
	db := newTestDB(t)
	w := NewWriter(db, 0)

	res, err := Write(context.Background(), w, []model.Program{}, ModeInsert)
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)

	_, err = Write(context.Background(), w, []struct{ A int }{{1}}, ModeInsert)
	assert.Error(t, err)
}

func TestWrite_CancelledContext(t *testing.T) {
	db := newTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Write(ctx, NewWriter(db, 0), institutions(0, 2), ModeInsert)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, count[model.Institution](t, db))
}

func TestDetailStore_ReimportReplacesChildren(t *testing.T) {
	db := newTestDB(t)
	ds := NewDetailStore(db)
	ctx := context.Background()

	detail := model.InstitutionDetail{SchoolID: "31", Name: "Sample University", ProvinceName: strPtr("Beijing")}
	first := model.DetailChildren{
		MasterDegrees: []model.MasterDegreePoint{{Name: "Physics"}, {Name: "Math"}},
		Subjects:      []model.Subject{{Name: "Optics"}},
	}
	created, err := ds.Upsert(ctx, detail, first)
	require.NoError(t, err)
	assert.True(t, created)

	var stored model.InstitutionDetail
	require.NoError(t, db.Where("school_id = ?", "31").Take(&stored).Error)
	assert.Equal(t, 1, stored.Version)

	detail.Name = "Sample University (renamed)"
	detail.ProvinceName = nil
	second := model.DetailChildren{
		DoctorateDegrees: []model.DoctorateDegreePoint{{Name: "Physics", Num: strPtr("1")}},
		Specialties:      []model.Specialty{{SpecialName: strPtr("Photonics")}},
	}
	created, err = ds.Upsert(ctx, detail, second)
	require.NoError(t, err)
	assert.False(t, created)

	var updated model.InstitutionDetail
	require.NoError(t, db.Where("school_id = ?", "31").Take(&updated).Error)
	assert.Equal(t, stored.ID, updated.ID)
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, "Sample University (renamed)", updated.Name)
	assert.Nil(t, updated.ProvinceName, "full-row update clears absent fields")
	assert.EqualValues(t, 1, count[model.InstitutionDetail](t, db))

	children, err := ds.Children(ctx, "31")
	require.NoError(t, err)
	assert.Empty(t, children.MasterDegrees, "old children are gone")
	assert.Empty(t, children.Subjects)
	require.Len(t, children.DoctorateDegrees, 1)
	require.Len(t, children.Specialties, 1)
	assert.Equal(t, "31", children.Specialties[0].SchoolID)
}

func TestDetailStore_RequiresSchoolID(t *testing.T) {
	_, err := NewDetailStore(newTestDB(t)).Upsert(context.Background(), model.InstitutionDetail{Name: "x"}, model.DetailChildren{})
	assert.Error(t, err)
}

func TestRunLog_StartFinish(t *testing.T) {
	db := newTestDB(t)
	rl := NewRunLog(db)
	ctx := context.Background()

	run, err := rl.Start(ctx, "schools")
	require.NoError(t, err)
	assert.Len(t, run.RunID, 36)

	require.NoError(t, rl.Finish(ctx, run, RunStats{Total: 3, Fetched: 2, Failed: 1, Failures: []string{"page=3"}}))

	runs, err := rl.Recent(ctx, "schools", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.IngestRunStatusPartial, runs[0].Status)
	assert.JSONEq(t, `["page=3"]`, string(runs[0].Failures))
	require.NotNil(t, runs[0].CompletedAt)
}
