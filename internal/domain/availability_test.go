package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func TestNewSlot_Defaults(t *testing.T) {
	s := NewSlot("subj-1", SubjectKindArtist, "", "nonsense", day(2025, 6, 10), day(2025, 6, 12), "subj-1")

	assert.Equal(t, DefaultSlotTitle, s.Title)
	assert.Equal(t, SlotStatusBusy, s.Status, "unknown status clamps to busy")
	assert.Equal(t, day(2025, 6, 10), s.Start)
	assert.Equal(t, day(2025, 6, 13), s.End, "end is one day past the last selected day")
	assert.Equal(t, VisibilityPublic, s.Visibility)

	free := NewSlot("subj-1", SubjectKindArtist, "Open", SlotStatusFree, day(2025, 6, 10), day(2025, 6, 10), "subj-1")
	assert.Equal(t, SlotStatusFree, free.Status)
	assert.Equal(t, day(2025, 6, 11), free.End)
}

func TestSlot_CoversDay_ExclusiveEnd(t *testing.T) {
	s := &Slot{Start: day(2025, 6, 10), End: day(2025, 6, 13), Status: SlotStatusBusy}

	assert.True(t, s.CoversDay(day(2025, 6, 10)))
	assert.True(t, s.CoversDay(day(2025, 6, 12)))
	assert.False(t, s.CoversDay(day(2025, 6, 13)), "exclusive end day is not covered")
	assert.False(t, s.CoversDay(day(2025, 6, 9)))
	assert.Equal(t, day(2025, 6, 12), s.LastDay())
}

func TestFilterSlotsForMonth(t *testing.T) {
	spanning := &Slot{ID: "span", Start: day(2025, 1, 30), End: day(2025, 2, 3), Status: SlotStatusBusy}
	january := &Slot{ID: "jan", Start: day(2025, 1, 5), End: day(2025, 1, 7), Status: SlotStatusBusy}
	march := &Slot{ID: "mar", Start: day(2025, 3, 1), End: day(2025, 3, 2), Status: SlotStatusBusy}
	all := []*Slot{january, spanning, march}

	janSlots := FilterSlotsForMonth(all, day(2025, 1, 15))
	require.Len(t, janSlots, 2)
	assert.Equal(t, "jan", janSlots[0].ID)
	assert.Equal(t, "span", janSlots[1].ID)

	// A slot crossing the month boundary is visible from both months.
	febSlots := FilterSlotsForMonth(all, day(2025, 2, 1))
	require.Len(t, febSlots, 1)
	assert.Equal(t, "span", febSlots[0].ID)

	marSlots := FilterSlotsForMonth(all, day(2025, 3, 20))
	require.Len(t, marSlots, 1)
	assert.Equal(t, "mar", marSlots[0].ID)
}

func TestBuildMonthIndex_BusyFreePartition(t *testing.T) {
	today := day(2025, 6, 1)
	busy := &Slot{ID: "b", Start: day(2025, 6, 10), End: day(2025, 6, 13), Status: SlotStatusBusy}
	idx := BuildMonthIndex("subj-1", day(2025, 6, 1), today, []*Slot{busy})

	// Busy/free must partition every day of the month at or after today.
	for d := day(2025, 6, 1); d.Month() == time.June; d = d.AddDate(0, 0, 1) {
		assert.Equal(t, !idx.IsBusyDay(d), idx.IsFreeDay(d), "day %v", d)
	}

	assert.False(t, idx.IsFreeDay(day(2025, 6, 11)))
	assert.True(t, idx.IsFreeDay(day(2025, 6, 13)), "exclusive end day stays free")
	require.Len(t, idx.SlotsForDay(day(2025, 6, 10)), 1)
	assert.Empty(t, idx.SlotsForDay(day(2025, 6, 13)))
}

func TestBuildMonthIndex_StatusHandling(t *testing.T) {
	today := day(2025, 6, 1)
	slots := []*Slot{
		{ID: "free", Start: day(2025, 6, 2), End: day(2025, 6, 3), Status: SlotStatusFree},
		{ID: "booked", Start: day(2025, 6, 5), End: day(2025, 6, 6), Status: SlotStatusBooked},
		{ID: "blocked", Start: day(2025, 6, 8), End: day(2025, 6, 9), Status: SlotStatusBlocked},
	}
	idx := BuildMonthIndex("subj-1", today, today, slots)

	assert.True(t, idx.IsFreeDay(day(2025, 6, 2)), "free slots never disable days")
	assert.False(t, idx.IsFreeDay(day(2025, 6, 5)), "booked merges into the busy set")
	assert.False(t, idx.IsFreeDay(day(2025, 6, 8)), "blocked merges into the busy set")
	// The free slot still shows up in the day-detail lookup.
	require.Len(t, idx.SlotsForDay(day(2025, 6, 2)), 1)
}

func TestBuildMonthIndex_PastDaysNeverFreeNorBusy(t *testing.T) {
	today := day(2025, 6, 15)
	past := &Slot{ID: "p", Start: day(2025, 6, 2), End: day(2025, 6, 5), Status: SlotStatusBusy}
	idx := BuildMonthIndex("subj-1", day(2025, 6, 1), today, []*Slot{past})

	assert.False(t, idx.IsFreeDay(day(2025, 6, 3)), "past days are never selectable")
	assert.False(t, idx.IsBusyDay(day(2025, 6, 3)), "past days are not marked busy either")
	assert.True(t, idx.IsFreeDay(today))
}
