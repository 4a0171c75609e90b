package wizard_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/appointmentbooking/backend/internal/domain/entities"
	"github.com/zatekoja/appointmentbooking/backend/internal/domain/scheduling"
	"github.com/zatekoja/appointmentbooking/backend/internal/domain/wizard"
)

func machineAtStep3() *wizard.Machine {
	m := wizard.NewMachine(nil)
	m.SelectDoctor("E314864344")
	m.Advance()
	m.SelectDate(monday)
	m.SelectTime("09:30")
	m.Advance()
	return m
}

func TestMachine_BeginSubmitOnce(t *testing.T) {
	m := machineAtStep3()

	assert.True(t, m.BeginSubmit())
	assert.False(t, m.BeginSubmit())
	assert.True(t, m.UI().IsSubmitting)

	assert.True(t, m.SubmitFailed())
	assert.False(t, m.SubmitFailed())
	assert.True(t, m.BeginSubmit())
}

func TestMachine_StartSubmission(t *testing.T) {
	m := machineAtStep3()
	m.SetName("John Doe")

	draft, ok := m.StartSubmission()
	require.True(t, ok)
	assert.Equal(t, "John Doe", draft.PatientName)
	assert.True(t, m.UI().IsSubmitting)

	m.SetName("Jane Roe")
	assert.Equal(t, "John Doe", draft.PatientName)
	assert.Equal(t, "Jane Roe", m.Draft().PatientName)

	_, ok = m.StartSubmission()
	assert.False(t, ok)
}

func TestMachine_ConcurrentBeginSubmit(t *testing.T) {
	m := machineAtStep3()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		started int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if m.BeginSubmit() {
				mu.Lock()
				started++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, started)
}

func TestMachine_Slots(t *testing.T) {
	m := wizard.NewMachine(nil)
	assert.Empty(t, m.Slots())

	m.IngestRemoteSlots(entities.WeeklySchedule{
		{
			DayName:   "Mon",
			IsWorking: true,
			Sessions: []entities.Session{
				{StartTime: entities.NewTimeOfDay(9, 0), EndTime: entities.NewTimeOfDay(10, 0), DurationMins: 30, IsAvailable: true},
			},
		},
	})
	m.SelectDate(monday)

	slots := m.Slots()
	require.Len(t, slots, 2)
	assert.Equal(t, "09:30", slots[1].Time.String())

	m.SelectDate(monday.AddDays(1))
	assert.Empty(t, m.Slots())

	m.Reset()
	m.SelectDate(monday)
	assert.Len(t, m.Slots(), 2)
}

func TestMachine_LongWeekdayNaming(t *testing.T) {
	m := wizard.NewMachine(scheduling.NewResolver(scheduling.WeekdayLong))
	m.IngestRemoteSlots(entities.WeeklySchedule{
		{
			DayName:   "Monday",
			IsWorking: true,
			Sessions: []entities.Session{
				{StartTime: entities.NewTimeOfDay(9, 0), EndTime: entities.NewTimeOfDay(10, 0), DurationMins: 60, IsAvailable: true},
			},
		},
	})
	m.SelectDate(monday)

	assert.Len(t, m.Slots(), 1)
}

func TestMachine_DraftIsACopy(t *testing.T) {
	m := machineAtStep3()

	draft := m.Draft()
	draft.Date.Day = 1
	draft.PatientName = "changed"

	again := m.Draft()
	assert.Equal(t, monday, *again.Date)
	assert.Empty(t, again.PatientName)
}

func TestMachine_CanAdvance(t *testing.T) {
	m := wizard.NewMachine(nil)
	assert.False(t, m.CanAdvance())
	m.SelectDoctor("E314864344")
	assert.True(t, m.CanAdvance())
}
