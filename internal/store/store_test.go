package store_test

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/earn/internal/logging"
	"github.com/Tiliavir/earn/internal/model"
	"github.com/Tiliavir/earn/internal/storage"
	"github.com/Tiliavir/earn/internal/store"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func openStore(t *testing.T, b storage.Backend) *store.Store {
	t.Helper()
	return store.Open(b, store.WithLogger(logging.Discard()), store.WithIDGenerator(sequentialIDs()))
}

// failingBackend accepts loads but rejects every save once armed, or only
// saves of failKey.
type failingBackend struct {
	*storage.MemoryBackend
	fail    bool
	failKey string
}

func (f *failingBackend) Save(key string, data []byte) error {
	if f.fail || key == f.failKey {
		return errors.New("disk full")
	}
	return f.MemoryBackend.Save(key, data)
}

func TestOpenDefaults(t *testing.T) {
	s := openStore(t, storage.NewMemoryBackend())

	assert.Empty(t, s.WorkLogs())
	assert.Empty(t, s.BonusEvents())
	assert.Equal(t, model.DefaultCompanyRates(), s.Rates())
	assert.Nil(t, s.ActiveShift())

	calc := s.Calculator()
	assert.Equal(t, 0.0, calc.Deduction)
	assert.Equal(t, model.Company("Arte Suave"), calc.Primary)
	assert.Len(t, calc.Taxes, 3)
	for _, c := range s.Companies() {
		assert.Equal(t, model.DefaultTaxSettings(), calc.Taxes[c])
	}
}

func TestOpenCorruptBlobFallsBackAndQuarantines(t *testing.T) {
	b := storage.NewMemoryBackend()
	require.NoError(t, b.Save(store.KeyWorkLogs, []byte("{not json")))
	require.NoError(t, b.Save(store.KeyCompanyRates, []byte(`{"Acme": 100}`)))

	s := openStore(t, b)

	assert.Empty(t, s.WorkLogs())
	assert.Equal(t, model.CompanyRates{"Acme": 100}, s.Rates())

	_, err := b.Load(store.KeyWorkLogs)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	backup, err := b.Load(store.KeyWorkLogs + "_corrupt")
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(backup))
}

func TestStoreRoundTripThroughBackend(t *testing.T) {
	b := storage.NewMemoryBackend()
	s := openStore(t, b)

	_, err := s.AddWorkLog(store.WorkLogInput{Company: "Kraftvrk", Date: "2024-05-01", Hours: 2, Rate: 160})
	require.NoError(t, err)
	_, err = s.UpsertBonusEvent("2024-05-02", "Arte Suave")
	require.NoError(t, err)
	require.NoError(t, s.SetDeduction(4000))
	require.NoError(t, s.SetPrimaryCompany("Kraftvrk"))

	reopened := openStore(t, b)
	assert.Equal(t, s.WorkLogs(), reopened.WorkLogs())
	assert.Equal(t, s.BonusEvents(), reopened.BonusEvents())
	assert.Equal(t, s.Calculator(), reopened.Calculator())
}

func TestAddWorkLog(t *testing.T) {
	s := openStore(t, storage.NewMemoryBackend())

	first, err := s.AddWorkLog(store.WorkLogInput{Company: "Kraftvrk", Date: "2024-05-01", Hours: 2, Rate: 160})
	require.NoError(t, err)
	assert.Equal(t, "id-1", first.ID)
	assert.Equal(t, store.SourceManual, first.Source)

	_, err = s.AddWorkLog(store.WorkLogInput{Company: "Arte Suave", Date: "2024-05-03", Hours: 1.5, Rate: 300})
	require.NoError(t, err)
	_, err = s.AddWorkLog(store.WorkLogInput{Company: "Kraftvrk", Date: "2024-04-30", Hours: 1, Rate: 160})
	require.NoError(t, err)

	var dates []model.Date
	for _, l := range s.WorkLogs() {
		dates = append(dates, l.Date)
	}
	assert.Equal(t, []model.Date{"2024-05-03", "2024-05-01", "2024-04-30"}, dates)
}

func TestAddWorkLogValidation(t *testing.T) {
	tests := []struct {
		name string
		in   store.WorkLogInput
		want error
	}{
		{"zero hours", store.WorkLogInput{Company: "Kraftvrk", Date: "2024-05-01", Hours: 0, Rate: 160}, store.ErrInvalidHours},
		{"negative hours", store.WorkLogInput{Company: "Kraftvrk", Date: "2024-05-01", Hours: -1, Rate: 160}, store.ErrInvalidHours},
		{"negative rate", store.WorkLogInput{Company: "Kraftvrk", Date: "2024-05-01", Hours: 1, Rate: -5}, store.ErrInvalidRate},
		{"empty company", store.WorkLogInput{Company: "  ", Date: "2024-05-01", Hours: 1, Rate: 1}, model.ErrEmptyCompany},
		{"bad date", store.WorkLogInput{Company: "Kraftvrk", Date: "2024-13-01", Hours: 1, Rate: 1}, model.ErrInvalidDate},
		{"unknown company", store.WorkLogInput{Company: "Nowhere", Date: "2024-05-01", Hours: 1, Rate: 1}, store.ErrUnknownCompany},
		{"infinite hours", store.WorkLogInput{Company: "Kraftvrk", Date: "2024-05-01", Hours: math.Inf(1), Rate: 1}, store.ErrInvalidHours},
		{"NaN hours", store.WorkLogInput{Company: "Kraftvrk", Date: "2024-05-01", Hours: math.NaN(), Rate: 1}, store.ErrInvalidHours},
		{"infinite rate", store.WorkLogInput{Company: "Kraftvrk", Date: "2024-05-01", Hours: 1, Rate: math.Inf(1)}, store.ErrInvalidRate},
		{"earnings overflow", store.WorkLogInput{Company: "Kraftvrk", Date: "2024-05-01", Hours: 1e200, Rate: 1e200}, store.ErrAmountTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := storage.NewMemoryBackend()
			s := openStore(t, b)
			_, err := s.AddWorkLog(tt.in)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, s.WorkLogs())
			assert.Zero(t, b.Saves())
		})
	}
}

func TestUpdateWorkLogRejectsOverflow(t *testing.T) {
	s := openStore(t, storage.NewMemoryBackend())
	l, err := s.AddWorkLog(store.WorkLogInput{Company: "Kraftvrk", Date: "2024-05-01", Hours: 2, Rate: 160})
	require.NoError(t, err)

	_, err = s.UpdateWorkLog(l.ID, store.WorkLogInput{Company: "Kraftvrk", Date: "2024-05-01", Hours: 1e200, Rate: 1e200})
	require.ErrorIs(t, err, store.ErrAmountTooLarge)

	got, ok := s.WorkLog(l.ID)
	require.True(t, ok)
	assert.Equal(t, 320.0, got.Earnings())
}

func TestAddWorkLogZeroRateAllowed(t *testing.T) {
	s := openStore(t, storage.NewMemoryBackend())
	l, err := s.AddWorkLog(store.WorkLogInput{Company: "Kraftvrk", Date: "2024-05-01", Hours: 3, Rate: 0})
	require.NoError(t, err)
	assert.Equal(t, 0.0, l.Earnings())
}

func TestSaveFailureLeavesStateUnchanged(t *testing.T) {
	b := &failingBackend{MemoryBackend: storage.NewMemoryBackend()}
	s := openStore(t, b)
	b.fail = true

	_, err := s.AddWorkLog(store.WorkLogInput{Company: "Kraftvrk", Date: "2024-05-01", Hours: 2, Rate: 160})
	require.ErrorIs(t, err, store.ErrPersist)
	assert.Empty(t, s.WorkLogs())

	_, err = s.UpsertBonusEvent("2024-05-01", "Kraftvrk")
	require.Error(t, err)
	assert.Empty(t, s.BonusEvents())

	require.Error(t, s.SetCompanyRate("Kraftvrk", 999))
	assert.Equal(t, 160.0, s.Rates()["Kraftvrk"])
}

func TestDeleteWorkLog(t *testing.T) {
	s := openStore(t, storage.NewMemoryBackend())
	l, err := s.AddWorkLog(store.WorkLogInput{Company: "Kraftvrk", Date: "2024-05-01", Hours: 2, Rate: 160})
	require.NoError(t, err)

	removed, err := s.DeleteWorkLog("missing")
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Len(t, s.WorkLogs(), 1)

	removed, err = s.DeleteWorkLog(l.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Empty(t, s.WorkLogs())
}

func TestUpsertBonusEventKeepsOnePerDate(t *testing.T) {
	s := openStore(t, storage.NewMemoryBackend())

	first, err := s.UpsertBonusEvent("2024-05-01", "Kraftvrk")
	require.NoError(t, err)
	assert.Equal(t, "video-id-1", first.ID)

	second, err := s.UpsertBonusEvent("2024-05-01", "Arte Suave")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, model.Company("Arte Suave"), second.Company)

	events := s.BonusEvents()
	require.Len(t, events, 1)
	assert.Equal(t, model.Company("Arte Suave"), events[0].Company)

	got, ok := s.BonusEvent("2024-05-01")
	require.True(t, ok)
	assert.Equal(t, second, got)

	removed, err := s.DeleteBonusEvent("2024-05-01")
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = s.DeleteBonusEvent("2024-05-01")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestAddCompany(t *testing.T) {
	s := openStore(t, storage.NewMemoryBackend())

	c, err := s.AddCompany("  Acme  ", 200)
	require.NoError(t, err)
	assert.Equal(t, model.Company("Acme"), c)
	assert.Equal(t, 200.0, s.Rates()["Acme"])
	assert.Equal(t, model.DefaultTaxSettings(), s.Calculator().Taxes["Acme"])

	_, err = s.AddCompany("Acme", 100)
	assert.ErrorIs(t, err, store.ErrDuplicateCompany)
	assert.Equal(t, 200.0, s.Rates()["Acme"])

	_, err = s.AddCompany("", 100)
	assert.ErrorIs(t, err, model.ErrEmptyCompany)

	_, err = s.AddCompany("Negative", -1)
	assert.ErrorIs(t, err, store.ErrInvalidRate)
	assert.False(t, s.Rates().Has("Negative"))
}

func TestSetCompanyRateKeepsHistoricRates(t *testing.T) {
	s := openStore(t, storage.NewMemoryBackend())
	l, err := s.AddWorkLog(store.WorkLogInput{Company: "Kraftvrk", Date: "2024-05-01", Hours: 2, Rate: 160})
	require.NoError(t, err)

	require.NoError(t, s.SetCompanyRate("Kraftvrk", 200))
	assert.Equal(t, 200.0, s.Rates()["Kraftvrk"])

	got, ok := s.WorkLog(l.ID)
	require.True(t, ok)
	assert.Equal(t, 160.0, got.Rate)
}

func TestDeleteCompanyCascades(t *testing.T) {
	s := openStore(t, storage.NewMemoryBackend())
	for _, in := range []store.WorkLogInput{
		{Company: "Kraftvrk", Date: "2024-05-01", Hours: 2, Rate: 160},
		{Company: "Kraftvrk", Date: "2024-05-02", Hours: 1, Rate: 160},
		{Company: "Arte Suave", Date: "2024-05-02", Hours: 1, Rate: 300},
	} {
		_, err := s.AddWorkLog(in)
		require.NoError(t, err)
	}
	_, err := s.UpsertBonusEvent("2024-05-01", "Kraftvrk")
	require.NoError(t, err)
	_, err = s.UpsertBonusEvent("2024-05-02", "Form & Fitness")
	require.NoError(t, err)
	require.NoError(t, s.SetPrimaryCompany("Kraftvrk"))

	res, err := s.DeleteCompany("Kraftvrk")
	require.NoError(t, err)
	assert.Equal(t, store.CascadeResult{WorkLogs: 2, BonusEvents: 1}, res)

	assert.False(t, s.Rates().Has("Kraftvrk"))
	for _, l := range s.WorkLogs() {
		assert.NotEqual(t, model.Company("Kraftvrk"), l.Company)
	}
	assert.Len(t, s.WorkLogs(), 1)
	events := s.BonusEvents()
	require.Len(t, events, 1)
	assert.Equal(t, model.Company("Form & Fitness"), events[0].Company)

	calc := s.Calculator()
	assert.NotContains(t, calc.Taxes, model.Company("Kraftvrk"))
	assert.Equal(t, model.Company("Arte Suave"), calc.Primary)

	_, err = s.DeleteCompany("Kraftvrk")
	assert.ErrorIs(t, err, store.ErrUnknownCompany)
}

func TestDeleteCompanySaveFailureKeepsRecords(t *testing.T) {
	for _, key := range []string{store.KeyWorkLogs, store.KeyBonusEvents, store.KeyActiveShift, store.KeyCompanyRates, store.KeyCompanySettings} {
		t.Run(key, func(t *testing.T) {
			b := &failingBackend{MemoryBackend: storage.NewMemoryBackend()}
			s := openStore(t, b)
			_, err := s.AddWorkLog(store.WorkLogInput{Company: "Kraftvrk", Date: "2024-05-01", Hours: 2, Rate: 160})
			require.NoError(t, err)
			_, err = s.UpsertBonusEvent("2024-05-01", "Kraftvrk")
			require.NoError(t, err)
			_, err = s.StartShift("Kraftvrk", time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC))
			require.NoError(t, err)
			require.NoError(t, s.SetPrimaryCompany("Kraftvrk"))

			var changes []store.Change
			s.Subscribe(func(c store.Change) { changes = append(changes, c) })

			b.failKey = key
			_, err = s.DeleteCompany("Kraftvrk")
			require.ErrorIs(t, err, store.ErrPersist)

			assert.True(t, s.Rates().Has("Kraftvrk"))
			assert.Len(t, s.WorkLogs(), 1)
			assert.Len(t, s.BonusEvents(), 1)
			assert.NotNil(t, s.ActiveShift())
			assert.Equal(t, model.Company("Kraftvrk"), s.Calculator().Primary)
			assert.Empty(t, changes)

			b.failKey = ""
			res, err := s.DeleteCompany("Kraftvrk")
			require.NoError(t, err)
			assert.Equal(t, store.CascadeResult{WorkLogs: 1, BonusEvents: 1}, res)
			assert.False(t, s.Rates().Has("Kraftvrk"))
			assert.Empty(t, s.WorkLogs())
			assert.Empty(t, s.BonusEvents())
			assert.Nil(t, s.ActiveShift())
		})
	}
}

func TestDeleteCompanyInterruptedLeavesCompanyOnDisk(t *testing.T) {
	b := &failingBackend{MemoryBackend: storage.NewMemoryBackend()}
	s := openStore(t, b)
	_, err := s.AddWorkLog(store.WorkLogInput{Company: "Kraftvrk", Date: "2024-05-01", Hours: 2, Rate: 160})
	require.NoError(t, err)
	_, err = s.UpsertBonusEvent("2024-05-01", "Kraftvrk")
	require.NoError(t, err)

	b.failKey = store.KeyBonusEvents
	_, err = s.DeleteCompany("Kraftvrk")
	require.Error(t, err)

	reopened := openStore(t, b.MemoryBackend)
	assert.True(t, reopened.Rates().Has("Kraftvrk"))
	for _, e := range reopened.BonusEvents() {
		assert.True(t, reopened.Rates().Has(e.Company))
	}
}

func TestSetCompanyRateCalculatorFailure(t *testing.T) {
	b := &failingBackend{MemoryBackend: storage.NewMemoryBackend()}
	s := openStore(t, b)

	b.failKey = store.KeyCompanySettings
	require.ErrorIs(t, s.SetCompanyRate("Boxing Club", 200), store.ErrPersist)
	assert.False(t, s.Rates().Has("Boxing Club"))
	assert.NotContains(t, s.Calculator().Taxes, model.Company("Boxing Club"))
}

func TestDeleteLastCompanyClearsPrimary(t *testing.T) {
	s := openStore(t, storage.NewMemoryBackend())
	for _, c := range s.Companies() {
		_, err := s.DeleteCompany(c)
		require.NoError(t, err)
	}
	assert.Empty(t, s.Companies())
	assert.Equal(t, model.Company(""), s.Calculator().Primary)
}

func TestCalculatorSettings(t *testing.T) {
	s := openStore(t, storage.NewMemoryBackend())

	assert.ErrorIs(t, s.SetDeduction(-1), store.ErrInvalidDeduction)
	require.NoError(t, s.SetDeduction(3500))
	assert.Equal(t, 3500.0, s.Calculator().Deduction)

	assert.ErrorIs(t, s.SetPrimaryCompany("Nowhere"), store.ErrUnknownCompany)

	err := s.SetTaxSettings("Kraftvrk", model.TaxSettings{ContributionPercent: -1, IncomeTaxPercent: 37})
	assert.ErrorIs(t, err, store.ErrInvalidPercent)
	assert.Equal(t, model.DefaultTaxSettings(), s.Calculator().Taxes["Kraftvrk"])

	require.NoError(t, s.SetTaxSettings("Kraftvrk", model.TaxSettings{ContributionPercent: 8, IncomeTaxPercent: 42}))
	assert.Equal(t, 42.0, s.Calculator().Taxes["Kraftvrk"].IncomeTaxPercent)

	calc := s.Calculator()
	calc.Taxes["Kraftvrk"] = model.TaxSettings{}
	assert.Equal(t, 42.0, s.Calculator().Taxes["Kraftvrk"].IncomeTaxPercent, "Calculator must return a copy")
}

func TestSubscribe(t *testing.T) {
	s := openStore(t, storage.NewMemoryBackend())
	var got []store.Change
	unsubscribe := s.Subscribe(func(c store.Change) { got = append(got, c) })

	_, err := s.AddWorkLog(store.WorkLogInput{Company: "Kraftvrk", Date: "2024-05-01", Hours: 2, Rate: 160})
	require.NoError(t, err)
	_, err = s.UpsertBonusEvent("2024-05-01", "Kraftvrk")
	require.NoError(t, err)
	require.NoError(t, s.SetDeduction(10))

	_, err = s.AddWorkLog(store.WorkLogInput{Company: "Kraftvrk", Date: "bad", Hours: 2, Rate: 160})
	require.Error(t, err)

	unsubscribe()
	_, err = s.DeleteBonusEvent("2024-05-01")
	require.NoError(t, err)

	assert.Equal(t, []store.Change{store.ChangeWorkLogs, store.ChangeBonusEvents, store.ChangeCalculator}, got)
}

func TestShift(t *testing.T) {
	b := storage.NewMemoryBackend()
	s := openStore(t, b)
	start := time.Date(2024, 5, 1, 23, 0, 0, 0, time.UTC)

	_, err := s.StopShift(start)
	assert.ErrorIs(t, err, store.ErrNoActiveShift)

	_, err = s.StartShift("Nowhere", start)
	assert.ErrorIs(t, err, store.ErrUnknownCompany)

	shift, err := s.StartShift("Kraftvrk", start)
	require.NoError(t, err)
	assert.Equal(t, 160.0, shift.Rate)

	_, err = s.StartShift("Arte Suave", start)
	assert.ErrorIs(t, err, store.ErrShiftRunning)

	// The shift survives a restart.
	s = openStore(t, b)
	require.NotNil(t, s.ActiveShift())
	assert.Equal(t, model.Company("Kraftvrk"), s.ActiveShift().Company)

	_, err = s.StopShift(start)
	assert.ErrorIs(t, err, store.ErrInvalidHours)

	l, err := s.StopShift(start.Add(90*time.Minute + 20*time.Second))
	require.NoError(t, err)
	assert.Equal(t, model.Date("2024-05-01"), l.Date)
	assert.Equal(t, 1.51, l.Hours)
	assert.Equal(t, store.SourceTimer, l.Source)
	assert.Nil(t, s.ActiveShift())

	assert.ErrorIs(t, s.DiscardShift(), store.ErrNoActiveShift)
}

func TestUpdateWorkLogKeepsID(t *testing.T) {
	s := openStore(t, storage.NewMemoryBackend())
	older, err := s.AddWorkLog(store.WorkLogInput{Company: "Kraftvrk", Date: "2024-05-01", Hours: 2, Rate: 160})
	require.NoError(t, err)
	_, err = s.AddWorkLog(store.WorkLogInput{Company: "Kraftvrk", Date: "2024-05-03", Hours: 1, Rate: 160})
	require.NoError(t, err)

	updated, err := s.UpdateWorkLog(older.ID, store.WorkLogInput{Company: "Arte Suave", Date: "2024-05-05", Hours: 3, Rate: 300, ExternalID: "ext-1", Source: store.SourceOutlook})
	require.NoError(t, err)
	assert.Equal(t, older.ID, updated.ID)

	logs := s.WorkLogs()
	require.Len(t, logs, 2)
	assert.Equal(t, older.ID, logs[0].ID, "updated log moves to its new date position")

	got, ok := s.WorkLogByExternalID("ext-1")
	require.True(t, ok)
	assert.Equal(t, updated, got)

	_, err = s.UpdateWorkLog("missing", store.WorkLogInput{Company: "Kraftvrk", Date: "2024-05-01", Hours: 1, Rate: 1})
	assert.ErrorIs(t, err, store.ErrUnknownWorkLog)
}
