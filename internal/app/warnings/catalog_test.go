package warnings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookingrule/internal/app/policies"
)

func TestGermanModalUnavailable(t *testing.T) {
	cat, err := NewCatalog(LocaleGerman, ModeModal)
	require.NoError(t, err)

	w := cat.Render(Details{Kind: policies.WarningUnavailable, Date: "07/06/2024", RequiredDays: 4})
	assert.Equal(t, "Datum nicht verfügbar", w.Title)
	assert.Equal(t, "Okay, verstanden.", w.Dismiss)
	assert.Contains(t, w.Body, "Ausgewähltes Datum: 07/06/2024")
	assert.Contains(t, w.Body, "4 aufeinanderfolgende verfügbare Tage")
	assert.NotEmpty(t, w.Message)
}

func TestEnglishAlertHasPlainMessageOnly(t *testing.T) {
	cat, err := NewCatalog(LocaleEnglish, ModeAlert)
	require.NoError(t, err)

	w := cat.Render(Details{Kind: policies.WarningUnavailable, Date: "06/07/2024", RequiredDays: 4})
	assert.Empty(t, w.Title)
	assert.Empty(t, w.Body)
	assert.Equal(t, "The next 3 calendar days are not available. Please choose another pickup date.", w.Message)

	w = cat.Render(Details{Kind: policies.WarningLengthMismatch, RequiredDays: 4, SelectedDays: 2, MinimumOnly: true})
	assert.Equal(t, "Minimum booking is 4 calendar days.", w.Message)
}

func TestWeekdayList(t *testing.T) {
	cat, err := NewCatalog(LocaleGerman, ModeAlert)
	require.NoError(t, err)
	w := cat.Render(Details{Kind: policies.WarningWeekdayNotAllowed, Allowed: []time.Weekday{time.Monday, time.Thursday, time.Friday}})
	assert.Equal(t, "Abholung nur am Montag, Donnerstag oder Freitag möglich.", w.Message)
	assert.Equal(t, policies.WarningWeekdayNotAllowed, w.Kind)
}

func TestNewCatalogRejectsUnknownValues(t *testing.T) {
	_, err := NewCatalog("fr", ModeModal)
	assert.ErrorIs(t, err, ErrUnknownLocale)
	_, err = NewCatalog(LocaleEnglish, "toast")
	assert.ErrorIs(t, err, ErrUnknownMode)

	var zero Catalog
	assert.Equal(t, LocaleGerman, zero.Locale())
	assert.Equal(t, ModeModal, zero.Mode())
}

func TestCollector(t *testing.T) {
	var c Collector
	c.Notify(context.Background(), policies.Warning{Kind: policies.WarningUnavailable})
	c.Notify(context.Background(), policies.Warning{Kind: policies.WarningLengthMismatch})
	got := c.Warnings()
	require.Len(t, got, 2)
	assert.Equal(t, policies.WarningLengthMismatch, got[1].Kind)
}
