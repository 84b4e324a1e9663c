package warnings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"bookingrule/internal/app/policies"
)

var (
	ErrUnknownLocale = errors.New("warnings: unknown locale")
	ErrUnknownMode   = errors.New("warnings: unknown notifier mode")
)

type Locale string

const (
	LocaleGerman  Locale = "de"
	LocaleEnglish Locale = "en"
)

// Mode picks how the host displays a warning.
type Mode string

const (
	ModeModal Mode = "modal"
	ModeAlert Mode = "alert"
)

// Details carries the values a warning text is rendered from.
type Details struct {
	Kind         policies.WarningKind
	Date         string
	RequiredDays int
	SelectedDays int
	MinimumOnly  bool
	Allowed      []time.Weekday
}

type texts struct {
	title          string
	dismiss        string
	unavailable    func(d Details) (body []string, message string)
	weekday        func(d Details) (body []string, message string)
	lengthMismatch func(d Details) (body []string, message string)
	weekdayName    func(w time.Weekday) string
}

var germanWeekdays = [...]string{"Sonntag", "Montag", "Dienstag", "Mittwoch", "Donnerstag", "Freitag", "Samstag"}

var catalogs = map[Locale]texts{
	LocaleGerman: {
		title:   "Datum nicht verfügbar",
		dismiss: "Okay, verstanden.",
		unavailable: func(d Details) ([]string, string) {
			body := []string{
				"Ausgewähltes Datum: " + d.Date,
				fmt.Sprintf("Dieses Abholdatum kann nicht ausgewählt werden, da keine nachfolgenden Termine verfügbar sind, die die Erfüllung der Mindestanforderung von %d aufeinanderfolgenden Tagen verhindern.", d.RequiredDays),
				fmt.Sprintf("Bitte wählen Sie ein anderes Abholdatum, das %d aufeinanderfolgende verfügbare Tage ermöglicht.", d.RequiredDays),
			}
			return body, fmt.Sprintf("Die nächsten %d Kalendertage sind nicht verfügbar. Bitte wählen Sie ein anderes Abholdatum.", d.RequiredDays-1)
		},
		weekday: func(d Details) ([]string, string) {
			days := joinWeekdays(d.Allowed, func(w time.Weekday) string { return germanWeekdays[w] }, " oder ")
			body := []string{
				"Ausgewähltes Datum: " + d.Date,
				fmt.Sprintf("Eine Abholung ist für diesen Artikel nur am %s möglich.", days),
			}
			return body, fmt.Sprintf("Abholung nur am %s möglich.", days)
		},
		lengthMismatch: func(d Details) ([]string, string) {
			if d.MinimumOnly {
				body := []string{
					"Ausgewähltes Rückreisedatum: " + d.Date,
					fmt.Sprintf("Sie müssen mindestens %d aufeinanderfolgende Tage buchen. Ihre aktuelle Auswahl umfasst nur %d Tage.", d.RequiredDays, d.SelectedDays),
				}
				return body, fmt.Sprintf("Die Mindestbuchung beträgt %d Kalendertage.", d.RequiredDays)
			}
			body := []string{
				"Ausgewähltes Rückreisedatum: " + d.Date,
				fmt.Sprintf("Sie müssen genau %d aufeinanderfolgende Tage buchen. Ihre aktuelle Auswahl umfasst nur %d Tage.", d.RequiredDays, d.SelectedDays),
				fmt.Sprintf("Bitte wählen Sie ein Rückgabedatum, das genau %d Tage nach dem Abholdatum liegt.", d.RequiredDays),
			}
			return body, fmt.Sprintf("Die Buchung muss genau %d Kalendertage umfassen.", d.RequiredDays)
		},
	},
	LocaleEnglish: {
		title:   "Date not available",
		dismiss: "Okay, got it.",
		unavailable: func(d Details) ([]string, string) {
			message := fmt.Sprintf("The next %d calendar days are not available. Please choose another pickup date.", d.RequiredDays-1)
			body := []string{
				"Selected date: " + d.Date,
				message,
			}
			return body, message
		},
		weekday: func(d Details) ([]string, string) {
			days := joinWeekdays(d.Allowed, func(w time.Weekday) string { return w.String() }, " or ")
			message := fmt.Sprintf("Pickup is only possible on %s.", days)
			return []string{"Selected date: " + d.Date, message}, message
		},
		lengthMismatch: func(d Details) ([]string, string) {
			message := fmt.Sprintf("Minimum booking is %d calendar days.", d.RequiredDays)
			if !d.MinimumOnly {
				message = fmt.Sprintf("Booking must cover exactly %d calendar days.", d.RequiredDays)
			}
			body := []string{
				"Selected drop-off date: " + d.Date,
				fmt.Sprintf("Your current selection covers %d days.", d.SelectedDays),
				message,
			}
			return body, message
		},
	},
}

// Catalog renders warning details into localised display requests.
type Catalog struct {
	locale Locale
	mode   Mode
}

func NewCatalog(locale Locale, mode Mode) (Catalog, error) {
	if locale == "" {
		locale = LocaleGerman
	}
	if mode == "" {
		mode = ModeModal
	}
	if _, ok := catalogs[locale]; !ok {
		return Catalog{}, fmt.Errorf("%w: %q", ErrUnknownLocale, locale)
	}
	if mode != ModeModal && mode != ModeAlert {
		return Catalog{}, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	return Catalog{locale: locale, mode: mode}, nil
}

func (c Catalog) Locale() Locale { return c.orDefault().locale }
func (c Catalog) Mode() Mode     { return c.orDefault().mode }

func (c Catalog) Render(d Details) policies.Warning {
	c = c.orDefault()
	t := catalogs[c.locale]
	var body []string
	var message string
	switch d.Kind {
	case policies.WarningWeekdayNotAllowed:
		body, message = t.weekday(d)
	case policies.WarningLengthMismatch:
		body, message = t.lengthMismatch(d)
	default:
		body, message = t.unavailable(d)
	}
	w := policies.Warning{Kind: d.Kind, Message: message}
	if c.mode == ModeModal {
		w.Title = t.title
		w.Body = strings.Join(body, "\n\n")
		w.Dismiss = t.dismiss
	}
	return w
}

func (c Catalog) orDefault() Catalog {
	if c.locale == "" {
		c.locale = LocaleGerman
	}
	if c.mode == "" {
		c.mode = ModeModal
	}
	return c
}

func joinWeekdays(days []time.Weekday, name func(time.Weekday) string, last string) string {
	names := make([]string, 0, len(days))
	for _, w := range days {
		names = append(names, name(w))
	}
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	}
	return strings.Join(names[:len(names)-1], ", ") + last + names[len(names)-1]
}

// Collector is a Notifier that keeps warnings for the current request.
type Collector struct {
	mu       sync.Mutex
	warnings []policies.Warning
}

func (c *Collector) Notify(_ context.Context, w policies.Warning) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warnings = append(c.warnings, w)
}

func (c *Collector) Warnings() []policies.Warning {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]policies.Warning, len(c.warnings))
	copy(out, c.warnings)
	return out
}

var _ policies.Notifier = (*Collector)(nil)
