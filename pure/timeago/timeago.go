// Package timeago formats how long ago a date was as a coarse, localized
// label such as "3 weeks", "3 Wochen" or "1 year". Languages without unit
// translations get the English label.
package timeago

import (
	"math"
	"sync"
	"time"

	"github.com/rickb777/date/v2/timespan"
	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

const (
	msecsPerSec   = 1000
	secsPerMin    = 60
	minsPerHour   = 60
	hoursPerDay   = 24
	daysPerWeek   = 7
	daysPerYear   = 365
	monthsPerYear = 12
)

// weeksPerMonth is float64 arithmetic like the elapsed values it is compared
// with, not an exact constant expression.
var weeksPerMonth = func() float64 {
	days := float64(daysPerYear)
	return days / daysPerWeek / monthsPerYear
}()

// DefaultLang is used when Format gets an empty or unknown language.
const DefaultLang = "en"

// Format returns the time elapsed from date to now in the largest fitting
// unit: days below a week, weeks below a month, months below a year, years
// otherwise. Counts are floored. Dates after now read as zero days.
func Format(now, date time.Time, lang string) string {
	var msec float64
	if date.Before(now) {
		msec = float64(timespan.BetweenTimes(date, now).Duration().Milliseconds())
	}

	sec := msec / msecsPerSec
	min := sec / secsPerMin
	hour := min / minsPerHour
	day := hour / hoursPerDay
	week := day / daysPerWeek
	month := week / weeksPerMonth
	year := month / monthsPerYear

	switch {
	case day < daysPerWeek:
		return label(lang, day, "day")
	case week < weeksPerMonth:
		return label(lang, week, "week")
	case month < monthsPerYear:
		return label(lang, month, "month")
	default:
		return label(lang, year, "year")
	}
}

func label(lang string, value float64, unit string) string {
	return printerFor(lang).Sprintf(unit, int64(math.Floor(value)))
}

// unitForms holds the one and other plural forms of day, week, month, year.
type unitForms [4][2]string

var unitKeys = [4]string{"day", "week", "month", "year"}

var translations = map[language.Tag]unitForms{
	language.English: {
		{"%d day", "%d days"}, {"%d week", "%d weeks"},
		{"%d month", "%d months"}, {"%d year", "%d years"},
	},
	language.German: {
		{"%d Tag", "%d Tage"}, {"%d Woche", "%d Wochen"},
		{"%d Monat", "%d Monate"}, {"%d Jahr", "%d Jahre"},
	},
	language.French: {
		{"%d jour", "%d jours"}, {"%d semaine", "%d semaines"},
		{"%d mois", "%d mois"}, {"%d an", "%d ans"},
	},
	language.Spanish: {
		{"%d día", "%d días"}, {"%d semana", "%d semanas"},
		{"%d mes", "%d meses"}, {"%d año", "%d años"},
	},
	language.Dutch: {
		{"%d dag", "%d dagen"}, {"%d week", "%d weken"},
		{"%d maand", "%d maanden"}, {"%d jaar", "%d jaar"},
	},
	language.Japanese: {
		{"%d 日", "%d 日"}, {"%d 週間", "%d 週間"},
		{"%d か月", "%d か月"}, {"%d 年", "%d 年"},
	},
}

var units = func() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, forms := range translations {
		for i, key := range unitKeys {
			err := b.Set(tag, key, plural.Selectf(1, "%d",
				plural.One, forms[i][0],
				plural.Other, forms[i][1],
			))
			if err != nil {
				panic(err)
			}
		}
	}
	return b
}()

// supportedTag picks the translated language closest to lang, or English.
func supportedTag(lang string) language.Tag {
	tag, err := language.Parse(lang)
	if err != nil {
		return language.English
	}
	_, idx, conf := units.Matcher().Match(tag)
	if conf == language.No {
		return language.English
	}
	return units.Languages()[idx]
}

const maxPrinters = 32

// printers keeps two generations of printers; when the young one fills up
// the old one is dropped, so hot languages survive.
var printers = struct {
	sync.Mutex
	young, old map[string]*message.Printer
}{
	young: make(map[string]*message.Printer),
	old:   make(map[string]*message.Printer),
}

func printerFor(lang string) *message.Printer {
	if lang == "" || lang == "default" {
		lang = DefaultLang
	}

	printers.Lock()
	defer printers.Unlock()

	if p, ok := printers.young[lang]; ok {
		return p
	}
	p, ok := printers.old[lang]
	if !ok {
		p = message.NewPrinter(supportedTag(lang), message.Catalog(units))
	}
	if len(printers.young) >= maxPrinters {
		printers.old = printers.young
		printers.young = make(map[string]*message.Printer)
	}
	printers.young[lang] = p
	return p
}
