package orgsim

import (
	"strings"
	"time"

	"github.com/orgsim/orgsim/schema"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var languageByLCID = map[int]language.Tag{
	1030: language.Danish,
	1031: language.German,
	1033: language.AmericanEnglish,
	1034: language.Spanish,
	1036: language.French,
	1040: language.Italian,
	1043: language.Dutch,
	1046: language.BrazilianPortuguese,
	2057: language.BritishEnglish,
	2070: language.EuropeanPortuguese,
	3082: language.Spanish,
}

var datePatternByLCID = map[int]string{
	1030: "02-01-2006 15:04",
	1031: "02.01.2006 15:04",
	1033: "1/2/2006 3:04 PM",
	1034: "02/01/2006 15:04",
	1036: "02/01/2006 15:04",
	1040: "02/01/2006 15:04",
	1043: "2-1-2006 15:04",
	1046: "02/01/2006 15:04",
	2057: "02/01/2006 15:04",
	2070: "02/01/2006 15:04",
	3082: "02/01/2006 15:04",
}

var booleanLabels = map[language.Base][2]string{
	mustBase(language.German):  {"Nein", "Ja"},
	mustBase(language.French):  {"Non", "Oui"},
	mustBase(language.Spanish): {"No", "Sí"},
	mustBase(language.Italian): {"No", "Sì"},
	mustBase(language.Dutch):   {"Nee", "Ja"},
	mustBase(language.Danish):  {"Nej", "Ja"},
}

func mustBase(tag language.Tag) language.Base {
	b, _ := tag.Base()
	return b
}

// LanguageTag returns the language of an LCID, American English when unknown
func LanguageTag(languageCode int) language.Tag {
	if tag, ok := languageByLCID[languageCode]; ok {
		return tag
	}
	return language.AmericanEnglish
}

// formatter computes formatted values in the database's locale
type formatter struct {
	languageCode int
	printer      *message.Printer
	currency     currency.Unit
	datePattern  string
	yesNo        [2]string
	schemaOf     func(logicalName string) (*schema.Schema, bool)
}

func (db *DB) formatter() *formatter {
	tag := LanguageTag(db.LanguageCode)
	f := &formatter{
		languageCode: db.LanguageCode,
		printer:      message.NewPrinter(tag),
		currency:     currency.USD,
		datePattern:  datePatternByLCID[1033],
		yesNo:        [2]string{"No", "Yes"},
		schemaOf:     db.Schema,
	}
	if unit, err := currency.ParseISO(db.CurrencyCode); err == nil {
		f.currency = unit
	}
	if pattern, ok := datePatternByLCID[db.LanguageCode]; ok {
		f.datePattern = pattern
	}
	if labels, ok := booleanLabels[mustBase(tag)]; ok {
		f.yesNo = labels
	}
	return f
}

// FormatMoney formats an amount as currency in the database's locale
func (db *DB) FormatMoney(amount float64) string {
	return db.formatter().money(amount)
}

func (f *formatter) money(amount float64) string {
	return f.printer.Sprint(currency.Symbol(f.currency.Amount(amount)))
}

func (f *formatter) date(t time.Time) string {
	return t.Format(f.datePattern)
}

func (f *formatter) boolean(b bool) string {
	if b {
		return f.yesNo[1]
	}
	return f.yesNo[0]
}

// optionLabel resolves an option label through the record struct's enum field
func (f *formatter) optionLabel(logicalName, attribute string, value int) (string, bool) {
	s, ok := f.schemaOf(logicalName)
	if !ok {
		return "", false
	}
	field := s.LookUpField(attribute)
	if field == nil {
		return "", false
	}
	return field.OptionLabel(value, f.languageCode)
}

// format returns the display string of a value, ok is false for values without one
func (f *formatter) format(logicalName, attribute string, value interface{}) (string, bool) {
	switch v := value.(type) {
	case OptionSetValue:
		return f.optionLabel(logicalName, attribute, v.Value)
	case Money:
		return f.money(v.Value), true
	case bool:
		return f.boolean(v), true
	case time.Time:
		return f.date(v), true
	case EntityReference:
		return v.Name, v.Name != ""
	case AliasedValue:
		return f.format(v.EntityLogicalName, v.AttributeLogicalName, v.Value)
	}
	return "", false
}

// formatEntity recomputes the formatted values of a record
func (f *formatter) formatEntity(e *Entity) {
	e.FormattedValues = make(map[string]string, len(e.Attributes))
	for key, value := range e.Attributes {
		if value == nil {
			continue
		}
		attribute := key
		if a, ok := value.(AliasedValue); ok && a.AttributeLogicalName != "" {
			attribute = a.AttributeLogicalName
		} else if idx := strings.IndexByte(key, '.'); idx >= 0 {
			attribute = key[idx+1:]
		}
		if s, ok := f.format(e.LogicalName, attribute, value); ok {
			e.FormattedValues[key] = s
		}
	}
}
