// Package i18n renders user-facing alert text. Spanish is the default
// locale; English is available for tooling.
package i18n

import (
	"errors"

	"github.com/javierleyes/vidro-android/internal/domain/schedule"
	"github.com/javierleyes/vidro-android/internal/domain/shared"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Operation names a store operation whose failure is shown to the user
type Operation string

const (
	OpFetchGlasses  Operation = "fetch_glasses"
	OpEditPrice     Operation = "edit_price"
	OpFetchVisits   Operation = "fetch_visits"
	OpCreateVisit   Operation = "create_visit"
	OpUpdateVisit   Operation = "update_visit"
	OpDeleteVisit   Operation = "delete_visit"
	OpCompleteVisit Operation = "complete_visit"
)

// Message keys
const (
	KeyErrorTitle      = "alert.title.error"
	KeyAlertPrefix     = "alert.op."
	KeyAlertWithReason = "alert.with_reason"
	KeyFieldRequired   = "field.required."
	KeyFieldTooLong    = "field.too_long"
	KeyPriceRequired   = "price.required"
	KeyPriceInvalid    = "price.invalid"
	KeyVisitCompleted  = "visit.already_completed"
	KeyNotFound        = "not_found"
	KeyNoResults       = "list.empty"
)

var supported = []language.Tag{language.Spanish, language.English}

var matcher = language.NewMatcher(supported)

var cat = newCatalog()

func newCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.Spanish))

	set := func(key, es, en string) {
		_ = b.SetString(language.Spanish, key, es)
		_ = b.SetString(language.English, key, en)
	}

	set(KeyErrorTitle, "Error", "Error")
	set(KeyAlertWithReason, "%s: %s", "%s: %s")

	set(KeyAlertPrefix+string(OpFetchGlasses), "No se pudieron cargar los vidrios", "Could not load glasses")
	set(KeyAlertPrefix+string(OpEditPrice), "No se pudo actualizar el precio", "Could not update the price")
	set(KeyAlertPrefix+string(OpFetchVisits), "No se pudieron cargar las visitas", "Could not load visits")
	set(KeyAlertPrefix+string(OpCreateVisit), "No se pudo crear la visita", "Could not create the visit")
	set(KeyAlertPrefix+string(OpUpdateVisit), "No se pudo actualizar la visita", "Could not update the visit")
	set(KeyAlertPrefix+string(OpDeleteVisit), "No se pudo eliminar la visita", "Could not delete the visit")
	set(KeyAlertPrefix+string(OpCompleteVisit), "No se pudo completar la visita", "Could not complete the visit")

	set(KeyFieldRequired+"name", "Por favor ingrese un nombre", "Please enter a name")
	set(KeyFieldRequired+"address", "Por favor ingrese una dirección", "Please enter an address")
	set(KeyFieldRequired+"phone", "Por favor ingrese un teléfono", "Please enter a phone number")
	set(KeyFieldRequired+"date", "Por favor ingrese una fecha", "Please enter a date")
	set(KeyFieldRequired+"patch", "No hay cambios para guardar", "There are no changes to save")
	set(KeyFieldTooLong, "El campo %s supera los %s caracteres", "Field %s exceeds %s characters")
	set(KeyPriceRequired, "Por favor ingrese un precio", "Please enter a price")
	set(KeyPriceInvalid, "El precio %q no es válido", "Price %q is not valid")
	set(KeyVisitCompleted, "La visita ya fue completada", "The visit is already completed")
	set(KeyNotFound, "No se encontró el elemento", "Item not found")
	set(KeyNoResults, "No hay elementos", "No items")

	return b
}

// Translator renders messages for one locale.
type Translator struct {
	tag     language.Tag
	printer *message.Printer
}

// New returns a translator for the closest supported match of locale.
// Unknown or empty locales fall back to Spanish.
func New(locale string) *Translator {
	tag, _, _ := matcher.Match(language.Make(locale))
	base, _ := tag.Base()
	switch base.String() {
	case "en":
		tag = language.English
	default:
		tag = language.Spanish
	}
	return &Translator{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(cat)),
	}
}

// Tag returns the resolved language.
func (t *Translator) Tag() language.Tag {
	return t.tag
}

// Text renders key with args.
func (t *Translator) Text(key string, args ...any) string {
	return t.printer.Sprintf(key, args...)
}

// Title is the alert title shown for failures.
func (t *Translator) Title() string {
	return t.Text(KeyErrorTitle)
}

// Alert renders the failure of op. Validation and local state errors get
// their own message; remote failures append the recorded reason.
func (t *Translator) Alert(op Operation, err error) string {
	if err == nil {
		return ""
	}

	var verr *schedule.ValidationError
	if errors.As(err, &verr) {
		return t.Validation(verr)
	}
	if errors.Is(err, shared.ErrInvalidState) {
		return t.Text(KeyVisitCompleted)
	}
	if errors.Is(err, shared.ErrNotFound) {
		return t.Text(KeyNotFound)
	}

	return t.Text(KeyAlertWithReason, t.Text(KeyAlertPrefix+string(op)), err.Error())
}

// Validation renders the first failed field of a visit form.
func (t *Translator) Validation(err *schedule.ValidationError) string {
	if err == nil || len(err.Fields) == 0 {
		return ""
	}
	f := err.Fields[0]
	if f.Tag == "max" {
		return t.Text(KeyFieldTooLong, f.Field, f.Param)
	}
	return t.Text(KeyFieldRequired + f.Field)
}
