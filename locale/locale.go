// Package locale renders validation errors in the visitor's language.
package locale

import (
	"strconv"

	"github.com/kendall-kelly/order-intake/models"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

var supported = []language.Tag{
	language.Japanese, // default
	language.English,
}

var matcher = language.NewMatcher(supported)

// Match picks the best supported language for an Accept-Language header value.
// Japanese is returned when nothing matches.
func Match(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return language.Japanese
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return language.Japanese
	}
	return supported[idx]
}

// Catalog keys. Labels are looked up as "label.<field>", messages as "error.<kind>".
const (
	labelPrefix = "label."
	errorPrefix = "error."
	// lineLabelKey joins a line number and a field label
	lineLabelKey = "label.line_field"
)

var translations = map[language.Tag]map[string]string{
	language.Japanese: {
		labelPrefix + models.FieldName:              "お名前",
		labelPrefix + models.FieldEmail:             "メールアドレス",
		labelPrefix + models.FieldTelephone:         "電話番号",
		labelPrefix + models.FieldDeliveryAddress:   "お届け住所",
		labelPrefix + models.FieldPaymentMethodID:   "支払い方法",
		labelPrefix + models.FieldOtherComment:      "その他・ご要望",
		labelPrefix + models.FieldDirectMailEnabled: "メールマガジン配信",
		labelPrefix + models.FieldInflowSourceIDs:   "当サイトを知ったきっかけ",
		labelPrefix + models.FieldOrderProducts:     "商品",
		labelPrefix + models.FieldProductID:         "商品",
		labelPrefix + models.FieldQuantity:          "数量",
		lineLabelKey:                                "商品%[1]dの%[2]s",

		errorPrefix + models.ErrBlank.String():              "%[1]sを入力してください",
		errorPrefix + models.ErrInvalidFormat.String():      "%[1]sの形式が不適切です",
		errorPrefix + models.ErrTooLong.String():            "%[1]sは%[2]s文字以内で入力してください",
		errorPrefix + models.ErrGreaterThanOrEqual.String(): "%[1]sは%[2]s以上の値にしてください",
		errorPrefix + models.ErrLessThanOrEqual.String():    "%[1]sは%[2]s以下の値にしてください",
		errorPrefix + models.ErrInclusion.String():          "%[1]sは一覧にありません",
	},
	language.English: {
		labelPrefix + models.FieldName:              "Name",
		labelPrefix + models.FieldEmail:             "Email",
		labelPrefix + models.FieldTelephone:         "Telephone",
		labelPrefix + models.FieldDeliveryAddress:   "Delivery address",
		labelPrefix + models.FieldPaymentMethodID:   "Payment method",
		labelPrefix + models.FieldOtherComment:      "Other comments",
		labelPrefix + models.FieldDirectMailEnabled: "Newsletter preference",
		labelPrefix + models.FieldInflowSourceIDs:   "How did you hear about us",
		labelPrefix + models.FieldOrderProducts:     "Products",
		labelPrefix + models.FieldProductID:         "product",
		labelPrefix + models.FieldQuantity:          "quantity",
		lineLabelKey:                                "Item %[1]d %[2]s",

		errorPrefix + models.ErrBlank.String():              "%[1]s can't be blank",
		errorPrefix + models.ErrInvalidFormat.String():      "%[1]s is invalid",
		errorPrefix + models.ErrTooLong.String():            "%[1]s is too long (maximum is %[2]s characters)",
		errorPrefix + models.ErrGreaterThanOrEqual.String(): "%[1]s must be greater than or equal to %[2]s",
		errorPrefix + models.ErrLessThanOrEqual.String():    "%[1]s must be less than or equal to %[2]s",
		errorPrefix + models.ErrInclusion.String():          "%[1]s is not included in the list",
	},
}

var messages = newCatalog()

func newCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.Japanese))
	for tag, entries := range translations {
		for key, msg := range entries {
			if err := b.SetString(tag, key, msg); err != nil {
				panic(err)
			}
		}
	}
	return b
}

// Translator renders FieldErrors for one language
type Translator struct {
	tag     language.Tag
	printer *message.Printer
}

// For returns the translator of tag, falling back to Japanese
func For(tag language.Tag) *Translator {
	if _, ok := translations[tag]; !ok {
		tag = language.Japanese
	}
	return &Translator{tag: tag, printer: message.NewPrinter(tag, message.Catalog(messages))}
}

// Tag is the language this translator renders
func (t *Translator) Tag() language.Tag {
	return t.tag
}

func (t *Translator) has(key string) bool {
	_, ok := translations[t.tag][key]
	return ok
}

// Label returns the display name of a field
func (t *Translator) Label(field string) string {
	if !t.has(labelPrefix + field) {
		return field
	}
	return t.printer.Sprintf(labelPrefix + field)
}

// Message renders one field error
func (t *Translator) Message(e models.FieldError) string {
	label := t.Label(e.Field)
	if e.Line > 0 {
		label = t.printer.Sprintf(lineLabelKey, e.Line, label)
	}

	key := errorPrefix + e.Kind.String()
	if !t.has(key) {
		return label + ": " + e.Kind.String()
	}
	// limits are passed as text so they are not digit-grouped; every
	// format addresses its arguments by index so unused ones are not reported
	return t.printer.Sprintf(key, label, strconv.Itoa(e.Limit))
}

// Messages renders every error grouped by form key
func (t *Translator) Messages(errs models.ValidationErrors) map[string][]string {
	return errs.ByField(t.Message)
}
