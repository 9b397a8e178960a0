package views

import (
	"embed"
	"html/template"
	"strconv"

	"github.com/kendall-kelly/order-intake/checkout"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed templates/*.tmpl
var files embed.FS

// Template names rendered by the controllers
const (
	Entry    = "new.tmpl"
	Confirm  = "confirm.tmpl"
	Complete = "complete.tmpl"
	Error    = "error.tmpl"
)

var yen = message.NewPrinter(language.Japanese)

// FormatPrice renders an amount in yen with digit grouping
func FormatPrice(amount int64) string {
	return yen.Sprintf("%d", amount)
}

// Funcs are the helpers the templates rely on
func Funcs() template.FuncMap {
	return template.FuncMap{
		"price":     FormatPrice,
		"param":     checkout.ParamName,
		"lineParam": checkout.LineParamName,
		"sameID": func(raw string, id uint) bool {
			return raw == strconv.FormatUint(uint64(id), 10)
		},
		"errorsFor": func(errs map[string][]string, key string) []string {
			return errs[key]
		},
		"lineErrorsFor": func(errs map[string][]string, position int, field string) []string {
			return errs["order_products."+strconv.Itoa(position)+"."+field]
		},
	}
}

// Load parses every embedded template
func Load() (*template.Template, error) {
	return template.New("").Funcs(Funcs()).ParseFS(files, "templates/*.tmpl")
}
