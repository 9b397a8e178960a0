package checkout

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/kendall-kelly/order-intake/models"
	"github.com/kendall-kelly/order-intake/utils"
)

const defaultQuantity = "1"

// Form input names. They follow the nested-attributes layout the entry page posts.
const (
	ParamPrefix       = "order"
	ParamLinesPrefix  = "order[order_products_attributes]"
	ParamInflowSource = "order[inflow_source_ids][]"
	ParamNextLineKey  = "order[next_line_key]"
	lineDestroyField  = "_destroy"
)

// ParamName is the input name of a scalar order field
func ParamName(field string) string {
	return ParamPrefix + "[" + field + "]"
}

// LineParamName is the input name of a field on the line with key
func LineParamName(key int, field string) string {
	return utils.IndexedFieldName(ParamLinesPrefix, key, field)
}

// OrderForm holds the entry form exactly as submitted. Values stay strings so that
// invalid input is shown back to the customer unchanged.
type OrderForm struct {
	Name              string   `json:"name"`
	Email             string   `json:"email"`
	Telephone         string   `json:"telephone"`
	DeliveryAddress   string   `json:"delivery_address"`
	PaymentMethodID   string   `json:"payment_method_id"`
	OtherComment      string   `json:"other_comment"`
	DirectMailEnabled string   `json:"direct_mail_enabled"`
	InflowSourceIDs   []string `json:"inflow_source_ids"`
	Lines             LineList `json:"lines"`
}

// NewOrderForm returns a blank form with one blank product line
func NewOrderForm() *OrderForm {
	return &OrderForm{Lines: NewLineList()}
}

// ParseOrderForm reads a submitted entry form. Lines flagged with _destroy are dropped;
// the remaining lines keep their submitted keys in key order.
func ParseOrderForm(values url.Values) *OrderForm {
	form := &OrderForm{
		Name:              values.Get(ParamName(models.FieldName)),
		Email:             values.Get(ParamName(models.FieldEmail)),
		Telephone:         values.Get(ParamName(models.FieldTelephone)),
		DeliveryAddress:   values.Get(ParamName(models.FieldDeliveryAddress)),
		PaymentMethodID:   values.Get(ParamName(models.FieldPaymentMethodID)),
		OtherComment:      values.Get(ParamName(models.FieldOtherComment)),
		DirectMailEnabled: values.Get(ParamName(models.FieldDirectMailEnabled)),
	}

	for _, id := range values[ParamInflowSource] {
		if id = strings.TrimSpace(id); id != "" {
			form.InflowSourceIDs = append(form.InflowSourceIDs, id)
		}
	}

	for _, entry := range utils.ParseIndexedFields(values, ParamLinesPrefix) {
		if truthy(entry.Get(lineDestroyField)) {
			// keep the key reserved even though the line is gone
			if entry.Index >= form.Lines.NextKey {
				form.Lines.NextKey = entry.Index + 1
			}
			continue
		}
		form.Lines.Append(LineDraft{
			Key:       entry.Index,
			ProductID: entry.Get(models.FieldProductID),
			Quantity:  entry.Get(models.FieldQuantity),
		})
	}
	if next, err := strconv.Atoi(values.Get(ParamNextLineKey)); err == nil && next > form.Lines.NextKey {
		form.Lines.NextKey = next
	}
	if form.Lines.Len() == 0 {
		form.Lines.Add()
	}
	return form
}

// HasInflowSource reports whether id was ticked
func (f *OrderForm) HasInflowSource(id uint) bool {
	want := strconv.FormatUint(uint64(id), 10)
	for _, v := range f.InflowSourceIDs {
		if v == want {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the form
func (f *OrderForm) Clone() *OrderForm {
	c := *f
	c.InflowSourceIDs = append([]string(nil), f.InflowSourceIDs...)
	c.Lines.Lines = append([]LineDraft(nil), f.Lines.Lines...)
	return &c
}

// Order converts the form into an unsaved Order. Line values that are not numbers are
// reported as format errors; everything else is left to Order.Validate.
func (f *OrderForm) Order() (*models.Order, models.ValidationErrors) {
	order := &models.Order{
		Name:              f.Name,
		Email:             f.Email,
		Telephone:         f.Telephone,
		DeliveryAddress:   f.DeliveryAddress,
		PaymentMethodID:   parseID(f.PaymentMethodID),
		OtherComment:      f.OtherComment,
		DirectMailEnabled: parseBool(f.DirectMailEnabled),
	}

	var ids []uint
	for _, raw := range f.InflowSourceIDs {
		if id := parseID(raw); id != nil {
			ids = append(ids, *id)
		}
	}
	order.SetInflowSourceIDs(ids)

	var errs models.ValidationErrors
	for i, line := range f.Lines.Compact().Lines {
		op := models.OrderProduct{Quantity: models.DefaultQuantity}
		if id := parseID(line.ProductID); id != nil {
			op.ProductID = *id
		} else {
			errs = append(errs, models.FieldError{Field: models.FieldProductID, Kind: models.ErrInvalidFormat, Line: i + 1})
		}
		if q, err := strconv.Atoi(line.Quantity); err == nil {
			op.Quantity = q
		} else {
			errs = append(errs, models.FieldError{Field: models.FieldQuantity, Kind: models.ErrInvalidFormat, Line: i + 1})
		}
		order.OrderProducts = append(order.OrderProducts, op)
	}
	return order, errs
}

// Validate builds the order and runs every rule on it. A form must name at least one product.
func (f *OrderForm) Validate() (*models.Order, models.ValidationErrors) {
	order, parseErrs := f.Order()
	errs := order.Validate()
	if len(order.OrderProducts) == 0 {
		errs = append(errs, models.FieldError{Field: models.FieldOrderProducts, Kind: models.ErrBlank})
	}
	errs = append(errs, parseErrs...)
	return order, errs
}

func parseID(raw string) *uint {
	v, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 0)
	if err != nil || v == 0 {
		return nil
	}
	id := uint(v)
	return &id
}

func parseBool(raw string) *bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1":
		v := true
		return &v
	case "false", "0":
		v := false
		return &v
	default:
		return nil
	}
}

func truthy(raw string) bool {
	b := parseBool(raw)
	return b != nil && *b
}
