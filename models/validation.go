package models

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// ErrorKind identifies which rule a field failed. Text is resolved by the locale package.
type ErrorKind int

const (
	// ErrBlank means a required value is missing
	ErrBlank ErrorKind = iota + 1
	// ErrInvalidFormat means the value does not match the expected format
	ErrInvalidFormat
	// ErrTooLong means the value exceeds Limit characters
	ErrTooLong
	// ErrGreaterThanOrEqual means the value must be at least Limit
	ErrGreaterThanOrEqual
	// ErrLessThanOrEqual means the value must be at most Limit
	ErrLessThanOrEqual
	// ErrInclusion means the value does not name an existing record
	ErrInclusion
)

func (k ErrorKind) String() string {
	switch k {
	case ErrBlank:
		return "blank"
	case ErrInvalidFormat:
		return "invalid"
	case ErrTooLong:
		return "too_long"
	case ErrGreaterThanOrEqual:
		return "greater_than_or_equal_to"
	case ErrLessThanOrEqual:
		return "less_than_or_equal_to"
	case ErrInclusion:
		return "inclusion"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Field names used in validation errors and form inputs
const (
	FieldName              = "name"
	FieldEmail             = "email"
	FieldTelephone         = "telephone"
	FieldDeliveryAddress   = "delivery_address"
	FieldPaymentMethodID   = "payment_method_id"
	FieldOtherComment      = "other_comment"
	FieldDirectMailEnabled = "direct_mail_enabled"
	FieldInflowSourceIDs   = "inflow_source_ids"
	FieldOrderProducts     = "order_products"
	FieldProductID         = "product_id"
	FieldQuantity          = "quantity"
)

const (
	// MaxTelephoneDigits applies only to telephone numbers made of half-width digits
	MaxTelephoneDigits = 11
	// MaxOtherCommentLength is counted in characters, not bytes
	MaxOtherCommentLength = 1000
	// MinQuantity is the smallest quantity a line item may carry
	MinQuantity = 1
	// MaxQuantity is the largest quantity a line item may carry
	MaxQuantity = 9999
)

var (
	// The local part also admits any non-ASCII rune, so full-width addresses such as
	// "ｓａｍｐｌｅ@example.com" pass. Existing orders rely on that.
	emailFormat = regexp.MustCompile(`(?i)\A[\w+\-.[:^ascii:]]+@[a-z\d\-.]+\.[a-z]+\z`)

	halfWidthDigits = regexp.MustCompile(`\A[0-9]+\z`)
)

// FieldError is one failed rule on one field
type FieldError struct {
	Field string
	Kind  ErrorKind
	Limit int
	// Line is the 1-based line item position for errors on order products, 0 otherwise
	Line int
}

// Key is the form key the error belongs to
func (e FieldError) Key() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s.%d.%s", FieldOrderProducts, e.Line-1, e.Field)
	}
	return e.Field
}

func (e FieldError) Error() string {
	if e.Limit != 0 {
		return fmt.Sprintf("%s: %s (%d)", e.Key(), e.Kind, e.Limit)
	}
	return fmt.Sprintf("%s: %s", e.Key(), e.Kind)
}

// ValidationErrors is the ordered list of rule failures for an order.
// An empty list means the order is valid.
type ValidationErrors []FieldError

// Empty reports whether no rule failed
func (v ValidationErrors) Empty() bool {
	return len(v) == 0
}

// Has reports whether the given form key has at least one error
func (v ValidationErrors) Has(key string) bool {
	for _, e := range v {
		if e.Key() == key {
			return true
		}
	}
	return false
}

// ByField groups the errors by form key, rendering each with translate
func (v ValidationErrors) ByField(translate func(FieldError) string) map[string][]string {
	out := make(map[string][]string, len(v))
	for _, e := range v {
		out[e.Key()] = append(out[e.Key()], translate(e))
	}
	return out
}

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, e.Error())
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Validate runs every field rule and returns the failures in rule order
func (o *Order) Validate() ValidationErrors {
	var errs ValidationErrors
	add := func(field string, kind ErrorKind, limit int) {
		errs = append(errs, FieldError{Field: field, Kind: kind, Limit: limit})
	}

	if isBlank(o.Name) {
		add(FieldName, ErrBlank, 0)
	}

	if isBlank(o.Email) {
		add(FieldEmail, ErrBlank, 0)
	} else if !emailFormat.MatchString(o.Email) {
		add(FieldEmail, ErrInvalidFormat, 0)
	}

	if isBlank(o.Telephone) {
		add(FieldTelephone, ErrBlank, 0)
	} else if halfWidthDigits.MatchString(o.Telephone) && len(o.Telephone) > MaxTelephoneDigits {
		add(FieldTelephone, ErrTooLong, MaxTelephoneDigits)
	}

	if isBlank(o.DeliveryAddress) {
		add(FieldDeliveryAddress, ErrBlank, 0)
	}

	if o.PaymentMethodID == nil || *o.PaymentMethodID == 0 {
		add(FieldPaymentMethodID, ErrBlank, 0)
	}

	if utf8.RuneCountInString(o.OtherComment) > MaxOtherCommentLength {
		add(FieldOtherComment, ErrTooLong, MaxOtherCommentLength)
	}

	if o.DirectMailEnabled == nil {
		add(FieldDirectMailEnabled, ErrBlank, 0)
	}

	for i, line := range o.OrderProducts {
		switch {
		case line.Quantity < MinQuantity:
			errs = append(errs, FieldError{Field: FieldQuantity, Kind: ErrGreaterThanOrEqual, Limit: MinQuantity, Line: i + 1})
		case line.Quantity > MaxQuantity:
			errs = append(errs, FieldError{Field: FieldQuantity, Kind: ErrLessThanOrEqual, Limit: MaxQuantity, Line: i + 1})
		}
	}

	return errs
}

// Valid is shorthand for an empty Validate result
func (o *Order) Valid() bool {
	return o.Validate().Empty()
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
