package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/kendall-kelly/order-intake/models"
	"github.com/kendall-kelly/order-intake/services"
	"go.uber.org/zap"
)

// ErrNothingToConfirm is returned by Complete when the session holds no confirmed draft
var ErrNothingToConfirm = errors.New("no order awaiting confirmation")

// Store is what the checkout needs from persistence
type Store interface {
	models.ProductLookup
	CreateOrder(ctx context.Context, header *models.Order, lines []models.OrderProduct, inflowSourceIDs []uint) (uint, error)
	ListPaymentMethods(ctx context.Context) ([]models.PaymentMethod, error)
	ListInflowSources(ctx context.Context) ([]models.InflowSource, error)
}

// Flow drives the Entry → Confirm → Complete checkout over a session State
type Flow struct {
	store Store
	log   *zap.Logger
}

// NewFlow creates a Flow persisting through store
func NewFlow(store Store, log *zap.Logger) *Flow {
	if log == nil {
		log = zap.NewNop()
	}
	return &Flow{store: store, log: log}
}

// Start resets the session to a fresh Entry and returns a blank form
func (f *Flow) Start(st *State) *OrderForm {
	st.Step = StepEntry
	st.Draft = nil
	st.Receipt = nil
	return NewOrderForm()
}

// Submit moves Entry → Confirm. On failure the session stays at Entry with no draft and
// the errors are returned for the form to show next to the submitted values. The error
// return is reserved for catalog lookups that could not be made.
func (f *Flow) Submit(ctx context.Context, st *State, form *OrderForm) (models.ValidationErrors, error) {
	form.Lines = form.Lines.Compact()

	order, errs := form.Validate()
	missing, err := f.missingProducts(ctx, order)
	if err != nil {
		return nil, err
	}
	errs = append(errs, missing...)

	if !errs.Empty() {
		st.Step = StepEntry
		st.Draft = nil
		if form.Lines.Len() == 0 {
			form.Lines.Add()
		}
		f.log.Debug("Order entry rejected", zap.Int("errors", len(errs)))
		return errs, nil
	}

	st.Step = StepConfirm
	st.Draft = form.Clone()
	st.Receipt = nil
	return nil, nil
}

// missingProducts reports every line naming a product the catalog does not have
func (f *Flow) missingProducts(ctx context.Context, order *models.Order) (models.ValidationErrors, error) {
	var errs models.ValidationErrors
	for i, line := range order.OrderProducts {
		if line.ProductID == 0 {
			// unparsable ids are already reported
			continue
		}
		_, err := f.store.GetProduct(ctx, line.ProductID)
		switch {
		case errors.Is(err, services.ErrNotFound):
			errs = append(errs, models.FieldError{Field: models.FieldProductID, Kind: models.ErrInclusion, Line: i + 1})
		case err != nil:
			return nil, fmt.Errorf("failed to look up product %d: %w", line.ProductID, err)
		}
	}
	return errs, nil
}

// Back moves Confirm → Entry and returns the stored form untouched.
// It reports false when no draft is awaiting confirmation.
func (f *Flow) Back(st *State) (*OrderForm, bool) {
	draft, ok := f.Pending(st)
	if !ok {
		return nil, false
	}
	st.Step = StepEntry
	return draft.Clone(), true
}

// Pending returns the draft awaiting confirmation, if any
func (f *Flow) Pending(st *State) (*OrderForm, bool) {
	if st.Step != StepConfirm || st.Draft == nil {
		return nil, false
	}
	return st.Draft, true
}

// Complete moves Confirm → Complete. The draft is validated again and committed as one
// unit. Validation failures send the session back to Entry; persistence failures keep
// it at Confirm with the draft intact so the customer can retry.
func (f *Flow) Complete(ctx context.Context, st *State) (*Receipt, models.ValidationErrors, error) {
	draft, ok := f.Pending(st)
	if !ok {
		return nil, nil, ErrNothingToConfirm
	}

	order, errs := draft.Validate()
	if !errs.Empty() {
		st.Step = StepEntry
		st.Draft = nil
		return nil, errs, nil
	}

	id, err := f.store.CreateOrder(ctx, order, order.OrderProducts, order.InflowSourceIDs())
	if err != nil {
		f.log.Error("Failed to persist order", zap.Error(err))
		return nil, nil, fmt.Errorf("failed to complete order: %w", err)
	}

	f.log.Info("Order completed", zap.Uint("order_id", id), zap.Int("lines", len(order.OrderProducts)))
	receipt := &Receipt{OrderID: id, Name: order.Name}
	st.Step = StepComplete
	st.Draft = nil
	st.Receipt = receipt
	return receipt, nil, nil
}

// ViewComplete consumes the receipt of the order just completed. Without one it reports
// false and the caller should send the visitor to a fresh Entry.
func (f *Flow) ViewComplete(st *State) (*Receipt, bool) {
	if st.Step != StepComplete || st.Receipt == nil {
		return nil, false
	}
	receipt := st.Receipt
	st.Step = StepEntry
	st.Receipt = nil
	return receipt, true
}
