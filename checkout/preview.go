package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/kendall-kelly/order-intake/models"
	"github.com/kendall-kelly/order-intake/services"
)

// PreviewLine is one product line priced at the current catalog price.
// A line whose product left the catalog is Unavailable and priced at zero.
type PreviewLine struct {
	Product     models.Product
	Quantity    int
	Subtotal    int64
	Unavailable bool
}

// Preview is what the confirmation page shows for a draft
type Preview struct {
	Order         *models.Order
	Lines         []PreviewLine
	PaymentMethod string
	InflowSources []string
	Subtotal      int64
	Tax           int64
	Total         int64
}

// DirectMail reports the newsletter choice; only valid drafts reach a preview
func (p *Preview) DirectMail() bool {
	return p.Order.DirectMailEnabled != nil && *p.Order.DirectMailEnabled
}

// HasUnavailable reports whether any line names a product that is no longer sold
func (p *Preview) HasUnavailable() bool {
	for _, line := range p.Lines {
		if line.Unavailable {
			return true
		}
	}
	return false
}

// Preview resolves catalog names and prices for a draft. Products missing from the
// catalog are shown as unavailable lines rather than failing the whole page.
func (f *Flow) Preview(ctx context.Context, form *OrderForm) (*Preview, error) {
	order, _ := form.Order()
	p := &Preview{Order: order}

	for _, line := range order.OrderProducts {
		product, err := f.store.GetProduct(ctx, line.ProductID)
		if errors.Is(err, services.ErrNotFound) {
			p.Lines = append(p.Lines, PreviewLine{
				Product:     models.Product{ID: line.ProductID},
				Quantity:    line.Quantity,
				Unavailable: true,
			})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load product %d: %w", line.ProductID, err)
		}
		amount, err := models.LineSubtotal(product.Price, line.Quantity)
		if err != nil {
			return nil, fmt.Errorf("failed to price product %d: %w", line.ProductID, err)
		}
		p.Lines = append(p.Lines, PreviewLine{
			Product:  *product,
			Quantity: line.Quantity,
			Subtotal: amount,
		})
		p.Subtotal += amount
	}
	p.Tax = models.Tax(p.Subtotal)
	p.Total = p.Subtotal + p.Tax

	methods, err := f.store.ListPaymentMethods(ctx)
	if err != nil {
		return nil, err
	}
	for _, m := range methods {
		if order.PaymentMethodID != nil && m.ID == *order.PaymentMethodID {
			p.PaymentMethod = m.Name
		}
	}

	sources, err := f.store.ListInflowSources(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[uint]string, len(sources))
	for _, s := range sources {
		names[s.ID] = s.Name
	}
	for _, id := range order.InflowSourceIDs() {
		if name, ok := names[id]; ok {
			p.InflowSources = append(p.InflowSources, name)
		}
	}
	return p, nil
}
