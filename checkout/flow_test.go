package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/kendall-kelly/order-intake/models"
	"github.com/kendall-kelly/order-intake/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore() *services.MockOrderStore {
	return services.NewMockOrderStore(
		[]models.Product{
			{ID: 1, Name: "商品A", Price: 100},
			{ID: 2, Name: "商品B", Price: 200},
			{ID: 99, Name: "商品Z", Price: 299},
		},
		[]models.PaymentMethod{{ID: 1, Name: "クレジットカード"}, {ID: 2, Name: "銀行振込"}},
		[]models.InflowSource{{ID: 1, Name: "検索エンジン"}, {ID: 2, Name: "SNS"}, {ID: 3, Name: "友人・知人"}},
	)
}

func validValues() url.Values {
	return url.Values{
		"order[name]":                                    {"山田太郎"},
		"order[email]":                                   {"test@example.com"},
		"order[telephone]":                               {"09012345678"},
		"order[delivery_address]":                        {"東京都千代田区"},
		"order[payment_method_id]":                       {"2"},
		"order[other_comment]":                           {"テストコメントです"},
		"order[direct_mail_enabled]":                     {"true"},
		"order[inflow_source_ids][]":                     {"", "1", "2"},
		"order[order_products_attributes][0][product_id]": {"1"},
		"order[order_products_attributes][0][quantity]":   {"3"},
	}
}

// jsonCodec stands in for a session payload
type jsonCodec struct{ payload []byte }

func (j *jsonCodec) Decode(v interface{}) error {
	if len(j.payload) == 0 {
		return nil
	}
	return json.Unmarshal(j.payload, v)
}

func (j *jsonCodec) Encode(v interface{}) error {
	b, err := json.Marshal(v)
	j.payload = b
	return err
}

// roundTrip stores the state and reads it back, the way two requests would see it
func roundTrip(t *testing.T, st *State) *State {
	t.Helper()
	codec := &jsonCodec{}
	require.NoError(t, st.Save(codec))
	loaded, err := LoadState(codec)
	require.NoError(t, err)
	return loaded
}

// submit runs Flow.Submit and fails the test on a lookup error
func submit(t *testing.T, flow *Flow, st *State, form *OrderForm) models.ValidationErrors {
	t.Helper()
	errs, err := flow.Submit(context.Background(), st, form)
	require.NoError(t, err)
	return errs
}

// unreachableCatalog fails every product lookup the way a lost connection would
type unreachableCatalog struct{ *services.MockOrderStore }

func (unreachableCatalog) GetProduct(context.Context, uint) (*models.Product, error) {
	return nil, errors.New("connection refused")
}

func TestLoadStateDefaultsToEntry(t *testing.T) {
	st, err := LoadState(&jsonCodec{})
	require.NoError(t, err)
	assert.Equal(t, StepEntry, st.Step)
	assert.Nil(t, st.Draft)

	_, err = LoadState(&jsonCodec{payload: []byte("{")})
	assert.Error(t, err)
}

func TestFlowHappyPath(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	flow := NewFlow(store, nil)
	st := &State{}

	form := flow.Start(st)
	assert.Equal(t, 1, form.Lines.Len())

	errs := submit(t, flow, st, ParseOrderForm(validValues()))
	require.True(t, errs.Empty(), "unexpected errors: %v", errs)
	assert.Equal(t, StepConfirm, st.Step)
	assert.Empty(t, store.Orders(), "nothing is persisted before confirmation")

	st = roundTrip(t, st)
	pending, ok := flow.Pending(st)
	require.True(t, ok)
	assert.Equal(t, "山田太郎", pending.Name)

	receipt, errs, err := flow.Complete(ctx, st)
	require.NoError(t, err)
	require.True(t, errs.Empty())
	assert.Equal(t, "山田太郎", receipt.Name)
	assert.Equal(t, StepComplete, st.Step)
	assert.Nil(t, st.Draft, "draft is discarded after persistence")

	st = roundTrip(t, st)
	shown, ok := flow.ViewComplete(st)
	require.True(t, ok)
	assert.Equal(t, receipt.OrderID, shown.OrderID)

	_, ok = flow.ViewComplete(st)
	assert.False(t, ok, "the completion page can only be seen once")

	orders := store.Orders()
	require.Len(t, orders, 1)
	order := orders[0]
	assert.Equal(t, "test@example.com", order.Email)
	assert.Equal(t, uint(2), *order.PaymentMethodID)
	assert.True(t, *order.DirectMailEnabled)
	assert.Equal(t, []uint{1, 2}, order.InflowSourceIDs())
	require.Len(t, order.OrderProducts, 1)
	assert.Equal(t, uint(1), order.OrderProducts[0].ProductID)
	assert.Equal(t, 3, order.OrderProducts[0].Quantity)
}

func TestFlowSubmitInvalidKeepsInput(t *testing.T) {
	flow := NewFlow(newMockStore(), nil)
	st := &State{}
	flow.Start(st)

	values := validValues()
	values.Set("order[telephone]", "090123456789")
	values.Set("order[direct_mail_enabled]", "")
	form := ParseOrderForm(values)

	errs := submit(t, flow, st, form)
	require.Len(t, errs, 2)
	assert.Equal(t, models.FieldTelephone, errs[0].Key())
	assert.Equal(t, models.ErrTooLong, errs[0].Kind)
	assert.Equal(t, models.FieldDirectMailEnabled, errs[1].Key())

	assert.Equal(t, StepEntry, st.Step)
	assert.Nil(t, st.Draft)
	assert.Equal(t, "090123456789", form.Telephone, "rejected input is not cleared")
	assert.Equal(t, "山田太郎", form.Name)
	assert.Equal(t, []string{"1", "2"}, form.InflowSourceIDs)
}

func TestFlowSubmitRequiresAProduct(t *testing.T) {
	flow := NewFlow(newMockStore(), nil)
	st := &State{}

	values := validValues()
	values.Set("order[order_products_attributes][0][product_id]", "")
	form := ParseOrderForm(values)

	errs := submit(t, flow, st, form)
	require.Len(t, errs, 1)
	assert.Equal(t, models.FieldOrderProducts, errs[0].Key())
	assert.Equal(t, 1, form.Lines.Len(), "a blank line is offered again")
}

func TestFlowSubmitLineErrors(t *testing.T) {
	flow := NewFlow(newMockStore(), nil)
	st := &State{}

	values := validValues()
	values.Set("order[order_products_attributes][3][product_id]", "2")
	values.Set("order[order_products_attributes][3][quantity]", "0")
	values.Set("order[order_products_attributes][5][product_id]", "abc")
	values.Set("order[order_products_attributes][5][quantity]", "two")

	errs := submit(t, flow, st, ParseOrderForm(values))
	require.Len(t, errs, 3)
	assert.Equal(t, "order_products.1.quantity", errs[0].Key())
	assert.Equal(t, models.ErrGreaterThanOrEqual, errs[0].Kind)
	assert.Equal(t, "order_products.2.product_id", errs[1].Key())
	assert.Equal(t, "order_products.2.quantity", errs[2].Key())
	assert.Equal(t, models.ErrInvalidFormat, errs[2].Kind)
}

func TestFlowBackRestoresEverything(t *testing.T) {
	flow := NewFlow(newMockStore(), nil)
	st := &State{}

	values := validValues()
	values.Set("order[order_products_attributes][1][product_id]", "2")
	values.Set("order[order_products_attributes][1][quantity]", "3")
	values["order[inflow_source_ids][]"] = []string{"2", "1"}
	submitted := ParseOrderForm(values)
	require.True(t, submit(t, flow, st, submitted).Empty())

	st = roundTrip(t, st)
	form, ok := flow.Back(st)
	require.True(t, ok)
	assert.Equal(t, StepEntry, st.Step)

	assert.Equal(t, submitted.Name, form.Name)
	assert.Equal(t, submitted.Email, form.Email)
	assert.Equal(t, submitted.Telephone, form.Telephone)
	assert.Equal(t, submitted.DeliveryAddress, form.DeliveryAddress)
	assert.Equal(t, "2", form.PaymentMethodID)
	assert.Equal(t, submitted.OtherComment, form.OtherComment)
	assert.Equal(t, "true", form.DirectMailEnabled)
	assert.Equal(t, []string{"2", "1"}, form.InflowSourceIDs)
	assert.True(t, form.HasInflowSource(1))
	assert.False(t, form.HasInflowSource(3))
	require.Equal(t, 2, form.Lines.Len())
	assert.Equal(t, LineDraft{Key: 0, ProductID: "1", Quantity: "3"}, form.Lines.Lines[0])
	assert.Equal(t, LineDraft{Key: 1, ProductID: "2", Quantity: "3"}, form.Lines.Lines[1])

	// changing the returned form must not touch the session copy
	form.Name = "changed"
	assert.Equal(t, "山田太郎", st.Draft.Name)

	_, ok = flow.Back(st)
	assert.False(t, ok, "back only works from the confirm step")
}

func TestFlowFailedSubmitDropsEarlierDraft(t *testing.T) {
	flow := NewFlow(newMockStore(), nil)
	st := &State{}
	require.True(t, submit(t, flow, st, ParseOrderForm(validValues())).Empty())

	_, ok := flow.Back(st)
	require.True(t, ok)

	values := validValues()
	values.Set("order[name]", "")
	errs := submit(t, flow, st, ParseOrderForm(values))
	require.Len(t, errs, 1)
	assert.Equal(t, StepEntry, st.Step)
	assert.Nil(t, st.Draft)

	_, ok = flow.Back(st)
	assert.False(t, ok, "the rejected entry leaves nothing to go back to")
	_, ok = flow.Pending(st)
	assert.False(t, ok)
}

func TestFlowSubmitUnknownProduct(t *testing.T) {
	store := newMockStore()
	flow := NewFlow(store, nil)
	st := &State{}

	values := validValues()
	values.Set("order[order_products_attributes][1][product_id]", "999")
	values.Set("order[order_products_attributes][1][quantity]", "1")
	form := ParseOrderForm(values)

	errs := submit(t, flow, st, form)
	require.Len(t, errs, 1)
	assert.Equal(t, "order_products.1.product_id", errs[0].Key())
	assert.Equal(t, models.ErrInclusion, errs[0].Kind)
	assert.Equal(t, StepEntry, st.Step)
	assert.Nil(t, st.Draft)
	assert.Equal(t, "999", form.Lines.Lines[1].ProductID, "the rejected id is shown again")

	// a product removed after the entry page was rendered is caught the same way
	store.DeleteProduct(1)
	errs = submit(t, flow, st, ParseOrderForm(validValues()))
	require.Len(t, errs, 1)
	assert.Equal(t, "order_products.0.product_id", errs[0].Key())
}

func TestFlowSubmitCatalogUnreachable(t *testing.T) {
	flow := NewFlow(unreachableCatalog{newMockStore()}, nil)
	st := &State{}

	errs, err := flow.Submit(context.Background(), st, ParseOrderForm(validValues()))
	assert.Error(t, err)
	assert.Nil(t, errs)
	assert.NotEqual(t, StepConfirm, st.Step)
}

func TestFlowBackWithoutDraft(t *testing.T) {
	flow := NewFlow(newMockStore(), nil)
	_, ok := flow.Back(&State{Step: StepConfirm})
	assert.False(t, ok)
}

func TestFlowCompleteWithoutConfirm(t *testing.T) {
	flow := NewFlow(newMockStore(), nil)

	_, _, err := flow.Complete(context.Background(), &State{Step: StepEntry})
	assert.ErrorIs(t, err, ErrNothingToConfirm)

	form := ParseOrderForm(validValues())
	_, _, err = flow.Complete(context.Background(), &State{Step: StepEntry, Draft: form})
	assert.ErrorIs(t, err, ErrNothingToConfirm, "a draft sent back to entry cannot be completed")
}

func TestFlowCompleteRevalidates(t *testing.T) {
	store := newMockStore()
	flow := NewFlow(store, nil)

	form := ParseOrderForm(validValues())
	form.Email = "broken"
	st := &State{Step: StepConfirm, Draft: form}

	receipt, errs, err := flow.Complete(context.Background(), st)
	require.NoError(t, err)
	assert.Nil(t, receipt)
	require.Len(t, errs, 1)
	assert.Equal(t, models.FieldEmail, errs[0].Key())
	assert.Equal(t, StepEntry, st.Step)
	assert.Nil(t, st.Draft)
	assert.Empty(t, store.Orders())

	_, ok := flow.Back(st)
	assert.False(t, ok)
}

func TestFlowCompletePersistenceFailureKeepsDraft(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	flow := NewFlow(store, nil)
	st := &State{}
	require.True(t, submit(t, flow, st, ParseOrderForm(validValues())).Empty())

	store.DeleteProduct(1)
	receipt, errs, err := flow.Complete(ctx, st)
	assert.Nil(t, receipt)
	assert.Empty(t, errs)

	var perr *services.PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, services.CodeProductNotFound, perr.Code)
	assert.Equal(t, StepConfirm, st.Step)
	require.NotNil(t, st.Draft)
	assert.Equal(t, "山田太郎", st.Draft.Name)

	store.SetProductPrice(1, 100)
	receipt, _, err = flow.Complete(ctx, st)
	require.NoError(t, err, "the customer can retry")
	assert.NotNil(t, receipt)
}

func TestFlowViewCompleteWithoutReceipt(t *testing.T) {
	flow := NewFlow(newMockStore(), nil)
	_, ok := flow.ViewComplete(&State{Step: StepEntry})
	assert.False(t, ok)
	_, ok = flow.ViewComplete(&State{Step: StepComplete})
	assert.False(t, ok)
}

func TestFlowStartClearsState(t *testing.T) {
	flow := NewFlow(newMockStore(), nil)
	st := &State{Step: StepComplete, Draft: NewOrderForm(), Receipt: &Receipt{OrderID: 1, Name: "x"}}

	form := flow.Start(st)
	assert.Equal(t, StepEntry, st.Step)
	assert.Nil(t, st.Draft)
	assert.Nil(t, st.Receipt)
	assert.Empty(t, form.Name)
}

func TestFlowPreview(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	flow := NewFlow(store, nil)

	values := validValues()
	values.Set("order[order_products_attributes][0][quantity]", "3")
	values.Set("order[order_products_attributes][1][product_id]", "2")
	values.Set("order[order_products_attributes][1][quantity]", "2")
	form := ParseOrderForm(values)

	p, err := flow.Preview(ctx, form)
	require.NoError(t, err)
	require.Len(t, p.Lines, 2)
	assert.Equal(t, "商品A", p.Lines[0].Product.Name)
	assert.Equal(t, int64(300), p.Lines[0].Subtotal)
	assert.Equal(t, int64(700), p.Subtotal)
	assert.Equal(t, int64(70), p.Tax)
	assert.Equal(t, int64(770), p.Total)
	assert.Equal(t, "銀行振込", p.PaymentMethod)
	assert.Equal(t, []string{"検索エンジン", "SNS"}, p.InflowSources)
	assert.True(t, p.DirectMail())

	store.SetProductPrice(1, 299)
	values = validValues()
	values.Set("order[order_products_attributes][0][product_id]", "1")
	values.Set("order[order_products_attributes][0][quantity]", "1")
	p, err = flow.Preview(ctx, ParseOrderForm(values))
	require.NoError(t, err)
	assert.Equal(t, int64(329), p.Total, "preview uses the current price")

	store.DeleteProduct(1)
	values.Set("order[order_products_attributes][1][product_id]", "2")
	values.Set("order[order_products_attributes][1][quantity]", "1")
	p, err = flow.Preview(ctx, ParseOrderForm(values))
	require.NoError(t, err, "a product gone from the catalog does not fail the page")
	require.Len(t, p.Lines, 2)
	assert.True(t, p.HasUnavailable())
	assert.True(t, p.Lines[0].Unavailable)
	assert.Equal(t, uint(1), p.Lines[0].Product.ID)
	assert.Equal(t, int64(0), p.Lines[0].Subtotal)
	assert.False(t, p.Lines[1].Unavailable)
	assert.Equal(t, int64(200), p.Subtotal)
	assert.Equal(t, int64(220), p.Total)
}

func TestParseOrderFormDropsDestroyedAndBlankLines(t *testing.T) {
	values := validValues()
	values.Set("order[order_products_attributes][0][_destroy]", "1")
	values.Set("order[order_products_attributes][1][product_id]", "2")
	values.Set("order[order_products_attributes][1][quantity]", "3")
	values.Set("order[order_products_attributes][2][product_id]", "")
	values.Set("order[order_products_attributes][2][quantity]", "5")

	form := ParseOrderForm(values)
	assert.Equal(t, 2, form.Lines.Len(), "blank lines survive parsing so they can be shown again")
	assert.Equal(t, 3, form.Lines.NextKey)

	order, errs := form.Validate()
	require.True(t, errs.Empty(), "unexpected errors: %v", errs)
	require.Len(t, order.OrderProducts, 1)
	assert.Equal(t, uint(2), order.OrderProducts[0].ProductID)
	assert.Equal(t, 3, order.OrderProducts[0].Quantity)
}

func TestParseOrderFormEmpty(t *testing.T) {
	form := ParseOrderForm(url.Values{})
	assert.Equal(t, 1, form.Lines.Len())
	assert.Nil(t, form.InflowSourceIDs)

	order, _ := form.Order()
	assert.Nil(t, order.PaymentMethodID)
	assert.Nil(t, order.DirectMailEnabled)
}

func TestOrderFormDirectMailValues(t *testing.T) {
	tests := []struct {
		raw  string
		want *bool
	}{
		{"true", boolPtr(true)},
		{"1", boolPtr(true)},
		{"false", boolPtr(false)},
		{"0", boolPtr(false)},
		{"", nil},
		{"yes please", nil},
	}

	for _, tt := range tests {
		form := &OrderForm{DirectMailEnabled: tt.raw}
		order, _ := form.Order()
		assert.Equal(t, tt.want, order.DirectMailEnabled, "raw value %q", tt.raw)
	}
}

func TestParamNames(t *testing.T) {
	assert.Equal(t, "order[name]", ParamName(models.FieldName))
	assert.Equal(t, "order[order_products_attributes][1][product_id]", LineParamName(1, models.FieldProductID))
	assert.True(t, strings.HasSuffix(ParamInflowSource, "[]"))
}

func boolPtr(v bool) *bool { return &v }
