package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/order-intake/checkout"
	"github.com/kendall-kelly/order-intake/locale"
	"github.com/kendall-kelly/order-intake/models"
	"github.com/kendall-kelly/order-intake/services"
	"github.com/kendall-kelly/order-intake/session"
	"github.com/kendall-kelly/order-intake/views"
	"go.uber.org/zap"
)

// Page paths of the checkout
const (
	EntryPath    = "/orders/new"
	CompletePath = "/orders/complete"
)

const (
	titleEntry    = "注文フォーム"
	titleConfirm  = "注文内容の確認"
	titleComplete = "注文完了"
	titleError    = "エラー"

	alertPersistFailed = "ご注文を保存できませんでした。お手数ですが、もう一度お試しください。"
	alertCatalogFailed = "商品情報を読み込めませんでした。しばらくしてからもう一度お試しください。"
	alertSessionFailed = "セッションを読み込めませんでした。注文フォームからやり直してください。"
)

type entryPage struct {
	Title          string
	Form           *checkout.OrderForm
	Errors         map[string][]string
	Messages       []string
	Products       []models.Product
	PaymentMethods []models.PaymentMethod
	InflowSources  []models.InflowSource
}

type confirmPage struct {
	Title   string
	Preview *checkout.Preview
	Alert   string
}

func newFlow() *checkout.Flow {
	return checkout.NewFlow(services.GetOrderStore(), zap.L())
}

func translator(c *gin.Context) *locale.Translator {
	return locale.For(locale.Match(c.GetHeader("Accept-Language")))
}

// loadState reads the checkout state from the request session, rendering an error page on failure
func loadState(c *gin.Context) (*session.Session, *checkout.State, bool) {
	sess := session.Get(c)
	if sess == nil {
		renderError(c, http.StatusInternalServerError, alertSessionFailed)
		return nil, nil, false
	}
	st, err := checkout.LoadState(sess)
	if err != nil {
		zap.L().Warn("Discarding unreadable checkout state", zap.String("session_id", sess.ID), zap.Error(err))
		st = &checkout.State{Step: checkout.StepEntry}
	}
	return sess, st, true
}

func saveState(c *gin.Context, sess *session.Session, st *checkout.State) bool {
	if err := st.Save(sess); err != nil {
		zap.L().Error("Failed to save checkout state", zap.String("session_id", sess.ID), zap.Error(err))
		renderError(c, http.StatusInternalServerError, alertSessionFailed)
		return false
	}
	return true
}

func renderError(c *gin.Context, status int, message string) {
	c.HTML(status, views.Error, gin.H{
		"Title":   titleError,
		"Message": message,
	})
}

func renderEntry(c *gin.Context, status int, form *checkout.OrderForm, errs models.ValidationErrors) {
	ctx := c.Request.Context()
	store := services.GetOrderStore()

	page := entryPage{Title: titleEntry, Form: form}
	if !errs.Empty() {
		t := translator(c)
		page.Errors = t.Messages(errs)
		for _, e := range errs {
			page.Messages = append(page.Messages, t.Message(e))
		}
	}

	var err error
	if page.Products, err = store.ListProducts(ctx); err == nil {
		if page.PaymentMethods, err = store.ListPaymentMethods(ctx); err == nil {
			page.InflowSources, err = store.ListInflowSources(ctx)
		}
	}
	if err != nil {
		zap.L().Error("Failed to load catalog", zap.Error(err))
		renderError(c, http.StatusInternalServerError, alertCatalogFailed)
		return
	}

	c.HTML(status, views.Entry, page)
}

func renderConfirm(c *gin.Context, status int, flow *checkout.Flow, draft *checkout.OrderForm, alert string) {
	preview, err := flow.Preview(c.Request.Context(), draft)
	if err != nil {
		zap.L().Error("Failed to price order", zap.Error(err))
		renderError(c, http.StatusInternalServerError, alertCatalogFailed)
		return
	}
	c.HTML(status, views.Confirm, confirmPage{Title: titleConfirm, Preview: preview, Alert: alert})
}

func parseForm(c *gin.Context) (*checkout.OrderForm, bool) {
	if err := c.Request.ParseForm(); err != nil {
		renderError(c, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return checkout.ParseOrderForm(c.Request.PostForm), true
}

// NewOrder handles GET /orders/new - starts a fresh order entry
func NewOrder(c *gin.Context) {
	sess, st, ok := loadState(c)
	if !ok {
		return
	}
	form := newFlow().Start(st)
	if !saveState(c, sess, st) {
		return
	}
	renderEntry(c, http.StatusOK, form, nil)
}

// EditOrderLines handles POST /orders/lines - adds or removes a product line and
// re-renders the entry form with everything else as typed
func EditOrderLines(c *gin.Context) {
	form, ok := parseForm(c)
	if !ok {
		return
	}

	if c.Request.PostForm.Get("op") == "add_line" {
		form.Lines.Add()
	}
	if raw := c.Request.PostForm.Get("remove_line"); raw != "" {
		key, err := strconv.Atoi(raw)
		if err != nil {
			renderError(c, http.StatusBadRequest, "invalid line key")
			return
		}
		form.Lines.Remove(key)
	}

	renderEntry(c, http.StatusOK, form, nil)
}

// ConfirmOrder handles POST /orders/confirm - validates the entry and shows the confirmation page
func ConfirmOrder(c *gin.Context) {
	form, ok := parseForm(c)
	if !ok {
		return
	}
	sess, st, ok := loadState(c)
	if !ok {
		return
	}

	flow := newFlow()
	errs, err := flow.Submit(c.Request.Context(), st, form)
	if err != nil {
		zap.L().Error("Failed to check order entry", zap.Error(err))
		renderError(c, http.StatusInternalServerError, alertCatalogFailed)
		return
	}
	if !saveState(c, sess, st) {
		return
	}
	if !errs.Empty() {
		renderEntry(c, http.StatusUnprocessableEntity, form, errs)
		return
	}
	renderConfirm(c, http.StatusOK, flow, st.Draft, "")
}

// ShowConfirm handles GET /orders/confirm - shows the pending confirmation again, or
// sends the visitor to a fresh entry when there is none
func ShowConfirm(c *gin.Context) {
	_, st, ok := loadState(c)
	if !ok {
		return
	}
	flow := newFlow()
	draft, ok := flow.Pending(st)
	if !ok {
		c.Redirect(http.StatusFound, EntryPath)
		return
	}
	renderConfirm(c, http.StatusOK, flow, draft, "")
}

// BackToEntry handles POST /orders - returns from confirmation to the entry form with
// every value restored
func BackToEntry(c *gin.Context) {
	sess, st, ok := loadState(c)
	if !ok {
		return
	}
	form, ok := newFlow().Back(st)
	if !ok {
		c.Redirect(http.StatusSeeOther, EntryPath)
		return
	}
	if !saveState(c, sess, st) {
		return
	}
	renderEntry(c, http.StatusOK, form, nil)
}

// CompleteOrder handles POST /orders/complete - persists the confirmed order
func CompleteOrder(c *gin.Context) {
	sess, st, ok := loadState(c)
	if !ok {
		return
	}

	flow := newFlow()
	draft, _ := flow.Pending(st)
	receipt, errs, err := flow.Complete(c.Request.Context(), st)
	switch {
	case errors.Is(err, checkout.ErrNothingToConfirm):
		c.Redirect(http.StatusSeeOther, EntryPath)
		return
	case err != nil:
		renderConfirm(c, http.StatusInternalServerError, flow, st.Draft, alertPersistFailed)
		return
	}

	if !saveState(c, sess, st) {
		return
	}
	if !errs.Empty() {
		renderEntry(c, http.StatusUnprocessableEntity, draft.Clone(), errs)
		return
	}

	zap.L().Info("Order placed", zap.Uint("order_id", receipt.OrderID), zap.String("session_id", sess.ID))
	c.Redirect(http.StatusSeeOther, CompletePath)
}

// ShowComplete handles GET /orders/complete - thanks the customer once; any later
// visit goes back to a fresh entry
func ShowComplete(c *gin.Context) {
	sess, st, ok := loadState(c)
	if !ok {
		return
	}
	receipt, ok := newFlow().ViewComplete(st)
	if !ok {
		c.Redirect(http.StatusFound, EntryPath)
		return
	}
	if !saveState(c, sess, st) {
		return
	}
	c.HTML(http.StatusOK, views.Complete, gin.H{
		"Title": titleComplete,
		"Name":  receipt.Name,
	})
}
