package webhook

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/webhook"
	"gorm.io/gorm"

	"coursehub_backend/internal/model"
	"coursehub_backend/internal/store"
)

func gormModel(id uint) gorm.Model {
	return gorm.Model{ID: id}
}

const testSecret = "whsec_test_secret"

type purchaseCall struct {
	UserID           uint
	CourseID         uint
	Amount           int64
	StripePurchaseID string
}

type loggedEvent struct {
	EventID string
	Type    string
	Err     error
}

// mockStore records every mutation the handler asks for.
type mockStore struct {
	usersByCustomerID map[string]*model.User
	coursesByID       map[uint]*model.Course
	purchases         []purchaseCall
	upserts           []store.UpsertSubscriptionParams
	removed           []string
	removeErr         error
	events            []loggedEvent
}

func newMockStore() *mockStore {
	return &mockStore{
		usersByCustomerID: map[string]*model.User{},
		coursesByID:       map[uint]*model.Course{},
	}
}

func (m *mockStore) GetUserByStripeCustomerID(stripeCustomerID string) (*model.User, error) {
	return m.usersByCustomerID[stripeCustomerID], nil
}

func (m *mockStore) GetCourseByID(courseID uint) (*model.Course, error) {
	return m.coursesByID[courseID], nil
}

func (m *mockStore) RecordPurchase(userID, courseID uint, amount int64, stripePurchaseID string) error {
	m.purchases = append(m.purchases, purchaseCall{userID, courseID, amount, stripePurchaseID})
	return nil
}

func (m *mockStore) UpsertSubscription(p store.UpsertSubscriptionParams) error {
	m.upserts = append(m.upserts, p)
	return nil
}

func (m *mockStore) RemoveSubscription(stripeSubscriptionID string) error {
	if m.removeErr != nil {
		return m.removeErr
	}
	m.removed = append(m.removed, stripeSubscriptionID)
	return nil
}

func (m *mockStore) LogWebhookEvent(stripeEventID, eventType string, processErr error) error {
	m.events = append(m.events, loggedEvent{stripeEventID, eventType, processErr})
	return nil
}

func (m *mockStore) mutated() bool {
	return len(m.purchases) > 0 || len(m.upserts) > 0 || len(m.removed) > 0
}

func setupTestApp(m *mockStore) *fiber.App {
	app := fiber.New()
	h := NewHandler(m, testSecret, nil)
	app.Post("/api/webhook", h.Handle)
	return app
}

func signedRequest(payload []byte) *http.Request {
	ts := time.Now()
	sig := webhook.ComputeSignature(ts, payload, testSecret)

	req := httptest.NewRequest(http.MethodPost, "/api/webhook", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Stripe-Signature", fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(sig)))
	return req
}

func eventPayload(id, eventType, object string) []byte {
	return []byte(fmt.Sprintf(`{"id":%q,"type":%q,"api_version":%q,"data":{"object":%s}}`, id, eventType, stripe.APIVersion, object))
}

func TestMissingSignatureRejected(t *testing.T) {
	m := newMockStore()
	app := setupTestApp(m)

	payload := eventPayload("evt_1", "checkout.session.completed", `{"id":"cs_1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/webhook", bytes.NewReader(payload))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, m.mutated())
	assert.Empty(t, m.events)
}

func TestTamperedPayloadRejected(t *testing.T) {
	m := newMockStore()
	app := setupTestApp(m)

	payload := eventPayload("evt_1", "checkout.session.completed", `{"id":"cs_1"}`)
	req := signedRequest(payload)

	// re-sign with the wrong secret
	ts := time.Now()
	sig := webhook.ComputeSignature(ts, payload, "whsec_wrong")
	req.Header.Set("Stripe-Signature", fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(sig)))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, m.mutated())

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "signature verification failed")
}

func TestUnrecognizedEventTypeIsAcknowledged(t *testing.T) {
	m := newMockStore()
	app := setupTestApp(m)

	payload := eventPayload("evt_2", "invoice.payment_succeeded", `{"id":"in_1"}`)
	resp, err := app.Test(signedRequest(payload))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, m.mutated())
	require.Len(t, m.events, 1)
	assert.NoError(t, m.events[0].Err)
}

func TestCheckoutCompletedRecordsPurchase(t *testing.T) {
	m := newMockStore()
	m.usersByCustomerID["cus_1"] = &model.User{Model: gormModel(1), Email: "u1@example.com", StripeCustomerID: "cus_1"}
	app := setupTestApp(m)

	object := `{"id":"tx_1","customer":"cus_1","amount_total":1999,"metadata":{"courseId":"42"}}`
	payload := eventPayload("evt_3", "checkout.session.completed", object)

	resp, err := app.Test(signedRequest(payload))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, m.purchases, 1)
	assert.Equal(t, purchaseCall{UserID: 1, CourseID: 42, Amount: 1999, StripePurchaseID: "tx_1"}, m.purchases[0])
}

func TestCheckoutCompletedMissingCourseID(t *testing.T) {
	m := newMockStore()
	m.usersByCustomerID["cus_1"] = &model.User{Model: gormModel(1), StripeCustomerID: "cus_1"}
	app := setupTestApp(m)

	object := `{"id":"tx_1","customer":"cus_1","amount_total":1999,"metadata":{}}`
	payload := eventPayload("evt_4", "checkout.session.completed", object)

	resp, err := app.Test(signedRequest(payload))
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, m.mutated())
	require.Len(t, m.events, 1)
	assert.ErrorIs(t, m.events[0].Err, ErrMissingField)
}

func TestCheckoutCompletedUnknownCustomer(t *testing.T) {
	m := newMockStore()
	app := setupTestApp(m)

	object := `{"id":"tx_1","customer":"cus_ghost","amount_total":1999,"metadata":{"courseId":"42"}}`
	payload := eventPayload("evt_5", "checkout.session.completed", object)

	resp, err := app.Test(signedRequest(payload))
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, m.mutated())
	require.Len(t, m.events, 1)
	assert.ErrorIs(t, m.events[0].Err, ErrUserNotFound)
}

func TestSubscriptionCreatedUpserts(t *testing.T) {
	m := newMockStore()
	m.usersByCustomerID["cus_2"] = &model.User{Model: gormModel(2), Email: "u2@example.com", StripeCustomerID: "cus_2"}
	app := setupTestApp(m)

	object := `{
		"id": "sub_1",
		"status": "active",
		"customer": "cus_2",
		"cancel_at_period_end": false,
		"start_date": 1700000000,
		"latest_invoice": "in_1",
		"items": {"data": [{"plan": {"interval": "month"}}]}
	}`
	payload := eventPayload("evt_6", "customer.subscription.created", object)

	resp, err := app.Test(signedRequest(payload))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, m.upserts, 1)

	up := m.upserts[0]
	assert.Equal(t, uint(2), up.UserID)
	assert.Equal(t, "sub_1", up.StripeSubscriptionID)
	assert.Equal(t, "active", up.Status)
	assert.Equal(t, model.PlanMonth, up.PlanType)
	assert.False(t, up.CancelAtPeriodEnd)
	require.NotNil(t, up.CurrentPeriodStart)
	require.NotNil(t, up.CurrentPeriodEnd)
	assert.Equal(t, int64(1700000000), *up.CurrentPeriodStart)
	assert.Equal(t, int64(1700000000+30*24*60*60), *up.CurrentPeriodEnd)
}

func TestSubscriptionUpdatedYearlyPlanAndCancelFlag(t *testing.T) {
	m := newMockStore()
	m.usersByCustomerID["cus_2"] = &model.User{Model: gormModel(2), StripeCustomerID: "cus_2"}
	app := setupTestApp(m)

	object := `{
		"id": "sub_1",
		"status": "active",
		"customer": "cus_2",
		"cancel_at_period_end": true,
		"start_date": 1700000000,
		"latest_invoice": "in_2",
		"items": {"data": [{"plan": {"interval": "year"}}]}
	}`
	payload := eventPayload("evt_7", "customer.subscription.updated", object)

	resp, err := app.Test(signedRequest(payload))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, m.upserts, 1)
	assert.Equal(t, model.PlanYear, m.upserts[0].PlanType)
	assert.True(t, m.upserts[0].CancelAtPeriodEnd)
	assert.Equal(t, int64(1700000000+365*24*60*60), *m.upserts[0].CurrentPeriodEnd)
}

func TestSubscriptionNotActiveIsSkipped(t *testing.T) {
	m := newMockStore()
	m.usersByCustomerID["cus_2"] = &model.User{Model: gormModel(2), StripeCustomerID: "cus_2"}
	app := setupTestApp(m)

	object := `{
		"id": "sub_1",
		"status": "incomplete",
		"customer": "cus_2",
		"latest_invoice": "in_1",
		"items": {"data": [{"plan": {"interval": "month"}}]}
	}`
	payload := eventPayload("evt_8", "customer.subscription.created", object)

	resp, err := app.Test(signedRequest(payload))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, m.mutated())
}

func TestSubscriptionWithoutInvoiceIsSkipped(t *testing.T) {
	m := newMockStore()
	m.usersByCustomerID["cus_2"] = &model.User{Model: gormModel(2), StripeCustomerID: "cus_2"}
	app := setupTestApp(m)

	object := `{
		"id": "sub_1",
		"status": "active",
		"customer": "cus_2",
		"items": {"data": [{"plan": {"interval": "month"}}]}
	}`
	payload := eventPayload("evt_9", "customer.subscription.created", object)

	resp, err := app.Test(signedRequest(payload))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, m.mutated())
}

func TestSubscriptionDeletedRemovesRow(t *testing.T) {
	m := newMockStore()
	app := setupTestApp(m)

	payload := eventPayload("evt_10", "customer.subscription.deleted", `{"id":"sub_1"}`)
	resp, err := app.Test(signedRequest(payload))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"sub_1"}, m.removed)
}

func TestSubscriptionDeletedNotFoundAnswersFailure(t *testing.T) {
	m := newMockStore()
	m.removeErr = store.ErrSubscriptionNotFound
	app := setupTestApp(m)

	payload := eventPayload("evt_11", "customer.subscription.deleted", `{"id":"sub_ghost"}`)
	resp, err := app.Test(signedRequest(payload))
	require.NoError(t, err)

	// surfaced to the provider so it can redeliver, process stays alive
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Len(t, m.events, 1)
	assert.ErrorIs(t, m.events[0].Err, store.ErrSubscriptionNotFound)

	// same delivery again behaves identically
	resp, err = app.Test(signedRequest(payload))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
