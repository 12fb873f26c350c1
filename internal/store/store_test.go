package store

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"coursehub_backend/internal/model"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Course{},
		&model.Purchase{},
		&model.Subscription{},
		&model.WebhookEvent{},
	))

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email, stripeCustomerID string) *model.User {
	t.Helper()

	user := model.User{
		Email:            email,
		Password:         "hashed",
		Name:             "Test User",
		StripeCustomerID: stripeCustomerID,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func createTestCourse(t *testing.T, db *gorm.DB, title string) *model.Course {
	t.Helper()

	course := model.Course{
		Title:       title,
		Description: "test course",
		Price:       19.99,
	}
	require.NoError(t, db.Create(&course).Error)
	return &course
}

func TestGetUserByStripeCustomerID(t *testing.T) {
	db := setupTestDB(t)
	s := New(db)

	created := createTestUser(t, db, "a@example.com", "cus_abc")

	user, err := s.GetUserByStripeCustomerID("cus_abc")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, created.ID, user.ID)

	missing, err := s.GetUserByStripeCustomerID("cus_nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRecordPurchase(t *testing.T) {
	db := setupTestDB(t)
	s := New(db)

	user := createTestUser(t, db, "u1@example.com", "cus_1")
	course := createTestCourse(t, db, "Course One")

	require.NoError(t, s.RecordPurchase(user.ID, course.ID, 1999, "tx_1"))

	var purchase model.Purchase
	require.NoError(t, db.Where("stripe_purchase_id = ?", "tx_1").First(&purchase).Error)
	assert.Equal(t, user.ID, purchase.UserID)
	assert.Equal(t, course.ID, purchase.CourseID)
	assert.Equal(t, int64(1999), purchase.Amount)
	assert.NotZero(t, purchase.PurchaseDate)
}

func TestRecordPurchaseDuplicateDeliveryIsNoOp(t *testing.T) {
	db := setupTestDB(t)
	s := New(db)

	user := createTestUser(t, db, "u1@example.com", "cus_1")
	course := createTestCourse(t, db, "Course One")

	require.NoError(t, s.RecordPurchase(user.ID, course.ID, 1999, "tx_1"))
	require.NoError(t, s.RecordPurchase(user.ID, course.ID, 1999, "tx_1"))

	var count int64
	db.Model(&model.Purchase{}).Where("stripe_purchase_id = ?", "tx_1").Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestUpsertSubscriptionCreatesAndLinks(t *testing.T) {
	db := setupTestDB(t)
	s := New(db)

	user := createTestUser(t, db, "u2@example.com", "cus_2")

	start := int64(1700000000)
	end := start + 30*24*60*60
	require.NoError(t, s.UpsertSubscription(UpsertSubscriptionParams{
		UserID:               user.ID,
		StripeSubscriptionID: "sub_1",
		Status:               "active",
		PlanType:             model.PlanMonth,
		CurrentPeriodStart:   &start,
		CurrentPeriodEnd:     &end,
	}))

	var sub model.Subscription
	require.NoError(t, db.Where("stripe_subscription_id = ?", "sub_1").First(&sub).Error)
	assert.Equal(t, model.PlanMonth, sub.PlanType)
	assert.Equal(t, "active", sub.Status)

	var reloaded model.User
	require.NoError(t, db.First(&reloaded, user.ID).Error)
	require.NotNil(t, reloaded.CurrentSubscriptionID)
	assert.Equal(t, sub.ID, *reloaded.CurrentSubscriptionID)
}

func TestUpsertSubscriptionPatchesInPlace(t *testing.T) {
	db := setupTestDB(t)
	s := New(db)

	user := createTestUser(t, db, "u2@example.com", "cus_2")

	start := int64(1700000000)
	end := start + 30*24*60*60
	params := UpsertSubscriptionParams{
		UserID:               user.ID,
		StripeSubscriptionID: "sub_1",
		Status:               "active",
		PlanType:             model.PlanMonth,
		CurrentPeriodStart:   &start,
		CurrentPeriodEnd:     &end,
	}
	require.NoError(t, s.UpsertSubscription(params))

	params.CancelAtPeriodEnd = true
	require.NoError(t, s.UpsertSubscription(params))

	var count int64
	db.Model(&model.Subscription{}).Where("stripe_subscription_id = ?", "sub_1").Count(&count)
	assert.Equal(t, int64(1), count)

	var sub model.Subscription
	require.NoError(t, db.Where("stripe_subscription_id = ?", "sub_1").First(&sub).Error)
	assert.True(t, sub.CancelAtPeriodEnd)
	assert.Equal(t, "active", sub.Status)
}

func TestRemoveSubscriptionClearsBackReference(t *testing.T) {
	db := setupTestDB(t)
	s := New(db)

	user := createTestUser(t, db, "u3@example.com", "cus_3")

	start := int64(1700000000)
	require.NoError(t, s.UpsertSubscription(UpsertSubscriptionParams{
		UserID:               user.ID,
		StripeSubscriptionID: "sub_2",
		Status:               "active",
		PlanType:             model.PlanYear,
		CurrentPeriodStart:   &start,
	}))

	require.NoError(t, s.RemoveSubscription("sub_2"))

	var count int64
	db.Model(&model.Subscription{}).Where("stripe_subscription_id = ?", "sub_2").Count(&count)
	assert.Equal(t, int64(0), count)

	var reloaded model.User
	require.NoError(t, db.First(&reloaded, user.ID).Error)
	assert.Nil(t, reloaded.CurrentSubscriptionID)
}

func TestRemoveSubscriptionNotFound(t *testing.T) {
	db := setupTestDB(t)
	s := New(db)

	err := s.RemoveSubscription("sub_missing")
	assert.ErrorIs(t, err, ErrSubscriptionNotFound)
}

func TestGetUserSubscription(t *testing.T) {
	db := setupTestDB(t)
	s := New(db)

	user := createTestUser(t, db, "u4@example.com", "cus_4")

	// no subscription yet: absence, not an error
	sub, err := s.GetUserSubscription(user.ID)
	require.NoError(t, err)
	assert.Nil(t, sub)

	// unknown user: still absence, not an error
	sub, err = s.GetUserSubscription(9999)
	require.NoError(t, err)
	assert.Nil(t, sub)

	start := int64(1700000000)
	require.NoError(t, s.UpsertSubscription(UpsertSubscriptionParams{
		UserID:               user.ID,
		StripeSubscriptionID: "sub_3",
		Status:               "active",
		PlanType:             model.PlanMonth,
		CurrentPeriodStart:   &start,
	}))

	sub, err = s.GetUserSubscription(user.ID)
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, "sub_3", sub.StripeSubscriptionID)
}

func TestHasCourseAccess(t *testing.T) {
	db := setupTestDB(t)
	s := New(db)

	buyer := createTestUser(t, db, "buyer@example.com", "cus_b")
	subscriber := createTestUser(t, db, "sub@example.com", "cus_s")
	visitor := createTestUser(t, db, "visitor@example.com", "cus_v")
	course := createTestCourse(t, db, "Gated Course")

	require.NoError(t, s.RecordPurchase(buyer.ID, course.ID, 4999, "tx_b"))

	start := int64(1700000000)
	require.NoError(t, s.UpsertSubscription(UpsertSubscriptionParams{
		UserID:               subscriber.ID,
		StripeSubscriptionID: "sub_s",
		Status:               "active",
		PlanType:             model.PlanMonth,
		CurrentPeriodStart:   &start,
	}))

	ok, err := s.HasCourseAccess(buyer.ID, course.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.HasCourseAccess(subscriber.ID, course.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.HasCourseAccess(visitor.ID, course.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLogWebhookEventUpsertsByEventID(t *testing.T) {
	db := setupTestDB(t)
	s := New(db)

	require.NoError(t, s.LogWebhookEvent("evt_1", "checkout.session.completed", assert.AnError))
	require.NoError(t, s.LogWebhookEvent("evt_1", "checkout.session.completed", nil))

	var count int64
	db.Model(&model.WebhookEvent{}).Where("stripe_event_id = ?", "evt_1").Count(&count)
	assert.Equal(t, int64(1), count)

	var event model.WebhookEvent
	require.NoError(t, db.Where("stripe_event_id = ?", "evt_1").First(&event).Error)
	assert.True(t, event.Processed)
}
