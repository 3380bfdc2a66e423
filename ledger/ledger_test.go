package ledger

import (
	"fmt"
	"testing"

	"branch-order-api/config"
	"branch-order-api/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	return db
}

func seed(t *testing.T, db *gorm.DB) models.Branch {
	t.Helper()
	branch := models.Branch{Name: "Downtown", IsMain: true}
	require.NoError(t, db.Create(&branch).Error)
	user := models.User{Name: "Dana", Email: "dana@example.com", Role: models.RoleCustomer}
	require.NoError(t, db.Create(&user).Error)
	return branch
}

func sampleLines() []LineInput {
	return []LineInput{
		{ProductID: 1, Quantity: 2, PriceCents: 500, Name: "Espresso"},
		{ProductID: 2, Quantity: 1, PriceCents: 1200, Name: "Sandwich"},
	}
}

func TestCreateEnvelope(t *testing.T) {
	db := openTestDB(t)
	branch := seed(t, db)
	led := New(db, zap.NewNop())

	order, err := led.CreateEnvelope(1, branch.ID, models.ReceiveCashOnDelivery, "12 Main St", "ring twice", sampleLines())
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, "12 Main St", order.Address)
	assert.Equal(t, int64(2*500+1200), order.TotalCents)
	assert.Len(t, order.Lines, 2)
	assert.Equal(t, "Dana", order.User.Name)
	assert.Equal(t, branch.Name, order.Branch.Name)

	var links int64
	db.Model(&models.OrderLineLink{}).Count(&links)
	assert.Equal(t, int64(2), links)
}

func TestCreateEnvelopeAddressCoherence(t *testing.T) {
	db := openTestDB(t)
	branch := seed(t, db)
	led := New(db, zap.NewNop())

	_, err := led.CreateEnvelope(1, branch.ID, models.ReceiveCashOnDelivery, "", "", sampleLines())
	assert.ErrorIs(t, err, ErrNoAddress)

	// Pickup variants ignore a submitted address.
	order, err := led.CreateEnvelope(1, branch.ID, models.ReceivePickupAtBranch, "12 Main St", "", sampleLines())
	require.NoError(t, err)
	assert.Empty(t, order.Address)
}

func TestCreateEnvelopeUnknownBranch(t *testing.T) {
	db := openTestDB(t)
	seed(t, db)
	led := New(db, zap.NewNop())

	_, err := led.CreateEnvelope(1, 999, models.ReceivePickupAtBranch, "", "", sampleLines())
	assert.ErrorIs(t, err, ErrUnknownBranch)
}

func TestCreateEnvelopeBadReceiveType(t *testing.T) {
	db := openTestDB(t)
	branch := seed(t, db)
	led := New(db, zap.NewNop())

	_, err := led.CreateEnvelope(1, branch.ID, models.ReceiveType("carrier-pigeon"), "", "", sampleLines())
	assert.ErrorIs(t, err, ErrBadReceive)
}

// A failure mid-sequence must leave no orphaned rows: the first line
// inserts fine, the second violates the quantity check, and the
// transaction rolls everything back.
func TestCreateEnvelopeAtomicity(t *testing.T) {
	db := openTestDB(t)
	branch := seed(t, db)
	led := New(db, zap.NewNop())

	lines := []LineInput{
		{ProductID: 1, Quantity: 2, PriceCents: 500, Name: "Espresso"},
		{ProductID: 2, Quantity: -1, PriceCents: 1200, Name: "Sandwich"},
	}
	_, err := led.CreateEnvelope(1, branch.ID, models.ReceivePickupAtBranch, "", "", lines)
	require.Error(t, err)

	var orders, orderLines, links int64
	db.Model(&models.Order{}).Count(&orders)
	db.Model(&models.OrderLine{}).Count(&orderLines)
	db.Model(&models.OrderLineLink{}).Count(&links)
	assert.Zero(t, orders)
	assert.Zero(t, orderLines)
	assert.Zero(t, links)
}

func TestTransition(t *testing.T) {
	db := openTestDB(t)
	branch := seed(t, db)
	led := New(db, zap.NewNop())

	order, err := led.CreateEnvelope(1, branch.ID, models.ReceivePickupAtBranch, "", "", sampleLines())
	require.NoError(t, err)

	require.NoError(t, led.Transition(order.ID, models.StatusInProcess))
	loaded, err := led.Load(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProcess, loaded.Status)

	// No adjacency rule: jumping ahead is allowed.
	require.NoError(t, led.Transition(order.ID, models.StatusOnTheWay))

	assert.ErrorIs(t, led.Transition(order.ID, models.OrderStatus("teleported")), ErrInvalidTarget)
	assert.ErrorIs(t, led.Transition(999, models.StatusReady), ErrNotFound)
}

func TestTransitionReceivedDeletesEnvelope(t *testing.T) {
	db := openTestDB(t)
	branch := seed(t, db)
	led := New(db, zap.NewNop())

	order, err := led.CreateEnvelope(1, branch.ID, models.ReceivePickupAtBranch, "", "", sampleLines())
	require.NoError(t, err)

	require.NoError(t, led.Transition(order.ID, models.StatusReceived))

	_, err = led.Load(order.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var orders, orderLines, links int64
	db.Model(&models.Order{}).Count(&orders)
	db.Model(&models.OrderLine{}).Count(&orderLines)
	db.Model(&models.OrderLineLink{}).Count(&links)
	assert.Zero(t, orders)
	assert.Zero(t, orderLines)
	assert.Zero(t, links)

	open, err := led.ListOpen(nil, true)
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestCancelAndListOpen(t *testing.T) {
	db := openTestDB(t)
	branch := seed(t, db)
	other := models.Branch{Name: "Airport"}
	require.NoError(t, db.Create(&other).Error)
	led := New(db, zap.NewNop())

	first, err := led.CreateEnvelope(1, branch.ID, models.ReceivePickupAtBranch, "", "", sampleLines())
	require.NoError(t, err)
	second, err := led.CreateEnvelope(1, other.ID, models.ReceivePickupAtBranch, "", "", sampleLines())
	require.NoError(t, err)

	require.NoError(t, led.Cancel(first.ID))
	assert.ErrorIs(t, led.Cancel(first.ID), ErrTerminal)

	open, err := led.ListOpen(nil, false)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, second.ID, open[0].ID)

	withCancelled, err := led.ListOpen(nil, true)
	require.NoError(t, err)
	assert.Len(t, withCancelled, 2)

	scoped, err := led.ListOpen(&other.ID, false)
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, second.ID, scoped[0].ID)
}
