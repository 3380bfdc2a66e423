package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReceiveTypeValid(t *testing.T) {
	for _, rt := range []ReceiveType{ReceiveCashOnDelivery, ReceiveCardOnDelivery, ReceivePickupAtBranch, ReceiveCardAtBranch} {
		assert.True(t, rt.Valid(), string(rt))
	}
	assert.False(t, ReceiveType("drone").Valid())
	assert.False(t, ReceiveType("").Valid())
}

func TestReceiveTypeRequiresAddress(t *testing.T) {
	assert.True(t, ReceiveCashOnDelivery.RequiresAddress())
	assert.True(t, ReceiveCardOnDelivery.RequiresAddress())
	assert.False(t, ReceivePickupAtBranch.RequiresAddress())
	assert.False(t, ReceiveCardAtBranch.RequiresAddress())
}
