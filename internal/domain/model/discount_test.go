package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDiscountAmountFor(t *testing.T) {
	percent := Discount{Kind: DiscountKindPercent, Value: 10}
	assert.Equal(t, int64(100000), percent.AmountFor(1000000))

	fixed := Discount{Kind: DiscountKindFixed, Value: 50000}
	assert.Equal(t, int64(50000), fixed.AmountFor(1000000))

	//割引が小計を超えることはない
	big := Discount{Kind: DiscountKindFixed, Value: 2000000}
	assert.Equal(t, int64(100000), big.AmountFor(100000))
}

func TestDiscountUsableAt(t *testing.T) {
	now := time.Now()
	d := Discount{
		Kind:          DiscountKindPercent,
		Value:         10,
		MinOrderValue: 500000,
		StartsAt:      now.Add(-time.Hour),
		EndsAt:        now.Add(time.Hour),
		RemainingUses: 1,
		IsActive:      true,
	}

	assert.True(t, d.UsableAt(now, 500000))

	//最低注文額に届かない
	assert.False(t, d.UsableAt(now, 499999))

	//期間外
	assert.False(t, d.UsableAt(now.Add(2*time.Hour), 500000))
	assert.False(t, d.UsableAt(now.Add(-2*time.Hour), 500000))

	//残回数切れ
	used := d
	used.RemainingUses = 0
	assert.False(t, used.UsableAt(now, 500000))

	//無効化済み
	off := d
	off.IsActive = false
	assert.False(t, off.UsableAt(now, 500000))
}
