package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestStringListDecodesLegacyString(t *testing.T) {
	raw, err := bson.Marshal(bson.M{"name": "Mug", "price": 100.0, "category": " Kitchen "})
	require.NoError(t, err)

	var p Product
	require.NoError(t, bson.Unmarshal(raw, &p))
	assert.Equal(t, StringList{"Kitchen"}, p.Category)
}

func TestStringListDecodesArrayAndDropsBlanks(t *testing.T) {
	raw, err := bson.Marshal(bson.M{"category": []string{"Kitchen", " ", "Gifts"}})
	require.NoError(t, err)

	var p Product
	require.NoError(t, bson.Unmarshal(raw, &p))
	assert.Equal(t, StringList{"Kitchen", "Gifts"}, p.Category)
}

func TestStringListRejectsNumbers(t *testing.T) {
	raw, err := bson.Marshal(bson.M{"category": 12})
	require.NoError(t, err)

	var p Product
	assert.Error(t, bson.Unmarshal(raw, &p))
}

func TestStringListJSON(t *testing.T) {
	var single StringList
	require.NoError(t, json.Unmarshal([]byte(`"Decor"`), &single))
	assert.Equal(t, StringList{"Decor"}, single)

	var many StringList
	require.NoError(t, json.Unmarshal([]byte(`["Decor","Lamps"]`), &many))
	assert.Equal(t, StringList{"Decor", "Lamps"}, many)
}

func TestEffectivePriceUsesSaleOnlyWhenCheaper(t *testing.T) {
	assert.Equal(t, 75.0, Product{Price: 100, SaleEnabled: true, SalePrice: 75}.EffectivePrice())
	assert.Equal(t, 100.0, Product{Price: 100, SaleEnabled: false, SalePrice: 75}.EffectivePrice())
	assert.Equal(t, 100.0, Product{Price: 100, SaleEnabled: true, SalePrice: 120}.EffectivePrice())
	assert.Equal(t, 100.0, Product{Price: 100, SaleEnabled: true, SalePrice: 0}.EffectivePrice())
}

func TestCarrierInfoFlags(t *testing.T) {
	empty := ""
	awb := "AWB1"
	assert.False(t, CarrierInfo{}.HasAWB())
	assert.False(t, CarrierInfo{AWBCode: &empty}.HasAWB())
	assert.True(t, CarrierInfo{AWBCode: &awb}.HasAWB())
	assert.False(t, CarrierInfo{}.HasShipment())
}

func TestOrderStatusValid(t *testing.T) {
	assert.True(t, OrderStatusShipped.Valid())
	assert.False(t, OrderStatus("pending").Valid())
}
