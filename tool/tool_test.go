package tool

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qasid-ai/qasid/types"
)

func getOrderStatus(orderID string) string { return "Order " + orderID }

func TestNew(t *testing.T) {
	t.Run("rejects non-functions", func(t *testing.T) {
		_, err := New("not a function")
		require.Error(t, err)

		_, err = New(nil)
		require.Error(t, err)
	})

	t.Run("derives name from the function", func(t *testing.T) {
		def, err := New(getOrderStatus)
		require.NoError(t, err)
		assert.Equal(t, "getOrderStatus", def.Name)
	})

	t.Run("applies options", func(t *testing.T) {
		def, err := New(getOrderStatus,
			Name("get_order_status"),
			Description("Simulated order status checker"),
			Parameters("order_id"),
		)
		require.NoError(t, err)
		assert.Equal(t, "get_order_status", def.Name)
		assert.Equal(t, "Simulated order status checker", def.Description)
		assert.Equal(t, map[string]string{"param0": "order_id"}, def.Parameters)
	})
}

func TestEnabledFor(t *testing.T) {
	def := Must(getOrderStatus, Enabled(func(q Query) bool {
		return strings.Contains(strings.ToLower(q.Text), "order")
	}))

	assert.True(t, def.EnabledFor(Query{Text: "mera order kahan hai"}))
	assert.False(t, def.EnabledFor(Query{Text: "shipping time?"}))

	noPred := Must(getOrderStatus)
	assert.True(t, noPred.EnabledFor(Query{}))
}

func TestFallback(t *testing.T) {
	def := Must(getOrderStatus, OnError(func(err error, args string) string {
		return "sorry: " + err.Error()
	}))

	msg, ok := def.Fallback(errors.New("ORDER_NOT_FOUND"), `{"order_id":"999"}`)
	assert.True(t, ok)
	assert.Equal(t, "sorry: ORDER_NOT_FOUND", msg)

	_, ok = Must(getOrderStatus).Fallback(errors.New("boom"), "")
	assert.False(t, ok)
}

func TestToNameAndSchema(t *testing.T) {
	t.Run("named parameters", func(t *testing.T) {
		def := Must(getOrderStatus, Name("get_order_status"), Parameters("order_id"))
		name, schema := def.ToNameAndSchema()

		assert.Equal(t, "get_order_status", name)
		require.NotNil(t, schema.Properties)
		_, ok := schema.Properties.Get("order_id")
		assert.True(t, ok)
		assert.Equal(t, []string{"order_id"}, schema.Required)
	})

	t.Run("injected parameters are excluded", func(t *testing.T) {
		fn := func(cv types.ContextVars, name string) string { return name }
		def := Must(fn, Parameters("hotel_name"))

		_, schema := def.ToNameAndSchema()
		_, ok := schema.Properties.Get("hotel_name")
		assert.True(t, ok)
		assert.Len(t, schema.Required, 1)
	})
}
