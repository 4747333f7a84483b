package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextVarsString(t *testing.T) {
	t.Run("marshals to JSON", func(t *testing.T) {
		cv := ContextVars{"customer_id": "CUST-1001"}
		assert.JSONEq(t, `{"customer_id":"CUST-1001"}`, cv.String())
	})

	t.Run("nil map renders as null", func(t *testing.T) {
		var cv ContextVars
		assert.Equal(t, "null", cv.String())
	})
}

func TestContextVarsClone(t *testing.T) {
	cv := ContextVars{"active_hotel": "hotel sannata"}
	clone := cv.Clone()
	clone["active_hotel"] = "hotel pearl"

	assert.Equal(t, "hotel sannata", cv["active_hotel"])
	assert.Equal(t, "hotel pearl", clone["active_hotel"])

	var nilVars ContextVars
	assert.NotNil(t, nilVars.Clone())
}

func TestContextVarsGetString(t *testing.T) {
	cv := ContextVars{"active_hotel": "hotel sannata", "attempts": 3}

	assert.Equal(t, "hotel sannata", cv.GetString("active_hotel"))
	assert.Empty(t, cv.GetString("attempts"))
	assert.Empty(t, cv.GetString("missing"))
	assert.Empty(t, ContextVars(nil).GetString("anything"))
}
