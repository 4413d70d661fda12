package validator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidator(t *testing.T) {
	v := New()
	v.Check(true, "ok", "never")
	assert.True(t, v.Valid())

	v.Check(false, "distance", "must be provided")
	v.Check(false, "distance", "second message is dropped")
	assert.False(t, v.Valid())
	assert.Equal(t, "must be provided", v.Errors["distance"])
}

func TestHelpers(t *testing.T) {
	assert.True(t, PermittedValue("RIDER", "RIDER", "DRIVER"))
	assert.False(t, PermittedValue(3, 1, 2))
	assert.True(t, Matches("driver@fleet.io", EmailRX))
	assert.False(t, Finite(math.Inf(1)))
	assert.False(t, ValidLatitude(91))
	assert.True(t, ValidLongitude(-180))
}
