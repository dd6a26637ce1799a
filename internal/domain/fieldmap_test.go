package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetdocs/internal/domain"
)

func TestFieldMap_NewHasEveryFieldBlank(t *testing.T) {
	fm := domain.NewFieldMap("a", "b", "a", "c")

	assert.Equal(t, []string{"a", "b", "c"}, fm.Names())
	for _, n := range fm.Names() {
		assert.True(t, fm.IsBlank(n))
	}
	assert.Equal(t, 0, fm.Filled())
}

func TestFieldMap_SetIgnoresUnknownFields(t *testing.T) {
	fm := domain.NewFieldMap("a")

	assert.True(t, fm.Set("a", "  value "))
	assert.False(t, fm.Set("zzz", "x"))
	assert.Equal(t, "value", fm.Get("a"))
	assert.False(t, fm.Has("zzz"))
}

func TestFieldMap_NilIsSafe(t *testing.T) {
	var fm *domain.FieldMap

	assert.Equal(t, "", fm.Get("a"))
	assert.Equal(t, 0, fm.Len())
	assert.Nil(t, fm.Clone())
	data, err := json.Marshal(fm)
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

func TestFieldMap_JSONKeepsOrder(t *testing.T) {
	fm := domain.NewFieldMap("zeta", "alpha", "mid")
	fm.Set("alpha", "A")

	data, err := json.Marshal(fm)
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":"","alpha":"A","mid":""}`, string(data))

	var back domain.FieldMap
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, back.Names())
	assert.True(t, fm.Equal(&back))
}

func TestFieldMap_UnmarshalNullValue(t *testing.T) {
	var fm domain.FieldMap
	require.NoError(t, json.Unmarshal([]byte(`{"a":null,"b":"x"}`), &fm))

	assert.Equal(t, "", fm.Get("a"))
	assert.Equal(t, "x", fm.Get("b"))
}

func TestFieldMap_UnmarshalRejectsArray(t *testing.T) {
	var fm domain.FieldMap
	assert.Error(t, json.Unmarshal([]byte(`["a"]`), &fm))
}

func TestFieldMap_CloneIsIndependent(t *testing.T) {
	fm := domain.NewFieldMap("a")
	fm.Set("a", "1")
	cp := fm.Clone()
	cp.Set("a", "2")

	assert.Equal(t, "1", fm.Get("a"))
	assert.Equal(t, "2", cp.Get("a"))
}
