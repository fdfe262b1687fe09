package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldTypeValid(t *testing.T) {
	assert.True(t, FieldTypeSignature.Valid())
	assert.True(t, FieldTypeText.Valid())
	assert.True(t, FieldTypeDate.Valid())
	assert.False(t, FieldType("checkbox").Valid())
	assert.False(t, FieldType("").Valid())
}

func TestFieldTypeDefaultSize(t *testing.T) {
	w, h := FieldTypeSignature.DefaultSize()
	assert.Equal(t, 150.0, w)
	assert.Equal(t, 60.0, h)

	w, h = FieldTypeText.DefaultSize()
	assert.Equal(t, 100.0, w)
	assert.Equal(t, 40.0, h)

	w, h = FieldTypeDate.DefaultSize()
	assert.Equal(t, 100.0, w)
	assert.Equal(t, 40.0, h)
}

func TestAssigneeConstructors(t *testing.T) {
	a := UserAssignee("user-1")
	assert.Equal(t, AssigneeKindUser, a.Kind)
	assert.Equal(t, "user-1", a.Value)

	a = EmailAssignee("signer@example.com")
	assert.Equal(t, AssigneeKindEmail, a.Kind)
	assert.Equal(t, "signer@example.com", a.Value)
}
