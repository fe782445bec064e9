package model

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func hasSoftDeleteColumn(v interface{}) bool {
	deletedAt := reflect.TypeOf(gorm.DeletedAt{})
	typ := reflect.TypeOf(v)
	for i := 0; i < typ.NumField(); i++ {
		if typ.Field(i).Type == deletedAt {
			return true
		}
	}
	return false
}

// Appointments are deleted outright; billing and job records keep a
// soft-delete column so history survives.
func TestAppointmentDeletesAreHard(t *testing.T) {
	assert.False(t, hasSoftDeleteColumn(Appointment{}))

	assert.True(t, hasSoftDeleteColumn(Invoice{}))
	assert.True(t, hasSoftDeleteColumn(WorkOrder{}))
	assert.True(t, hasSoftDeleteColumn(Customer{}))
}
