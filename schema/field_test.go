package schema_test

import (
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/orgsim/orgsim/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldValueOfAndSet(t *testing.T) {
	s, err := schema.Parse(&Contact{}, &sync.Map{}, nil)
	require.NoError(t, err)

	var (
		contact = Contact{}
		rv      = reflect.ValueOf(&contact)
		id      = uuid.New()
		born    = time.Date(1990, 5, 1, 8, 30, 0, 0, time.UTC)
	)

	set := func(name string, value interface{}) {
		t.Helper()
		field, err := s.FieldFor(name)
		require.NoError(t, err)
		require.NoError(t, field.Set(rv, value))
	}

	set("contactid", id.String())
	set("firstname", "Jane")
	set("birthdate", born)
	set("numberofchildren", int64(2))
	set("donotemail", "true")
	set("creditlimit", Amount{Value: 10})
	set("preferredcontactmethodcode", 2)

	assert.Equal(t, id, contact.ContactID)
	assert.Equal(t, "Jane", contact.FirstName)
	require.NotNil(t, contact.BirthDate)
	assert.Equal(t, born, *contact.BirthDate)
	require.NotNil(t, contact.NumberOfKids)
	assert.Equal(t, 2, *contact.NumberOfKids)
	assert.True(t, contact.DoNotEmail)
	require.NotNil(t, contact.CreditLimit)
	assert.Equal(t, 10.0, contact.CreditLimit.Value)
	require.NotNil(t, contact.ContactMethod)
	assert.Equal(t, ContactMethodEmail, *contact.ContactMethod)

	value, zero := s.LookUpField("birthdate").ValueOf(rv)
	assert.False(t, zero)
	assert.Equal(t, born, value)

	_, zero = s.LookUpField("lastname").ValueOf(rv)
	assert.True(t, zero)

	set("birthdate", nil)
	assert.Nil(t, contact.BirthDate)

	field := s.LookUpField("numberofchildren")
	assert.Error(t, field.Set(rv, "many"))
	assert.Error(t, field.Set(rv, struct{}{}))
}

func TestFieldOptionLabel(t *testing.T) {
	s, err := schema.Parse(&Contact{}, &sync.Map{}, nil)
	require.NoError(t, err)

	field := s.LookUpField("preferredcontactmethodcode")
	label, ok := field.OptionLabel(1, 1033)
	assert.True(t, ok)
	assert.Equal(t, "Any", label)

	label, ok = field.OptionLabel(1, 1031)
	assert.True(t, ok)
	assert.Equal(t, "Beliebig", label)

	_, ok = s.LookUpField("firstname").OptionLabel(1, 1033)
	assert.False(t, ok)
}
