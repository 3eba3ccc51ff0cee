package orgsim_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/orgsim/orgsim"
	. "github.com/orgsim/orgsim/utils/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateMergesAttributes(t *testing.T) {
	clock := Now
	db := OpenDB(t, &orgsim.Config{Models: Models(), NowFunc: func() time.Time { return clock }})

	id := MustCreate(t, db, NewContact("Jane", "Doe").Set("emailaddress1", "jane@example.com"))
	clock = clock.Add(time.Hour)

	update := orgsim.NewEntity("contact").Set("lastname", "Smith").Set("emailaddress1", nil)
	update.ID = id
	require.NoError(t, db.Update(context.Background(), update))

	contact := MustRetrieve(t, db, "contact", id)
	assert.Equal(t, "Jane", contact.GetString("firstname"))
	assert.Equal(t, "Smith", contact.GetString("lastname"))
	assert.Equal(t, "Jane Smith", contact.GetString("fullname"))
	assert.NotContains(t, contact.Attributes, "emailaddress1")

	createdOn, _ := contact.GetTime("createdon")
	modifiedOn, _ := contact.GetTime("modifiedon")
	assert.Equal(t, Now, createdOn)
	assert.Equal(t, Now.Add(time.Hour), modifiedOn)
}

func TestUpdateKeepsCreationFields(t *testing.T) {
	db := OpenDB(t, nil)
	id := MustCreate(t, db, orgsim.NewEntity("account").Set("name", "Contoso"))

	update := orgsim.NewEntity("account").
		Set("accountid", id).
		Set("createdon", Now.AddDate(-5, 0, 0)).
		Set("createdby", orgsim.NewReference("systemuser", db.CallerID))
	require.NoError(t, db.Update(context.Background(), update))

	createdOn, _ := MustRetrieve(t, db, "account", id).GetTime("createdon")
	assert.Equal(t, Now, createdOn)
}

func TestUpdateOwnerDerivesBusinessUnit(t *testing.T) {
	db := OpenDB(t, nil)
	ctx := context.Background()

	division := MustCreate(t, db, orgsim.NewEntity("businessunit").Set("name", "Division"))
	user := MustCreate(t, db, orgsim.NewEntity("systemuser").Set("fullname", "Owner").Set("businessunitid", orgsim.NewReference("businessunit", division)))
	id := MustCreate(t, db, orgsim.NewEntity("account").Set("name", "Contoso"))

	update := orgsim.NewEntity("account").Set("ownerid", orgsim.NewReference("systemuser", user))
	update.ID = id
	require.NoError(t, db.Update(ctx, update))

	account := MustRetrieve(t, db, "account", id)
	owner, _ := account.GetReference("ownerid")
	bu, _ := account.GetReference("owningbusinessunit")
	assert.Equal(t, user, owner.ID)
	assert.Equal(t, "Owner", owner.Name)
	assert.Equal(t, division, bu.ID)
}

func TestUpdateErrors(t *testing.T) {
	db := OpenDB(t, &orgsim.Config{Models: Models()})
	ctx := context.Background()

	AssertFault(t, db.Update(ctx, nil), orgsim.ErrInvalidArgument, orgsim.CodeInvalidArgument)
	AssertFault(t, db.Update(ctx, orgsim.NewEntity("contact").Set("firstname", "x")), orgsim.ErrInvalidArgument, orgsim.CodeInvalidArgument)

	missing := orgsim.NewEntity("contact").Set("firstname", "x")
	missing.ID = uuid.New()
	AssertFault(t, db.Update(ctx, missing), orgsim.ErrRecordNotFound, orgsim.CodeObjectDoesNotExist)

	id := MustCreate(t, db, NewContact("Jane", "Doe"))
	unknown := orgsim.NewEntity("contact").Set("nickname", "JD")
	unknown.ID = id
	AssertFault(t, db.Update(ctx, unknown), orgsim.ErrUnknownField, orgsim.CodeQueryBuilderNoAttribute)
}

func TestUpdateByAlternateKey(t *testing.T) {
	db := OpenDB(t, nil)
	id := MustCreate(t, db, orgsim.NewEntity("account").Set("name", "Contoso").Set("accountnumber", "A-1"))

	update := orgsim.NewEntity("account").Set("name", "Fabrikam")
	update.KeyAttributes = map[string]interface{}{"accountnumber": "a-1"}
	require.NoError(t, db.Update(context.Background(), update))
	assert.Equal(t, "Fabrikam", MustRetrieve(t, db, "account", id).GetString("name"))

	update.KeyAttributes = map[string]interface{}{"accountnumber": "A-2"}
	AssertFault(t, db.Update(context.Background(), update), orgsim.ErrRecordNotFound, orgsim.CodeObjectDoesNotExist)
}

func TestDelete(t *testing.T) {
	db := OpenDB(t, nil)
	ctx := context.Background()
	id := MustCreate(t, db, orgsim.NewEntity("account").Set("name", "Contoso"))

	require.NoError(t, db.Delete(ctx, "account", id))
	assert.False(t, db.Table("account").Contains(id))

	AssertFault(t, db.Delete(ctx, "account", id), orgsim.ErrRecordNotFound, orgsim.CodeObjectDoesNotExist)
	AssertFault(t, db.Delete(ctx, "account", uuid.Nil), orgsim.ErrInvalidArgument, orgsim.CodeInvalidArgument)
}
