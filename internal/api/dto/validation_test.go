package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validRegisterRequest() RegisterRequest {
	return RegisterRequest{
		FirstName:      "Maria",
		SecondName:     "Jose",
		LastName:       "Garcia",
		SecondLastName: "Lopez",
		Email:          "maria@example.com",
		Password:       "longenoughpassword",
	}
}

func TestRegisterRequestValidate(t *testing.T) {
	assert.Empty(t, validRegisterRequest().Validate())

	t.Run("short names", func(t *testing.T) {
		r := validRegisterRequest()
		r.FirstName = "Al"
		r.LastName = "  B  "
		details := r.Validate()
		assert.Contains(t, details, "first_name")
		assert.Contains(t, details, "last_name")
		assert.NotContains(t, details, "second_name")
	})

	t.Run("bad email", func(t *testing.T) {
		r := validRegisterRequest()
		r.Email = "not-an-email"
		assert.Contains(t, r.Validate(), "email")
	})

	t.Run("short password", func(t *testing.T) {
		r := validRegisterRequest()
		r.Password = "shortpass"
		assert.Contains(t, r.Validate(), "password")
	})
}

func TestUpdateUserRequestValidate(t *testing.T) {
	assert.Empty(t, UpdateUserRequest{}.Validate())

	name := "Al"
	email := "broken"
	details := UpdateUserRequest{FirstName: &name, Email: &email}.Validate()
	assert.Contains(t, details, "first_name")
	assert.Contains(t, details, "email")

	ok := "Alberto"
	goodEmail := "alberto@example.com"
	assert.Empty(t, UpdateUserRequest{FirstName: &ok, Email: &goodEmail}.Validate())
}

func TestCreatePublicationRequestValidate(t *testing.T) {
	assert.Empty(t, CreatePublicationRequest{Title: "T", Description: "D", Price: 0}.Validate())

	details := CreatePublicationRequest{Title: "  ", Description: "", Price: -1}.Validate()
	assert.Contains(t, details, "title")
	assert.Contains(t, details, "description")
	assert.Contains(t, details, "price")
}

func TestUpdatePublicationRequestValidate(t *testing.T) {
	assert.Empty(t, UpdatePublicationRequest{}.Validate())

	empty := " "
	negative := int64(-5)
	details := UpdatePublicationRequest{Title: &empty, Price: &negative}.Validate()
	assert.Contains(t, details, "title")
	assert.Contains(t, details, "price")
}

func TestUpdatePublicationRequestPatch(t *testing.T) {
	title := "New"
	price := int64(10)
	patch := UpdatePublicationRequest{Title: &title, Price: &price}.Patch()
	assert.Equal(t, &title, patch.Title)
	assert.Equal(t, &price, patch.Price)
	assert.Nil(t, patch.Description)
	assert.Nil(t, patch.OwnerID)
	assert.False(t, patch.Empty())
}
