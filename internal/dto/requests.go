// Package dto holds the JSON payloads of the HTTP API. Request types carry
// gin binding rules; response types are composed by embedding a base struct
// in a richer one.
package dto

import (
	"github.com/franciscosanchezn/gin-recipe-api/internal/services"
)

type RegisterUserRequest struct {
	Email     string `json:"email" binding:"required,email,max=254" example:"cook@example.com"`
	Username  string `json:"username" binding:"required,max=150,username" example:"cook"`
	FirstName string `json:"first_name" binding:"required,max=150" example:"Ada"`
	LastName  string `json:"last_name" binding:"required,max=150" example:"Lovelace"`
	Password  string `json:"password" binding:"required,min=8,max=128" example:"s3cret-pass"`
}

func (r RegisterUserRequest) Input() services.RegisterInput {
	return services.RegisterInput{
		Email:     r.Email,
		Username:  r.Username,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Password:  r.Password,
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type SetPasswordRequest struct {
	NewPassword     string `json:"new_password" binding:"required,min=8,max=128"`
	CurrentPassword string `json:"current_password" binding:"required"`
}

type DeleteAccountRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
}

type AvatarRequest struct {
	Avatar string `json:"avatar" binding:"required,base64image"`
}

type IngredientAmount struct {
	ID     uint `json:"id" binding:"required"`
	Amount int  `json:"amount" binding:"required"`
}

// RecipeWriteRequest is the body of create, PUT and PATCH. Omitted fields
// are left untouched on PATCH.
type RecipeWriteRequest struct {
	Ingredients []IngredientAmount `json:"ingredients" binding:"omitempty,dive"`
	Tags        []uint             `json:"tags"`
	Image       *string            `json:"image" binding:"omitempty,base64image"`
	Name        *string            `json:"name" binding:"omitempty,max=256"`
	Text        *string            `json:"text"`
	CookingTime *int               `json:"cooking_time"`
}

// Input converts the request; image is the stored path of a new upload, if any.
func (r RecipeWriteRequest) Input(image *string) services.RecipeInput {
	in := services.RecipeInput{
		Name:        r.Name,
		Text:        r.Text,
		Image:       image,
		CookingTime: r.CookingTime,
		Tags:        r.Tags,
	}
	if r.Ingredients != nil {
		in.Ingredients = make([]services.IngredientAmount, len(r.Ingredients))
		for i, item := range r.Ingredients {
			in.Ingredients[i] = services.IngredientAmount{IngredientID: item.ID, Amount: item.Amount}
		}
	}
	return in
}

type TagCreateRequest struct {
	Name string `json:"name" binding:"required,max=32"`
	Slug string `json:"slug" binding:"omitempty,max=32,slug"`
}

type IngredientCreateRequest struct {
	Name            string `json:"name" binding:"required,max=128"`
	MeasurementUnit string `json:"measurement_unit" binding:"required,max=64"`
}

type ClientCreateRequest struct {
	Name       string `json:"name" binding:"required,max=128" example:"nightly-export"`
	Domain     string `json:"domain" binding:"omitempty,url"`
	Scopes     string `json:"scopes" example:"read"`
	GrantTypes string `json:"grant_types" example:"client_credentials"`
}

func (r ClientCreateRequest) Input() services.ClientInput {
	return services.ClientInput{
		Name:       r.Name,
		Domain:     r.Domain,
		Scopes:     r.Scopes,
		GrantTypes: r.GrantTypes,
	}
}
