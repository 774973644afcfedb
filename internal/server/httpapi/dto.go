package httpapi

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/raselkhaanlab/accounts/internal/server/models"
	"github.com/raselkhaanlab/accounts/internal/server/services"
)

// Passwords are never trimmed; every other string field is.

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *loginRequest) normalize() {
	r.Email = strings.TrimSpace(r.Email)
}

func (r loginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *registerRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
}

func (r registerRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(services.MinPasswordLength, services.MaxPasswordLength)),
	)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (r *refreshRequest) normalize() {
	r.RefreshToken = strings.TrimSpace(r.RefreshToken)
}

func (r refreshRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RefreshToken, validation.Required),
	)
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

func (r *resetPasswordRequest) normalize() {}

func (r resetPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Password, validation.Required, validation.Length(services.MinPasswordLength, services.MaxPasswordLength)),
	)
}

type bulkStatusRequest struct {
	UserIDs []string      `json:"userIds"`
	Status  models.Status `json:"status"`
}

func (r *bulkStatusRequest) normalize() {
	trimAll(r.UserIDs)
	r.Status = models.Status(strings.TrimSpace(string(r.Status)))
}

// Validate checks shape only; id format and status values are checked by
// the service so every caller gets the same answer.
func (r bulkStatusRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserIDs, validation.Required),
		validation.Field(&r.Status, validation.Required),
	)
}

type bulkDeleteRequest struct {
	UserIDs []string `json:"userIds"`
}

func (r *bulkDeleteRequest) normalize() {
	trimAll(r.UserIDs)
}

func (r bulkDeleteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserIDs, validation.Required),
	)
}

type listUsersQuery struct {
	Page  int `query:"page"`
	Limit int `query:"limit"`
}

func (r *listUsersQuery) normalize() {}

func (r listUsersQuery) Validate() error { return nil }

func trimAll(ss []string) {
	for i := range ss {
		ss[i] = strings.TrimSpace(ss[i])
	}
}

type tokenResponse struct {
	AccessToken      string `json:"accessToken"`
	RefreshToken     string `json:"refreshToken"`
	AccessExpiresAt  int64  `json:"accessExpiresAt"`
	RefreshExpiresAt int64  `json:"refreshExpiresAt"`
}

type loginResponse struct {
	tokenResponse
	User *models.User `json:"user"`
}

type userResponse struct {
	User *models.User `json:"user"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

type matchedResponse struct {
	MatchedCount int64 `json:"matchedCount"`
}

type deletedResponse struct {
	DeletedCount int64 `json:"deletedCount"`
}
