package model

// UserError is an error that is safe to return in a response
type UserError string

func (u UserError) Error() string {
	return string(u)
}

// ErrInvalidEmailOrPassword is an error for an invalid email or password
var ErrInvalidEmailOrPassword = UserError("invalid email address and/or password")

// ErrEmailInUse happens if the email address is already registered
var ErrEmailInUse = UserError("email address is already registered")

// ErrPasswordTooShort happens if the password is under the minimum length
var ErrPasswordTooShort = UserError("password must be 6 or more characters")
