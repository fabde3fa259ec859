package binder

import (
	"net/url"

	"github.com/go-playground/validator/v10"
)

// urlValidator ensures the value is an absolute http(s) URL or the empty
// string. The empty string is allowed so this validator can be used to clear
// out values; combine with `required` when the value must be present.
func urlValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	u, err := url.Parse(value)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
