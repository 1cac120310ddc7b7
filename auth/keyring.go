// Package auth persists the media server access token in the system keyring.
package auth

import (
	"github.com/anisan-cli/finplay/constant"
	"github.com/zalando/go-keyring"
)

const user = "server-token"

// SetToken persists the server access token.
func SetToken(token string) error {
	return keyring.Set(constant.Finplay, user, token)
}

// GetToken retrieves the server access token.
func GetToken() (string, error) {
	return keyring.Get(constant.Finplay, user)
}

// DeleteToken removes the server access token.
func DeleteToken() error {
	return keyring.Delete(constant.Finplay, user)
}
