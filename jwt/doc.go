// Package jwt issues and verifies the short-lived bearer tokens handed to an
// operator after a successful admin login.
package jwt
