package model

// User is the authenticated identity resolved by the boundary. The
// access token is the user's linked GitHub credential, or empty when no
// identity is linked. The core treats it as read-only input.
type User struct {
	Username    string
	AccessToken string
}
