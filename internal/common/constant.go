package common

// AuthHeaderName is the HTTP header carrying the bearer access token.
const AuthHeaderName = "Authorization"
