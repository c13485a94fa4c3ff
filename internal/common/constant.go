package common

// AuthorizationHeaderName is the HTTP header carrying the bearer credential.
const AuthorizationHeaderName = "Authorization"

// BearerScheme is the expected scheme prefix of the Authorization header.
const BearerScheme = "Bearer"
