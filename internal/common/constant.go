package common

// AuthorizationHeaderName is the HTTP header used to carry the bearer
// auth token on outbound requests to the backend.
const AuthorizationHeaderName = "Authorization"

// ChunkSize is the fixed chunk size (1 MiB) used by the transfer engine
// for every file, per §4.4.
const ChunkSize = 1 << 20
