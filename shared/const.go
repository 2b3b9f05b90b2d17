package shared

const (
	AdminID  = "admin_id"
	ClientIP = "client_ip"

	// Endpoint identifiers used as rate-limit keys.
	EndpointParse = "/parse"
	EndpointAPI   = "api_general"

	// SentinelAddress is used when neither a forwarding header nor a
	// transport peer address is available.
	SentinelAddress = "0.0.0.0"
)
