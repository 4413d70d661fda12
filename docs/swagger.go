package docs

// @title           Fleet Ledger API
// @version         1.0
// @description     Ride lifecycle, driver earnings ledger and receipts. Every route except /health, /metrics and /swagger requires a bearer token.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
