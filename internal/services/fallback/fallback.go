// internal/services/fallback/fallback.go
package fallback

import _ "embed"

// Items is the offline sample catalog served when the item API cannot be reached
//
//go:embed items.json
var Items []byte
