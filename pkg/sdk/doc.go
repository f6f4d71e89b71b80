// Package trackapi embeds the trackapi record query layer in a Go program,
// reading personnel and vehicle records straight from MongoDB or Redis
// without going through the HTTP API.
//
//	client, _ := trackapi.New(ctx, trackapi.WithMongo("mongodb://localhost:27017"))
//	defer client.Close()
//
//	active, _ := client.Personnel().List(ctx, trackapi.Filter{
//	    Location: "HQ",
//	    Status:   "active",
//	})
//
// Filters behave exactly like the query parameters of GET /api/personnel:
// empty fields are ignored, the rest are ANDed as exact, case-sensitive matches.
package trackapi
