// Package parlor is a client library for the Parlor community platform. It
// wraps the platform's REST API in a typed client and keeps server-scoped
// state (server record, channel tree, roster, roles, per-channel messages)
// in an explicit store with the platform's optimistic-update rules: local
// reaction toggles reconciled against server responses, in-place soft
// deletes, wholesale slice refreshes, and a write-through nickname override
// cache layered over device-local and server-side storage.
//
// A Session ties the pieces together for one server:
//
//	session, err := parlor.NewSession(&parlor.Config{
//		BaseURL:  "https://parlor.chat",
//		ServerID: "srv_123",
//		UserID:   "usr_456",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer session.Close()
//
//	if err := session.Open(ctx); err != nil {
//		log.Fatal(err)
//	}
//	messages, err := session.OpenChannel(ctx, "ch_789")
package parlor
