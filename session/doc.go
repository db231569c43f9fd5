// Package session owns the client's credential pair and cached identity.
//
// The pair invariant is the whole point of this package: the access and
// refresh tokens always move together. [Store.SetCredential] rejects a pair
// with either half missing, [Store.Clear] removes both halves, and every
// [Storage] implementation persists and deletes the pair as one operation.
// No interleaving of Store calls can observe an access token from one login
// paired with a refresh token from another.
//
// Storage is pluggable behind the [Storage] interface. [Memory] keeps the
// pair in-process (tests, short-lived tools); [RedisStorage] survives process
// restarts so a relaunched client resumes its session via [Store.Hydrate].
package session
