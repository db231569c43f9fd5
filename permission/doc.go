// Package permission holds the wire-level identity model (roles carrying
// permission names) and the pure evaluation functions over it.
//
// # Design
//
// Evaluation is side-effect-free and re-derivable from the current Identity
// at any time: nothing here caches beyond a single call, so a freshly fetched
// identity immediately reflects role edits made mid-session. The super-admin
// sentinel role satisfies every permission check unconditionally.
//
// # What this package must NOT do
//
//   - Perform I/O or read session state; callers pass the Identity in.
//   - Import authgate or any sibling package.
package permission
