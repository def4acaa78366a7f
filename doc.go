// Package talent provides client side session management for the talent
// matching API: credential persistence, session lifecycle, role gated access
// decisions and the profile cache.
//
// Session lifecycle:
//   - Controller owns the single Session. Login, Register and RestoreSession
//     pass through the loading state before they can authenticate; failures
//     collapse to anonymous with Error set and never return an error value.
//   - Every network bound operation carries a generation number. Logout and
//     forced logout bump it, so late responses cannot resurrect a session.
//   - ForceLogout (and Invalidate, used by the request pipeline on 401) is the
//     unconditional teardown for rejected or expired credentials.
//
// Access decisions:
//   - CanAccess is a pure function of the session. Admin satisfies every role
//     requirement. While the session is loading the decision is pending.
//
// Activity sinks:
//   - ActivitySink receives login, registration, restore and logout events.
//     Sinks run best-effort (errors are logged) so they can feed metrics or an
//     audit log without blocking the session.
package talent
