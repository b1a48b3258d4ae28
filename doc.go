// Package auth provides stateless bearer token authentication and role based
// authorization for the blog API (JWT issuance and verification, credential
// verification, role decisions, and the HTTP failure translator).
//
// Tokens:
//   - TokenService signs HS256 JWTs carrying the subject, the issue and expiry
//     timestamps, and the caller roles. Nothing is stored server side; a token
//     is valid while its signature verifies against the process signing key
//     and the current time is before its expiry.
//   - Verification checks the signature before expiry so a forged token never
//     learns whether it would have been expired.
//
// Requests:
//   - The jwtware middleware binds an *Identity to the request (router locals
//     and the user context). Requests without a bearer token continue as
//     anonymous; role guards then fail with ErrNoPrincipal.
//   - Authorize evaluates a single required role and returns a Decision.
//
// Failures:
//   - Every failure carries a go-errors text code and HTTP code. ErrorHandler
//     renders them as ErrorDetails bodies and logs each one once.
package auth
