// Package security models the principal attached to a request: its subject,
// roles and free-form attributes. Principals are produced by an
// Authenticator chain using three-outcome voting (Yes, No, Abstain), with
// bearer JWT and static API key implementations.
package security
