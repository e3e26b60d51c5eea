// Package jwt implements the stateless access-token codec: HS256-signed
// tokens carrying {userId, issuedAt, expiresAt} and nothing else. Validity
// is a pure function of the token bytes, the process secret and the clock;
// nothing here touches the network or persists state.
package jwt
