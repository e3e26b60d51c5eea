// Package password provides argon2id password hashing and constant-time
// verification in PHC string format. Parameters are embedded in the hash, so
// stored credentials survive parameter upgrades.
package password
