// Package session defines the persistence contract for chat sessions.
// Implementations live in the inmemory, boltdb and postgres subpackages.
package session
