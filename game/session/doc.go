// Package session provides match session management for Sea Battle.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique match ID generation
//   - Computer opponent setup for single-player matches
//   - Idle match expiry driven by an injectable clock
//   - Persistence to JSON files or Redis
//
// Core Types:
//
// Manager is the main session manager that handles all session operations.
// It satisfies service.SessionManager. FilePersistence and RedisPersistence
// implement SessionPersistence and store one JSON document per match holding
// the preset, the full match record and the computer's targeting state.
//
// Session Identifiers:
//
// Matches use 4-character hex IDs for easy reference. Lookups are
// case-insensitive.
//
// Usage:
//
//	store, err := session.NewFilePersistence("sessions")
//	if err != nil {
//		log.Fatal(err)
//	}
//	manager := session.NewManagerWithPersistence(store, session.WithLogger(logger))
//	if err := manager.LoadPersistedSessions(); err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err := manager.Create("", "classic", preset)
//	removed := manager.CleanupExpiredSessions(24 * time.Hour)
package session
