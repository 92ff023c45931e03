// Package models defines domain entities and persistence interfaces for the mixdeck playback engine.
//
// The package contains two categories of types:
//
// 1. Engine descriptors: in-memory values owned by the catalog and coordinator
//   - [Channel] : Playback category (bgm, sfx, stem, voice, ...) with text round-tripping
//   - [Clip] : Clip descriptor with tempo, category and tags
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [EventRecord] : Journaled engine event
//
// Both implement the Model interface providing IDs, timestamps and validation.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
