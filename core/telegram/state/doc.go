// Package state keeps one conversation record per Telegram user.
//
// It is domain-agnostic: the session type is a type parameter, storage is a
// pluggable Backend (memory or Redis), and Manager.Update guarantees at most
// one in-flight transition per user id.
package state
