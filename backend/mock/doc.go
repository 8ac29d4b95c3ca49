// Package mock provides a scripted backend.Backend test double.
package mock
