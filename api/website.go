package api

import "time"

// Website is the entity behind a website item's tooltip.
type Website struct {
	ID             string    `json:"id" cbor:"id" yaml:"id"`
	Name           string    `json:"name,omitempty" cbor:"name,omitempty" yaml:"name"`
	URL            string    `json:"url" cbor:"url" yaml:"url"`
	Description    string    `json:"description,omitempty" cbor:"description,omitempty" yaml:"description"`
	LastAccessTime time.Time `json:"lastAccessTime" cbor:"lastAccessTime" yaml:"lastAccessTime"`
}

// Envelope is the backend's response wrapper. Success=false carries the
// server message in Error.
type Envelope[T any] struct {
	Success bool   `json:"success" cbor:"success"`
	Data    *T     `json:"data,omitempty" cbor:"data,omitempty"`
	Error   string `json:"error,omitempty" cbor:"error,omitempty"`
}

// OK wraps data in a successful envelope.
func OK[T any](data T) Envelope[T] { return Envelope[T]{Success: true, Data: &data} }

// Fail builds an unsuccessful envelope.
func Fail[T any](msg string) Envelope[T] { return Envelope[T]{Error: msg} }
