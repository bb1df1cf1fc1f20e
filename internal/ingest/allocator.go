package ingest

import "github.com/google/uuid"

// Allocator hands out storage filenames.
type Allocator interface {
	Allocate(extension string) string
}

// UUIDAllocator names files <random uuid>.<extension>. Uniqueness comes from the
// 122 random bits of a v4 UUID, there is no registry of issued names.
type UUIDAllocator struct{}

func NewUUIDAllocator() *UUIDAllocator {
	return &UUIDAllocator{}
}

func (a *UUIDAllocator) Allocate(extension string) string {
	return uuid.NewString() + "." + extension
}
