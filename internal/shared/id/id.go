// Package id provides identifier generation for the controller.
//
// Request ids are prefixed ULIDs, so they sort by creation time and are easy
// to spot in logs. Stream subscribers get UUIDs. Statistics session and view
// ids are random positive int64 values, matching the statistics event schema.
package id

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// RequestID identifies an API request
type RequestID string

// SubscriberID identifies a stream subscriber
type SubscriberID string

const (
	RequestPrefix    = "req"
	SubscriberPrefix = "sub"
)

// Generator generates ULIDs and random statistics ids
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator backed by crypto/rand
func NewGenerator() *Generator {
	return &Generator{entropy: rand.Reader}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source.
// Tests pass a deterministic reader.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// Int63 returns a random positive int64; zero is never returned
// because statistics treat it as "no id".
func (g *Generator) Int63() int64 {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	var buf [8]byte
	for {
		if _, err := io.ReadFull(g.entropy, buf[:]); err != nil {
			panic(fmt.Sprintf("id: entropy source failed: %v", err))
		}
		if v := int64(binary.BigEndian.Uint64(buf[:]) &^ (1 << 63)); v != 0 {
			return v
		}
	}
}

// NewRequestID generates a new request ID
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

// NewSubscriberID generates a new stream subscriber ID
func NewSubscriberID() SubscriberID {
	return SubscriberID(fmt.Sprintf("%s_%s", SubscriberPrefix, uuid.NewString()))
}

// NewSessionID generates a statistics session id
func NewSessionID() int64 {
	return Default().Int63()
}

// NewViewID generates a statistics view id
func NewViewID() int64 {
	return Default().Int63()
}

func (id RequestID) String() string    { return string(id) }
func (id SubscriberID) String() string { return string(id) }

// IsValid checks if an ID string is a valid ULID
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}

// Timestamp extracts the creation time from a prefixed or bare ULID string
func Timestamp(id string) (time.Time, error) {
	for i := len(id) - 1; i >= 0; i-- {
		if id[i] == '_' {
			id = id[i+1:]
			break
		}
	}
	parsed, err := ulid.Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
