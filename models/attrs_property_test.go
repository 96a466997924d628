//go:build property
// +build property

package models

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestNormalizeKeyIdempotent verifies a second normalization never changes
// a key again.
func TestNormalizeKeyIdempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("normalization is idempotent", prop.ForAll(
		func(key string) bool {
			once := NormalizeKey(key)
			return NormalizeKey(once) == once
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

// TestPopulateTransportRoundTrip verifies ingesting a set's own transport
// projection reproduces the same set.
func TestPopulateTransportRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("transport projection round-trips", prop.ForAll(
		func(keys []string, values []string) bool {
			payload := make(map[string]any)
			for i := 0; i < len(keys) && i < len(values); i++ {
				if keys[i] == "" {
					continue
				}
				payload[keys[i]] = values[i]
			}

			var first AttributeSet
			first.Populate(payload)
			var second AttributeSet
			second.Populate(first.Transport())

			snapA := first.Snapshot()
			snapB := second.Snapshot()
			if len(snapA) != len(snapB) {
				return false
			}
			for k, v := range snapA {
				if snapB[k] != v {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.AlphaString()),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}

// TestTransportNeverLeaksReservedKeys verifies the wire projection cannot
// carry reserved or internal spellings.
func TestTransportNeverLeaksReservedKeys(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("no reserved keys on the wire", prop.ForAll(
		func(keys []string) bool {
			payload := make(map[string]any)
			for i, k := range keys {
				payload[k] = i
			}

			var s AttributeSet
			s.Populate(payload)
			for k := range s.Transport() {
				if k == "" || k[0] == '_' || k == "uri_" {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}
