// Package cache defines the Redis key layout for mirrored coin state:
//
//	cryptoverde:coin:latest:<coin_id>  latest committed state of one coin
//	cryptoverde:coin:index             coin ids of the latest committed batch
package cache

import (
	"strings"
	"time"

	"cryptoverde-api/internal/config"
)

// Namespace prefixes every key.
const Namespace = "cryptoverde"

// TTLClass is one of the configured expiry buckets.
type TTLClass string

const (
	TTLShort  TTLClass = "short"
	TTLMedium TTLClass = "medium"
	TTLLong   TTLClass = "long"
)

// Family is a group of keys that share an expiry class.
type Family string

const (
	FamilyCoinLatest Family = "coin:latest"
	FamilyCoinIndex  Family = "coin:index"
)

// Coins and their index share a class.
var familyClass = map[Family]TTLClass{
	FamilyCoinLatest: TTLMedium,
	FamilyCoinIndex:  TTLMedium,
}

// TTLSet holds the configured expiries. A zero duration disables writes for its class.
type TTLSet struct {
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
}

// NewTTLSet converts the config seconds. Zero picks the default, negative disables.
func NewTTLSet(cfg config.CacheTTL) TTLSet {
	return TTLSet{
		Short:  seconds(cfg.Short, 10*time.Second),
		Medium: seconds(cfg.Medium, 5*time.Minute),
		Long:   seconds(cfg.Long, time.Hour),
	}
}

func seconds(n int, fallback time.Duration) time.Duration {
	switch {
	case n < 0:
		return 0
	case n == 0:
		return fallback
	default:
		return time.Duration(n) * time.Second
	}
}

// Duration returns the expiry of class, or 0 for an unknown class.
func (t TTLSet) Duration(class TTLClass) time.Duration {
	switch class {
	case TTLShort:
		return t.Short
	case TTLMedium:
		return t.Medium
	case TTLLong:
		return t.Long
	}
	return 0
}

// For returns the expiry of a key family.
func (t TTLSet) For(f Family) time.Duration {
	return t.Duration(familyClass[f])
}

// CoinLatestKey is the key of one mirrored coin. A blank id yields the family prefix.
func CoinLatestKey(coinID string) string {
	return key(FamilyCoinLatest, coinID)
}

// CoinIndexKey is the key of the latest batch's id list.
func CoinIndexKey() string {
	return key(FamilyCoinIndex, "")
}

func key(f Family, id string) string {
	k := Namespace + ":" + string(f)
	if id = strings.TrimSpace(id); id != "" {
		k += ":" + id
	}
	return k
}
