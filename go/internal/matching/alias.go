package matching

import (
	"hash/fnv"

	"github.com/google/uuid"
)

var (
	aliasAdjectives = []string{
		"Crimson", "Midnight", "Velvet", "Golden", "Silent", "Scarlet",
		"Amber", "Hidden", "Lunar", "Wild", "Misty", "Electric",
	}
	aliasNouns = []string{
		"Owl", "Fern", "Fox", "Raven", "Lotus", "Lynx",
		"Moth", "Willow", "Panther", "Sparrow", "Orchid", "Wolf",
	}
)

// Alias derives a stable anonymous handle such as "CrimsonOwl" from a user id.
func Alias(userID uuid.UUID) string {
	h := fnv.New32a()
	_, _ = h.Write(userID[:])
	sum := h.Sum32()
	adj := aliasAdjectives[sum%uint32(len(aliasAdjectives))]
	noun := aliasNouns[(sum/uint32(len(aliasAdjectives)))%uint32(len(aliasNouns))]
	return adj + noun
}

// pairAliases keeps the two handles of a match distinct.
func pairAliases(user1, user2 uuid.UUID) (string, string) {
	a1, a2 := Alias(user1), Alias(user2)
	if a1 == a2 {
		a2 = "Other" + a2
	}
	return a1, a2
}
