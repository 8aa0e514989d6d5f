package master

import (
	"sort"
	"strings"

	"github.com/pthm/sqlprovision/pkg/metadata"
)

// Tiers, lowest first.
const (
	TierCreation   = 1
	TierProduction = 2
	TierTest       = 3
	TierGrant      = 4
	TierClient     = 5
	TierOther      = 6
)

// TierName names a tier for display.
func TierName(tier int) string {
	switch tier {
	case TierCreation:
		return "creation"
	case TierProduction:
		return "production objects"
	case TierTest:
		return "test objects"
	case TierGrant:
		return "grants"
	case TierClient:
		return "client"
	default:
		return "other"
	}
}

const (
	creationMarker = "create_user"
	grantMarker    = "grant_tables"
)

// ObjectKinds is the execution order of object scripts within the
// production and test tiers.
var ObjectKinds = []string{
	"Library", "Types", "Tables", "Sequences", "MV", "Synonyms",
	"Views", "Triggers", "Indexes", "Packages", "Procedure",
}

// Key is the sort key of a script name. Keys compare by tier, then subtier,
// then name.
type Key struct {
	Tier    int
	Subtier int
	Name    string
}

// Less reports whether k sorts before o.
func (k Key) Less(o Key) bool {
	if k.Tier != o.Tier {
		return k.Tier < o.Tier
	}
	if k.Subtier != o.Subtier {
		return k.Subtier < o.Subtier
	}
	return k.Name < o.Name
}

// IsCreation reports whether name is an account-creation script.
func IsCreation(name string) bool {
	return strings.Contains(name, creationMarker)
}

// OrderKey computes the sort key of name for client c. Account scripts are
// recognised before object scripts, so a grant script never lands in an
// object tier because it mentions the login.
func OrderKey(name string, c metadata.Client) Key {
	upper, lower := c.Upper(), c.Lower()
	switch {
	case IsCreation(name):
		return Key{Tier: TierCreation, Name: name}
	case strings.Contains(name, grantMarker):
		return Key{Tier: TierGrant, Name: name}
	case upper != "" && strings.Contains(name, upper) && strings.Contains(name, "PRD"):
		return Key{Tier: TierProduction, Subtier: objectSubtier(name), Name: name}
	case upper != "" && strings.Contains(name, upper) && strings.Contains(name, "TST"):
		return Key{Tier: TierTest, Subtier: objectSubtier(name), Name: name}
	case lower != "" && strings.Contains(name, lower):
		return Key{Tier: TierClient, Name: name}
	default:
		return Key{Tier: TierOther, Name: name}
	}
}

func objectSubtier(name string) int {
	for i, kind := range ObjectKinds {
		if strings.Contains(name, kind) {
			return i + 1
		}
	}
	return len(ObjectKinds) + 1
}

// Sort returns names ordered by OrderKey. The input is not modified.
func Sort(names []string, c metadata.Client) []string {
	keys := make([]Key, len(names))
	for i, n := range names {
		keys[i] = OrderKey(n, c)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.Name
	}
	return out
}
