package schema

import (
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

var udtNames = []string{"address", "Address", "text", "frozen", "map", "line item", `say "hi"`, "set", "x1"}

// randomType builds a random type tree of at most depth levels.
func randomType(r *rand.Rand, keyspace string, depth int) Type {
	natives := NativeTypes()
	if depth <= 0 {
		return natives[r.Intn(len(natives))]
	}
	switch r.Intn(8) {
	case 0:
		return ListOf(randomType(r, keyspace, depth-1))
	case 1:
		return SetOf(randomType(r, keyspace, depth-1))
	case 2:
		return MapOf(randomType(r, keyspace, depth-1), randomType(r, keyspace, depth-1))
	case 3:
		n := 1 + r.Intn(3)
		components := make([]Type, n)
		for i := range components {
			components[i] = randomType(r, keyspace, depth-1)
		}
		return TupleOf(components...)
	case 4:
		ks := keyspace
		if r.Intn(4) == 0 {
			ks = "Other"
		}
		return ShallowUserType{Keyspace: ks, Name: udtNames[r.Intn(len(udtNames))], Frozen: r.Intn(2) == 0}
	case 5:
		t := randomType(r, keyspace, depth-1)
		return WithFrozen(t, true)
	case 6:
		return CustomType{ClassName: "org.apache.cassandra.db.marshal.It's"}
	default:
		return natives[r.Intn(len(natives))]
	}
}

func TestProperty_ParseRenderRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	// Property: parsing the rendered form of a type yields the same type
	properties.Property("shallow parse of AsCQL(true) is the identity", prop.ForAll(
		func(seed int64) bool {
			r := rand.New(rand.NewSource(seed))
			typ := randomType(r, "ks", 4)

			parsed, err := ParseCQLType(typ.AsCQL(true), "ks", nil, Shallow)
			if err != nil {
				t.Logf("parse %q: %v", typ.AsCQL(true), err)
				return false
			}
			return Equal(typ, parsed)
		},
		gen.Int64(),
	))

	// Property: the outer frozen marker is the only difference between renderings
	properties.Property("AsCQL(false) parses to the unfrozen type", prop.ForAll(
		func(seed int64) bool {
			r := rand.New(rand.NewSource(seed))
			typ := randomType(r, "ks", 3)

			parsed, err := ParseCQLType(typ.AsCQL(false), "ks", nil, Shallow)
			if err != nil {
				return false
			}
			return Equal(WithFrozen(typ, false), parsed)
		},
		gen.Int64(),
	))

	// Property: resolution leaves no placeholders, whatever the field layout
	properties.Property("resolved user types hold no placeholders", prop.ForAll(
		func(seed int64) bool {
			r := rand.New(rand.NewSource(seed))
			// Type i may only reference types with a larger index, so the
			// definitions are acyclic while the map order stays random.
			names := []string{"t0", "t1", "t2", "t3", "t4"}
			types := make(map[string]UserDefinedType, len(names))
			for i, name := range names {
				udt := UserDefinedType{Keyspace: "ks", Name: name}
				fields := 1 + r.Intn(3)
				for f := 0; f < fields; f++ {
					var ft Type = randomType(r, "ks", 1)
					if ContainsShallow(ft) {
						ft = Int
					}
					if i+1 < len(names) && r.Intn(2) == 0 {
						target := ShallowUserType{Keyspace: "ks", Name: names[i+1+r.Intn(len(names)-i-1)], Frozen: true}
						ft = ListOf(target)
					}
					udt.Fields = append(udt.Fields, Field{Name: "f" + string(rune('a'+f)), Type: ft})
				}
				types[name] = udt
			}

			resolved, err := ResolveUserTypes(types)
			if err != nil || len(resolved) != len(types) {
				return false
			}
			for _, udt := range resolved {
				if ContainsShallow(udt) {
					return false
				}
			}
			return true
		},
		gen.Int64(),
	))

	properties.TestingRun(t)
}
