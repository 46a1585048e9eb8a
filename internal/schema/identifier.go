package schema

import "strings"

// Quoter renders an identifier in its internal (case-sensitive) form as CQL.
type Quoter func(name string) string

// reservedKeywords are the CQL keywords that cannot be used as bare identifiers.
var reservedKeywords = map[string]bool{
	"add": true, "allow": true, "alter": true, "and": true, "apply": true,
	"asc": true, "authorize": true, "batch": true, "begin": true, "by": true,
	"columnfamily": true, "create": true, "default": true, "delete": true, "desc": true,
	"describe": true, "drop": true, "entries": true, "execute": true, "from": true,
	"full": true, "grant": true, "if": true, "in": true, "index": true,
	"infinity": true, "insert": true, "into": true, "is": true, "keyspace": true,
	"limit": true, "materialized": true, "mbean": true, "mbeans": true, "modify": true,
	"nan": true, "norecursive": true, "not": true, "null": true, "of": true,
	"on": true, "or": true, "order": true, "primary": true, "rename": true,
	"replace": true, "revoke": true, "schema": true, "select": true, "set": true,
	"table": true, "to": true, "token": true, "truncate": true, "unlogged": true,
	"unset": true, "update": true, "use": true, "using": true, "view": true,
	"where": true, "with": true,
}

// IsReservedKeyword reports whether name (case-insensitive) is a reserved CQL keyword.
func IsReservedKeyword(name string) bool {
	return reservedKeywords[strings.ToLower(name)]
}

// QuoteIfNecessary double-quotes name unless it is a valid bare identifier:
// lower-case letters, digits and underscores, starting with a letter, and not reserved.
func QuoteIfNecessary(name string) string {
	if isBareIdentifier(name) && !reservedKeywords[name] {
		return name
	}
	return Quote(name)
}

// Quote always double-quotes name, doubling embedded quotes.
func Quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func isBareIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		ch := name[i]
		switch {
		case ch >= 'a' && ch <= 'z':
		case (ch >= '0' && ch <= '9') || ch == '_':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
