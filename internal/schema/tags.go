package schema

import (
	"fmt"
	"strings"
)

type fieldTag struct {
	column     string
	primaryKey bool
	foreignKey string
	skip       bool
}

// parseTag parses a `db` tag value: "name,pk,fk=Nav" or "-".
func parseTag(raw string) (fieldTag, error) {
	var tag fieldTag
	if raw == "-" {
		tag.skip = true
		return tag, nil
	}
	if raw == "" {
		return tag, nil
	}

	parts := strings.Split(raw, ",")
	tag.column = strings.TrimSpace(parts[0])
	for _, opt := range parts[1:] {
		opt = strings.TrimSpace(opt)
		switch {
		case opt == "":
		case opt == "pk":
			tag.primaryKey = true
		case strings.HasPrefix(opt, "fk="):
			tag.foreignKey = strings.TrimPrefix(opt, "fk=")
			if tag.foreignKey == "" {
				return tag, fmt.Errorf("empty foreign key target in tag %q", raw)
			}
		default:
			return tag, fmt.Errorf("unknown tag option %q", opt)
		}
	}
	return tag, nil
}
