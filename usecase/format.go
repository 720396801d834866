package usecase

import "strconv"

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

// Path joins a collection path and a numeric id, e.g. Path("/groups", 3) -> "/groups/3".
func Path(collection string, id int64, rest ...string) string {
	p := collection + "/" + formatInt(id)
	for _, r := range rest {
		p += "/" + r
	}
	return p
}
