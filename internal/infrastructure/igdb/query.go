package igdb

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	gameFields = "fields name, slug, cover.id, cover.image_id, cover.url, cover.checksum;"
	// Main games and remakes only; editions and DLC point at a parent.
	topLevelFilter = "version_parent = null & parent_game = null & (category = 0 | category = 9)"
)

func buildGamesQuery(ids []int64, offset, limit int) string {
	idList := make([]string, len(ids))
	for i, id := range ids {
		idList[i] = strconv.FormatInt(id, 10)
	}

	var b strings.Builder
	b.WriteString(gameFields)
	fmt.Fprintf(&b, " where id = (%s) & %s;", strings.Join(idList, ","), topLevelFilter)
	if limit > 0 {
		fmt.Fprintf(&b, " limit %d;", limit)
	}
	if offset > 0 {
		fmt.Fprintf(&b, " offset %d;", offset)
	}
	return b.String()
}

func buildSearchQuery(query string, limit int) string {
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(query)

	var b strings.Builder
	fmt.Fprintf(&b, "search \"%s\"; ", escaped)
	b.WriteString(gameFields)
	fmt.Fprintf(&b, " where %s;", topLevelFilter)
	if limit > 0 {
		fmt.Fprintf(&b, " limit %d;", limit)
	}
	return b.String()
}
