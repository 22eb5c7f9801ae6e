package results

import (
	"strconv"
	"strings"

	"github.com/ohler55/ojg/oj"

	"github.com/ccms-ucsd/resultview/internal/core/domain"
)

// jsonNull is the JSON representation of null.
const jsonNull = "null"

// encodeHit renders a hit as a JSON object with fields, then attributes,
// then the positional "id" of the row.
func encodeHit(hit *domain.Hit, id int) string {
	var b strings.Builder
	b.WriteString("{")
	for _, e := range hit.Entries() {
		b.WriteString(jsonString(e.Key))
		b.WriteString(":")
		if e.Present {
			b.WriteString(jsonString(e.Value))
		} else {
			b.WriteString(jsonNull)
		}
		b.WriteString(",")
	}
	b.WriteString(`"id":`)
	b.WriteString(jsonString(strconv.Itoa(id)))
	b.WriteString("}")
	return b.String()
}

func jsonString(s string) string {
	return oj.JSON(s)
}
