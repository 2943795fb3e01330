package respond

import (
	"strconv"
	"strings"
)

type mediaRange struct {
	typ, sub string
	q        float64
}

func parseAccept(header string) []mediaRange {
	var ranges []mediaRange
	for part := range strings.SplitSeq(strings.ToLower(header), ",") {
		params := strings.Split(part, ";")
		mt := strings.TrimSpace(params[0])
		if mt == "" {
			continue
		}
		typ, sub, ok := strings.Cut(mt, "/")
		if !ok {
			sub = "*"
		}
		mr := mediaRange{typ: strings.TrimSpace(typ), sub: strings.TrimSpace(sub), q: 1}
		for _, p := range params[1:] {
			k, v, _ := strings.Cut(p, "=")
			if strings.TrimSpace(k) != "q" {
				continue
			}
			q, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil || q < 0 || q > 1 {
				q = 1
			}
			mr.q = q
		}
		ranges = append(ranges, mr)
	}
	return ranges
}

// specificity ranks how closely a range matches application/<sub> or its
// problem+ variant. -1 means no match.
func (mr mediaRange) specificity(sub string) int {
	switch {
	case mr.typ == "application" && mr.sub == "problem+"+sub:
		return 4
	case mr.typ == "application" && mr.sub == sub:
		return 3
	case mr.typ == "application" && mr.sub == "*+"+sub:
		return 2
	case mr.typ == "application" && mr.sub == "*":
		return 1
	case mr.typ == "*" && mr.sub == "*":
		return 0
	}
	return -1
}

// bestMatch returns the quality and specificity of the most specific range
// matching sub.
func bestMatch(ranges []mediaRange, sub string) (q float64, spec int) {
	spec = -1
	for _, mr := range ranges {
		if s := mr.specificity(sub); s > spec {
			spec, q = s, mr.q
		}
	}
	return q, spec
}

// PrefersCBOR reports whether the Accept header ranks CBOR strictly above
// JSON. Ties and absent headers resolve to JSON.
func PrefersCBOR(accept string) bool {
	ranges := parseAccept(accept)
	if len(ranges) == 0 {
		return false
	}
	cq, cs := bestMatch(ranges, "cbor")
	if cs < 0 || cq <= 0 {
		return false
	}
	jq, js := bestMatch(ranges, "json")
	if js < 0 || jq <= 0 {
		return true
	}
	return cq > jq || (cq == jq && cs > js)
}
