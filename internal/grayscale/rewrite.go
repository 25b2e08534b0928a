package grayscale

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// token classes: names, numbers, operator words, whitespace, anything else.
var tokenPattern = regexp.MustCompile(`/[^\s/\[\]()<>{}%]*|[-+]?(?:\d+\.?\d*|\.\d+)|[A-Za-z'"*]+|\s+|.`)

var numberPattern = regexp.MustCompile(`^[-+]?(?:\d+\.?\d*|\.\d+)$`)

// RewriteContent rewrites CMYK and RGB colour operators in a content stream
// to their gray equivalents: "c m y k k" becomes "g' g" with g' = 1-k, and
// "r g b rg" becomes the luminance with "g". Stroking variants map to "G".
// Operators without enough preceding numeric operands are left untouched.
// The scan is token based and does not parse strings or inline images.
func RewriteContent(content []byte) []byte {
	tokens := tokenPattern.FindAllString(string(content), -1)
	out := make([]string, 0, len(tokens))
	var operands []int

	for _, tok := range tokens {
		switch {
		case isSpace(tok):
			out = append(out, tok)
			continue
		case numberPattern.MatchString(tok):
			operands = append(operands, len(out))
			out = append(out, tok)
			continue
		}

		arity, gray := colorOperator(tok)
		if arity > 0 && len(operands) >= arity {
			start := operands[len(operands)-arity]
			vals := make([]float64, arity)
			ok := true
			for i, idx := range operands[len(operands)-arity:] {
				v, err := strconv.ParseFloat(out[idx], 64)
				if err != nil {
					ok = false
					break
				}
				vals[i] = v
			}
			if ok {
				var level float64
				if arity == 4 {
					level = 1 - CMYKGray(vals[0], vals[1], vals[2], vals[3])
				} else {
					level = RGBGray(vals[0], vals[1], vals[2])
				}
				out = append(out[:start], formatLevel(level), " ", gray)
				operands = operands[:0]
				continue
			}
		}

		operands = operands[:0]
		out = append(out, tok)
	}
	return []byte(strings.Join(out, ""))
}

// colorOperator reports the operand count and gray replacement for a
// colour-setting operator, or zero for anything else.
func colorOperator(tok string) (int, string) {
	switch tok {
	case "k":
		return 4, "g"
	case "K":
		return 4, "G"
	case "rg":
		return 3, "g"
	case "RG":
		return 3, "G"
	}
	return 0, ""
}

func formatLevel(v float64) string {
	return strconv.FormatFloat(math.Round(v*1e4)/1e4, 'f', -1, 64)
}

func isSpace(tok string) bool {
	return strings.TrimSpace(tok) == ""
}
