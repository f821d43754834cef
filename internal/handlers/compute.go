package handlers

import (
	"context"
	"fmt"
	"html"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	routeerr "sockroute/internal/errors"
	"sockroute/internal/request"
	"sockroute/internal/response"
)

// ExtraValuesNote is appended when multiply receives more than two keys.
const ExtraValuesNote = `<html>
    <p>Extra values provided were ignored</p>
</html>
`

var (
	multiplyUsage = &routeerr.Usage{
		Example:     "/multiply?num1=X&num2=Y",
		Explanation: "where 'X' and 'Y' are replaced by integers.",
	}
	multiplyCauses = []string{
		"Integer value is too big",
		"Value provided is not an integer",
		"Incorrect use",
	}

	compatibleUsage = &routeerr.Usage{
		Example:     "/compatible?name1=X&name2=Y",
		Explanation: "where 'X' and 'Y' are replaced by a person's name.",
	}
	compatibleCauses = []string{"Invalid or missing arguments"}
)

// Multiply returns the product of num1 and num2.
func (s *Set) Multiply(ctx context.Context, req *request.Request) (response.Response, error) {
	q, err := queryOf(req.Path, MarkerMultiply)
	if err != nil {
		return response.Response{}, multiplyError(routeerr.TypeMismatch, err.Error(), err)
	}

	num1, err := intParam(q.Get, "num1")
	if err != nil {
		return response.Response{}, err
	}
	num2, err := intParam(q.Get, "num2")
	if err != nil {
		return response.Response{}, err
	}

	body := "Result is: " + strconv.FormatInt(num1*num2, 10)
	if q.Len() > 2 {
		body += ExtraValuesNote
		s.logger.Debug("Ignoring extra multiply parameters", "keys", extraKeys(q.Keys(), "num1", "num2"))
	}
	return response.OK(response.HTML, body), nil
}

// extraKeys returns keys other than used, in order.
func extraKeys(keys []string, used ...string) []string {
	var out []string
	for _, k := range keys {
		if !slices.Contains(used, k) {
			out = append(out, k)
		}
	}
	return out
}

// intParam parses key as a 32-bit signed integer.
func intParam(get func(string) (string, bool), key string) (int64, error) {
	raw, ok := get(key)
	if !ok {
		return 0, multiplyError(routeerr.MissingParameter, key+" is required", nil)
	}
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, multiplyError(routeerr.TypeMismatch, fmt.Sprintf("%s is not an integer: %q", key, raw), err)
	}
	return n, nil
}

func multiplyError(code routeerr.ErrorCode, msg string, cause error) error {
	return routeerr.NewRouteError(code, msg, cause).
		WithCauses(multiplyCauses...).
		WithUsage(multiplyUsage)
}

// Score bounds.
const (
	ScoreMin         = 20.0
	ScoreMax         = 100.0
	sameInitialBump  = 10.0
	trailingAPenalty = 20.0
)

// Score adjusts a base score in [ScoreMin, ScoreMax): +10 (capped at 100) when
// the names share a first character, -20 (floored at 0) when either ends in 'a'.
func Score(name1, name2 string, base float64) float64 {
	score := base
	r1, _ := utf8.DecodeRuneInString(name1)
	r2, _ := utf8.DecodeRuneInString(name2)
	if r1 == r2 {
		score += sameInitialBump
		if score > ScoreMax {
			score = ScoreMax
		}
	}
	if strings.HasSuffix(name1, "a") || strings.HasSuffix(name2, "a") {
		score -= trailingAPenalty
		if score < 0 {
			score = 0
		}
	}
	return score
}

// Compatible renders a pseudo-random compatibility score for two names.
func (s *Set) Compatible(ctx context.Context, req *request.Request) (response.Response, error) {
	q, err := queryOf(req.Path, MarkerCompatible)
	if err != nil {
		return response.Response{}, compatibleError(routeerr.TypeMismatch, err.Error(), err)
	}

	name1, _ := q.Get("name1")
	name2, _ := q.Get("name2")
	if name1 == "" || name2 == "" {
		return response.Response{}, compatibleError(routeerr.MissingParameter, "name1 and name2 are required", nil)
	}

	base := ScoreMin + s.rng.Float64()*(ScoreMax-ScoreMin)
	score := Score(name1, name2, base)

	symbol := "&#128148"
	if score > 50 {
		symbol = "&#x1F496"
	}

	body := fmt.Sprintf(`<html>
    <style>
        p {text-align: center;}
    </style>
    <p>%s + %s</p>
    <p style="font-size:50px;">%s</p>
    <p>%.2f%%</p>
    <p>Compatible</p>
</html>
`, html.EscapeString(name1), html.EscapeString(name2), symbol, score)
	return response.OK(response.HTML, body), nil
}

func compatibleError(code routeerr.ErrorCode, msg string, cause error) error {
	return routeerr.NewRouteError(code, msg, cause).
		WithCauses(compatibleCauses...).
		WithUsage(compatibleUsage)
}
