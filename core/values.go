package core

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/kndndrj/statpipe/core/formula"
)

// isMissing reports whether a cell is null or a NaN number.
func isMissing(v any) bool {
	if v == nil {
		return true
	}
	f, ok := formula.Normalize(v).(float64)
	return ok && math.IsNaN(f)
}

// joinKey encodes cells so that equal values produce equal keys regardless
// of their Go numeric type. ok is false when any cell is missing.
func joinKey(row Row, idx []int) (string, bool) {
	var sb strings.Builder
	for n, i := range idx {
		v := row[i]
		if isMissing(v) {
			return "", false
		}
		if n > 0 {
			sb.WriteByte('|')
		}
		if num, ok := numberOf(v); ok {
			sb.WriteString(numberKey(num))
			continue
		}
		switch x := formula.Normalize(v).(type) {
		case string:
			sb.WriteString("s:")
			sb.WriteString(strconv.Quote(x))
		case bool:
			sb.WriteString("b:")
			sb.WriteString(strconv.FormatBool(x))
		default:
			sb.WriteString("o:")
			sb.WriteString(strconv.Quote(fmt.Sprint(x)))
		}
	}
	return sb.String(), true
}

// numberOf returns numeric cells as int64, uint64 or float64.
func numberOf(v any) (any, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return uint64(n), true
	case uint8:
		return uint64(n), true
	case uint16:
		return uint64(n), true
	case uint32:
		return uint64(n), true
	case uint64:
		return n, true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		if f, err := n.Float64(); err == nil {
			return f, true
		}
	}
	return nil, false
}

// numberKey encodes a number so that integers and floats of the same value
// share a key. Integers a float64 cannot hold exactly keep their digits.
func numberKey(n any) string {
	switch x := n.(type) {
	case int64:
		f := float64(x)
		if f >= -(1<<63) && f < 1<<63 && int64(f) == x {
			return "n:" + strconv.FormatFloat(f, 'g', -1, 64)
		}
		return "i:" + strconv.FormatInt(x, 10)
	case uint64:
		f := float64(x)
		if f < 1<<64 && uint64(f) == x {
			return "n:" + strconv.FormatFloat(f, 'g', -1, 64)
		}
		return "i:" + strconv.FormatUint(x, 10)
	}
	f := n.(float64)
	if f == 0 {
		// -0 and 0 are the same key
		f = 0
	}
	return "n:" + strconv.FormatFloat(f, 'g', -1, 64)
}

// compareNumbers orders two results of numberOf without losing integer
// precision.
func compareNumbers(a, b any) int {
	switch x := a.(type) {
	case int64:
		if y, ok := b.(int64); ok {
			return cmpOrdered(x, y)
		}
	case uint64:
		if y, ok := b.(uint64); ok {
			return cmpOrdered(x, y)
		}
	case float64:
		if y, ok := b.(float64); ok {
			return cmpOrdered(x, y)
		}
	}
	return bigFloat(a).Cmp(bigFloat(b))
}

func bigFloat(n any) *big.Float {
	switch x := n.(type) {
	case int64:
		return new(big.Float).SetInt64(x)
	case uint64:
		return new(big.Float).SetUint64(x)
	}
	return big.NewFloat(n.(float64))
}

func cmpOrdered[T int64 | uint64 | float64](x, y T) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

func typeRank(v any) int {
	switch v.(type) {
	case float64:
		return 0
	case string:
		return 1
	case bool:
		return 2
	case time.Time:
		return 3
	default:
		return 4
	}
}

// compareValues orders two non missing cells. Values of different types are
// ordered numbers, strings, booleans, times, anything else.
func compareValues(a, b any) int {
	na, aok := numberOf(a)
	nb, bok := numberOf(b)
	if aok && bok {
		return compareNumbers(na, nb)
	}

	a, b = formula.Normalize(a), formula.Normalize(b)
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		return ra - rb
	}

	switch x := a.(type) {
	case float64:
		return cmpOrdered(x, b.(float64))
	case string:
		return strings.Compare(x, b.(string))
	case bool:
		y := b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		}
		return 1
	case time.Time:
		return x.Compare(b.(time.Time))
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
