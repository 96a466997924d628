package models

import (
	"net/url"
	"strconv"
	"strings"
)

// Bool returns a pointer to v, for filling optional collection switches.
func Bool(v bool) *bool { return &v }

// Int returns a pointer to v, for filling optional collection parameters.
func Int(v int64) *int64 { return &v }

// Float returns a pointer to v, for filling optional collection parameters.
func Float(v float64) *float64 { return &v }

// String returns a pointer to v, for filling optional collection parameters.
func String(v string) *string { return &v }

func setBoolParam(q url.Values, name string, v *bool) {
	if v != nil {
		q.Set(name, strconv.FormatBool(*v))
	}
}

func setIntParam(q url.Values, name string, v *int64) {
	if v != nil {
		q.Set(name, strconv.FormatInt(*v, 10))
	}
}

func setFloatParam(q url.Values, name string, v *float64) {
	if v != nil {
		q.Set(name, strconv.FormatFloat(*v, 'f', -1, 64))
	}
}

func setStringParam(q url.Values, name string, v *string) {
	if v != nil {
		q.Set(name, *v)
	}
}

func setIntsParam(q url.Values, name string, vs []int64) {
	if len(vs) == 0 {
		return
	}
	parts := make([]string, 0, len(vs))
	for _, v := range vs {
		parts = append(parts, strconv.FormatInt(v, 10))
	}
	q.Set(name, strings.Join(parts, ","))
}
