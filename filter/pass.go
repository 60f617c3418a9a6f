package filter

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/ballistics/pointdeck/record"
)

type quantileFunc = func(d interface{}, groups interface{}, metric string, q interface{}) bool

// pass is the state of one filter run: environment copies of the records
// and the quantile buckets computed so far.
type pass struct {
	data     []map[string]interface{}
	position map[uintptr]int
	buckets  map[string]map[string][]int
}

func newPass(records []record.Record) *pass {
	p := &pass{
		data:     make([]map[string]interface{}, len(records)),
		position: make(map[uintptr]int, len(records)),
		buckets:  make(map[string]map[string][]int),
	}
	for i, r := range records {
		env := make(map[string]interface{}, len(r))
		for k, v := range r {
			env[k] = v
		}
		p.data[i] = env
		p.position[reflect.ValueOf(env).Pointer()] = i
	}
	return p
}

func (p *pass) run(program *vm.Program, i int) (bool, error) {
	env := map[string]interface{}{
		VarRecord:    p.data[i],
		VarIndex:     i,
		VarData:      p.data,
		BuiltinQuant: quantileFunc(p.quantile),
	}
	result, err := expr.Run(program, env)
	if err != nil {
		return false, err
	}
	return truthy(result)
}

// quantile reports whether d is the element at floor((n-1)*q) of its group,
// where records are grouped by the values of the group fields and ordered by
// the numeric metric field. Records without a numeric metric belong to no
// group.
func (p *pass) quantile(d interface{}, groups interface{}, metric string, q interface{}) bool {
	m, ok := d.(map[string]interface{})
	if !ok {
		return false
	}
	pos, ok := p.position[reflect.ValueOf(m).Pointer()]
	if !ok {
		return false
	}
	frac, ok := record.Number(q)
	if !ok || frac < 0 || frac > 1 {
		return false
	}
	fields := groupFields(groups)

	bucketKey := strings.Join(fields, "\x1f") + "\x1e" + metric
	buckets, ok := p.buckets[bucketKey]
	if !ok {
		buckets = p.buildBuckets(fields, metric)
		p.buckets[bucketKey] = buckets
	}
	bucket := buckets[groupKey(m, fields)]
	if len(bucket) == 0 {
		return false
	}
	return bucket[int(math.Floor(float64(len(bucket)-1)*frac))] == pos
}

func (p *pass) buildBuckets(fields []string, metric string) map[string][]int {
	buckets := make(map[string][]int)
	for i, env := range p.data {
		if _, ok := record.Number(env[metric]); !ok {
			continue
		}
		key := groupKey(env, fields)
		buckets[key] = append(buckets[key], i)
	}
	for _, bucket := range buckets {
		sort.SliceStable(bucket, func(a, b int) bool {
			av, _ := record.Number(p.data[bucket[a]][metric])
			bv, _ := record.Number(p.data[bucket[b]][metric])
			return av < bv
		})
	}
	return buckets
}

func groupKey(env map[string]interface{}, fields []string) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = groupValue(env, f)
	}
	return strings.Join(parts, "\x1f")
}

// groupValue renders one grouping field. "year(date)" groups by the part of
// date before the first '-', so "1820-05-01" and "1820-07-12" share a group.
func groupValue(env map[string]interface{}, field string) string {
	field = strings.TrimSpace(field)
	if inner, ok := strings.CutPrefix(field, "year("); ok && strings.HasSuffix(inner, ")") {
		year, _, _ := strings.Cut(record.String(env[strings.TrimSuffix(inner, ")")]), "-")
		return strings.TrimSpace(year)
	}
	return record.String(env[field])
}

func groupFields(groups interface{}) []string {
	switch g := groups.(type) {
	case string:
		if g == "" {
			return nil
		}
		return strings.Split(g, ",")
	case []string:
		return g
	case []interface{}:
		fields := make([]string, 0, len(g))
		for _, f := range g {
			fields = append(fields, fmt.Sprint(f))
		}
		return fields
	default:
		return nil
	}
}
